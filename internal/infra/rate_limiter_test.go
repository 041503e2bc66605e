package infra

import (
	"testing"
	"time"
)

func TestRateLimiter_TryAcquire(t *testing.T) {
	rl := NewRateLimiter(2, 10)

	if !rl.TryAcquire() {
		t.Error("expected first TryAcquire to succeed")
	}
	if !rl.TryAcquire() {
		t.Error("expected second TryAcquire to succeed")
	}
	if rl.TryAcquire() {
		t.Error("expected third TryAcquire to fail")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(1, 10)

	if !rl.TryAcquire() {
		t.Error("expected first TryAcquire to succeed")
	}
	if rl.TryAcquire() {
		t.Error("expected immediate TryAcquire to fail")
	}

	// 120ms at 10 tokens/s refills at least one token.
	time.Sleep(120 * time.Millisecond)

	if !rl.TryAcquire() {
		t.Error("expected TryAcquire to succeed after refill")
	}
}

func TestRateLimiter_Wait(t *testing.T) {
	rl := NewRateLimiter(1, 100)

	rl.Wait() // consumes the only token

	start := time.Now()
	rl.Wait() // must block for roughly one refill interval
	elapsed := time.Since(start)

	if elapsed < 5*time.Millisecond {
		t.Errorf("Wait returned too fast: %s", elapsed)
	}
}

func TestUpstoxLimiters_Distinct(t *testing.T) {
	if GetUpstoxOrderLimiter() == GetUpstoxQuoteLimiter() {
		t.Error("order and quote endpoints must not share a bucket")
	}
}
