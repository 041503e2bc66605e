package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alphinex07/UpstoX-Trader/internal/domain"
	"github.com/alphinex07/UpstoX-Trader/internal/infra/upstox"
	"github.com/alphinex07/UpstoX-Trader/internal/ledger"
	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
)

type fakeQuoter struct {
	mu     sync.Mutex
	prices map[int64]quant.PriceMicros
	errs   map[int64]error
	calls  map[int64]int
}

func newFakeQuoter() *fakeQuoter {
	return &fakeQuoter{
		prices: make(map[int64]quant.PriceMicros),
		errs:   make(map[int64]error),
		calls:  make(map[int64]int),
	}
}

func (q *fakeQuoter) LTP(ctx context.Context, token int64) (quant.PriceMicros, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls[token]++
	if err, ok := q.errs[token]; ok {
		return 0, err
	}
	return q.prices[token], nil
}

type fakeSubmitter struct {
	mu       sync.Mutex
	requests []domain.OrderRequest
	err      error
	seq      int
}

func (s *fakeSubmitter) Submit(ctx context.Context, req domain.OrderRequest) (*domain.OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.requests = append(s.requests, req)
	s.seq++
	rec := domain.NewOrderRecord("EXIT-"+string(rune('0'+s.seq)), req, req.InstrumentToken, 1000)
	return rec, nil
}

func (s *fakeSubmitter) submitted() []domain.OrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OrderRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// activeRecord walks a protected BUY to ACTIVE and registers it.
func activeRecord(t *testing.T, l *ledger.Ledger, m *Monitor, id, symbol string, token int64, stop quant.PriceMicros) {
	t.Helper()
	req := domain.OrderRequest{
		Symbol:          symbol,
		InstrumentToken: token,
		TransactionType: domain.SideBuy,
		Quantity:        5,
		OrderType:       domain.OrderTypeMarket,
		Product:         domain.ProductIntraday,
		Validity:        domain.ValidityDay,
		StopLossMicros:  stop,
	}
	rec := domain.NewOrderRecord(id, req, token, 1000)
	rec.BrokerOrderID = "UPX-" + id
	if err := l.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	for _, s := range []domain.State{domain.StatePlaced, domain.StateFilled, domain.StateActive} {
		if _, err := l.Transition(context.Background(), id, s, "test setup"); err != nil {
			t.Fatalf("Transition(%s) error = %v", s, err)
		}
	}
	got, _ := l.Get(id)
	m.Register(domain.NewMonitoredPosition(got))
}

func newTestMonitor(q Quoter) (*Monitor, *ledger.Ledger, *fakeSubmitter) {
	l := ledger.New(nil)
	m := New(q, l, time.Second)
	sub := &fakeSubmitter{}
	m.SetSubmitter(sub)
	return m, l, sub
}

func TestNoBreachNoExit(t *testing.T) {
	q := newFakeQuoter()
	q.prices[2885] = quant.ToPriceMicros(2600)
	m, l, sub := newTestMonitor(q)
	activeRecord(t, l, m, "ord-1", "RELIANCE", 2885, quant.ToPriceMicros(2500))

	m.RunCycle(context.Background())

	if len(sub.submitted()) != 0 {
		t.Error("exit submitted above the stop price")
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestBreachTriggersExit(t *testing.T) {
	q := newFakeQuoter()
	q.prices[2885] = quant.ToPriceMicros(2500) // exact touch triggers
	m, l, sub := newTestMonitor(q)
	activeRecord(t, l, m, "ord-1", "RELIANCE", 2885, quant.ToPriceMicros(2500))

	m.RunCycle(context.Background())

	exits := sub.submitted()
	if len(exits) != 1 {
		t.Fatalf("submitted %d exit orders, want 1", len(exits))
	}
	exit := exits[0]
	if exit.TransactionType != domain.SideSell || exit.OrderType != domain.OrderTypeMarket {
		t.Errorf("exit is %s %s, want SELL MARKET", exit.TransactionType, exit.OrderType)
	}
	if exit.Product != domain.ProductIntraday || exit.Validity != domain.ValidityDay {
		t.Error("exit did not inherit product and validity")
	}
	if exit.Quantity != 5 {
		t.Errorf("exit quantity = %d, want 5", exit.Quantity)
	}

	if m.Count() != 0 {
		t.Errorf("position still watched after exit, Count() = %d", m.Count())
	}

	rec, _ := l.Get("ord-1")
	if rec.State != domain.StateClosed {
		t.Errorf("originator state = %s, want %s", rec.State, domain.StateClosed)
	}
	// ... -> ACTIVE -> STOP_TRIGGERED -> CLOSED
	if len(rec.History) != 6 {
		t.Errorf("history length = %d, want 6", len(rec.History))
	}
}

func TestQuoteFailureIsolation(t *testing.T) {
	q := newFakeQuoter()
	q.errs[2885] = domain.ErrQuoteUnavailable
	q.prices[11536] = quant.ToPriceMicros(3000)
	m, l, sub := newTestMonitor(q)
	activeRecord(t, l, m, "ord-1", "RELIANCE", 2885, quant.ToPriceMicros(2500))
	activeRecord(t, l, m, "ord-2", "TCS", 11536, quant.ToPriceMicros(3100))

	m.RunCycle(context.Background())

	exits := sub.submitted()
	if len(exits) != 1 || exits[0].Symbol != "TCS" {
		t.Fatalf("exits = %+v, want exactly the TCS exit", exits)
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want the unquotable position retained", m.Count())
	}
}

func TestFailedExitRetriesNextCycle(t *testing.T) {
	q := newFakeQuoter()
	q.prices[2885] = quant.ToPriceMicros(2400)
	m, l, sub := newTestMonitor(q)
	activeRecord(t, l, m, "ord-1", "RELIANCE", 2885, quant.ToPriceMicros(2500))

	sub.err = &domain.TransportError{Op: "place order", Err: errors.New("timeout")}
	m.RunCycle(context.Background())

	if m.Count() != 1 {
		t.Fatal("position dropped despite failed exit submission")
	}
	rec, _ := l.Get("ord-1")
	if rec.State != domain.StateActive {
		t.Errorf("originator state = %s, want still %s", rec.State, domain.StateActive)
	}

	sub.mu.Lock()
	sub.err = nil
	sub.mu.Unlock()
	m.RunCycle(context.Background())

	if m.Count() != 0 {
		t.Error("position not released after successful retry")
	}
	rec, _ = l.Get("ord-1")
	if rec.State != domain.StateClosed {
		t.Errorf("originator state = %s, want %s", rec.State, domain.StateClosed)
	}
}

func TestOneQuotePerInstrument(t *testing.T) {
	q := newFakeQuoter()
	q.prices[2885] = quant.ToPriceMicros(2600)
	m, l, _ := newTestMonitor(q)
	activeRecord(t, l, m, "ord-1", "RELIANCE", 2885, quant.ToPriceMicros(2500))
	activeRecord(t, l, m, "ord-2", "RELIANCE", 2885, quant.ToPriceMicros(2450))

	m.RunCycle(context.Background())

	if q.calls[2885] != 1 {
		t.Errorf("quoted token 2885 %d times in one cycle, want 1", q.calls[2885])
	}
}

func TestDeregisterIdempotent(t *testing.T) {
	q := newFakeQuoter()
	m, l, _ := newTestMonitor(q)
	activeRecord(t, l, m, "ord-1", "RELIANCE", 2885, quant.ToPriceMicros(2500))

	m.Deregister("ord-1")
	m.Deregister("ord-1")
	m.Deregister("never-registered")

	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	q := newFakeQuoter()
	m, _, _ := newTestMonitor(q)
	m.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop on context cancel")
	}
}

func TestCachedQuoterPrefersFreshCache(t *testing.T) {
	cache := upstox.NewPriceCache()
	cache.Put(2885, quant.ToPriceMicros(2550))

	fallback := newFakeQuoter()
	fallback.prices[2885] = quant.ToPriceMicros(2500)

	cq := NewCachedQuoter(cache, fallback, time.Minute)
	ltp, err := cq.LTP(context.Background(), 2885)
	if err != nil {
		t.Fatalf("LTP() error = %v", err)
	}
	if ltp != quant.ToPriceMicros(2550) {
		t.Errorf("LTP() = %s, want cached 2550", ltp)
	}
	if fallback.calls[2885] != 0 {
		t.Error("fresh cache hit still called the fallback")
	}
}

func TestCachedQuoterFallsBackWhenStale(t *testing.T) {
	cache := upstox.NewPriceCache()

	fallback := newFakeQuoter()
	fallback.prices[2885] = quant.ToPriceMicros(2500)

	cq := NewCachedQuoter(cache, fallback, time.Minute)
	ltp, err := cq.LTP(context.Background(), 2885)
	if err != nil {
		t.Fatalf("LTP() error = %v", err)
	}
	if ltp != quant.ToPriceMicros(2500) {
		t.Errorf("LTP() = %s, want fallback 2500", ltp)
	}
	if fallback.calls[2885] != 1 {
		t.Errorf("fallback called %d times, want 1", fallback.calls[2885])
	}
}
