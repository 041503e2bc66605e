package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for local failures. These surface synchronously from
// Submit and never reach the broker.
var (
	ErrInvalidRequest    = errors.New("invalid order request")
	ErrUnknownInstrument = errors.New("unknown instrument")

	// ErrQuoteUnavailable is cycle-local in the monitor: log, skip the
	// position this cycle, never abort the loop.
	ErrQuoteUnavailable = errors.New("quote unavailable")
)

// BrokerRejection means the broker explicitly refused the order. Terminal for
// the record; never retried automatically, since resubmitting a rejected
// order may duplicate intent.
type BrokerRejection struct {
	Code    string
	Message string
}

func (e *BrokerRejection) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("broker rejected order: %s", e.Message)
	}
	return fmt.Sprintf("broker rejected order [%s]: %s", e.Code, e.Message)
}

// TransportError means the call to the broker failed in transit and the true
// outcome is unknown. The record stays in its last confirmed state; reconcile
// via the order-status endpoint before any retry, never resubmit blindly.
type TransportError struct {
	Op  string // "place", "status", "quote"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("broker transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRejection reports whether err is a broker-side refusal.
func IsRejection(err error) bool {
	var br *BrokerRejection
	return errors.As(err, &br)
}

// IsTransport reports whether err is an ambiguous transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
