package domain

import (
	"fmt"

	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
)

// State is the lifecycle state of an OrderRecord.
type State string

const (
	StateSubmitted     State = "SUBMITTED"
	StatePlaced        State = "PLACED"
	StateFilled        State = "FILLED"
	StateActive        State = "ACTIVE" // filled BUY with a live stop-loss
	StateStopTriggered State = "STOP_TRIGGERED"
	StateClosed        State = "CLOSED"
	StateFailed        State = "FAILED"
)

// validTransitions encodes the forward-only state machine. A record never
// moves backward and terminal states have no exits.
var validTransitions = map[State][]State{
	StateSubmitted:     {StatePlaced, StateFailed},
	StatePlaced:        {StateFilled, StateFailed},
	StateFilled:        {StateActive, StateClosed},
	StateActive:        {StateStopTriggered, StateClosed},
	StateStopTriggered: {StateClosed},
}

// CanTransition reports whether s may move to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state has no outgoing transitions.
func (s State) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// Transition is one entry in a record's append-only event history.
type Transition struct {
	From    State           `json:"from"`
	To      State           `json:"to"`
	Reason  string          `json:"reason,omitempty"`
	AtUnixM quant.TimeStamp `json:"at"`
}

// OrderRecord tracks one accepted request through its lifecycle. It is
// created by the execution engine and owned by the ledger afterwards: all
// mutation goes through the ledger, which serializes transitions per record.
type OrderRecord struct {
	ID            string          `json:"id"` // engine-assigned, stable before placement
	BrokerOrderID string          `json:"broker_order_id,omitempty"`
	Request       OrderRequest    `json:"request"`
	Token         int64           `json:"token"` // resolved instrument token
	State         State           `json:"state"`
	History       []Transition    `json:"history"`
	CreatedUnixM  quant.TimeStamp `json:"created_at"`
}

// NewOrderRecord creates a record in SUBMITTED with its opening history entry.
func NewOrderRecord(id string, req OrderRequest, token int64, at quant.TimeStamp) *OrderRecord {
	return &OrderRecord{
		ID:           id,
		Request:      req,
		Token:        token,
		State:        StateSubmitted,
		History:      []Transition{{To: StateSubmitted, Reason: "accepted", AtUnixM: at}},
		CreatedUnixM: at,
	}
}

// ApplyTransition moves the record forward and appends to its history.
// Callers (the ledger) must hold the record's write serialization.
func (r *OrderRecord) ApplyTransition(to State, reason string, at quant.TimeStamp) error {
	if !r.State.CanTransition(to) {
		return fmt.Errorf("illegal transition %s -> %s for order %s", r.State, to, r.ID)
	}
	r.History = append(r.History, Transition{From: r.State, To: to, Reason: reason, AtUnixM: at})
	r.State = to
	return nil
}

// AppendNote records an event without changing state. Used for ambiguous
// outcomes (transport errors) that leave the true broker-side state unknown.
func (r *OrderRecord) AppendNote(reason string, at quant.TimeStamp) {
	r.History = append(r.History, Transition{From: r.State, To: r.State, Reason: reason, AtUnixM: at})
}

// Clone returns a deep copy safe to hand to readers while transitions are
// being applied elsewhere.
func (r *OrderRecord) Clone() *OrderRecord {
	cp := *r
	cp.History = make([]Transition, len(r.History))
	copy(cp.History, r.History)
	return &cp
}
