package domain

import "testing"

func TestState_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{"SubmittedToPlaced", StateSubmitted, StatePlaced, true},
		{"SubmittedToFailed", StateSubmitted, StateFailed, true},
		{"PlacedToFilled", StatePlaced, StateFilled, true},
		{"PlacedToFailed", StatePlaced, StateFailed, true},
		{"FilledToActive", StateFilled, StateActive, true},
		{"FilledToClosed", StateFilled, StateClosed, true},
		{"ActiveToStopTriggered", StateActive, StateStopTriggered, true},
		{"ActiveToClosed", StateActive, StateClosed, true},
		{"StopTriggeredToClosed", StateStopTriggered, StateClosed, true},
		{"NoBackward", StatePlaced, StateSubmitted, false},
		{"NoSkipToActive", StateSubmitted, StateActive, false},
		{"FailedIsTerminal", StateFailed, StatePlaced, false},
		{"ClosedIsTerminal", StateClosed, StateActive, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("%s.CanTransition(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestState_IsTerminal(t *testing.T) {
	for _, s := range []State{StateClosed, StateFailed} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []State{StateSubmitted, StatePlaced, StateFilled, StateActive, StateStopTriggered} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestOrderRecord_ApplyTransition(t *testing.T) {
	rec := NewOrderRecord("ord-1", validBuy(), 738561, 1000)

	if rec.State != StateSubmitted {
		t.Fatalf("new record state = %s, want SUBMITTED", rec.State)
	}
	if len(rec.History) != 1 || rec.History[0].To != StateSubmitted {
		t.Fatalf("new record history = %+v", rec.History)
	}

	if err := rec.ApplyTransition(StatePlaced, "order_id=X", 2000); err != nil {
		t.Fatalf("SUBMITTED->PLACED failed: %v", err)
	}
	if err := rec.ApplyTransition(StateSubmitted, "rewind", 3000); err == nil {
		t.Error("expected backward transition to fail")
	}
	if rec.State != StatePlaced {
		t.Errorf("failed transition mutated state to %s", rec.State)
	}
	if len(rec.History) != 2 {
		t.Errorf("history length = %d, want 2", len(rec.History))
	}
}

func TestOrderRecord_AppendNote(t *testing.T) {
	rec := NewOrderRecord("ord-1", validBuy(), 738561, 1000)
	rec.AppendNote("placement outcome unknown", 2000)

	if rec.State != StateSubmitted {
		t.Errorf("note changed state to %s", rec.State)
	}
	if len(rec.History) != 2 || rec.History[1].From != StateSubmitted || rec.History[1].To != StateSubmitted {
		t.Errorf("note entry = %+v", rec.History)
	}
}

func TestOrderRecord_Clone(t *testing.T) {
	rec := NewOrderRecord("ord-1", validBuy(), 738561, 1000)
	snap := rec.Clone()

	rec.ApplyTransition(StatePlaced, "", 2000)

	if snap.State != StateSubmitted || len(snap.History) != 1 {
		t.Errorf("clone observed a later mutation: %+v", snap)
	}
}
