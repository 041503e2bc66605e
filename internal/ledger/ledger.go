package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alphinex07/UpstoX-Trader/internal/domain"
	"github.com/alphinex07/UpstoX-Trader/internal/storage"
	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
)

// Ledger is the registry of every order submitted in a run. One entry per
// accepted request, insertion-ordered, forward-only state machine per record.
// Reads are concurrent; transitions to the same record are serialized by a
// per-entry lock, and readers only ever see fully-applied transitions.
//
// The ledger is an owned instance passed to the engine and the monitor, not
// a package-level singleton, so concurrent runs and tests stay independent.
type Ledger struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	byBroker map[string]string // broker order id -> ledger id
	order    []string          // insertion order

	store *storage.LedgerStore // optional durable copy

	now func() quant.TimeStamp
}

type entry struct {
	mu  sync.Mutex
	rec *domain.OrderRecord
}

// New creates a ledger. store may be nil for a purely in-memory run.
func New(store *storage.LedgerStore) *Ledger {
	return &Ledger{
		entries:  make(map[string]*entry),
		byBroker: make(map[string]string),
		store:    store,
		now:      func() quant.TimeStamp { return quant.TimeStamp(time.Now().UnixMicro()) },
	}
}

// Restore rebuilds the in-memory state from the durable copy.
func (l *Ledger) Restore(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	records, err := l.store.LoadRecords(ctx)
	if err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range records {
		l.entries[rec.ID] = &entry{rec: rec}
		l.order = append(l.order, rec.ID)
		if rec.BrokerOrderID != "" {
			l.byBroker[rec.BrokerOrderID] = rec.ID
		}
	}

	if len(records) > 0 {
		slog.Info("Ledger restored", slog.Int("records", len(records)))
	}
	return nil
}

// Record registers a new order record. Exactly one entry may exist per ID.
func (l *Ledger) Record(ctx context.Context, rec *domain.OrderRecord) error {
	l.mu.Lock()
	if _, exists := l.entries[rec.ID]; exists {
		l.mu.Unlock()
		return fmt.Errorf("duplicate ledger entry for order %s", rec.ID)
	}
	l.entries[rec.ID] = &entry{rec: rec}
	l.order = append(l.order, rec.ID)
	l.mu.Unlock()

	l.persist(ctx, rec)
	return nil
}

// Apply runs a serialized mutation against one record. mutate must move the
// record forward through the state machine (or append a note); on success the
// updated record is persisted and a clone is returned.
func (l *Ledger) Apply(ctx context.Context, id string, mutate func(*domain.OrderRecord) error) (*domain.OrderRecord, error) {
	e, ok := l.lookup(id)
	if !ok {
		return nil, fmt.Errorf("no ledger entry for order %s", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := mutate(e.rec); err != nil {
		return nil, err
	}

	if e.rec.BrokerOrderID != "" {
		l.mu.Lock()
		l.byBroker[e.rec.BrokerOrderID] = e.rec.ID
		l.mu.Unlock()
	}

	l.persist(ctx, e.rec)
	return e.rec.Clone(), nil
}

// Transition moves a record to the next state with a reason.
func (l *Ledger) Transition(ctx context.Context, id string, to domain.State, reason string) (*domain.OrderRecord, error) {
	return l.Apply(ctx, id, func(rec *domain.OrderRecord) error {
		return rec.ApplyTransition(to, reason, l.now())
	})
}

// Note appends a history entry without changing state (ambiguous outcomes).
func (l *Ledger) Note(ctx context.Context, id string, reason string) error {
	_, err := l.Apply(ctx, id, func(rec *domain.OrderRecord) error {
		rec.AppendNote(reason, l.now())
		return nil
	})
	return err
}

// Get returns a clone of one record by ledger ID or broker order ID.
func (l *Ledger) Get(id string) (*domain.OrderRecord, bool) {
	e, ok := l.lookup(id)
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec.Clone(), true
}

// List returns clones of all records in insertion order.
func (l *Ledger) List() []*domain.OrderRecord {
	l.mu.RLock()
	ids := make([]string, len(l.order))
	copy(ids, l.order)
	l.mu.RUnlock()

	out := make([]*domain.OrderRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := l.Get(id); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// CountByState returns how many records currently sit in a state.
func (l *Ledger) CountByState(state domain.State) int {
	count := 0
	for _, rec := range l.List() {
		if rec.State == state {
			count++
		}
	}
	return count
}

func (l *Ledger) lookup(id string) (*entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if e, ok := l.entries[id]; ok {
		return e, true
	}
	if ledgerID, ok := l.byBroker[id]; ok {
		e, ok := l.entries[ledgerID]
		return e, ok
	}
	return nil, false
}

// persist writes the durable copy. A storage failure is logged, not fatal:
// the in-memory ledger remains authoritative for the rest of the run.
func (l *Ledger) persist(ctx context.Context, rec *domain.OrderRecord) {
	if l.store == nil {
		return
	}
	if err := l.store.SaveRecord(ctx, rec); err != nil {
		slog.Error("Ledger persistence failed",
			slog.String("order", rec.ID),
			slog.Any("error", err))
	}
}
