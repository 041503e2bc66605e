package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alphinex07/UpstoX-Trader/internal/domain"
)

func testRecord(id string) *domain.OrderRecord {
	return domain.NewOrderRecord(id, domain.OrderRequest{
		Symbol:          "RELIANCE",
		TransactionType: domain.SideBuy,
		Quantity:        5,
		OrderType:       domain.OrderTypeMarket,
		Product:         domain.ProductIntraday,
		Validity:        domain.ValidityDay,
		StopLossMicros:  2_500_000_000,
	}, 738561, 1000)
}

func TestLedgerStore_SaveAndLoad(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	store, err := NewLedgerStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	rec1 := testRecord("ord-1")
	rec2 := testRecord("ord-2")

	if err := store.SaveRecord(ctx, rec1); err != nil {
		t.Fatalf("Failed to save rec1: %v", err)
	}
	if err := store.SaveRecord(ctx, rec2); err != nil {
		t.Fatalf("Failed to save rec2: %v", err)
	}

	// A state change overwrites the snapshot but appends to the audit trail.
	if err := rec1.ApplyTransition(domain.StatePlaced, "order_id=X", 2000); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveRecord(ctx, rec1); err != nil {
		t.Fatalf("Failed to save rec1 transition: %v", err)
	}

	loaded, err := store.LoadRecords(ctx)
	if err != nil {
		t.Fatalf("Failed to load records: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(loaded))
	}

	// Insertion order survives the round trip.
	if loaded[0].ID != "ord-1" || loaded[1].ID != "ord-2" {
		t.Errorf("order mismatch: got %s, %s", loaded[0].ID, loaded[1].ID)
	}

	if loaded[0].State != domain.StatePlaced {
		t.Errorf("rec1 state = %s, want PLACED", loaded[0].State)
	}
	if len(loaded[0].History) != 2 {
		t.Errorf("rec1 history length = %d, want 2", len(loaded[0].History))
	}

	count, err := store.TransitionCount(ctx, "ord-1")
	if err != nil {
		t.Fatalf("TransitionCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("transition rows for ord-1 = %d, want 2", count)
	}
}

func TestLedgerStore_EmptyLoad(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	store, err := NewLedgerStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	loaded, err := store.LoadRecords(context.Background())
	if err != nil {
		t.Fatalf("LoadRecords failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty load, got %d records", len(loaded))
	}
}

func TestLedgerStore_ReopenPreservesHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	store, err := NewLedgerStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	rec := testRecord("ord-1")
	if err := store.SaveRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := NewLedgerStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.LoadRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 || loaded[0].Request.StopLossMicros != 2_500_000_000 {
		t.Errorf("reopened load = %+v", loaded)
	}
}
