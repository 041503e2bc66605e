package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/alphinex07/UpstoX-Trader/internal/domain"
)

// LedgerStore persists order records and their transition history in SQLite.
// The ledger itself stays in memory; this is the durable copy that survives a
// restart, with the event history append-only per record.
type LedgerStore struct {
	db *sql.DB
}

// NewLedgerStore opens (or creates) the SQLite ledger database with WAL mode enabled.
func NewLedgerStore(dbPath string) (*LedgerStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Configure SQLite for a single-writer durable log
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;", // 2MB cache
		"PRAGMA foreign_keys=ON;",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	// orders holds the latest snapshot of each record; seq preserves
	// insertion order for Ledger.List after a restart.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			state TEXT NOT NULL,
			record BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create orders table: %w", err)
	}

	// transitions is the append-only audit trail. Rows are only ever
	// inserted, mirroring the in-memory history.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			reason TEXT NOT NULL,
			at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create transitions table: %w", err)
	}

	return &LedgerStore{db: db}, nil
}

// SaveRecord upserts the latest snapshot of a record and appends its newest
// history entry to the audit trail.
func (s *LedgerStore) SaveRecord(ctx context.Context, rec *domain.OrderRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", rec.ID, err)
	}

	last := rec.History[len(rec.History)-1]

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, state, record, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET state=excluded.state, record=excluded.record, updated_at=excluded.updated_at`,
		rec.ID, string(rec.State), payload, int64(last.AtUnixM),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert order %s: %w", rec.ID, err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO transitions (order_id, from_state, to_state, reason, at) VALUES (?, ?, ?, ?, ?)",
		rec.ID, string(last.From), string(last.To), last.Reason, int64(last.AtUnixM),
	)
	if err != nil {
		return fmt.Errorf("failed to append transition for %s: %w", rec.ID, err)
	}

	return tx.Commit()
}

// LoadRecords loads all persisted records in insertion order.
// Used to rebuild the in-memory ledger after a restart.
func (s *LedgerStore) LoadRecords(ctx context.Context) ([]*domain.OrderRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT record FROM orders ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var records []*domain.OrderRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		var rec domain.OrderRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}

// TransitionCount returns the number of audit rows for one order.
func (s *LedgerStore) TransitionCount(ctx context.Context, orderID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transitions WHERE order_id = ?", orderID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transitions: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *LedgerStore) Close() error {
	return s.db.Close()
}
