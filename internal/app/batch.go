package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/alphinex07/UpstoX-Trader/internal/domain"
)

// LoadBatch reads a JSON array of order requests to submit on startup.
// Rows are not validated here; the engine rejects bad rows one by one so a
// single malformed order never sinks the whole batch.
func LoadBatch(path string) ([]domain.OrderRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}

	var reqs []domain.OrderRequest
	if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("parse batch file %s: %w", path, err)
	}

	slog.Info("Batch file loaded", slog.String("path", path), slog.Int("orders", len(reqs)))
	return reqs, nil
}
