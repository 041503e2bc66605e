package instruments

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alphinex07/UpstoX-Trader/internal/domain"
)

// Resolver maps NSE trading symbols to Upstox instrument tokens. The table is
// loaded once at startup and read-only afterwards, so lookups need no lock.
type Resolver struct {
	bySymbol map[string]int64
}

type instrumentEntry struct {
	Symbol          string `json:"symbol"`
	InstrumentToken int64  `json:"instrument_token"`
}

// Load reads the instrument table (NSE.json format: an array of
// {symbol, instrument_token}). Entries without both fields are skipped.
func Load(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instrument table: %w", err)
	}

	var entries []instrumentEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse instrument table: %w", err)
	}

	r := &Resolver{bySymbol: make(map[string]int64, len(entries))}
	for _, e := range entries {
		if e.Symbol == "" || e.InstrumentToken == 0 {
			continue
		}
		r.bySymbol[normalize(e.Symbol)] = e.InstrumentToken
	}

	slog.Info("Instrument mappings loaded", slog.Int("count", len(r.bySymbol)), slog.String("path", path))
	return r, nil
}

// NewStatic builds a resolver from an in-memory table. Test seam and paper
// mode convenience.
func NewStatic(table map[string]int64) *Resolver {
	r := &Resolver{bySymbol: make(map[string]int64, len(table))}
	for sym, token := range table {
		r.bySymbol[normalize(sym)] = token
	}
	return r
}

// Resolve returns the instrument token for a symbol. Symbols compare
// case-insensitively with surrounding whitespace ignored, matching how the
// spreadsheet rows arrive.
func (r *Resolver) Resolve(symbol string) (int64, error) {
	token, ok := r.bySymbol[normalize(symbol)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownInstrument, symbol)
	}
	return token, nil
}

// Count returns the number of mapped symbols.
func (r *Resolver) Count() int {
	return len(r.bySymbol)
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
