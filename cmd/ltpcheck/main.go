package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alphinex07/UpstoX-Trader/internal/infra"
	"github.com/alphinex07/UpstoX-Trader/internal/infra/upstox"
	"github.com/alphinex07/UpstoX-Trader/internal/instruments"
)

// ltpcheck fetches one live quote through the fixed-point pipeline.
//
//	UPSTOX_ACCESS_TOKEN=... go run ./cmd/ltpcheck NSE.json RELIANCE
func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: ltpcheck <instrument-table.json> <SYMBOL>")
		os.Exit(2)
	}
	tablePath, symbol := os.Args[1], os.Args[2]

	token := os.Getenv("UPSTOX_ACCESS_TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "UPSTOX_ACCESS_TOKEN is required")
		os.Exit(2)
	}

	resolver, err := instruments.Load(tablePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "instrument table: %v\n", err)
		os.Exit(1)
	}

	instrument, err := resolver.Resolve(symbol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve: %v\n", err)
		os.Exit(1)
	}

	cfg := &infra.Config{}
	cfg.Trading.Mode = "MOCK"
	cfg.API.Upstox.RestURL = upstox.DefaultRestURL
	cfg.API.Upstox.AccessToken = token

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ltp, err := upstox.NewClient(cfg).LTP(ctx, instrument)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quote: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Upstox Fixed-Point Quote ===")
	fmt.Printf("Symbol:      %s\n", symbol)
	fmt.Printf("Token:       %d\n", instrument)
	fmt.Printf("PriceMicros: %d\n", int64(ltp))
	fmt.Printf("Price:       ₹%s\n", ltp.String())
	fmt.Println("✅ Parsed without float64 in the pipeline")
}
