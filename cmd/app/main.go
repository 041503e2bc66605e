package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alphinex07/UpstoX-Trader/internal/app"
	"github.com/alphinex07/UpstoX-Trader/internal/domain"
	"github.com/alphinex07/UpstoX-Trader/internal/engine"
	"github.com/alphinex07/UpstoX-Trader/internal/execution"
	"github.com/alphinex07/UpstoX-Trader/internal/infra"
	"github.com/alphinex07/UpstoX-Trader/internal/infra/upstox"
	"github.com/alphinex07/UpstoX-Trader/internal/monitor"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Shutdown()

	cfg := bootstrap.Config
	infra.PrintBanner(cfg)

	// 3. Broker (PAPER / MOCK / REAL, safety latch inside)
	broker, err := execution.NewBroker(cfg)
	if err != nil {
		slog.Error("❌ Broker initialization failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 4. Streaming feed is an optimization: quotes come from the cache while
	// fresh, the broker REST endpoint otherwise.
	var quoter monitor.Quoter = broker
	var feed *upstox.Feed
	if wsURL := cfg.API.Upstox.FeedWSURL; wsURL != "" && cfg.API.Upstox.AccessToken != "" {
		cache := upstox.NewPriceCache()
		feed = upstox.NewFeed(wsURL, cfg.API.Upstox.AccessToken, cache)
		feed.Start(ctx)
		defer feed.Stop()
		quoter = monitor.NewCachedQuoter(cache, broker, cfg.QuoteStaleness())
		slog.Info("✅ Market feed started", slog.String("url", wsURL))
	}

	// 5. Monitor and engine reference each other; wire in two steps.
	mon := monitor.New(quoter, bootstrap.Ledger, cfg.PollInterval())
	eng := engine.New(broker, bootstrap.Ledger, bootstrap.Resolver, mon)
	mon.SetSubmitter(eng)

	// 6. Resume supervision for positions restored from the ledger.
	for _, rec := range bootstrap.Ledger.List() {
		if rec.State == domain.StateActive {
			mon.Register(domain.NewMonitoredPosition(rec))
		}
	}
	subscribeWatched(feed, mon)

	go mon.Run(ctx)

	// 7. Startup batch, one row at a time.
	if file := cfg.Batch.File; file != "" {
		reqs, err := app.LoadBatch(file)
		if err != nil {
			slog.Error("❌ Batch file unreadable", slog.Any("error", err))
		} else {
			eng.SubmitBatch(ctx, reqs)
			subscribeWatched(feed, mon)
		}
	}

	slog.InfoContext(ctx, "✨ Upstox Trader fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}

// subscribeWatched points the streaming feed at every instrument currently
// under stop-loss watch.
func subscribeWatched(feed *upstox.Feed, mon *monitor.Monitor) {
	if feed == nil {
		return
	}
	seen := make(map[int64]bool)
	tokens := make([]int64, 0)
	for _, pos := range mon.Active() {
		if !seen[pos.Token] {
			seen[pos.Token] = true
			tokens = append(tokens, pos.Token)
		}
	}
	if len(tokens) > 0 {
		feed.Subscribe(tokens...)
	}
}
