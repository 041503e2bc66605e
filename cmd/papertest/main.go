package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alphinex07/UpstoX-Trader/internal/domain"
	"github.com/alphinex07/UpstoX-Trader/internal/engine"
	"github.com/alphinex07/UpstoX-Trader/internal/execution"
	"github.com/alphinex07/UpstoX-Trader/internal/infra"
	"github.com/alphinex07/UpstoX-Trader/internal/instruments"
	"github.com/alphinex07/UpstoX-Trader/internal/ledger"
	"github.com/alphinex07/UpstoX-Trader/internal/monitor"
	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
)

// End-to-end paper scenario: buy with a stop-loss, drop the price through
// the stop, and watch the monitor exit the position. No network, no broker.
func main() {
	// 0. Global Panic Recovery (Debug Exception Handling)
	defer infra.Recover()

	// 1. Setup Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	slog.Info("🚀 Starting Paper Trading Scenario...")

	ctx := context.Background()

	// 2. Paper broker with 10 lakh virtual cash
	broker := execution.NewPaperBroker(quant.ToPriceMicros(1_000_000))
	const relianceToken = 2885
	broker.SetPrice(relianceToken, quant.ToPriceMicros(2500))

	resolver := instruments.NewStatic(map[string]int64{"RELIANCE": relianceToken})
	l := ledger.New(nil)

	mon := monitor.New(broker, l, time.Second)
	eng := engine.New(broker, l, resolver, mon)
	mon.SetSubmitter(eng)

	// 3. Protected BUY: 10 RELIANCE, stop at 2450
	rec, err := eng.Submit(ctx, domain.OrderRequest{
		Symbol:          "RELIANCE",
		TransactionType: domain.SideBuy,
		Quantity:        10,
		OrderType:       domain.OrderTypeMarket,
		Product:         domain.ProductIntraday,
		Validity:        domain.ValidityDay,
		StopLossMicros:  quant.ToPriceMicros(2450),
	})
	if err != nil {
		slog.Error("❌ Buy failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("✅ Protected buy", "order", rec.ID, "state", string(rec.State))

	// 4. Price holds above the stop: nothing happens
	mon.RunCycle(ctx)
	slog.Info("Cycle at 2500", "watching", mon.Count())

	// 5. Price falls through the stop: monitor exits the position
	broker.SetPrice(relianceToken, quant.ToPriceMicros(2449))
	mon.RunCycle(ctx)
	slog.Info("Cycle at 2449", "watching", mon.Count())

	// 6. Final accounting
	final, _ := l.Get(rec.ID)
	slog.Info("📋 Originating order", "state", string(final.State), "transitions", len(final.History))
	for _, rec := range l.List() {
		slog.Info("Ledger entry",
			"order", rec.ID,
			"side", string(rec.Request.TransactionType),
			"state", string(rec.State))
	}
	slog.Info("💰 Book",
		"cash", broker.Cash().String(),
		"holding", broker.Holding("RELIANCE"),
		"fills", len(broker.Fills()))

	if final.State != domain.StateClosed || broker.Holding("RELIANCE") != 0 {
		slog.Error("❌ Scenario did not close the position")
		os.Exit(1)
	}
	slog.Info("✨ Scenario complete: stop-loss exit confirmed")
}
