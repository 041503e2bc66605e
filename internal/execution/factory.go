package execution

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alphinex07/UpstoX-Trader/internal/infra"
	"github.com/alphinex07/UpstoX-Trader/internal/infra/upstox"
	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
)

// Mode selects the broker implementation.
type Mode string

const (
	ModePaper Mode = "PAPER"
	ModeMock  Mode = "MOCK"
	ModeReal  Mode = "REAL"
)

// Compile-time interface checks.
var (
	_ Broker = (*upstox.Client)(nil)
	_ Broker = (*PaperBroker)(nil)
	_ Broker = (*MockBroker)(nil)
)

// NewBroker returns the Broker implementation for the configured mode.
func NewBroker(cfg *infra.Config) (Broker, error) {
	mode := Mode(cfg.Trading.Mode)

	slog.Info("Initializing Broker", "mode", mode)

	switch mode {
	case ModePaper:
		// Paper Trading: 10 lakh rupees virtual cash
		return NewPaperBroker(quant.ToPriceMicros(1_000_000.0)), nil

	case ModeMock:
		slog.Info("🔒 MOCK broker: orders are logged, never sent")
		return NewMockBroker(), nil

	case ModeReal:
		// Real Trading: SAFETY LATCH CHECK
		if os.Getenv("CONFIRM_REAL_MONEY") != "true" {
			err := fmt.Errorf("SAFETY_GUARD: Real trading requires 'CONFIRM_REAL_MONEY=true' environment variable")
			slog.Error(err.Error())
			panic(err) // Fail Fast
		}

		slog.Info("🚨🚨🚨 Connecting to Upstox LIVE 🚨🚨🚨")
		return upstox.NewClient(cfg), nil

	default:
		return nil, fmt.Errorf("unknown execution mode: %s", mode)
	}
}
