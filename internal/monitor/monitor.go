package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alphinex07/UpstoX-Trader/internal/domain"
	"github.com/alphinex07/UpstoX-Trader/internal/ledger"
	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
)

// Quoter answers last-traded-price lookups. The broker satisfies this; so
// does the cache-first composite wrapping the market feed.
type Quoter interface {
	LTP(ctx context.Context, token int64) (quant.PriceMicros, error)
}

// ExitSubmitter places the synthesized exit order. The engine satisfies this.
type ExitSubmitter interface {
	Submit(ctx context.Context, req domain.OrderRequest) (*domain.OrderRecord, error)
}

// Monitor supervises protected positions and fires a market exit when the
// last traded price touches the stop. Positions enter via Register (called
// by the engine once a protected BUY is confirmed) and leave only after a
// confirmed exit submission.
type Monitor struct {
	quoter    Quoter
	ledger    *ledger.Ledger
	submitter ExitSubmitter
	interval  time.Duration

	mu        sync.Mutex
	positions map[string]*domain.MonitoredPosition // keyed by originating order ID
}

func New(quoter Quoter, l *ledger.Ledger, interval time.Duration) *Monitor {
	return &Monitor{
		quoter:    quoter,
		ledger:    l,
		interval:  interval,
		positions: make(map[string]*domain.MonitoredPosition),
	}
}

// SetSubmitter attaches the exit path. Wired after construction because the
// engine and the monitor reference each other.
func (m *Monitor) SetSubmitter(s ExitSubmitter) {
	m.submitter = s
}

// Register puts a position under watch. Re-registering the same order ID
// replaces the previous entry.
func (m *Monitor) Register(pos *domain.MonitoredPosition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[pos.OrderID] = pos

	slog.Info("Stop-loss watch registered",
		slog.String("order", pos.OrderID),
		slog.String("symbol", pos.Symbol),
		slog.String("stop", pos.StopLossMicros.String()))
}

// Deregister removes a position. Unknown IDs are ignored.
func (m *Monitor) Deregister(orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, orderID)
}

// Count returns the number of positions under watch.
func (m *Monitor) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.positions)
}

// Active returns a snapshot of the watched positions.
func (m *Monitor) Active() []*domain.MonitoredPosition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.MonitoredPosition, 0, len(m.positions))
	for _, pos := range m.positions {
		out = append(out, pos)
	}
	return out
}

// RunCycle polls one quote per distinct instrument and checks every watched
// position against it. A failed quote skips only the positions on that
// instrument; the rest of the cycle proceeds.
func (m *Monitor) RunCycle(ctx context.Context) {
	byToken := make(map[int64][]*domain.MonitoredPosition)
	for _, pos := range m.Active() {
		byToken[pos.Token] = append(byToken[pos.Token], pos)
	}

	for token, group := range byToken {
		ltp, err := m.quoter.LTP(ctx, token)
		if err != nil {
			slog.Warn("Quote unavailable, skipping instrument this cycle",
				slog.Int64("token", token),
				slog.Any("error", err))
			continue
		}

		for _, pos := range group {
			if pos.Breached(ltp) {
				m.triggerExit(ctx, pos, ltp)
			}
		}
	}
}

// triggerExit submits the market SELL for a breached position. The position
// stays registered until the exit submission is confirmed, so a failed SELL
// is retried on the next cycle.
func (m *Monitor) triggerExit(ctx context.Context, pos *domain.MonitoredPosition, ltp quant.PriceMicros) {
	slog.Warn("Stop-loss breached",
		slog.String("order", pos.OrderID),
		slog.String("symbol", pos.Symbol),
		slog.String("ltp", ltp.String()),
		slog.String("stop", pos.StopLossMicros.String()))

	exit, err := m.submitter.Submit(ctx, pos.ExitRequest())
	if err != nil {
		slog.Error("Exit order failed, position stays under watch",
			slog.String("order", pos.OrderID),
			slog.Any("error", err))
		return
	}

	if _, err := m.ledger.Transition(ctx, pos.OrderID, domain.StateStopTriggered,
		"stop breached at ltp="+ltp.String()+", exit order "+exit.ID); err != nil {
		slog.Error("Originating order transition failed",
			slog.String("order", pos.OrderID),
			slog.Any("error", err))
	} else if _, err := m.ledger.Transition(ctx, pos.OrderID, domain.StateClosed,
		"position exited"); err != nil {
		slog.Error("Originating order close failed",
			slog.String("order", pos.OrderID),
			slog.Any("error", err))
	}

	m.Deregister(pos.OrderID)

	slog.Info("Position exited on stop-loss",
		slog.String("order", pos.OrderID),
		slog.String("exit_order", exit.ID),
		slog.String("symbol", pos.Symbol))
}

// Run polls until the context is cancelled. A panic in one cycle is logged
// and the loop keeps going; only shutdown stops the monitor.
func (m *Monitor) Run(ctx context.Context) {
	slog.Info("Stop-loss monitor started",
		slog.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stop-loss monitor stopped",
				slog.Int("still_watching", m.Count()))
			return
		case <-ticker.C:
			m.safeCycle(ctx)
		}
	}
}

func (m *Monitor) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Monitor cycle panic recovered", slog.Any("panic", r))
		}
	}()
	m.RunCycle(ctx)
}
