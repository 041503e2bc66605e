package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alphinex07/UpstoX-Trader/internal/domain"
	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
)

// MockBroker only logs orders. Nothing is filled, no book is kept; every
// placed order reports complete so the full order flow can be dry-run.
type MockBroker struct {
	mu     sync.Mutex
	prices map[int64]quant.PriceMicros
	seq    int64
}

func NewMockBroker() *MockBroker {
	return &MockBroker{prices: make(map[int64]quant.PriceMicros)}
}

// SetPrice pins a quote so the monitor loop has something to poll.
func (m *MockBroker) SetPrice(token int64, price quant.PriceMicros) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[token] = price
}

func (m *MockBroker) PlaceOrder(ctx context.Context, req domain.OrderRequest) (string, error) {
	m.mu.Lock()
	m.seq++
	orderID := fmt.Sprintf("MOCK-%d", m.seq)
	m.mu.Unlock()

	slog.Info("MOCK: Place Order",
		slog.String("id", orderID),
		slog.String("symbol", req.Symbol),
		slog.String("side", string(req.TransactionType)),
		slog.String("type", string(req.OrderType)),
		slog.Int64("qty", req.Quantity))
	return orderID, nil
}

func (m *MockBroker) OrderStatus(ctx context.Context, orderID string) (string, error) {
	return StatusComplete, nil
}

func (m *MockBroker) LTP(ctx context.Context, token int64) (quant.PriceMicros, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	price, ok := m.prices[token]
	if !ok {
		return 0, fmt.Errorf("mock broker: no price for token %d: %w",
			token, domain.ErrQuoteUnavailable)
	}
	return price, nil
}
