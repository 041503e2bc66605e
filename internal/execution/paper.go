package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alphinex07/UpstoX-Trader/internal/domain"
	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
	"github.com/alphinex07/UpstoX-Trader/pkg/safe"
)

// Fill is a simulated execution against the virtual book.
type Fill struct {
	OrderID      string
	Symbol       string
	Side         domain.Side
	PriceMicros  quant.PriceMicros
	Quantity     int64
	TsUnixMicros int64
}

// PaperBroker fills orders instantly against a virtual cash balance and
// holdings book. It is used for pre-production validation without touching
// the exchange.
type PaperBroker struct {
	mu       sync.Mutex
	cash     quant.PriceMicros // virtual rupees, micro precision
	holdings map[string]int64  // symbol -> shares
	orders   map[string]string // broker order id -> status
	fills    []Fill
	prices   map[int64]quant.PriceMicros // token -> last set price
	symbols  map[int64]string            // token -> symbol, learned from orders
	seq      int64
}

// NewPaperBroker creates a paper broker with an initial cash balance.
func NewPaperBroker(initialCash quant.PriceMicros) *PaperBroker {
	return &PaperBroker{
		cash:     initialCash,
		holdings: make(map[string]int64),
		orders:   make(map[string]string),
		prices:   make(map[int64]quant.PriceMicros),
		symbols:  make(map[int64]string),
	}
}

// SetPrice pins the simulated market price for an instrument token.
func (p *PaperBroker) SetPrice(token int64, price quant.PriceMicros) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[token] = price
}

// PlaceOrder fills the order immediately at the pinned price for MARKET
// orders, or at the limit price for LIMIT orders.
func (p *PaperBroker) PlaceOrder(ctx context.Context, req domain.OrderRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var execPrice quant.PriceMicros
	if req.OrderType == domain.OrderTypeMarket {
		price, ok := p.prices[req.InstrumentToken]
		if !ok {
			return "", fmt.Errorf("paper broker: no price for token %d: %w",
				req.InstrumentToken, domain.ErrQuoteUnavailable)
		}
		execPrice = price
	} else {
		execPrice = req.PriceMicros
	}

	cost := quant.PriceMicros(safe.Mul(int64(execPrice), req.Quantity))

	if req.TransactionType == domain.SideBuy {
		if p.cash < cost {
			return "", &domain.BrokerRejection{
				Code:    "INSUFFICIENT_FUNDS",
				Message: fmt.Sprintf("need %s, have %s", cost, p.cash),
			}
		}
		p.cash = quant.PriceMicros(safe.Sub(int64(p.cash), int64(cost)))
		p.holdings[req.Symbol] = safe.Add(p.holdings[req.Symbol], req.Quantity)
	} else {
		if p.holdings[req.Symbol] < req.Quantity {
			return "", &domain.BrokerRejection{
				Code:    "INSUFFICIENT_HOLDINGS",
				Message: fmt.Sprintf("need %d %s, have %d", req.Quantity, req.Symbol, p.holdings[req.Symbol]),
			}
		}
		p.holdings[req.Symbol] -= req.Quantity
		p.cash = quant.PriceMicros(safe.Add(int64(p.cash), int64(cost)))
	}

	p.seq++
	orderID := fmt.Sprintf("PAPER-%d", p.seq)
	p.orders[orderID] = StatusComplete
	p.symbols[req.InstrumentToken] = req.Symbol
	p.fills = append(p.fills, Fill{
		OrderID:      orderID,
		Symbol:       req.Symbol,
		Side:         req.TransactionType,
		PriceMicros:  execPrice,
		Quantity:     req.Quantity,
		TsUnixMicros: time.Now().UnixMicro(),
	})

	slog.Info("PAPER: Order Filled",
		slog.String("id", orderID),
		slog.String("symbol", req.Symbol),
		slog.String("side", string(req.TransactionType)),
		slog.String("price", execPrice.String()),
		slog.Int64("qty", req.Quantity))

	return orderID, nil
}

func (p *PaperBroker) OrderStatus(ctx context.Context, orderID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.orders[orderID]
	if !ok {
		return "", &domain.BrokerRejection{Code: "ORDER_NOT_FOUND", Message: orderID}
	}
	return status, nil
}

func (p *PaperBroker) LTP(ctx context.Context, token int64) (quant.PriceMicros, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	price, ok := p.prices[token]
	if !ok {
		return 0, fmt.Errorf("paper broker: no price for token %d: %w",
			token, domain.ErrQuoteUnavailable)
	}
	return price, nil
}

// Cash returns the remaining virtual cash balance.
func (p *PaperBroker) Cash() quant.PriceMicros {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cash
}

// Holding returns the share count held for a symbol.
func (p *PaperBroker) Holding(symbol string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.holdings[symbol]
}

// Fills returns a copy of all simulated fills.
func (p *PaperBroker) Fills() []Fill {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Fill, len(p.fills))
	copy(out, p.fills)
	return out
}
