package domain

import "github.com/alphinex07/UpstoX-Trader/pkg/quant"

// MonitoredPosition is an open long position with a live stop-loss threshold.
// It is derived from a filled BUY record and exists only while that record is
// ACTIVE in the monitor's working set.
type MonitoredPosition struct {
	OrderID        string // ledger ID of the originating BUY (non-owning)
	Symbol         string
	Token          int64
	Quantity       int64
	StopLossMicros quant.PriceMicros
	BuyPriceMicros quant.PriceMicros // 0 for market buys
	Product        Product
	Validity       Validity
}

// Breached reports whether the last traded price has hit the stop threshold.
// The rule is long-only: trigger when price falls to or through the stop.
func (p *MonitoredPosition) Breached(ltp quant.PriceMicros) bool {
	return ltp <= p.StopLossMicros
}

// ExitRequest synthesizes the liquidating order: a MARKET SELL for the full
// position, product and validity inherited from the originating BUY.
func (p *MonitoredPosition) ExitRequest() OrderRequest {
	return OrderRequest{
		Symbol:          p.Symbol,
		InstrumentToken: p.Token,
		TransactionType: SideSell,
		Quantity:        p.Quantity,
		OrderType:       OrderTypeMarket,
		Product:         p.Product,
		Validity:        p.Validity,
		Tag:             "stop-loss-order",
	}
}

// NewMonitoredPosition derives a position from a filled BUY record.
func NewMonitoredPosition(rec *OrderRecord) *MonitoredPosition {
	return &MonitoredPosition{
		OrderID:        rec.ID,
		Symbol:         rec.Request.Symbol,
		Token:          rec.Token,
		Quantity:       rec.Request.Quantity,
		StopLossMicros: rec.Request.StopLossMicros,
		BuyPriceMicros: rec.Request.PriceMicros,
		Product:        rec.Request.Product,
		Validity:       rec.Request.Validity,
	}
}
