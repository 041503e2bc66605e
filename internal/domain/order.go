package domain

import (
	"fmt"

	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
)

// Side represents the transaction direction.
type Side string

// OrderType represents the execution style.
type OrderType string

// Product represents the Upstox product code (wire values).
type Product string

// Validity represents how long an order stays working.
type Validity string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"

	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"

	ProductIntraday Product = "I"
	ProductDelivery Product = "D"

	ValidityDay Validity = "DAY"
	ValidityIOC Validity = "IOC"
)

// OrderRequest is an immutable instruction to buy or sell one instrument.
// Either Symbol or InstrumentToken identifies the instrument; the token wins
// when both are present.
type OrderRequest struct {
	Symbol          string            `json:"symbol,omitempty"`
	InstrumentToken int64             `json:"instrument_token,omitempty"`
	TransactionType Side              `json:"transaction_type"`
	Quantity        int64             `json:"quantity"`
	PriceMicros     quant.PriceMicros `json:"price"` // 0 means market order
	OrderType       OrderType         `json:"order_type"`
	Product         Product           `json:"product"`
	Validity        Validity          `json:"validity"`
	StopLossMicros  quant.PriceMicros `json:"stop_loss_price,omitempty"` // BUY only, 0 means none

	// Pass-through fields the broker accepts on placement.
	Tag               string            `json:"tag,omitempty"`
	DisclosedQuantity int64             `json:"disclosed_quantity,omitempty"`
	TriggerMicros     quant.PriceMicros `json:"trigger_price,omitempty"`
	IsAMO             bool              `json:"is_amo,omitempty"`
}

// HasStopLoss reports whether the request carries a stop-loss threshold.
func (r *OrderRequest) HasStopLoss() bool {
	return r.StopLossMicros > 0
}

// Validate checks the request invariants locally. A violation means the
// request never reaches the broker.
func (r *OrderRequest) Validate() error {
	if r.Symbol == "" && r.InstrumentToken == 0 {
		return fmt.Errorf("%w: missing symbol and instrument token", ErrInvalidRequest)
	}
	if r.TransactionType != SideBuy && r.TransactionType != SideSell {
		return fmt.Errorf("%w: transaction_type %q", ErrInvalidRequest, r.TransactionType)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity %d must be positive", ErrInvalidRequest, r.Quantity)
	}
	switch r.OrderType {
	case OrderTypeMarket:
		// Market orders carry price 0 on the wire; a nonzero price is a
		// mismatched intent, not a convenience default.
		if r.PriceMicros != 0 {
			return fmt.Errorf("%w: market order with price %s", ErrInvalidRequest, r.PriceMicros)
		}
	case OrderTypeLimit:
		if r.PriceMicros <= 0 {
			return fmt.Errorf("%w: limit order requires positive price", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: order_type %q", ErrInvalidRequest, r.OrderType)
	}
	if r.Product != ProductIntraday && r.Product != ProductDelivery {
		return fmt.Errorf("%w: product %q", ErrInvalidRequest, r.Product)
	}
	if r.Validity != ValidityDay && r.Validity != ValidityIOC {
		return fmt.Errorf("%w: validity %q", ErrInvalidRequest, r.Validity)
	}
	if r.StopLossMicros < 0 {
		return fmt.Errorf("%w: negative stop_loss_price", ErrInvalidRequest)
	}
	// Short-side stop-loss is out of scope: the trigger rule assumes a long
	// position, so a SELL carrying one is rejected rather than silently run
	// with an inverted rule.
	if r.TransactionType == SideSell && r.HasStopLoss() {
		return fmt.Errorf("%w: stop_loss_price on a SELL order", ErrInvalidRequest)
	}
	return nil
}
