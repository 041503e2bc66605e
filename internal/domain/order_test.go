package domain

import (
	"errors"
	"testing"
)

func validBuy() OrderRequest {
	return OrderRequest{
		Symbol:          "RELIANCE",
		TransactionType: SideBuy,
		Quantity:        5,
		OrderType:       OrderTypeMarket,
		Product:         ProductIntraday,
		Validity:        ValidityDay,
	}
}

func TestOrderRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*OrderRequest)
		wantErr bool
	}{
		{"MarketBuy", func(r *OrderRequest) {}, false},
		{"LimitBuy", func(r *OrderRequest) {
			r.OrderType = OrderTypeLimit
			r.PriceMicros = 2_500_000_000
		}, false},
		{"BuyWithStopLoss", func(r *OrderRequest) { r.StopLossMicros = 2_500_000_000 }, false},
		{"TokenOnly", func(r *OrderRequest) {
			r.Symbol = ""
			r.InstrumentToken = 738561
		}, false},
		{"ZeroQuantity", func(r *OrderRequest) { r.Quantity = 0 }, true},
		{"NegativeQuantity", func(r *OrderRequest) { r.Quantity = -1 }, true},
		{"NoInstrument", func(r *OrderRequest) { r.Symbol = "" }, true},
		{"LimitWithoutPrice", func(r *OrderRequest) { r.OrderType = OrderTypeLimit }, true},
		{"MarketWithPrice", func(r *OrderRequest) { r.PriceMicros = 100 }, true},
		{"BadSide", func(r *OrderRequest) { r.TransactionType = "HOLD" }, true},
		{"BadProduct", func(r *OrderRequest) { r.Product = "X" }, true},
		{"BadValidity", func(r *OrderRequest) { r.Validity = "GTC" }, true},
		{"NegativeStopLoss", func(r *OrderRequest) { r.StopLossMicros = -1 }, true},
		{"SellWithStopLoss", func(r *OrderRequest) {
			r.TransactionType = SideSell
			r.StopLossMicros = 2_500_000_000
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validBuy()
			tt.mutate(&req)
			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error %v does not wrap ErrInvalidRequest", err)
			}
		})
	}
}

func TestOrderRequest_HasStopLoss(t *testing.T) {
	req := validBuy()
	if req.HasStopLoss() {
		t.Error("expected no stop-loss on bare request")
	}
	req.StopLossMicros = 2_500_000_000
	if !req.HasStopLoss() {
		t.Error("expected stop-loss to be detected")
	}
}
