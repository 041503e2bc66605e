package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/alphinex07/UpstoX-Trader/internal/domain"
	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
)

func TestMockPlaceAndStatus(t *testing.T) {
	ctx := context.Background()
	m := NewMockBroker()

	id1, err := m.PlaceOrder(ctx, buyRequest(1))
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	id2, _ := m.PlaceOrder(ctx, buyRequest(1))
	if id1 == id2 {
		t.Errorf("order ids not unique: %s", id1)
	}

	status, err := m.OrderStatus(ctx, id1)
	if err != nil || status != StatusComplete {
		t.Errorf("OrderStatus() = %q, %v; want complete", status, err)
	}
}

func TestMockLTP(t *testing.T) {
	ctx := context.Background()
	m := NewMockBroker()

	if _, err := m.LTP(ctx, 2885); !errors.Is(err, domain.ErrQuoteUnavailable) {
		t.Errorf("LTP() without price error = %v, want quote unavailable", err)
	}

	m.SetPrice(2885, quant.ToPriceMicros(2500))
	price, err := m.LTP(ctx, 2885)
	if err != nil {
		t.Fatalf("LTP() error = %v", err)
	}
	if price != quant.ToPriceMicros(2500) {
		t.Errorf("LTP() = %s, want 2500", price)
	}
}
