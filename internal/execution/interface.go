package execution

import (
	"context"

	"github.com/alphinex07/UpstoX-Trader/internal/domain"
	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
)

// Broker is the brokerage surface the engine and monitor depend on.
// Implementations must be safe for concurrent use.
type Broker interface {
	// PlaceOrder submits one validated order and returns the broker order ID.
	// It is called at most once per ledger record; implementations must not
	// retry internally, since a retried duplicate cannot be detected here.
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (string, error)

	// OrderStatus reports the broker's status string for a placed order.
	OrderStatus(ctx context.Context, orderID string) (string, error)

	// LTP returns the last traded price for an instrument token.
	LTP(ctx context.Context, token int64) (quant.PriceMicros, error)
}

// StatusComplete is the broker status that confirms a fill.
const StatusComplete = "complete"
