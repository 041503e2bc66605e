package upstox

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultRestURL is the Upstox v2 API base.
	DefaultRestURL = "https://api.upstox.com/v2"

	requestTimeout = 10 * time.Second
)

// placeOrderPayload is the wire body for POST /order/place.
type placeOrderPayload struct {
	Quantity          int64           `json:"quantity"`
	Product           string          `json:"product"`
	Validity          string          `json:"validity"`
	Price             decimal.Decimal `json:"price"`
	Tag               string          `json:"tag"`
	InstrumentToken   int64           `json:"instrument_token"`
	OrderType         string          `json:"order_type"`
	TransactionType   string          `json:"transaction_type"`
	DisclosedQuantity int64           `json:"disclosed_quantity"`
	TriggerPrice      decimal.Decimal `json:"trigger_price"`
	IsAMO             bool            `json:"is_amo"`
}

// apiError is one entry of the "errors" array Upstox returns on refusal.
type apiError struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

type placeOrderResponse struct {
	Status string `json:"status"`
	Data   struct {
		OrderID string `json:"order_id"`
	} `json:"data"`
	Errors []apiError `json:"errors"`
}

type orderDetailsResponse struct {
	Status string `json:"status"`
	Data   struct {
		OrderID       string `json:"order_id"`
		Status        string `json:"status"` // "complete", "rejected", "open", ...
		StatusMessage string `json:"status_message"`
	} `json:"data"`
	Errors []apiError `json:"errors"`
}

// ltpResponse maps instrument token -> last traded price.
// Prices decode through decimal to keep paise ticks exact.
type ltpResponse struct {
	Status string `json:"status"`
	Data   map[string]struct {
		LastPrice decimal.Decimal `json:"last_price"`
	} `json:"data"`
	Errors []apiError `json:"errors"`
}

// Streaming feed wire types (JSON LTP channel).

type feedSubscribeRequest struct {
	GUID   string `json:"guid"`
	Method string `json:"method"` // "sub"
	Data   struct {
		Mode           string   `json:"mode"` // "ltpc"
		InstrumentKeys []string `json:"instrumentKeys"`
	} `json:"data"`
}

type feedMessage struct {
	Feeds map[string]struct {
		LTPC struct {
			LTP decimal.Decimal `json:"ltp"`
			LTT int64           `json:"ltt"` // last trade time, Unix ms
		} `json:"ltpc"`
	} `json:"feeds"`
}
