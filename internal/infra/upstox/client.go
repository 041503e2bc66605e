package upstox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alphinex07/UpstoX-Trader/internal/domain"
	"github.com/alphinex07/UpstoX-Trader/internal/infra"
	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
)

// Client talks to the Upstox v2 REST API: order placement, order status and
// market quotes. All calls are synchronous; the caller decides what an
// ambiguous outcome means (see domain.TransportError).
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client

	orderLimiter *infra.RateLimiter
	quoteLimiter *infra.RateLimiter
	quoteBreaker *infra.CircuitBreaker
}

// NewClient creates a new Upstox REST client.
func NewClient(cfg *infra.Config) *Client {
	baseURL := cfg.API.Upstox.RestURL
	if baseURL == "" {
		baseURL = DefaultRestURL
	}

	return &Client{
		baseURL:      baseURL,
		accessToken:  cfg.API.Upstox.AccessToken,
		httpClient:   &http.Client{Timeout: requestTimeout},
		orderLimiter: infra.GetUpstoxOrderLimiter(),
		quoteLimiter: infra.GetUpstoxQuoteLimiter(),
		quoteBreaker: infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig("upstox-quotes")),
	}
}

// PlaceOrder submits an order and returns the broker-assigned order id.
// Exactly one HTTP call per invocation: placement is side-effecting and the
// broker exposes no idempotency key, so a transport failure here is an
// ambiguous outcome, never silently retried.
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (string, error) {
	c.orderLimiter.Wait()

	payload := placeOrderPayload{
		Quantity:          req.Quantity,
		Product:           string(req.Product),
		Validity:          string(req.Validity),
		Price:             req.PriceMicros.Decimal(),
		Tag:               req.Tag,
		InstrumentToken:   req.InstrumentToken,
		OrderType:         string(req.OrderType),
		TransactionType:   string(req.TransactionType),
		DisclosedQuantity: req.DisclosedQuantity,
		TriggerPrice:      req.TriggerMicros.Decimal(),
		IsAMO:             req.IsAMO,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal order payload: %w", err)
	}

	var resp placeOrderResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/order/place", body, "place", &resp); err != nil {
		return "", err
	}
	if resp.Data.OrderID == "" {
		return "", &domain.TransportError{Op: "place", Err: fmt.Errorf("success response without order_id")}
	}

	slog.Info("Order placed with broker",
		slog.String("order_id", resp.Data.OrderID),
		slog.Int64("token", req.InstrumentToken),
		slog.String("side", string(req.TransactionType)))
	return resp.Data.OrderID, nil
}

// OrderStatus fetches the broker-side status of a placed order. Also used to
// reconcile orders whose placement outcome was lost in transit.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (string, error) {
	c.orderLimiter.Wait()

	u := c.baseURL + "/order/details?order_id=" + url.QueryEscape(orderID)
	var resp orderDetailsResponse
	if err := c.doJSON(ctx, http.MethodGet, u, nil, "status", &resp); err != nil {
		return "", err
	}
	return resp.Data.Status, nil
}

// LTP returns the last traded price for an instrument token. The quote
// endpoint sits behind a circuit breaker: when the breaker is open the call
// fails fast as QuoteUnavailable instead of waiting out another timeout.
func (c *Client) LTP(ctx context.Context, token int64) (quant.PriceMicros, error) {
	if !c.quoteBreaker.Allow() {
		return 0, fmt.Errorf("%w: breaker open for token %d", domain.ErrQuoteUnavailable, token)
	}
	c.quoteLimiter.Wait()

	key := strconv.FormatInt(token, 10)
	u := c.baseURL + "/market-quote/ltp?instrument_token=" + key

	var resp ltpResponse
	if err := c.doJSON(ctx, http.MethodGet, u, nil, "quote", &resp); err != nil {
		c.quoteBreaker.RecordFailure()
		return 0, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}

	entry, ok := resp.Data[key]
	if !ok {
		c.quoteBreaker.RecordFailure()
		return 0, fmt.Errorf("%w: no quote for token %d in response", domain.ErrQuoteUnavailable, token)
	}

	c.quoteBreaker.RecordSuccess()
	return quant.FromDecimal(entry.LastPrice), nil
}

// doJSON performs one request and decodes the response, mapping failures onto
// the error taxonomy: 4xx with an error body is a broker rejection; anything
// else that keeps the outcome unknown is a transport error.
func (c *Client) doJSON(ctx context.Context, method, u string, body []byte, op string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}

	if resp.StatusCode >= 500 {
		return &domain.TransportError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, data)}
	}

	if resp.StatusCode >= 400 {
		return &domain.BrokerRejection{
			Code:    firstErrorCode(data),
			Message: firstErrorMessage(data, resp.StatusCode),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &domain.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

type errorEnvelope struct {
	Status string     `json:"status"`
	Errors []apiError `json:"errors"`
}

func firstErrorCode(data []byte) string {
	var env errorEnvelope
	if json.Unmarshal(data, &env) == nil && len(env.Errors) > 0 {
		return env.Errors[0].ErrorCode
	}
	return ""
}

func firstErrorMessage(data []byte, statusCode int) string {
	var env errorEnvelope
	if json.Unmarshal(data, &env) == nil && len(env.Errors) > 0 {
		return env.Errors[0].Message
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}
