package upstox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alphinex07/UpstoX-Trader/internal/infra"
	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
)

// PriceCache holds the latest streamed LTP per instrument token.
// Reads and writes come from different goroutines (feed worker vs monitor).
type PriceCache struct {
	mu     sync.RWMutex
	prices map[int64]cachedPrice
}

type cachedPrice struct {
	ltp quant.PriceMicros
	at  time.Time
}

// NewPriceCache creates an empty cache.
func NewPriceCache() *PriceCache {
	return &PriceCache{prices: make(map[int64]cachedPrice)}
}

// Put stores a fresh LTP for a token.
func (c *PriceCache) Put(token int64, ltp quant.PriceMicros) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[token] = cachedPrice{ltp: ltp, at: time.Now()}
}

// Get returns the cached LTP if it is younger than maxAge.
func (c *PriceCache) Get(token int64, maxAge time.Duration) (quant.PriceMicros, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.prices[token]
	if !ok || time.Since(entry.at) > maxAge {
		return 0, false
	}
	return entry.ltp, true
}

// Feed streams LTP updates for the monitored instruments over the Upstox
// market-data WebSocket and keeps a PriceCache current. It is an optimization
// over REST polling; the monitor falls back to REST when an entry is stale.
type Feed struct {
	worker *infra.BaseWSWorker
	cache  *PriceCache

	url         string
	accessToken string

	mu     sync.Mutex
	tokens map[int64]struct{}
}

// NewFeed creates a feed worker for the given WS URL.
func NewFeed(wsURL, accessToken string, cache *PriceCache) *Feed {
	f := &Feed{
		cache:       cache,
		url:         wsURL,
		accessToken: accessToken,
		tokens:      make(map[int64]struct{}),
	}
	f.worker = infra.NewBaseWSWorker(f)
	return f
}

// Start begins the connection loop.
func (f *Feed) Start(ctx context.Context) { f.worker.Start(ctx) }

// Stop terminates the feed.
func (f *Feed) Stop() { f.worker.Stop() }

// Subscribe adds tokens to the subscription set and, when connected, sends
// the subscription request. Safe to call before the first connect; OnConnect
// replays the full set.
func (f *Feed) Subscribe(tokens ...int64) {
	f.mu.Lock()
	for _, t := range tokens {
		f.tokens[t] = struct{}{}
	}
	keys := f.instrumentKeys()
	f.mu.Unlock()

	if len(keys) == 0 {
		return
	}
	if err := f.sendSubscribe(keys); err != nil {
		// Not connected yet; OnConnect will replay.
		slog.Debug("Feed subscribe deferred", "err", err)
	}
}

func (f *Feed) instrumentKeys() []string {
	keys := make([]string, 0, len(f.tokens))
	for t := range f.tokens {
		keys = append(keys, strconv.FormatInt(t, 10))
	}
	return keys
}

func (f *Feed) sendSubscribe(keys []string) error {
	req := feedSubscribeRequest{
		GUID:   fmt.Sprintf("sub-%d", time.Now().UnixMicro()),
		Method: "sub",
	}
	req.Data.Mode = "ltpc"
	req.Data.InstrumentKeys = keys

	msg, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return f.worker.Write(websocket.TextMessage, msg)
}

// WebSocketHandler implementation.

func (f *Feed) GetURL() string { return f.url }
func (f *Feed) ID() string     { return "UPSTOX_FEED" }

func (f *Feed) RequestHeader() http.Header {
	header := make(http.Header)
	header.Set("Authorization", "Bearer "+f.accessToken)
	return header
}

func (f *Feed) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	f.mu.Lock()
	keys := f.instrumentKeys()
	f.mu.Unlock()

	if len(keys) == 0 {
		return nil
	}
	return f.sendSubscribe(keys)
}

func (f *Feed) OnMessage(ctx context.Context, msg []byte) {
	var m feedMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		return
	}

	for key, feed := range m.Feeds {
		token, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		f.cache.Put(token, quant.FromDecimal(feed.LTPC.LTP))
	}
}

func (f *Feed) OnPing(ctx context.Context, conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}
