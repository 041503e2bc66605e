package monitor

import (
	"context"
	"time"

	"github.com/alphinex07/UpstoX-Trader/internal/infra/upstox"
	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
)

// CachedQuoter serves quotes from the streaming price cache when fresh
// enough, falling back to a REST lookup otherwise. The feed is an
// optimization; the fallback keeps the monitor correct when the stream
// is down or stale.
type CachedQuoter struct {
	cache    *upstox.PriceCache
	fallback Quoter
	maxAge   time.Duration
}

func NewCachedQuoter(cache *upstox.PriceCache, fallback Quoter, maxAge time.Duration) *CachedQuoter {
	return &CachedQuoter{cache: cache, fallback: fallback, maxAge: maxAge}
}

func (q *CachedQuoter) LTP(ctx context.Context, token int64) (quant.PriceMicros, error) {
	if q.cache != nil {
		if ltp, ok := q.cache.Get(token, q.maxAge); ok {
			return ltp, nil
		}
	}
	return q.fallback.LTP(ctx, token)
}
