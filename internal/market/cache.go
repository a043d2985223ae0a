package market

import (
	"sync"
	"time"
)

type cachedPrice struct {
	price float64
	at    time.Time
}

// priceCache keeps last prices for a short TTL. Ticker data a few seconds old
// is fine for trigger evaluation.
type priceCache struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]cachedPrice
}

func newPriceCache(ttl time.Duration) *priceCache {
	return &priceCache{ttl: ttl, m: make(map[string]cachedPrice)}
}

func (c *priceCache) get(symbol string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.m[symbol]
	if !ok || time.Since(entry.at) > c.ttl {
		return 0, false
	}
	return entry.price, true
}

func (c *priceCache) put(symbol string, price float64) {
	c.mu.Lock()
	c.m[symbol] = cachedPrice{price: price, at: time.Now()}
	c.mu.Unlock()
}
