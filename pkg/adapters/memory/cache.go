package memory

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Cache implements ports.ToolCache in memory. Expired entries are dropped
// on read.
type Cache struct {
	clock clock.Clock

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value   []byte
	expires time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock sets the clock used for expiry.
func WithClock(c clock.Clock) CacheOption {
	return func(cache *Cache) { cache.clock = c }
}

func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{clock: clock.New(), entries: make(map[string]cacheEntry)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.clock.Now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		value:   append([]byte(nil), value...),
		expires: c.clock.Now().Add(ttl),
	}
	return nil
}
