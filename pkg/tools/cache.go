package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aretw0/genui/internal/logging"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/ports"
)

// DefaultCacheTTL is how long a tool result is reused.
const DefaultCacheTTL = 60 * time.Second

const keyPrefix = "genui:tool:"

// Cache reuses successful tool results by call fingerprint. With a locker,
// concurrent identical calls across replicas fetch upstream once.
type Cache struct {
	next   ports.ToolExecutor
	cache  ports.ToolCache
	locker ports.DistributedLocker
	ttl    time.Duration
	logger *slog.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithLocker serializes misses on the same key.
func WithLocker(l ports.DistributedLocker) CacheOption {
	return func(c *Cache) { c.locker = l }
}

func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

func NewCache(next ports.ToolExecutor, cache ports.ToolCache, opts ...CacheOption) *Cache {
	c := &Cache{next: next, cache: cache, ttl: DefaultCacheTTL, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tools reports the catalog of the wrapped executor, if it has one.
func (c *Cache) Tools() []domain.Tool { return listTools(c.next) }

func (c *Cache) Execute(ctx context.Context, call domain.ToolCall) (domain.ToolResult, error) {
	key := keyPrefix + call.Fingerprint()
	if res, ok := c.lookup(ctx, key, call); ok {
		return res, nil
	}

	if c.locker != nil {
		unlock, err := c.locker.Lock(ctx, key, c.ttl)
		if err != nil {
			c.logger.Warn("tool cache lock failed", "key", key, "err", err)
		} else {
			defer func() {
				if err := unlock(context.WithoutCancel(ctx)); err != nil {
					c.logger.Warn("tool cache unlock failed", "key", key, "err", err)
				}
			}()
			// another replica may have filled it while we waited
			if res, ok := c.lookup(ctx, key, call); ok {
				return res, nil
			}
		}
	}

	res, err := c.next.Execute(ctx, call)
	if err != nil || res.IsError {
		return res, err
	}
	raw, err := json.Marshal(res.Result)
	if err != nil {
		return res, nil
	}
	if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("tool cache write failed", "key", key, "err", err)
	}
	return res, nil
}

func (c *Cache) lookup(ctx context.Context, key string, call domain.ToolCall) (domain.ToolResult, bool) {
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("tool cache read failed", "key", key, "err", err)
		return domain.ToolResult{}, false
	}
	if !ok {
		return domain.ToolResult{}, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.ToolResult{}, false
	}
	c.logger.Debug("tool cache hit", "tool", call.Name)
	return domain.ToolResult{ID: call.ID, Name: call.Name, Result: v}, true
}
