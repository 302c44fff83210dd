package rules

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-discount/internal/discount"
	"github.com/noah-isme/toko-discount/internal/resilience"
)

// Cached memoises another source for TTL. When a refresh fails after a
// successful load, the last good tables keep being served.
type Cached struct {
	src     Source
	ttl     time.Duration
	logger  zerolog.Logger
	breaker *resilience.Breaker
	now     func() time.Time

	mu       sync.Mutex
	tables   discount.Tables
	loaded   bool
	loadedAt time.Time
}

// NewCached wraps src. A non-positive ttl disables caching of fresh loads but
// still keeps the last good tables as a fallback.
func NewCached(src Source, ttl time.Duration, logger zerolog.Logger) *Cached {
	return &Cached{src: src, ttl: ttl, logger: logger, now: time.Now}
}

// WithBreaker routes refreshes through b. While b is open the wrapped source
// is not called at all.
func (c *Cached) WithBreaker(b *resilience.Breaker) *Cached {
	c.breaker = b
	return c
}

// Load implements Source.
func (c *Cached) Load(ctx context.Context) (discount.Tables, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.loaded && c.ttl > 0 && now.Sub(c.loadedAt) < c.ttl {
		return c.tables, nil
	}
	tables, err := c.refresh(ctx)
	if err != nil {
		if c.loaded {
			c.logger.Warn().Err(err).Time("loaded_at", c.loadedAt).Msg("rules refresh failed, serving last good tables")
			return c.tables, nil
		}
		return discount.Tables{}, err
	}
	c.tables, c.loaded, c.loadedAt = tables, true, now
	return tables, nil
}

func (c *Cached) refresh(ctx context.Context) (discount.Tables, error) {
	if c.breaker == nil {
		return c.src.Load(ctx)
	}
	var tables discount.Tables
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		tables, err = c.src.Load(ctx)
		return err
	})
	return tables, err
}

// Invalidate forces the next Load to hit the wrapped source.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.loadedAt = time.Time{}
	c.mu.Unlock()
}

// Ping reports the wrapped source's health when it supports Ping.
func (c *Cached) Ping(ctx context.Context) error {
	if p, ok := c.src.(Pinger); ok {
		return p.Ping(ctx)
	}
	_, err := c.Load(ctx)
	return err
}
