// Package cache layers the result caches consulted by the codec service.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/geohash-codec/internal/core/observability"
)

type Interface interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// Tier is a named cache level; the name labels metrics and logs.
type Tier struct {
	Name  string
	Store Interface
}

// Tiered looks keys up front to back and backfills the tiers that missed.
// Tier errors are logged and counted as misses so a broken remote cache
// never fails a request.
type Tiered struct {
	tiers  []Tier
	logger *slog.Logger
}

func NewTiered(logger *slog.Logger, tiers ...Tier) *Tiered {
	out := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if t.Store != nil {
			out = append(out, t)
		}
	}
	return &Tiered{tiers: out, logger: logger}
}

// Get returns the value and the name of the tier that had it.
func (c *Tiered) Get(ctx context.Context, key string) ([]byte, string, bool) {
	for i, t := range c.tiers {
		val, ok, err := t.Store.Get(ctx, key)
		if err != nil {
			c.logger.WarnContext(ctx, "cache get failed", "tier", t.Name, "key", key, "err", err)
		}
		if err != nil || !ok {
			observability.IncCacheMiss(t.Name)
			continue
		}
		observability.IncCacheHit(t.Name)
		for _, up := range c.tiers[:i] {
			if err := up.Store.Set(ctx, key, val, 0); err != nil {
				c.logger.WarnContext(ctx, "cache backfill failed", "tier", up.Name, "key", key, "err", err)
			}
		}
		return val, t.Name, true
	}
	return nil, "", false
}

// Set writes to every tier and reports the first failure.
func (c *Tiered) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	var first error
	for _, t := range c.tiers {
		if err := t.Store.Set(ctx, key, val, ttl); err != nil {
			c.logger.WarnContext(ctx, "cache set failed", "tier", t.Name, "key", key, "err", err)
			if first == nil {
				first = fmt.Errorf("cache set %s: %w", t.Name, err)
			}
		}
	}
	return first
}
