package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammed-shakir/geohash-codec/internal/cache/redisstore"
)

type redisTier struct {
	cli     *redisstore.Client
	timeout time.Duration
	ttl     time.Duration
}

// NewRedisTier bounds every call by timeout and uses ttl when the caller
// passes none (backfills).
func NewRedisTier(c *redisstore.Client, timeout, ttl time.Duration) Interface {
	return &redisTier{cli: c, timeout: timeout, ttl: ttl}
}

// returns context with timeout if set
func (a *redisTier) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

func (a *redisTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	v, ok, err := a.cli.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return v, ok, nil
}

func (a *redisTier) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = a.ttl
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.cli.Set(ctx, key, val, ttl); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}
