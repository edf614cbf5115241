package cache

import (
	"context"
	"log/slog"
	"time"
)

// Tiered reads through a local L1 to a shared L2 and writes to both.
// L2 failures are logged and never fail the call.
type Tiered struct {
	l1 CacheService
	l2 CacheService
}

func NewTiered(l1, l2 CacheService) *Tiered {
	return &Tiered{l1: l1, l2: l2}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	if value, ok := t.l1.Get(ctx, key); ok {
		return value, true
	}
	value, ok := t.l2.Get(ctx, key)
	if !ok {
		return nil, false
	}
	// Promote with the L1 default TTL; L2 keeps the authoritative expiry.
	_ = t.l1.Set(ctx, key, value, 0)
	return value, true
}

func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := t.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if err := t.l2.Set(ctx, key, value, ttl); err != nil {
		slog.Warn("l2 cache set failed", slog.String("key", key), slog.Any("error", err))
	}
	return nil
}

func (t *Tiered) Invalidate(ctx context.Context, pattern string) error {
	if err := t.l1.Invalidate(ctx, pattern); err != nil {
		return err
	}
	if err := t.l2.Invalidate(ctx, pattern); err != nil {
		slog.Warn("l2 cache invalidate failed", slog.String("pattern", pattern), slog.Any("error", err))
	}
	return nil
}

var _ CacheService = (*Tiered)(nil)
