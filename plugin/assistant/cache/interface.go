// Package cache holds short-lived assistant state: pending suggestions and
// the parsed venue listing.
package cache

import (
	"context"
	"time"
)

// CacheService is a byte-oriented key/value cache with per-entry TTL.
type CacheService interface {
	// Get returns the value and whether it exists and has not expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key. A non-positive ttl uses the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes key, or every key with the given prefix when pattern ends in "*".
	Invalidate(ctx context.Context, pattern string) error
}
