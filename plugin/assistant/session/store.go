package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hrygo/backstage/plugin/assistant/cache"
	"github.com/hrygo/backstage/plugin/assistant/timeout"
)

const cachePrefix = "pending:"

// pendingStore implements PendingStore on top of a CacheService. Suggestions
// are conversation scoped and never reach the relational store.
type pendingStore struct {
	cache cache.CacheService
	ttl   time.Duration
	now   func() time.Time
}

// NewPendingStore creates a pending store. A non-positive ttl uses timeout.PendingTTL.
func NewPendingStore(cache cache.CacheService, ttl time.Duration) PendingStore {
	if ttl <= 0 {
		ttl = timeout.PendingTTL
	}
	return &pendingStore{cache: cache, ttl: ttl, now: time.Now}
}

func cacheKey(ownerID int64) string {
	return cachePrefix + strconv.FormatInt(ownerID, 10)
}

func (s *pendingStore) Save(ctx context.Context, suggestion *PendingSuggestion) error {
	if suggestion.CreatedAt == 0 {
		suggestion.CreatedAt = s.now().Unix()
	}
	data, err := json.Marshal(suggestion)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestion: %w", err)
	}
	if err := s.cache.Set(ctx, cacheKey(suggestion.OwnerID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to save suggestion: %w", err)
	}
	return nil
}

func (s *pendingStore) Load(ctx context.Context, ownerID int64) (*PendingSuggestion, error) {
	data, ok := s.cache.Get(ctx, cacheKey(ownerID))
	if !ok {
		return nil, nil
	}
	var suggestion PendingSuggestion
	if err := json.Unmarshal(data, &suggestion); err != nil {
		// A corrupt entry is as good as none.
		slog.Warn("failed to unmarshal suggestion", slog.Int64("owner_id", ownerID), slog.Any("error", err))
		_ = s.cache.Invalidate(ctx, cacheKey(ownerID))
		return nil, nil
	}
	if len(suggestion.Candidates) == 0 {
		return nil, nil
	}
	return &suggestion, nil
}

func (s *pendingStore) Clear(ctx context.Context, ownerID int64) error {
	if err := s.cache.Invalidate(ctx, cacheKey(ownerID)); err != nil {
		return fmt.Errorf("failed to clear suggestion: %w", err)
	}
	return nil
}
