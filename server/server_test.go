package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/backstage/plugin/assistant/cache"
	"github.com/hrygo/backstage/plugin/assistant/session"
	"github.com/hrygo/backstage/store"
)

func TestNewCachesKeepsPendingLocal(t *testing.T) {
	ctx := context.Background()
	memory := cache.NewMemory(cache.DefaultMemoryConfig())
	defer memory.Close()
	shared := cache.NewMemory(cache.DefaultMemoryConfig())
	defer shared.Close()

	c := newCaches(memory, shared)

	pending := session.NewPendingStore(c.pending, time.Minute)
	require.NoError(t, pending.Save(ctx, &session.PendingSuggestion{
		OwnerID:    1001,
		Candidates: []*store.Event{{Title: "Аида", Date: "2025-10-16", StartTime: "19:00", EndTime: "21:30"}},
	}))
	loaded, err := pending.Load(ctx, 1001)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Zero(t, shared.Len())

	require.NoError(t, c.listings.Set(ctx, "playbill:listings", []byte("[]"), time.Minute))
	value, ok := shared.Get(ctx, "playbill:listings")
	require.True(t, ok)
	assert.Equal(t, []byte("[]"), value)
}

func TestNewCachesWithoutSharedTier(t *testing.T) {
	memory := cache.NewMemory(cache.DefaultMemoryConfig())
	defer memory.Close()

	c := newCaches(memory, nil)
	assert.Same(t, memory, c.listings)
	assert.Same(t, memory, c.pending)
}
