package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Contract(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(DefaultMemoryConfig())
	defer m.Close()

	require.NoError(t, m.Set(ctx, "user:1:pending", []byte("x"), time.Hour))
	require.NoError(t, m.Set(ctx, "user:1:other", []byte("y"), time.Hour))
	require.NoError(t, m.Set(ctx, "user:2:pending", []byte("z"), time.Hour))

	got, ok := m.Get(ctx, "user:1:pending")
	assert.True(t, ok)
	assert.Equal(t, []byte("x"), got)

	require.NoError(t, m.Invalidate(ctx, "user:1:*"))
	_, ok = m.Get(ctx, "user:1:pending")
	assert.False(t, ok)
	_, ok = m.Get(ctx, "user:2:pending")
	assert.True(t, ok)
	assert.NoError(t, m.Invalidate(ctx, "missing"))
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(MemoryConfig{Capacity: 16, CleanupInterval: time.Millisecond})
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.Set(ctx, "k", []byte("v"), time.Second)
				m.Get(ctx, "k")
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, m.Len(), 16)
}

func TestTiered_PromotesFromL2(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemory(DefaultMemoryConfig())
	l2 := NewMemory(DefaultMemoryConfig())
	defer l1.Close()
	defer l2.Close()
	tiered := NewTiered(l1, l2)

	require.NoError(t, l2.Set(ctx, "shared", []byte("from-l2"), time.Hour))
	got, ok := tiered.Get(ctx, "shared")
	require.True(t, ok)
	assert.Equal(t, []byte("from-l2"), got)

	got, ok = l1.Get(ctx, "shared")
	require.True(t, ok, "value promoted to l1")
	assert.Equal(t, []byte("from-l2"), got)

	require.NoError(t, tiered.Set(ctx, "both", []byte("v"), time.Hour))
	_, ok = l2.Get(ctx, "both")
	assert.True(t, ok)

	require.NoError(t, tiered.Invalidate(ctx, "both"))
	_, ok = tiered.Get(ctx, "both")
	assert.False(t, ok)
}
