package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/backstage/plugin/assistant/cache"
	"github.com/hrygo/backstage/store"
)

func newTestPendingStore(t *testing.T) (PendingStore, *cache.Memory) {
	mem := cache.NewMemory(cache.DefaultMemoryConfig())
	t.Cleanup(mem.Close)
	return NewPendingStore(mem, time.Hour), mem
}

func TestPendingStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	ps, _ := newTestPendingStore(t)

	got, err := ps.Load(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, ps.Save(ctx, &PendingSuggestion{
		OwnerID: 1,
		Candidates: []*store.Event{
			{Title: "Кармен", Date: "2025-10-15", StartTime: "19:00", EndTime: "21:30", Hall: store.HallStravinsky, Kind: store.EventKindPerformance},
		},
	}))

	got, err = ps.Load(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Candidates, 1)
	assert.Equal(t, "Кармен", got.Candidates[0].Title)
	assert.NotZero(t, got.CreatedAt)

	other, err := ps.Load(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, other, "suggestions are per owner")

	require.NoError(t, ps.Clear(ctx, 1))
	got, err = ps.Load(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPendingStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	ps, _ := newTestPendingStore(t)

	require.NoError(t, ps.Save(ctx, &PendingSuggestion{OwnerID: 1, Candidates: []*store.Event{{Title: "Аида"}, {Title: "Тоска"}}}))
	require.NoError(t, ps.Save(ctx, &PendingSuggestion{OwnerID: 1, Candidates: []*store.Event{{Title: "Паяцы"}}}))

	got, err := ps.Load(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got.Candidates, 1)
	assert.Equal(t, "Паяцы", got.Candidates[0].Title)
}

func TestPendingStore_CorruptEntryIsAbsent(t *testing.T) {
	ctx := context.Background()
	ps, mem := newTestPendingStore(t)

	require.NoError(t, mem.Set(ctx, "pending:9", []byte("{not json"), time.Hour))
	got, err := ps.Load(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, got)
	_, ok := mem.Get(ctx, "pending:9")
	assert.False(t, ok)
}
