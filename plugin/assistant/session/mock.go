package session

import (
	"context"
	"sync"
)

// MockPendingStore is an in-memory PendingStore for tests.
type MockPendingStore struct {
	mu    sync.RWMutex
	items map[int64]*PendingSuggestion
}

func NewMockPendingStore() *MockPendingStore {
	return &MockPendingStore{items: make(map[int64]*PendingSuggestion)}
}

func (m *MockPendingStore) Save(_ context.Context, suggestion *PendingSuggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[suggestion.OwnerID] = suggestion
	return nil
}

func (m *MockPendingStore) Load(_ context.Context, ownerID int64) (*PendingSuggestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items[ownerID], nil
}

func (m *MockPendingStore) Clear(_ context.Context, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, ownerID)
	return nil
}

var _ PendingStore = (*MockPendingStore)(nil)
