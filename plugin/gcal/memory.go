package gcal

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process calendar for demo mode and tests. The *Err fields
// inject failures.
type Memory struct {
	mu      sync.Mutex
	events  map[string]EventRequest
	nextID  int
	creates int
	deletes int

	PingErr   error
	CreateErr error
	DeleteErr error
}

func NewMemory() *Memory {
	return &Memory{events: make(map[string]EventRequest)}
}

func (m *Memory) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PingErr
}

func (m *Memory) CreateEvent(_ context.Context, req EventRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.nextID++
	ref := fmt.Sprintf("mem-%d", m.nextID)
	m.events[ref] = req
	return ref, nil
}

func (m *Memory) DeleteEvent(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.events, ref)
	return nil
}

// Event returns the stored request for ref.
func (m *Memory) Event(ref string) (EventRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.events[ref]
	return req, ok
}

// Refs lists stored event ids in sorted order.
func (m *Memory) Refs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := make([]string, 0, len(m.events))
	for ref := range m.events {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Calls reports how many create and delete calls were made.
func (m *Memory) Calls() (creates, deletes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates, m.deletes
}
