package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryConfig configures the in-process cache.
type MemoryConfig struct {
	Capacity        int
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
}

func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Capacity:        1000,
		DefaultTTL:      30 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// Memory is a CacheService over LRUCache with a background sweeper.
type Memory struct {
	lru *LRUCache

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Memory{
		lru:    NewLRUCache(cfg.Capacity, cfg.DefaultTTL),
		cancel: cancel,
	}

	m.wg.Add(1)
	go m.sweep(ctx, cfg.CleanupInterval)
	return m
}

// Close stops the sweeper.
func (m *Memory) Close() {
	m.cancel()
	m.wg.Wait()
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	return m.lru.Get(key)
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.lru.Set(key, value, ttl)
	return nil
}

func (m *Memory) Invalidate(_ context.Context, pattern string) error {
	m.lru.Invalidate(pattern)
	return nil
}

func (m *Memory) Len() int {
	return m.lru.Len()
}

func (m *Memory) sweep(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.lru.CleanupExpired()
		}
	}
}

var _ CacheService = (*Memory)(nil)
