package assistant

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ownerLocks serializes work per owner. Entries are reference counted and
// dropped once nobody holds or waits on them.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[int64]*ownerLock
}

type ownerLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[int64]*ownerLock)}
}

// acquire blocks until the owner's lock is free or wait elapses. The returned
// func releases it.
func (l *ownerLocks) acquire(ctx context.Context, ownerID int64, wait time.Duration) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[ownerID]
	if !ok {
		lock = &ownerLock{sem: semaphore.NewWeighted(1)}
		l.locks[ownerID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := lock.sem.Acquire(waitCtx, 1); err != nil {
		l.unref(ownerID, lock)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			lock.sem.Release(1)
			l.unref(ownerID, lock)
		})
	}, nil
}

func (l *ownerLocks) unref(ownerID int64, lock *ownerLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, ownerID)
	}
}

func (l *ownerLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
