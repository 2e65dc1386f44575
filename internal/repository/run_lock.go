package repository

import (
	"context"
	"sync"
	"time"

	"SignalSynth/pkg/cache"
)

const runLockKey = "synthesis:run"

// CacheRunLock implements RunLock on the cache service. With the Redis
// backend the lock also excludes concurrent runs across replicas.
type CacheRunLock struct {
	cache cache.Service
	ttl   time.Duration
}

func NewCacheRunLock(svc cache.Service, ttl time.Duration) *CacheRunLock {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CacheRunLock{cache: svc, ttl: ttl}
}

func (l *CacheRunLock) Acquire(ctx context.Context) (bool, error) {
	return l.cache.TryLock(ctx, runLockKey, l.ttl)
}

func (l *CacheRunLock) Release(ctx context.Context) error {
	return l.cache.Unlock(ctx, runLockKey)
}

// LocalRunLock is a process-local RunLock for single instance deployments
// without Redis.
type LocalRunLock struct {
	mu   sync.Mutex
	held bool
}

func NewLocalRunLock() *LocalRunLock { return &LocalRunLock{} }

func (l *LocalRunLock) Acquire(context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *LocalRunLock) Release(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	return nil
}
