package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	data    []byte
	expires time.Time
}

func (m memoryItem) expired() bool {
	return !m.expires.IsZero() && time.Now().After(m.expires)
}

// MemoryCache is an in-process Service used when Redis is disabled and in tests.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryItem
	locks map[string]time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]memoryItem),
		locks: make(map[string]time.Time),
	}
}

func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		var err error
		data, err = json.Marshal(value)
		if err != nil {
			return err
		}
	}

	var exp time.Time
	if expiration > 0 {
		exp = time.Now().Add(expiration)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = memoryItem{data: data, expires: exp}
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	item, ok := c.items[key]
	if ok && item.expired() {
		delete(c.items, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	if strPtr, isStr := dest.(*string); isStr {
		*strPtr = string(item.data)
		return nil
	}
	return json.Unmarshal(item.data, dest)
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if until, held := c.locks[key]; held && time.Now().Before(until) {
		return false, nil
	}
	c.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (c *MemoryCache) Unlock(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, key)
	return nil
}

func (c *MemoryCache) Close() error { return nil }
