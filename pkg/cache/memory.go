package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value    int64
	data     []byte
	expireAt time.Time // zero means no expiry
	created  time.Time
}

func (m *memoryItem) expired(now time.Time) bool {
	return !m.expireAt.IsZero() && !now.Before(m.expireAt)
}

// MemoryCache implements Service in process. It is what the rate limiter
// uses when no Redis is configured, and in tests.
type MemoryCache struct {
	mu      sync.Mutex
	data    map[string]*memoryItem
	maxSize int
	clock   func() time.Time
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         100_000,
		CleanupInterval: time.Minute,
		Clock:           time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		data:    make(map[string]*memoryItem),
		maxSize: cfg.MaxSize,
		clock:   cfg.Clock,
		stop:    make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go mc.cleanupLoop(cfg.CleanupInterval)
	}
	return mc
}

func (mc *MemoryCache) GetBytes(_ context.Context, key string) ([]byte, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, ok := mc.data[key]
	if !ok || item.expired(mc.clock()) || item.data == nil {
		return nil, ErrCacheMiss
	}
	out := make([]byte, len(item.data))
	copy(out, item.data)
	return out, nil
}

// SetBytes stores a copy of value. A ttl <= 0 keeps it until evicted.
func (mc *MemoryCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.clock()
	if _, ok := mc.data[key]; !ok && len(mc.data) >= mc.maxSize {
		mc.evictOldestLocked()
	}
	item := &memoryItem{data: append([]byte(nil), value...), created: now}
	if ttl > 0 {
		item.expireAt = now.Add(ttl)
	}
	mc.data[key] = item
	return nil
}

func (mc *MemoryCache) Increment(_ context.Context, key string) (int64, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.clock()
	item, ok := mc.data[key]
	if !ok || item.expired(now) {
		if !ok && len(mc.data) >= mc.maxSize {
			mc.evictOldestLocked()
		}
		mc.data[key] = &memoryItem{value: 1, created: now}
		return 1, nil
	}
	item.value++
	return item.value, nil
}

func (mc *MemoryCache) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.clock()
	item, ok := mc.data[key]
	if !ok || item.expired(now) {
		return false, nil
	}
	item.expireAt = now.Add(expiration)
	return true, nil
}

func (mc *MemoryCache) TTL(_ context.Context, key string) (time.Duration, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.clock()
	item, ok := mc.data[key]
	if !ok || item.expired(now) {
		return 0, ErrCacheMiss
	}
	if item.expireAt.IsZero() {
		return -1, nil
	}
	return item.expireAt.Sub(now), nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		delete(mc.data, k)
	}
	return nil
}

func (mc *MemoryCache) Close() error {
	mc.once.Do(func() { close(mc.stop) })
	return nil
}

// evictOldestLocked must be called with mu held.
func (mc *MemoryCache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, v := range mc.data {
		if oldestKey == "" || v.created.Before(oldest) {
			oldestKey, oldest = k, v.created
		}
	}
	delete(mc.data, oldestKey)
}

func (mc *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			now := mc.clock()
			for k, v := range mc.data {
				if v.expired(now) {
					delete(mc.data, k)
				}
			}
			mc.mu.Unlock()
		case <-mc.stop:
			return
		}
	}
}
