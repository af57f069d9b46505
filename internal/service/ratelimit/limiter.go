package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter admits or rejects one request for key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Backend() string
}

type bucket struct {
	tokens float64
	last   time.Time
}

// TokenBucket is a per-process limiter: each key holds up to capacity tokens
// refilled at refillPerSec.
type TokenBucket struct {
	mu           sync.Mutex
	m            map[string]*bucket
	capacity     float64
	refillPerSec float64
	clock        func() time.Time
}

func NewTokenBucket(capacity, refillPerSec float64) *TokenBucket {
	return &TokenBucket{
		m:            make(map[string]*bucket),
		capacity:     capacity,
		refillPerSec: refillPerSec,
		clock:        time.Now,
	}
}

func (l *TokenBucket) Backend() string { return "memory" }

func (l *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.refillPerSec
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

// Prune drops buckets that have been idle long enough to be full again.
func (l *TokenBucket) Prune() {
	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, b := range l.m {
		if b.tokens+now.Sub(b.last).Seconds()*l.refillPerSec >= l.capacity {
			delete(l.m, k)
		}
	}
}
