package ratelimit

import (
	"context"
	"fmt"
	"time"

	"OptionLab/pkg/cache"
)

// FixedWindow counts requests per key in a shared store so every replica
// sees the same budget.
type FixedWindow struct {
	store  cache.Service
	limit  int64
	window time.Duration
}

func NewFixedWindow(store cache.Service, limit int64, window time.Duration) *FixedWindow {
	return &FixedWindow{store: store, limit: limit, window: window}
}

func (w *FixedWindow) Backend() string { return "redis" }

func (w *FixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	k := "ratelimit:" + key
	n, err := w.store.Increment(ctx, k)
	if err != nil {
		return false, fmt.Errorf("ratelimit increment: %w", err)
	}
	if n == 1 {
		if _, err := w.store.Expire(ctx, k, w.window); err != nil {
			return false, fmt.Errorf("ratelimit expire: %w", err)
		}
	}
	return n <= w.limit, nil
}
