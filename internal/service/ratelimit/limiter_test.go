package ratelimit

import (
	"context"
	"testing"
	"time"

	"OptionLab/pkg/cache"
)

func TestTokenBucketRefills(t *testing.T) {
	now := time.Unix(0, 0)
	l := NewTokenBucket(2, 1)
	l.clock = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow(ctx, "ip"); !ok {
			t.Fatalf("request %d should pass", i)
		}
	}
	if ok, _ := l.Allow(ctx, "ip"); ok {
		t.Fatalf("bucket should be empty")
	}
	if ok, _ := l.Allow(ctx, "other"); !ok {
		t.Fatalf("keys must not share buckets")
	}

	now = now.Add(time.Second)
	if ok, _ := l.Allow(ctx, "ip"); !ok {
		t.Fatalf("expected one token after refill")
	}

	now = now.Add(time.Hour)
	l.Prune()
	if len(l.m) != 0 {
		t.Fatalf("expected idle buckets pruned, have %d", len(l.m))
	}
}

func TestFixedWindowSharesBudget(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	store := cache.NewMemoryCache(cache.WithMemoryClock(func() time.Time { return now }), cache.WithMemoryCleanup(0))
	defer store.Close()
	ctx := context.Background()

	a := NewFixedWindow(store, 3, time.Minute)
	b := NewFixedWindow(store, 3, time.Minute)

	for i := 0; i < 3; i++ {
		l := a
		if i%2 == 1 {
			l = b
		}
		if ok, err := l.Allow(ctx, "ip"); !ok || err != nil {
			t.Fatalf("request %d should pass: %v", i, err)
		}
	}
	if ok, _ := b.Allow(ctx, "ip"); ok {
		t.Fatalf("fourth request in window should be rejected")
	}

	now = now.Add(time.Minute)
	if ok, _ := a.Allow(ctx, "ip"); !ok {
		t.Fatalf("new window should admit")
	}
}
