package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryIncrementAndExpire(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	mc := NewMemoryCache(WithMemoryClock(func() time.Time { return now }), WithMemoryCleanup(0))
	defer mc.Close()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := mc.Increment(ctx, "k")
		if err != nil || got != want {
			t.Fatalf("increment: got %d err %v, want %d", got, err, want)
		}
	}
	if ok, _ := mc.Expire(ctx, "k", time.Second); !ok {
		t.Fatalf("expected expire to apply")
	}
	if ttl, err := mc.TTL(ctx, "k"); err != nil || ttl != time.Second {
		t.Fatalf("ttl: %v %v", ttl, err)
	}

	now = now.Add(time.Second)
	if _, err := mc.TTL(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after expiry, got %v", err)
	}
	if got, _ := mc.Increment(ctx, "k"); got != 1 {
		t.Fatalf("expected counter to restart, got %d", got)
	}
}

func TestMemoryEvictsOldest(t *testing.T) {
	now := time.Unix(0, 0)
	mc := NewMemoryCache(
		WithMemoryClock(func() time.Time { now = now.Add(time.Millisecond); return now }),
		WithMemoryMaxSize(2),
		WithMemoryCleanup(0),
	)
	defer mc.Close()
	ctx := context.Background()

	_, _ = mc.Increment(ctx, "a")
	_, _ = mc.Increment(ctx, "b")
	_, _ = mc.Increment(ctx, "c")

	if _, err := mc.TTL(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected a to be evicted")
	}
	if _, err := mc.TTL(ctx, "c"); err != nil {
		t.Fatalf("expected c to exist: %v", err)
	}
}

func TestMemoryBytesRoundTripAndExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	mc := NewMemoryCache(WithMemoryClock(func() time.Time { return now }), WithMemoryCleanup(0))
	defer mc.Close()
	ctx := context.Background()

	if _, err := mc.GetBytes(ctx, "r"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	value := []byte(`{"price":13.35}`)
	if err := mc.SetBytes(ctx, "r", value, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'x'

	got, err := mc.GetBytes(ctx, "r")
	if err != nil || string(got) != `{"price":13.35}` {
		t.Fatalf("get: %q %v", got, err)
	}

	now = now.Add(time.Minute)
	if _, err := mc.GetBytes(ctx, "r"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expiry, got %v", err)
	}
}
