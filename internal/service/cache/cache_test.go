package cache

import (
	"context"
	"testing"
	"time"

	"OptionLab/internal/domain/models"
	pkgcache "OptionLab/pkg/cache"
)

func TestResultCacheSeededOnly(t *testing.T) {
	store := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	defer store.Close()
	rc := NewResultCache(store, time.Minute)
	ctx := context.Background()

	p := models.MarketParameters{Spot: 100, Strike: 95, TimeToExpiry: 1, RiskFreeRate: 0.05, Volatility: 0.2}
	q := models.OptionPriceQuery(models.OptionCall)
	seeded := models.SimulationConfig{Steps: 10, NumPaths: 100}.Seeded(1)
	res := models.PricingResult{Price: 13.1, StandardError: 0.4}

	if err := rc.Put(ctx, p, seeded, q, res); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := rc.Get(ctx, p, seeded, q)
	if err != nil || !ok || got != res {
		t.Fatalf("get: %+v %v %v", got, ok, err)
	}

	other := models.SimulationConfig{Steps: 10, NumPaths: 100}.Seeded(2)
	if _, ok, _ := rc.Get(ctx, p, other, q); ok {
		t.Fatalf("different seed must miss")
	}

	unseeded := models.SimulationConfig{Steps: 10, NumPaths: 100}
	if err := rc.Put(ctx, p, unseeded, q, res); err != nil {
		t.Fatalf("put unseeded: %v", err)
	}
	if _, ok, _ := rc.Get(ctx, p, unseeded, q); ok {
		t.Fatalf("unseeded runs must never hit")
	}
}
