package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"OptionLab/internal/domain/models"
	"OptionLab/internal/domain/repository"
	pkgcache "OptionLab/pkg/cache"
)

// ResultCache stores seeded simulation results. A seeded run is a pure
// function of its inputs, so a hit is exactly what a rerun would produce.
// Unseeded runs are never cached.
type ResultCache struct {
	store pkgcache.Service
	ttl   time.Duration
	owned bool
}

// NewResultCache uses a store owned by someone else; Close leaves it open.
func NewResultCache(store pkgcache.Service, ttl time.Duration) *ResultCache {
	return &ResultCache{store: store, ttl: ttl}
}

// NewMemoryResultCache keeps up to maxEntries results in process.
func NewMemoryResultCache(ttl time.Duration, maxEntries int) *ResultCache {
	store := pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(maxEntries))
	return &ResultCache{store: store, ttl: ttl, owned: true}
}

func (c *ResultCache) Close() error {
	if c.owned {
		return c.store.Close()
	}
	return nil
}

type resultKey struct {
	Params models.MarketParameters `json:"p"`
	Steps  int                     `json:"s"`
	Paths  int                     `json:"n"`
	Seed   int64                   `json:"seed"`
	Query  models.Query            `json:"q"`
}

// key returns the cache key for a run, or false when the run is unseeded.
func key(p models.MarketParameters, cfg models.SimulationConfig, q models.Query) (string, bool) {
	if cfg.Seed == nil {
		return "", false
	}
	b, err := json.Marshal(resultKey{Params: p, Steps: cfg.Steps, Paths: cfg.NumPaths, Seed: *cfg.Seed, Query: q})
	if err != nil {
		// NaN or Inf inputs; the engine rejects them anyway
		return "", false
	}
	sum := sha256.Sum256(b)
	return "mc:" + hex.EncodeToString(sum[:16]), true
}

// Get returns a cached result. Misses and store failures both report false;
// the error is non-nil only for the latter.
func (c *ResultCache) Get(ctx context.Context, p models.MarketParameters, cfg models.SimulationConfig, q models.Query) (models.PricingResult, bool, error) {
	k, ok := key(p, cfg, q)
	if !ok {
		return models.PricingResult{}, false, nil
	}
	b, err := c.store.GetBytes(ctx, k)
	if errors.Is(err, pkgcache.ErrCacheMiss) {
		return models.PricingResult{}, false, nil
	}
	if err != nil {
		return models.PricingResult{}, false, err
	}
	var res models.PricingResult
	if err := json.Unmarshal(b, &res); err != nil {
		return models.PricingResult{}, false, err
	}
	return res, true, nil
}

// Put is a no-op for unseeded runs.
func (c *ResultCache) Put(ctx context.Context, p models.MarketParameters, cfg models.SimulationConfig, q models.Query, res models.PricingResult) error {
	k, ok := key(p, cfg, q)
	if !ok {
		return nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.store.SetBytes(ctx, k, b, c.ttl)
}

var _ repository.ResultCache = (*ResultCache)(nil)
