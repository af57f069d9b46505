package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"OptionLab/internal/domain/models"
	"OptionLab/internal/domain/service"
	svccache "OptionLab/internal/service/cache"
	"OptionLab/internal/services/features"
	"OptionLab/internal/services/pricing"
	"OptionLab/pkg/logger"
)

type recordingMetrics struct {
	mu      sync.Mutex
	pricing map[string]int
	errors  map[string]int
	latency map[string]int
	paths   int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		pricing: map[string]int{},
		errors:  map[string]int{},
		latency: map[string]int{},
	}
}

func (m *recordingMetrics) RecordPricing(model, query string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pricing[model+"/"+query]++
}

func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *recordingMetrics) RecordLatency(op string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency[op]++
}

func (m *recordingMetrics) RecordSimulatedPaths(paths, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths += paths
}

func newUseCase(m *recordingMetrics) *PricingUseCase {
	return NewPricingUseCase(
		pricing.NewBlackScholesPricer(),
		pricing.NewMonteCarloPricer(pricing.NewGBMSimulator(), pricing.NewPayoffEvaluator()),
		features.NewEstimator(),
		m,
		logger.Nop(),
		5*time.Second,
	)
}

func market() models.MarketParameters {
	return models.MarketParameters{Spot: 100, Strike: 95, TimeToExpiry: 1, RiskFreeRate: 0.05, Volatility: 0.2}
}

func TestAnalyticalRecordsMetrics(t *testing.T) {
	m := newRecordingMetrics()
	uc := newUseCase(m)

	price, err := uc.Analytical(context.Background(), market(), models.OptionCall)
	if err != nil {
		t.Fatalf("analytical: %v", err)
	}
	if math.Abs(price-13.3465) > 1e-3 {
		t.Fatalf("price %v", price)
	}
	if m.pricing[models.ModelBlackScholes+"/call"] != 1 || m.latency["analytical"] != 1 {
		t.Fatalf("metrics not recorded: %+v %+v", m.pricing, m.latency)
	}
}

func TestInvalidParameterIsCountedAndWrapped(t *testing.T) {
	m := newRecordingMetrics()
	uc := newUseCase(m)
	p := market()
	p.Spot = -1

	_, err := uc.Analytical(context.Background(), p, models.OptionCall)
	if !errors.Is(err, models.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
	ipe, ok := models.AsInvalidParameter(err)
	if !ok || ipe.Field != "spot" {
		t.Fatalf("expected field spot, got %+v", ipe)
	}
	if m.errors["invalid_parameter"] != 1 {
		t.Fatalf("error not counted: %+v", m.errors)
	}
}

func TestCancelledContextShortCircuits(t *testing.T) {
	m := newRecordingMetrics()
	uc := newUseCase(m)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := uc.Simulate(ctx, market(), models.SimulationConfig{Steps: 1, NumPaths: 10}, models.OptionPriceQuery(models.OptionCall)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if len(m.latency) != 0 {
		t.Fatalf("nothing should run on a cancelled context: %+v", m.latency)
	}
}

func TestSimulateWithPathsCountsPaths(t *testing.T) {
	m := newRecordingMetrics()
	uc := newUseCase(m)
	cfg := models.SimulationConfig{Steps: 10, NumPaths: 200}.Seeded(3)

	res, ens, err := uc.SimulateWithPaths(context.Background(), market(), cfg, models.OptionPriceQuery(models.OptionPut))
	if err != nil {
		t.Fatalf("simulate with paths: %v", err)
	}
	if ens.NumPaths() != 200 || len(ens.Paths[0]) != 11 {
		t.Fatalf("unexpected ensemble shape %d x %d", ens.NumPaths(), len(ens.Paths[0]))
	}
	if res.Price <= 0 || res.StandardError <= 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if m.paths != 200 || m.pricing[models.ModelMonteCarlo+"/put"] != 1 {
		t.Fatalf("metrics: paths=%d pricing=%+v", m.paths, m.pricing)
	}
}

func TestQuoteComparesBothModels(t *testing.T) {
	m := newRecordingMetrics()
	uc := newUseCase(m)
	cfg := models.SimulationConfig{Steps: 1, NumPaths: 50_000}.Seeded(42)

	q, err := uc.Quote(context.Background(), market(), models.OptionCall, cfg)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if math.Abs(q.Difference-(q.Simulated.Price-q.Analytical)) > 1e-12 {
		t.Fatalf("difference inconsistent: %+v", q)
	}
	if math.Abs(q.ZScore) > 5 {
		t.Fatalf("simulated price too far from closed form: %+v", q)
	}

	again, err := uc.Quote(context.Background(), market(), models.OptionCall, cfg)
	if err != nil {
		t.Fatalf("quote again: %v", err)
	}
	if again != q {
		t.Fatalf("seeded quote not reproducible: %+v vs %+v", again, q)
	}
}

func TestQuoteFailsWhenEitherBranchFails(t *testing.T) {
	uc := newUseCase(newRecordingMetrics())
	_, err := uc.Quote(context.Background(), market(), models.OptionCall, models.SimulationConfig{Steps: 0, NumPaths: 10})
	if !errors.Is(err, models.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
}

func TestHistoricalVolatility(t *testing.T) {
	uc := newUseCase(newRecordingMetrics())
	vol, err := uc.HistoricalVolatility(context.Background(), []float64{100, 101, 99, 102, 103}, 252)
	if err != nil {
		t.Fatalf("historical volatility: %v", err)
	}
	if vol <= 0 {
		t.Fatalf("expected positive volatility, got %v", vol)
	}
	if _, err := uc.HistoricalVolatility(context.Background(), []float64{100}, 252); err == nil {
		t.Fatalf("expected error for a single close")
	}
}

type countingSimulation struct {
	service.SimulationPricer
	calls int
}

func (c *countingSimulation) Price(p models.MarketParameters, cfg models.SimulationConfig, q models.Query) (models.PricingResult, error) {
	c.calls++
	return c.SimulationPricer.Price(p, cfg, q)
}

func TestSeededSimulationServedFromCache(t *testing.T) {
	sim := &countingSimulation{
		SimulationPricer: pricing.NewMonteCarloPricer(pricing.NewGBMSimulator(), pricing.NewPayoffEvaluator()),
	}
	uc := NewPricingUseCase(pricing.NewBlackScholesPricer(), sim, features.NewEstimator(), newRecordingMetrics(), logger.Nop(), time.Second)
	rc := svccache.NewMemoryResultCache(time.Minute, 100)
	defer rc.Close()
	uc.SetResultCache(rc)

	ctx := context.Background()
	q := models.OptionPriceQuery(models.OptionCall)
	cfg := models.SimulationConfig{Steps: 5, NumPaths: 300}.Seeded(8)

	first, err := uc.Simulate(ctx, market(), cfg, q)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := uc.Simulate(ctx, market(), cfg, q)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first != second || sim.calls != 1 {
		t.Fatalf("expected one engine call and equal results, got %d calls", sim.calls)
	}

	unseeded := models.SimulationConfig{Steps: 5, NumPaths: 300}
	_, _ = uc.Simulate(ctx, market(), unseeded, q)
	_, _ = uc.Simulate(ctx, market(), unseeded, q)
	if sim.calls != 3 {
		t.Fatalf("unseeded runs must reach the engine, got %d calls", sim.calls)
	}
}
