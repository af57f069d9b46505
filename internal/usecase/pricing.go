package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"OptionLab/internal/domain/models"
	"OptionLab/internal/domain/repository"
	"OptionLab/internal/domain/service"
	"OptionLab/pkg/logger"
)

// PricingUseCase is the entry point every transport calls. It adds metrics,
// logging and context checks around the pricing engine, which stays pure.
type PricingUseCase struct {
	analytical   service.AnalyticalPricer
	simulation   service.SimulationPricer
	volatility   service.VolatilityEstimator
	metrics      repository.Metrics
	results      repository.ResultCache
	logger       *logger.Logger
	quoteTimeout time.Duration
}

func NewPricingUseCase(
	analytical service.AnalyticalPricer,
	simulation service.SimulationPricer,
	volatility service.VolatilityEstimator,
	metrics repository.Metrics,
	l *logger.Logger,
	quoteTimeout time.Duration,
) *PricingUseCase {
	if quoteTimeout <= 0 {
		quoteTimeout = 10 * time.Second
	}
	return &PricingUseCase{
		analytical:   analytical,
		simulation:   simulation,
		volatility:   volatility,
		metrics:      metrics,
		logger:       l.With("pricing"),
		quoteTimeout: quoteTimeout,
	}
}

// SetResultCache enables caching of seeded simulation results.
func (uc *PricingUseCase) SetResultCache(c repository.ResultCache) { uc.results = c }

func (uc *PricingUseCase) Analytical(ctx context.Context, p models.MarketParameters, kind models.OptionKind) (price float64, err error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer uc.observe("analytical", time.Now(), &err)

	price, err = uc.analytical.Price(p, kind)
	if err != nil {
		return 0, fmt.Errorf("analytical price: %w", err)
	}
	uc.metrics.RecordPricing(models.ModelBlackScholes, string(kind))
	return price, nil
}

func (uc *PricingUseCase) Greeks(ctx context.Context, p models.MarketParameters, kind models.OptionKind) (g models.Greeks, err error) {
	if err := ctx.Err(); err != nil {
		return models.Greeks{}, err
	}
	defer uc.observe("greeks", time.Now(), &err)

	g, err = uc.analytical.Greeks(p, kind)
	if err != nil {
		return models.Greeks{}, fmt.Errorf("greeks: %w", err)
	}
	return g, nil
}

func (uc *PricingUseCase) Sensitivity(ctx context.Context, p models.MarketParameters, kind models.OptionKind, parameter models.SensitivityParameter, from, to float64, points int) (curve []models.CurvePoint, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer uc.observe("sensitivity", time.Now(), &err)

	curve, err = uc.analytical.SensitivityCurve(p, kind, parameter, from, to, points)
	if err != nil {
		return nil, fmt.Errorf("sensitivity curve: %w", err)
	}
	return curve, nil
}

func (uc *PricingUseCase) Simulate(ctx context.Context, p models.MarketParameters, cfg models.SimulationConfig, q models.Query) (models.PricingResult, error) {
	res, _, err := uc.simulate(ctx, "simulate", p, cfg, q, false)
	return res, err
}

// SimulateWithPaths returns the estimate and the ensemble it came from.
func (uc *PricingUseCase) SimulateWithPaths(ctx context.Context, p models.MarketParameters, cfg models.SimulationConfig, q models.Query) (models.PricingResult, models.PathEnsemble, error) {
	return uc.simulate(ctx, "simulate_with_paths", p, cfg, q, true)
}

func (uc *PricingUseCase) simulate(ctx context.Context, op string, p models.MarketParameters, cfg models.SimulationConfig, q models.Query, keepPaths bool) (res models.PricingResult, ens models.PathEnsemble, err error) {
	if err := ctx.Err(); err != nil {
		return res, ens, err
	}
	defer uc.observe(op, time.Now(), &err)

	if !keepPaths && uc.results != nil {
		cached, ok, cerr := uc.results.Get(ctx, p, cfg, q)
		if cerr != nil {
			uc.logger.Warn("result cache read failed", logger.Error(cerr))
		}
		if ok {
			uc.metrics.RecordPricing(models.ModelMonteCarlo, queryLabel(q))
			return cached, ens, nil
		}
	}

	if keepPaths {
		res, ens, err = uc.simulation.PriceWithPaths(p, cfg, q)
	} else {
		res, err = uc.simulation.Price(p, cfg, q)
	}
	if err != nil {
		return models.PricingResult{}, models.PathEnsemble{}, fmt.Errorf("simulate: %w", err)
	}
	if uc.results != nil {
		if cerr := uc.results.Put(ctx, p, cfg, q, res); cerr != nil {
			uc.logger.Warn("result cache write failed", logger.Error(cerr))
		}
	}
	uc.metrics.RecordPricing(models.ModelMonteCarlo, queryLabel(q))
	uc.metrics.RecordSimulatedPaths(cfg.NumPaths, cfg.Steps)
	return res, ens, nil
}

func (uc *PricingUseCase) Paths(ctx context.Context, p models.MarketParameters, cfg models.SimulationConfig) (ens models.PathEnsemble, err error) {
	if err := ctx.Err(); err != nil {
		return ens, err
	}
	defer uc.observe("paths", time.Now(), &err)

	ens, err = uc.simulation.SamplePaths(p, cfg)
	if err != nil {
		return models.PathEnsemble{}, fmt.Errorf("sample paths: %w", err)
	}
	uc.metrics.RecordSimulatedPaths(cfg.NumPaths, cfg.Steps)
	return ens, nil
}

func (uc *PricingUseCase) HistoricalVolatility(ctx context.Context, closes []float64, periodsPerYear float64) (vol float64, err error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer uc.observe("historical_volatility", time.Now(), &err)

	vol, err = uc.volatility.HistoricalVolatility(closes, periodsPerYear)
	if err != nil {
		return 0, fmt.Errorf("historical volatility: %w", err)
	}
	return vol, nil
}

// Quote prices the contract in closed form and by simulation concurrently.
// Only the simulation branch draws random numbers, from its own generator.
// A timeout abandons the result; the computation itself is not interrupted.
func (uc *PricingUseCase) Quote(ctx context.Context, p models.MarketParameters, kind models.OptionKind, cfg models.SimulationConfig) (q models.Quote, err error) {
	if err := ctx.Err(); err != nil {
		return q, err
	}
	defer uc.observe("quote", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, uc.quoteTimeout)
	defer cancel()

	var (
		analytical float64
		simulated  models.PricingResult
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		v, err := uc.analytical.Price(p, kind)
		analytical = v
		return err
	})
	g.Go(func() error {
		v, err := uc.simulation.Price(p, cfg, models.OptionPriceQuery(kind))
		simulated = v
		return err
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return models.Quote{}, fmt.Errorf("quote: %w", err)
		}
	case <-ctx.Done():
		return models.Quote{}, fmt.Errorf("quote: %w", ctx.Err())
	}

	q = models.Quote{
		Kind:       kind,
		Analytical: analytical,
		Simulated:  simulated,
		Difference: simulated.Price - analytical,
	}
	if simulated.StandardError > 0 {
		q.ZScore = q.Difference / simulated.StandardError
	}
	uc.metrics.RecordPricing(models.ModelBlackScholes, string(kind))
	uc.metrics.RecordPricing(models.ModelMonteCarlo, string(kind))
	uc.metrics.RecordSimulatedPaths(cfg.NumPaths, cfg.Steps)
	return q, nil
}

func (uc *PricingUseCase) observe(op string, start time.Time, errp *error) {
	elapsed := time.Since(start)
	uc.metrics.RecordLatency(op, elapsed.Seconds())

	err := *errp
	if err == nil {
		uc.logger.Debug("pricing done", logger.String("op", op), logger.Duration("duration_ms", elapsed))
		return
	}
	if errors.Is(err, models.ErrInvalidParameter) {
		uc.metrics.RecordError("invalid_parameter")
		uc.logger.Debug("pricing rejected", logger.String("op", op), logger.Error(err))
		return
	}
	uc.metrics.RecordError(op)
	uc.logger.Error("pricing failed", logger.String("op", op), logger.Error(err))
}

func queryLabel(q models.Query) string {
	if q.Kind == models.QueryOptionPrice {
		return string(q.Option)
	}
	return string(q.Kind)
}
