package service

import (
	"OptionLab/internal/domain/models"
)

// AnalyticalPricer evaluates the closed-form Black-Scholes price of a European option.
type AnalyticalPricer interface {
	Price(params models.MarketParameters, kind models.OptionKind) (float64, error)
	Greeks(params models.MarketParameters, kind models.OptionKind) (models.Greeks, error)
	SensitivityCurve(params models.MarketParameters, kind models.OptionKind, parameter models.SensitivityParameter, from, to float64, points int) ([]models.CurvePoint, error)
}

// PathSimulator generates geometric Brownian motion price paths.
type PathSimulator interface {
	Simulate(spot, drift, volatility, timeToExpiry float64, cfg models.SimulationConfig) (models.PathEnsemble, error)
}

// PayoffEvaluator turns terminal prices into a discounted mean and its standard error.
type PayoffEvaluator interface {
	Evaluate(terminal []float64, rule models.PayoffRule, discountRate, horizon float64) (models.PricingResult, error)
}

// SimulationPricer prices or forecasts by Monte Carlo.
type SimulationPricer interface {
	Price(params models.MarketParameters, cfg models.SimulationConfig, query models.Query) (models.PricingResult, error)
	PriceWithPaths(params models.MarketParameters, cfg models.SimulationConfig, query models.Query) (models.PricingResult, models.PathEnsemble, error)
	SamplePaths(params models.MarketParameters, cfg models.SimulationConfig) (models.PathEnsemble, error)
}

// VolatilityEstimator annualizes the realized volatility of a close series.
type VolatilityEstimator interface {
	HistoricalVolatility(closes []float64, periodsPerYear float64) (float64, error)
}
