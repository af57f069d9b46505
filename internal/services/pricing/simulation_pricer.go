package pricing

import (
	"OptionLab/internal/domain/models"
	"OptionLab/internal/domain/service"
)

// MonteCarloPricer simulates under the risk-neutral drift and evaluates the
// terminal column. Option prices are discounted at the risk-free rate;
// forecasts are not discounted.
type MonteCarloPricer struct {
	simulator service.PathSimulator
	evaluator service.PayoffEvaluator
}

func NewMonteCarloPricer(simulator service.PathSimulator, evaluator service.PayoffEvaluator) *MonteCarloPricer {
	return &MonteCarloPricer{simulator: simulator, evaluator: evaluator}
}

func (m *MonteCarloPricer) Price(p models.MarketParameters, cfg models.SimulationConfig, q models.Query) (models.PricingResult, error) {
	res, _, err := m.PriceWithPaths(p, cfg, q)
	return res, err
}

// PriceWithPaths returns the estimate together with the ensemble it was
// computed from.
func (m *MonteCarloPricer) PriceWithPaths(p models.MarketParameters, cfg models.SimulationConfig, q models.Query) (models.PricingResult, models.PathEnsemble, error) {
	rule, discountRate, err := ruleFor(p, q)
	if err != nil {
		return models.PricingResult{}, models.PathEnsemble{}, err
	}

	ensemble, err := m.SamplePaths(p, cfg)
	if err != nil {
		return models.PricingResult{}, models.PathEnsemble{}, err
	}

	res, err := m.evaluator.Evaluate(ensemble.Terminal(), rule, discountRate, p.TimeToExpiry)
	if err != nil {
		return models.PricingResult{}, models.PathEnsemble{}, err
	}
	return res, ensemble, nil
}

func (m *MonteCarloPricer) SamplePaths(p models.MarketParameters, cfg models.SimulationConfig) (models.PathEnsemble, error) {
	return m.simulator.Simulate(p.Spot, p.RiskFreeRate, p.Volatility, p.TimeToExpiry, cfg)
}

func ruleFor(p models.MarketParameters, q models.Query) (models.PayoffRule, float64, error) {
	switch q.Kind {
	case models.QueryStockForecast:
		return models.IdentityPayoff(), 0, nil
	case models.QueryOptionPrice:
		if err := requirePositive("strike", p.Strike); err != nil {
			return models.PayoffRule{}, 0, err
		}
		switch q.Option {
		case models.OptionCall:
			return models.CallPayoff(p.Strike), p.RiskFreeRate, nil
		case models.OptionPut:
			return models.PutPayoff(p.Strike), p.RiskFreeRate, nil
		}
		return models.PayoffRule{}, 0, models.NewInvalidParameter("option_kind", 0, "must be call or put")
	}
	return models.PayoffRule{}, 0, models.NewInvalidParameter("query", 0, "unknown query "+string(q.Kind))
}
