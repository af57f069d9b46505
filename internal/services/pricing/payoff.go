package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"OptionLab/internal/domain/models"
)

// PayoffEvaluator is stateless.
type PayoffEvaluator struct{}

func NewPayoffEvaluator() *PayoffEvaluator {
	return &PayoffEvaluator{}
}

// Evaluate applies rule to every terminal price, discounts by
// exp(-discountRate*horizon) and reports the sample mean with its standard
// error stddev(N-1)/sqrt(N). A single sample has no spread, so its standard
// error is 0.
func (e *PayoffEvaluator) Evaluate(terminal []float64, rule models.PayoffRule, discountRate, horizon float64) (models.PricingResult, error) {
	if len(terminal) == 0 {
		return models.PricingResult{}, models.NewInvalidParameter("terminal_values", 0, "must not be empty")
	}
	if err := requireFinite("discount_rate", discountRate); err != nil {
		return models.PricingResult{}, err
	}
	if err := requireNonNegative("horizon", horizon); err != nil {
		return models.PricingResult{}, err
	}
	payoff, err := payoffFunc(rule)
	if err != nil {
		return models.PricingResult{}, err
	}

	discount := math.Exp(-discountRate * horizon)
	values := make([]float64, len(terminal))
	for i, s := range terminal {
		values[i] = discount * payoff(s)
	}

	res := models.PricingResult{Price: stat.Mean(values, nil)}
	if n := len(values); n > 1 {
		res.StandardError = stat.StdDev(values, nil) / math.Sqrt(float64(n))
	}
	return res, nil
}

func payoffFunc(rule models.PayoffRule) (func(float64) float64, error) {
	switch rule.Kind {
	case models.PayoffIdentity:
		return func(s float64) float64 { return s }, nil
	case models.PayoffCall, models.PayoffPut:
		if err := requirePositive("strike", rule.Strike); err != nil {
			return nil, err
		}
		k := rule.Strike
		if rule.Kind == models.PayoffCall {
			return func(s float64) float64 { return math.Max(s-k, 0) }, nil
		}
		return func(s float64) float64 { return math.Max(k-s, 0) }, nil
	}
	return nil, models.NewInvalidParameter("payoff", 0, "unknown payoff rule "+string(rule.Kind))
}
