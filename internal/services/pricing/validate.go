package pricing

import (
	"math"

	"OptionLab/internal/domain/models"
)

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func requirePositive(field string, v float64) error {
	if !finite(v) || v <= 0 {
		return models.NewInvalidParameter(field, v, "must be a positive finite number")
	}
	return nil
}

func requireNonNegative(field string, v float64) error {
	if !finite(v) || v < 0 {
		return models.NewInvalidParameter(field, v, "must be a non-negative finite number")
	}
	return nil
}

func requireFinite(field string, v float64) error {
	if !finite(v) {
		return models.NewInvalidParameter(field, v, "must be finite")
	}
	return nil
}

// validateAnalytical checks the inputs of the closed form. Volatility and time
// must be strictly positive; the formula divides by sigma*sqrt(T).
func validateAnalytical(p models.MarketParameters, kind models.OptionKind) error {
	if !kind.Valid() {
		return models.NewInvalidParameter("option_kind", 0, "must be call or put")
	}
	if err := requirePositive("spot", p.Spot); err != nil {
		return err
	}
	if err := requirePositive("strike", p.Strike); err != nil {
		return err
	}
	if err := requirePositive("time_to_expiry", p.TimeToExpiry); err != nil {
		return err
	}
	if err := requireFinite("risk_free_rate", p.RiskFreeRate); err != nil {
		return err
	}
	return requirePositive("volatility", p.Volatility)
}
