package pricing

import (
	"gonum.org/v1/gonum/floats"

	"OptionLab/internal/domain/models"
)

// SensitivityCurve prices the option at points evenly spaced values of one
// parameter over [from, to]. One invalid sample fails the whole curve.
func (b *BlackScholesPricer) SensitivityCurve(p models.MarketParameters, kind models.OptionKind, parameter models.SensitivityParameter, from, to float64, points int) ([]models.CurvePoint, error) {
	if points < 2 {
		return nil, models.NewInvalidParameter("points", float64(points), "need at least two points")
	}
	if err := requireFinite("from", from); err != nil {
		return nil, err
	}
	if err := requireFinite("to", to); err != nil {
		return nil, err
	}
	if to <= from {
		return nil, models.NewInvalidParameter("to", to, "must be greater than from")
	}

	set, err := setter(parameter)
	if err != nil {
		return nil, err
	}

	xs := floats.Span(make([]float64, points), from, to)
	prices := make([]float64, points)
	for i, x := range xs {
		sample := p
		set(&sample, x)
		price, err := b.Price(sample, kind)
		if err != nil {
			return nil, err
		}
		prices[i] = price
	}

	curve := make([]models.CurvePoint, points)
	for i := range xs {
		curve[i] = models.CurvePoint{X: xs[i], Price: prices[i]}
	}
	return curve, nil
}

func setter(parameter models.SensitivityParameter) (func(*models.MarketParameters, float64), error) {
	switch parameter {
	case models.SensitivitySpot:
		return func(p *models.MarketParameters, v float64) { p.Spot = v }, nil
	case models.SensitivityStrike:
		return func(p *models.MarketParameters, v float64) { p.Strike = v }, nil
	case models.SensitivityTime:
		return func(p *models.MarketParameters, v float64) { p.TimeToExpiry = v }, nil
	case models.SensitivityRate:
		return func(p *models.MarketParameters, v float64) { p.RiskFreeRate = v }, nil
	case models.SensitivityVolatility:
		return func(p *models.MarketParameters, v float64) { p.Volatility = v }, nil
	}
	return nil, models.NewInvalidParameter("parameter", 0, "unknown sensitivity parameter "+string(parameter))
}
