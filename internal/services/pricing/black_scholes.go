package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"OptionLab/internal/domain/models"
)

// BlackScholesPricer is stateless and safe for concurrent use.
type BlackScholesPricer struct{}

func NewBlackScholesPricer() *BlackScholesPricer {
	return &BlackScholesPricer{}
}

func d1d2(p models.MarketParameters) (float64, float64) {
	volSqrtT := p.Volatility * math.Sqrt(p.TimeToExpiry)
	d1 := (math.Log(p.Spot/p.Strike) + (p.RiskFreeRate+0.5*p.Volatility*p.Volatility)*p.TimeToExpiry) / volSqrtT
	return d1, d1 - volSqrtT
}

// Price returns the closed-form price of a European call or put.
func (b *BlackScholesPricer) Price(p models.MarketParameters, kind models.OptionKind) (float64, error) {
	if err := validateAnalytical(p, kind); err != nil {
		return 0, err
	}

	d1, d2 := d1d2(p)
	discountedStrike := p.Strike * math.Exp(-p.RiskFreeRate*p.TimeToExpiry)

	if kind == models.OptionCall {
		return p.Spot*distuv.UnitNormal.CDF(d1) - discountedStrike*distuv.UnitNormal.CDF(d2), nil
	}
	return discountedStrike*distuv.UnitNormal.CDF(-d2) - p.Spot*distuv.UnitNormal.CDF(-d1), nil
}

func (b *BlackScholesPricer) Greeks(p models.MarketParameters, kind models.OptionKind) (models.Greeks, error) {
	if err := validateAnalytical(p, kind); err != nil {
		return models.Greeks{}, err
	}

	d1, d2 := d1d2(p)
	sqrtT := math.Sqrt(p.TimeToExpiry)
	pdf := distuv.UnitNormal.Prob(d1)
	discountedStrike := p.Strike * math.Exp(-p.RiskFreeRate*p.TimeToExpiry)
	decay := -p.Spot * pdf * p.Volatility / (2 * sqrtT)

	g := models.Greeks{
		Gamma: pdf / (p.Spot * p.Volatility * sqrtT),
		Vega:  p.Spot * pdf * sqrtT,
	}
	if kind == models.OptionCall {
		g.Delta = distuv.UnitNormal.CDF(d1)
		g.Theta = decay - p.RiskFreeRate*discountedStrike*distuv.UnitNormal.CDF(d2)
		g.Rho = p.TimeToExpiry * discountedStrike * distuv.UnitNormal.CDF(d2)
	} else {
		g.Delta = distuv.UnitNormal.CDF(d1) - 1
		g.Theta = decay + p.RiskFreeRate*discountedStrike*distuv.UnitNormal.CDF(-d2)
		g.Rho = -p.TimeToExpiry * discountedStrike * distuv.UnitNormal.CDF(-d2)
	}
	return g, nil
}
