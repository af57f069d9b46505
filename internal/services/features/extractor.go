package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"OptionLab/internal/domain/models"
)

// ComputeLogReturns computes r_t = ln(C_t / C_{t-1}).
// It returns len(closes)-1 values, or nil if there are fewer than two closes.
func ComputeLogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out[i-1] = math.Log(closes[i] / closes[i-1])
	}
	return out
}

// RealizedVolatility annualizes the sample standard deviation of the last
// window log returns. Returns 0 when the window cannot be filled.
func RealizedVolatility(logReturns []float64, window int, periodsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	variance := stat.Variance(logReturns[len(logReturns)-window:], nil)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * periodsPerYear)
}

// PeriodsPerYear maps a sampling frequency to the annualization factor.
func PeriodsPerYear(frequency string) float64 {
	switch frequency {
	case "1h":
		return 252 * 6.5
	case "1w":
		return 52
	case "1mo":
		return 12
	default: // 1d
		return 252
	}
}

// Estimator is a close-series volatility estimator over the whole sample.
type Estimator struct{}

func NewEstimator() *Estimator {
	return &Estimator{}
}

func (e *Estimator) HistoricalVolatility(closes []float64, periodsPerYear float64) (float64, error) {
	if len(closes) < 3 {
		return 0, models.NewInvalidParameter("closes", float64(len(closes)), "need at least three closes")
	}
	for _, c := range closes {
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			return 0, models.NewInvalidParameter("closes", c, "closes must be positive finite prices")
		}
	}
	if math.IsNaN(periodsPerYear) || math.IsInf(periodsPerYear, 0) || periodsPerYear <= 0 {
		return 0, models.NewInvalidParameter("periods_per_year", periodsPerYear, "must be positive")
	}

	returns := ComputeLogReturns(closes)
	return RealizedVolatility(returns, len(returns), periodsPerYear), nil
}
