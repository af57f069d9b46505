package features

import (
	"errors"
	"math"
	"testing"

	"OptionLab/internal/domain/models"
)

func TestComputeLogReturns(t *testing.T) {
	got := ComputeLogReturns([]float64{100, 110, 99})
	if len(got) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(got))
	}
	if math.Abs(got[0]-math.Log(1.1)) > 1e-15 || math.Abs(got[1]-math.Log(0.9)) > 1e-15 {
		t.Fatalf("unexpected returns %v", got)
	}
	if ComputeLogReturns([]float64{100}) != nil {
		t.Fatalf("expected nil for a single close")
	}
}

func TestRealizedVolatility(t *testing.T) {
	r := []float64{0.01, -0.01, 0.01, -0.01}
	// mean 0, sample variance 4e-4/3
	want := math.Sqrt(4e-4 / 3 * 252)
	if got := RealizedVolatility(r, 4, 252); math.Abs(got-want) > 1e-12 {
		t.Fatalf("got %v want %v", got, want)
	}
	if got := RealizedVolatility(r, 5, 252); got != 0 {
		t.Fatalf("expected 0 for short series, got %v", got)
	}
}

func TestHistoricalVolatilityConstantGrowth(t *testing.T) {
	e := NewEstimator()
	closes := []float64{100, 101, 102.01, 103.0301}
	vol, err := e.HistoricalVolatility(closes, PeriodsPerYear("1d"))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if vol > 1e-6 {
		t.Fatalf("constant growth should have ~0 volatility, got %v", vol)
	}
}

func TestHistoricalVolatilityValidation(t *testing.T) {
	e := NewEstimator()
	cases := [][]float64{
		{100, 101},
		{100, 0, 101},
		{100, math.NaN(), 101},
	}
	for _, closes := range cases {
		if _, err := e.HistoricalVolatility(closes, 252); !errors.Is(err, models.ErrInvalidParameter) {
			t.Fatalf("expected invalid parameter for %v, got %v", closes, err)
		}
	}
	if _, err := e.HistoricalVolatility([]float64{1, 2, 3}, 0); !errors.Is(err, models.ErrInvalidParameter) {
		t.Fatalf("expected invalid periods per year")
	}
}
