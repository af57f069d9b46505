package pricing

import (
	"errors"
	"math"
	"sync"
	"testing"

	"OptionLab/internal/domain/models"
)

func seeded(steps, paths int, seed int64) models.SimulationConfig {
	return models.SimulationConfig{Steps: steps, NumPaths: paths}.Seeded(seed)
}

func TestSimulateShapeAndSpotColumn(t *testing.T) {
	sim := NewGBMSimulator()
	ens, err := sim.Simulate(100, 0.05, 0.2, 1, seeded(12, 50, 7))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if ens.NumPaths() != 50 || ens.Steps != 12 {
		t.Fatalf("unexpected shape %d x %d", ens.NumPaths(), ens.Steps)
	}
	for i, row := range ens.Paths {
		if len(row) != 13 {
			t.Fatalf("row %d has %d columns", i, len(row))
		}
		if row[0] != 100 {
			t.Fatalf("row %d starts at %v", i, row[0])
		}
		for _, v := range row {
			if v <= 0 || math.IsNaN(v) {
				t.Fatalf("row %d has non-positive price %v", i, v)
			}
		}
	}
}

func TestSimulateReproducible(t *testing.T) {
	sim := NewGBMSimulator()
	a, err := sim.Simulate(100, 0.05, 0.3, 2, seeded(30, 40, 42))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	b, _ := sim.Simulate(100, 0.05, 0.3, 2, seeded(30, 40, 42))
	for i := range a.Paths {
		for j := range a.Paths[i] {
			if a.Paths[i][j] != b.Paths[i][j] {
				t.Fatalf("paths differ at [%d][%d]: %v vs %v", i, j, a.Paths[i][j], b.Paths[i][j])
			}
		}
	}

	c, _ := sim.Simulate(100, 0.05, 0.3, 2, seeded(30, 40, 43))
	if c.Paths[0][30] == a.Paths[0][30] {
		t.Fatalf("different seeds produced the same terminal price")
	}
}

func TestSimulateConcurrentCallsDoNotInterfere(t *testing.T) {
	sim := NewGBMSimulator()
	want, _ := sim.Simulate(100, 0.05, 0.2, 1, seeded(20, 20, 99))

	var wg sync.WaitGroup
	results := make([]models.PathEnsemble, 8)
	for g := range results {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			// interleave unrelated seeds with the one under test
			_, _ = sim.Simulate(100, 0.05, 0.2, 1, seeded(20, 20, int64(g)))
			results[g], _ = sim.Simulate(100, 0.05, 0.2, 1, seeded(20, 20, 99))
		}(g)
	}
	wg.Wait()

	for g, got := range results {
		for i := range want.Paths {
			for j := range want.Paths[i] {
				if got.Paths[i][j] != want.Paths[i][j] {
					t.Fatalf("goroutine %d diverged at [%d][%d]", g, i, j)
				}
			}
		}
	}
}

func TestSimulateZeroVolatilityIsDeterministic(t *testing.T) {
	sim := NewGBMSimulator()
	const s, r, T, steps = 100.0, 0.05, 1.0, 10
	ens, err := sim.Simulate(s, r, 0, T, models.SimulationConfig{Steps: steps, NumPaths: 5})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	dt := T / steps
	for i, row := range ens.Paths {
		for step, v := range row {
			want := s * math.Exp(r*float64(step)*dt)
			if math.Abs(v-want) > 1e-9*want {
				t.Fatalf("row %d step %d: got %v want %v", i, step, v, want)
			}
		}
	}
}

func TestSimulateUnseededUsesClock(t *testing.T) {
	sim := NewGBMSimulator()
	a, err := sim.Simulate(100, 0.05, 0.2, 1, models.SimulationConfig{Steps: 5, NumPaths: 3})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if a.NumPaths() != 3 || a.Paths[2][0] != 100 {
		t.Fatalf("unexpected ensemble %+v", a)
	}
}

func TestSimulateRejectsInvalidInputs(t *testing.T) {
	sim := NewGBMSimulator()
	cases := []struct {
		name                      string
		spot, drift, vol, horizon float64
		cfg                       models.SimulationConfig
	}{
		{"zero steps", 100, 0.05, 0.2, 1, seeded(0, 10, 1)},
		{"zero paths", 100, 0.05, 0.2, 1, seeded(10, 0, 1)},
		{"negative paths", 100, 0.05, 0.2, 1, seeded(10, -3, 1)},
		{"zero horizon", 100, 0.05, 0.2, 0, seeded(10, 10, 1)},
		{"negative volatility", 100, 0.05, -0.1, 1, seeded(10, 10, 1)},
		{"zero spot", 0, 0.05, 0.2, 1, seeded(10, 10, 1)},
		{"infinite drift", 100, math.Inf(1), 0.2, 1, seeded(10, 10, 1)},
		{"steps overflow int", 100, 0.05, 0.2, 1, seeded(math.MaxInt, 1, 1)},
		{"ensemble too large", 100, 0.05, 0.2, 1, seeded(1<<30, 1<<30, 1)},
	}
	for _, tc := range cases {
		ens, err := sim.Simulate(tc.spot, tc.drift, tc.vol, tc.horizon, tc.cfg)
		if !errors.Is(err, models.ErrInvalidParameter) {
			t.Fatalf("%s: expected invalid parameter, got %v", tc.name, err)
		}
		if ens.Paths != nil {
			t.Fatalf("%s: expected no partial ensemble", tc.name)
		}
	}
}
