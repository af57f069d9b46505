package pricing

import (
	"math"
	"math/rand"
	"time"

	"OptionLab/internal/domain/models"
)

// maxEnsembleCells caps one ensemble allocation well under the runtime limit.
const maxEnsembleCells = 1 << 40

// ensembleFits reports whether numPaths rows of steps+1 prices can be
// allocated as one slice without overflowing int.
func ensembleFits(steps, numPaths int) bool {
	limit := int64(maxEnsembleCells)
	if int64(math.MaxInt)/8 < limit {
		limit = int64(math.MaxInt) / 8
	}
	if int64(steps) >= limit {
		return false
	}
	return int64(numPaths) <= limit/(int64(steps)+1)
}

// GBMSimulator draws log-normal price paths. Every call owns its generator,
// so one simulator may be shared across goroutines.
type GBMSimulator struct {
	clock func() time.Time
}

func NewGBMSimulator() *GBMSimulator {
	return &GBMSimulator{clock: time.Now}
}

// Simulate returns cfg.NumPaths rows of cfg.Steps+1 prices under
// dS = drift*S dt + volatility*S dW. Row i column 0 is spot.
// Normals are drawn row by row, so a fixed seed gives identical ensembles.
func (s *GBMSimulator) Simulate(spot, drift, volatility, timeToExpiry float64, cfg models.SimulationConfig) (models.PathEnsemble, error) {
	if err := requirePositive("spot", spot); err != nil {
		return models.PathEnsemble{}, err
	}
	if err := requireFinite("drift", drift); err != nil {
		return models.PathEnsemble{}, err
	}
	if err := requireNonNegative("volatility", volatility); err != nil {
		return models.PathEnsemble{}, err
	}
	if err := requirePositive("time_to_expiry", timeToExpiry); err != nil {
		return models.PathEnsemble{}, err
	}
	if cfg.Steps <= 0 {
		return models.PathEnsemble{}, models.NewInvalidParameter("steps", float64(cfg.Steps), "must be at least 1")
	}
	if cfg.NumPaths <= 0 {
		return models.PathEnsemble{}, models.NewInvalidParameter("num_paths", float64(cfg.NumPaths), "must be at least 1")
	}
	if !ensembleFits(cfg.Steps, cfg.NumPaths) {
		return models.PathEnsemble{}, models.NewInvalidParameter("num_paths", float64(cfg.NumPaths), "ensemble too large to allocate")
	}

	var seed int64
	if cfg.Seed != nil {
		seed = *cfg.Seed
	} else {
		seed = s.clock().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	dt := timeToExpiry / float64(cfg.Steps)
	mu := (drift - 0.5*volatility*volatility) * dt
	sd := volatility * math.Sqrt(dt)

	width := cfg.Steps + 1
	backing := make([]float64, cfg.NumPaths*width)
	paths := make([][]float64, cfg.NumPaths)
	for i := range paths {
		row := backing[i*width : (i+1)*width : (i+1)*width]
		row[0] = spot
		logReturn := 0.0
		for t := 1; t < width; t++ {
			logReturn += mu + sd*rng.NormFloat64()
			row[t] = spot * math.Exp(logReturn)
		}
		paths[i] = row
	}

	return models.PathEnsemble{Steps: cfg.Steps, Paths: paths}, nil
}
