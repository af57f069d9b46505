package models

// OptionKind selects the payoff of a European option.
type OptionKind string

const (
	OptionCall OptionKind = "call"
	OptionPut  OptionKind = "put"
)

func (k OptionKind) Valid() bool { return k == OptionCall || k == OptionPut }

// QueryKind selects what a simulation pricing run reports.
type QueryKind string

const (
	QueryOptionPrice   QueryKind = "option_price"
	QueryStockForecast QueryKind = "stock_forecast"
)

// Model names used in results, logs and metrics.
const (
	ModelBlackScholes = "black_scholes"
	ModelMonteCarlo   = "monte_carlo"
)

// MarketParameters describes the underlying and the contract. RiskFreeRate,
// Volatility and TimeToExpiry are annualized; rates are continuous.
type MarketParameters struct {
	Spot         float64 `json:"spot"`
	Strike       float64 `json:"strike"`
	TimeToExpiry float64 `json:"time_to_expiry"`
	RiskFreeRate float64 `json:"risk_free_rate"`
	Volatility   float64 `json:"volatility"`
}

// SimulationConfig controls path generation. A nil Seed means the run is not
// reproducible.
type SimulationConfig struct {
	Steps    int    `json:"steps"`
	NumPaths int    `json:"num_paths"`
	Seed     *int64 `json:"seed,omitempty"`
}

// Seeded returns a copy of c with a fixed seed.
func (c SimulationConfig) Seeded(seed int64) SimulationConfig {
	c.Seed = &seed
	return c
}

// PathEnsemble holds NumPaths rows of Steps+1 prices. Column 0 is the spot.
type PathEnsemble struct {
	Steps int         `json:"steps"`
	Paths [][]float64 `json:"paths"`
}

func (e PathEnsemble) NumPaths() int { return len(e.Paths) }

// Terminal returns the last column.
func (e PathEnsemble) Terminal() []float64 {
	out := make([]float64, len(e.Paths))
	for i, p := range e.Paths {
		out[i] = p[len(p)-1]
	}
	return out
}

// PricingResult is a Monte Carlo estimate and its standard error.
type PricingResult struct {
	Price         float64 `json:"price"`
	StandardError float64 `json:"standard_error"`
}

// Query is the question a simulation answers: an option price of the given
// kind, or the expected terminal stock price.
type Query struct {
	Kind   QueryKind  `json:"kind"`
	Option OptionKind `json:"option_kind,omitempty"`
}

func OptionPriceQuery(kind OptionKind) Query {
	return Query{Kind: QueryOptionPrice, Option: kind}
}

func StockForecastQuery() Query {
	return Query{Kind: QueryStockForecast}
}

// PayoffKind enumerates payoff rules applied to terminal prices.
type PayoffKind string

const (
	PayoffCall     PayoffKind = "call"
	PayoffPut      PayoffKind = "put"
	PayoffIdentity PayoffKind = "identity"
)

// PayoffRule maps a terminal price to a cash flow.
type PayoffRule struct {
	Kind   PayoffKind
	Strike float64
}

func CallPayoff(strike float64) PayoffRule { return PayoffRule{Kind: PayoffCall, Strike: strike} }

func PutPayoff(strike float64) PayoffRule { return PayoffRule{Kind: PayoffPut, Strike: strike} }

func IdentityPayoff() PayoffRule { return PayoffRule{Kind: PayoffIdentity} }

// Greeks are closed-form sensitivities. Vega and Rho are per unit (1.00) of
// volatility and rate; Theta is per year.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// SensitivityParameter names the MarketParameters field a curve varies.
type SensitivityParameter string

const (
	SensitivitySpot       SensitivityParameter = "spot"
	SensitivityStrike     SensitivityParameter = "strike"
	SensitivityTime       SensitivityParameter = "time"
	SensitivityRate       SensitivityParameter = "rate"
	SensitivityVolatility SensitivityParameter = "volatility"
)

type CurvePoint struct {
	X     float64 `json:"x"`
	Price float64 `json:"price"`
}

// Quote compares the closed-form price with a simulated estimate of the same
// contract.
type Quote struct {
	Kind       OptionKind    `json:"option_kind"`
	Analytical float64       `json:"analytical"`
	Simulated  PricingResult `json:"simulated"`
	Difference float64       `json:"difference"`
	ZScore     float64       `json:"z_score"`
}
