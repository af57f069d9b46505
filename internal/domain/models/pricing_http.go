package models

// Requests for pricing HTTP endpoints. Defined in domain for reuse by the
// Kafka and WebSocket transports.

type MarketParametersRequest struct {
	Spot         float64 `json:"spot" validate:"required,gt=0"`
	Strike       float64 `json:"strike" validate:"required,gt=0"`
	TimeToExpiry float64 `json:"time_to_expiry" validate:"required,gt=0"`
	RiskFreeRate float64 `json:"risk_free_rate"`
	Volatility   float64 `json:"volatility" validate:"gte=0"`
}

func (r MarketParametersRequest) ToDomain() MarketParameters {
	return MarketParameters{
		Spot:         r.Spot,
		Strike:       r.Strike,
		TimeToExpiry: r.TimeToExpiry,
		RiskFreeRate: r.RiskFreeRate,
		Volatility:   r.Volatility,
	}
}

// SimulationRequest leaves Steps and Paths nil when the caller wants server
// defaults. Explicit zeros fail the gte=1 validation tag before reaching the
// engine.
type SimulationRequest struct {
	Steps *int   `json:"steps,omitempty" validate:"omitempty,gte=1"`
	Paths *int   `json:"paths,omitempty" validate:"omitempty,gte=1"`
	Seed  *int64 `json:"seed,omitempty"`
}

type AnalyticalPriceRequest struct {
	MarketParametersRequest
	OptionKind string `json:"option_kind" default:"call" validate:"oneof=call put"`
	WithGreeks bool   `json:"with_greeks"`
}

type SimulatePriceRequest struct {
	MarketParametersRequest
	Query      string            `json:"query" default:"option_price" validate:"oneof=option_price stock_forecast"`
	OptionKind string            `json:"option_kind" default:"call" validate:"oneof=call put"`
	Simulation SimulationRequest `json:"simulation"`
}

func (r SimulatePriceRequest) ToQuery() Query {
	if QueryKind(r.Query) == QueryStockForecast {
		return StockForecastQuery()
	}
	return OptionPriceQuery(OptionKind(r.OptionKind))
}

type PathsRequest struct {
	MarketParametersRequest
	Simulation   SimulationRequest `json:"simulation"`
	IncludeStats bool              `json:"include_stats"`
}

type QuoteRequest struct {
	MarketParametersRequest
	OptionKind string            `json:"option_kind" default:"call" validate:"oneof=call put"`
	Simulation SimulationRequest `json:"simulation"`
}

type SensitivityRequest struct {
	MarketParametersRequest
	OptionKind string  `json:"option_kind" default:"call" validate:"oneof=call put"`
	Parameter  string  `json:"parameter" default:"spot" validate:"oneof=spot strike time rate volatility"`
	From       float64 `json:"from"`
	To         float64 `json:"to" validate:"gtfield=From"`
	Points     int     `json:"points" default:"50" validate:"gte=2,lte=1000"`
}

// HistoricalVolatilityRequest annualizes with Frequency when it is set and
// with PeriodsPerYear otherwise.
type HistoricalVolatilityRequest struct {
	Closes         []float64 `json:"closes" validate:"required,min=3,dive,gt=0"`
	Frequency      string    `json:"frequency,omitempty" validate:"omitempty,oneof=1h 1d 1w 1mo"`
	PeriodsPerYear float64   `json:"periods_per_year" default:"252" validate:"gt=0"`
}
