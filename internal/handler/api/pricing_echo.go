package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	models "OptionLab/internal/domain/models"
	svcmetrics "OptionLab/internal/service/metrics"
	"OptionLab/internal/service/ratelimit"
	"OptionLab/internal/services/features"
	"OptionLab/internal/usecase"
	xhttp "OptionLab/pkg/http"
	"OptionLab/pkg/http/middleware"
	xlogger "OptionLab/pkg/logger"
)

// PriceResponse carries a price as a float and as a fixed-decimal string.
type PriceResponse struct {
	Model         string         `json:"model"`
	OptionKind    string         `json:"option_kind,omitempty"`
	Query         string         `json:"query,omitempty"`
	Price         float64        `json:"price"`
	PriceDisplay  string         `json:"price_display"`
	StandardError *float64       `json:"standard_error,omitempty"`
	Steps         int            `json:"steps,omitempty"`
	Paths         int            `json:"paths,omitempty"`
	Greeks        *models.Greeks `json:"greeks,omitempty"`
}

// PathsResponse carries the ensemble; TerminalMean is set only on request.
type PathsResponse struct {
	Steps        int         `json:"steps"`
	NumPaths     int         `json:"num_paths"`
	Paths        [][]float64 `json:"paths"`
	TerminalMean *float64    `json:"terminal_mean,omitempty"`
}

type QuoteResponse struct {
	models.Quote
	AnalyticalDisplay string `json:"analytical_display"`
	SimulatedDisplay  string `json:"simulated_display"`
}

type SensitivityResponse struct {
	OptionKind string              `json:"option_kind"`
	Parameter  string              `json:"parameter"`
	Points     []models.CurvePoint `json:"points"`
}

type VolatilityResponse struct {
	Volatility     float64 `json:"volatility"`
	Observations   int     `json:"observations"`
	PeriodsPerYear float64 `json:"periods_per_year"`
}

// PricingEchoHandler exposes the pricing use case over HTTP.
type PricingEchoHandler struct {
	logger   *xlogger.Logger
	pricing  *usecase.PricingUseCase
	limits   usecase.SimulationLimits
	decimals int32
	limiter  ratelimit.Limiter
}

// NewPricingEchoHandler builds the handler. limiter may be nil.
func NewPricingEchoHandler(logger *xlogger.Logger, pricing *usecase.PricingUseCase, limits usecase.SimulationLimits, decimals int32, limiter ratelimit.Limiter) *PricingEchoHandler {
	return &PricingEchoHandler{
		logger:   logger.With("pricing_api"),
		pricing:  pricing,
		limits:   limits,
		decimals: decimals,
		limiter:  limiter,
	}
}

func (h *PricingEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	if h.limiter != nil {
		backend := h.limiter.Backend()
		g.Use(middleware.RateLimit(h.limiter, h.logger, func() {
			svcmetrics.RateLimited.WithLabelValues(backend).Inc()
		}))
	}
	g.POST("/price/analytical", h.Analytical)
	g.POST("/price/simulate", h.Simulate)
	g.POST("/paths", h.Paths)
	g.POST("/quote", h.Quote)
	g.POST("/sensitivity", h.Sensitivity)
	g.POST("/volatility/historical", h.HistoricalVolatility)
}

func (h *PricingEchoHandler) Analytical(c echo.Context) error {
	defer observe("analytical", time.Now())
	req := &models.AnalyticalPriceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "analytical", verr)
	}
	ctx := c.Request().Context()
	p := req.ToDomain()
	kind := models.OptionKind(req.OptionKind)

	price, err := h.pricing.Analytical(ctx, p, kind)
	if err != nil {
		return h.fail(c, "analytical", err)
	}
	res := PriceResponse{
		Model:        models.ModelBlackScholes,
		OptionKind:   req.OptionKind,
		Price:        price,
		PriceDisplay: h.display(price),
	}
	if req.WithGreeks {
		g, err := h.pricing.Greeks(ctx, p, kind)
		if err != nil {
			return h.fail(c, "analytical", err)
		}
		res.Greeks = &g
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PricingEchoHandler) Simulate(c echo.Context) error {
	defer observe("simulate", time.Now())
	req := &models.SimulatePriceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "simulate", verr)
	}
	cfg, aerr := h.simulationConfig(req.Simulation)
	if aerr != nil {
		return h.reject(c, "simulate", aerr)
	}
	q := req.ToQuery()

	res, err := h.pricing.Simulate(c.Request().Context(), req.ToDomain(), cfg, q)
	if err != nil {
		return h.fail(c, "simulate", err)
	}
	se := res.StandardError
	out := PriceResponse{
		Model:         models.ModelMonteCarlo,
		Query:         string(q.Kind),
		OptionKind:    string(q.Option),
		Price:         res.Price,
		PriceDisplay:  h.display(res.Price),
		StandardError: &se,
		Steps:         cfg.Steps,
		Paths:         cfg.NumPaths,
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *PricingEchoHandler) Paths(c echo.Context) error {
	defer observe("paths", time.Now())
	req := &models.PathsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "paths", verr)
	}
	cfg, aerr := h.simulationConfig(req.Simulation)
	if aerr != nil {
		return h.reject(c, "paths", aerr)
	}

	ens, err := h.pricing.Paths(c.Request().Context(), req.ToDomain(), cfg)
	if err != nil {
		return h.fail(c, "paths", err)
	}
	out := PathsResponse{Steps: ens.Steps, NumPaths: ens.NumPaths(), Paths: ens.Paths}
	if req.IncludeStats {
		mean := stat.Mean(ens.Terminal(), nil)
		out.TerminalMean = &mean
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *PricingEchoHandler) Quote(c echo.Context) error {
	defer observe("quote", time.Now())
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "quote", verr)
	}
	cfg, aerr := h.simulationConfig(req.Simulation)
	if aerr != nil {
		return h.reject(c, "quote", aerr)
	}

	q, err := h.pricing.Quote(c.Request().Context(), req.ToDomain(), models.OptionKind(req.OptionKind), cfg)
	if err != nil {
		return h.fail(c, "quote", err)
	}
	return xhttp.SuccessResponse(c, QuoteResponse{
		Quote:             q,
		AnalyticalDisplay: h.display(q.Analytical),
		SimulatedDisplay:  h.display(q.Simulated.Price),
	})
}

func (h *PricingEchoHandler) Sensitivity(c echo.Context) error {
	defer observe("sensitivity", time.Now())
	req := &models.SensitivityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "sensitivity", verr)
	}

	curve, err := h.pricing.Sensitivity(c.Request().Context(), req.ToDomain(),
		models.OptionKind(req.OptionKind), models.SensitivityParameter(req.Parameter),
		req.From, req.To, req.Points)
	if err != nil {
		return h.fail(c, "sensitivity", err)
	}
	return xhttp.SuccessResponse(c, SensitivityResponse{
		OptionKind: req.OptionKind,
		Parameter:  req.Parameter,
		Points:     curve,
	})
}

func (h *PricingEchoHandler) HistoricalVolatility(c echo.Context) error {
	defer observe("historical_volatility", time.Now())
	req := &models.HistoricalVolatilityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "historical_volatility", verr)
	}

	periods := req.PeriodsPerYear
	if req.Frequency != "" {
		periods = features.PeriodsPerYear(req.Frequency)
	}
	vol, err := h.pricing.HistoricalVolatility(c.Request().Context(), req.Closes, periods)
	if err != nil {
		return h.fail(c, "historical_volatility", err)
	}
	return xhttp.SuccessResponse(c, VolatilityResponse{
		Volatility:     vol,
		Observations:   len(req.Closes) - 1,
		PeriodsPerYear: periods,
	})
}

// simulationConfig fills omitted fields from server defaults and enforces the
// per-request cell budget.
func (h *PricingEchoHandler) simulationConfig(req models.SimulationRequest) (models.SimulationConfig, *xhttp.AppError) {
	cfg := models.SimulationConfig{Steps: h.limits.DefaultSteps, NumPaths: h.limits.DefaultPaths, Seed: req.Seed}
	if req.Steps != nil {
		cfg.Steps = *req.Steps
	}
	if req.Paths != nil {
		cfg.NumPaths = *req.Paths
	}
	if h.limits.Exceeds(cfg) {
		return cfg, xhttp.FieldError("ERR_TOO_LARGE", "simulation",
			fmt.Sprintf("%d paths x %d steps exceeds the simulation budget", cfg.NumPaths, cfg.Steps)).
			WithParam("max_cells", h.limits.MaxCells)
	}
	return cfg, nil
}

func (h *PricingEchoHandler) display(v float64) string {
	return decimal.NewFromFloat(v).Round(h.decimals).StringFixed(h.decimals)
}

func (h *PricingEchoHandler) badRequest(c echo.Context, endpoint string, verr []xhttp.ValidationError) error {
	svcmetrics.EndpointErrors.WithLabelValues(endpoint, "validation").Inc()
	return xhttp.BadRequestResponse(c, verr)
}

func (h *PricingEchoHandler) reject(c echo.Context, endpoint string, aerr *xhttp.AppError) error {
	svcmetrics.EndpointErrors.WithLabelValues(endpoint, "rejected").Inc()
	return xhttp.AppErrorResponse(c, aerr)
}

// fail maps use case errors onto HTTP errors.
func (h *PricingEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	if ipe, ok := models.AsInvalidParameter(err); ok {
		svcmetrics.EndpointErrors.WithLabelValues(endpoint, "invalid_parameter").Inc()
		return xhttp.AppErrorResponse(c, xhttp.FieldError("ERR_INVALID_PARAMETER", ipe.Field, ipe.Reason).
			WithParam("value", strconv.FormatFloat(ipe.Value, 'g', -1, 64)).
			WithError(err))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		svcmetrics.EndpointErrors.WithLabelValues(endpoint, "timeout").Inc()
		h.logger.Warn(endpoint+" timed out", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.TimeoutError("pricing took too long").WithError(err))
	}
	svcmetrics.EndpointErrors.WithLabelValues(endpoint, "internal").Inc()
	h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("pricing failed").WithError(err))
}

func observe(endpoint string, start time.Time) {
	svcmetrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
