package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"OptionLab/internal/domain/models"
	domrepo "OptionLab/internal/domain/repository"
	pkgkafka "OptionLab/pkg/kafka"
	"OptionLab/pkg/logger"
)

// Kafka request operations.
const (
	OperationAnalytical = "analytical"
	OperationSimulate   = "simulate"
	OperationPaths      = "paths"
)

// PricingRequest is the body of a message on the request topic.
type PricingRequest struct {
	ID         string                  `json:"id"`
	Operation  string                  `json:"operation"`
	Params     models.MarketParameters `json:"params"`
	OptionKind models.OptionKind       `json:"option_kind"`
	Query      models.QueryKind        `json:"query"`
	Simulation *struct {
		Steps *int   `json:"steps"`
		Paths *int   `json:"paths"`
		Seed  *int64 `json:"seed"`
	} `json:"simulation"`
}

// SimulationLimits fills in omitted simulation settings and caps the
// ensemble size a single request may ask for.
type SimulationLimits struct {
	DefaultSteps int
	DefaultPaths int
	MaxCells     int64
}

var errTooLarge = errors.New("simulation too large")

// Exceeds reports whether cfg asks for more than MaxCells prices, counting
// steps+1 per path. Non-positive sizes are left for the engine to reject.
func (l SimulationLimits) Exceeds(cfg models.SimulationConfig) bool {
	if l.MaxCells <= 0 || cfg.Steps <= 0 || cfg.NumPaths <= 0 {
		return false
	}
	if int64(cfg.Steps) >= l.MaxCells {
		return true
	}
	return int64(cfg.NumPaths) > l.MaxCells/(int64(cfg.Steps)+1)
}

// KafkaPricingHandler answers pricing requests from Kafka with a reply on the
// reply topic. Bad parameters get an ok:false reply; only publish failures
// are returned for retry.
type KafkaPricingHandler struct {
	topic   string
	pricing *PricingUseCase
	replies domrepo.ResultPublisher
	limits  SimulationLimits
	logger  *logger.Logger
}

func NewKafkaPricingHandler(topic string, pricing *PricingUseCase, replies domrepo.ResultPublisher, limits SimulationLimits, l *logger.Logger) *KafkaPricingHandler {
	return &KafkaPricingHandler{
		topic:   topic,
		pricing: pricing,
		replies: replies,
		limits:  limits,
		logger:  l.With("kafka_pricing"),
	}
}

func (h *KafkaPricingHandler) Topic() string { return h.topic }

func (h *KafkaPricingHandler) Handle(ctx context.Context, b []byte) error {
	var req PricingRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return pkgkafka.Permanent(fmt.Errorf("decode pricing request: %w", err))
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	reply := h.answer(ctx, &req)
	if err := h.replies.PublishReply(ctx, reply); err != nil {
		return fmt.Errorf("publish reply %s: %w", req.ID, err)
	}
	return nil
}

func (h *KafkaPricingHandler) answer(ctx context.Context, req *PricingRequest) *domrepo.PricingReply {
	reply := &domrepo.PricingReply{ID: req.ID, Operation: req.Operation}
	kind := req.OptionKind
	if kind == "" {
		kind = models.OptionCall
	}

	var err error
	switch req.Operation {
	case OperationAnalytical:
		reply.Price, err = h.pricing.Analytical(ctx, req.Params, kind)
	case OperationSimulate:
		var cfg models.SimulationConfig
		if cfg, err = h.simulation(req); err == nil {
			q := models.OptionPriceQuery(kind)
			if req.Query == models.QueryStockForecast {
				q = models.StockForecastQuery()
			} else if req.Query != "" && req.Query != models.QueryOptionPrice {
				q = models.Query{Kind: req.Query}
			}
			var res models.PricingResult
			res, err = h.pricing.Simulate(ctx, req.Params, cfg, q)
			reply.Price = res.Price
			se := res.StandardError
			reply.StandardError = &se
		}
	case OperationPaths:
		var cfg models.SimulationConfig
		if cfg, err = h.simulation(req); err == nil {
			var ens models.PathEnsemble
			ens, err = h.pricing.Paths(ctx, req.Params, cfg)
			reply.Paths = &ens
		}
	default:
		err = fmt.Errorf("unknown operation %q", req.Operation)
	}

	if err != nil {
		h.logger.Warn("pricing request rejected",
			logger.String("id", req.ID),
			logger.String("operation", req.Operation),
			logger.Error(err))
		return &domrepo.PricingReply{
			ID:         req.ID,
			Operation:  req.Operation,
			Error:      err.Error(),
			ErrorField: errorField(err),
		}
	}
	reply.OK = true
	return reply
}

func (h *KafkaPricingHandler) simulation(req *PricingRequest) (models.SimulationConfig, error) {
	cfg := models.SimulationConfig{Steps: h.limits.DefaultSteps, NumPaths: h.limits.DefaultPaths}
	if s := req.Simulation; s != nil {
		if s.Steps != nil {
			cfg.Steps = *s.Steps
		}
		if s.Paths != nil {
			cfg.NumPaths = *s.Paths
		}
		cfg.Seed = s.Seed
	}
	if h.limits.Exceeds(cfg) {
		return cfg, fmt.Errorf("%w: %d paths x %d steps exceeds %d cells", errTooLarge, cfg.NumPaths, cfg.Steps, h.limits.MaxCells)
	}
	return cfg, nil
}

func errorField(err error) string {
	if ipe, ok := models.AsInvalidParameter(err); ok {
		return ipe.Field
	}
	return ""
}

var _ pkgkafka.MessageHandler = (*KafkaPricingHandler)(nil)
