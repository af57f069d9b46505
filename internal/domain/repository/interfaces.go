package repository

import (
	"context"

	"OptionLab/internal/domain/models"
)

// PricingReply is the message sent back to a Kafka requester.
type PricingReply struct {
	ID            string               `json:"id"`
	Operation     string               `json:"operation"`
	OK            bool                 `json:"ok"`
	Price         float64              `json:"price,omitempty"`
	StandardError *float64             `json:"standard_error,omitempty"`
	Paths         *models.PathEnsemble `json:"paths,omitempty"`
	Error         string               `json:"error,omitempty"`
	ErrorField    string               `json:"error_field,omitempty"`
}

type ResultPublisher interface {
	PublishReply(ctx context.Context, reply *PricingReply) error
	Close() error
}

type Metrics interface {
	RecordPricing(model, query string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordSimulatedPaths(paths, steps int)
}

// ResultCache holds results of seeded simulations, which are reproducible.
// Implementations ignore unseeded configs.
type ResultCache interface {
	Get(ctx context.Context, p models.MarketParameters, cfg models.SimulationConfig, q models.Query) (models.PricingResult, bool, error)
	Put(ctx context.Context, p models.MarketParameters, cfg models.SimulationConfig, q models.Query, res models.PricingResult) error
}
