//go:build wireinject
// +build wireinject

package di

import (
	"OptionLab/pkg/config"
	"OptionLab/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Pricing engine
		ProvideAnalyticalPricer,
		ProvidePathSimulator,
		ProvidePayoffEvaluator,
		ProvideSimulationPricer,
		ProvideVolatilityEstimator,

		// Infrastructure clients
		ProvideRateLimitStore,
		ProvideResultCache,
		ProvideRateLimiter,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideResultPublisher,

		// Use cases
		ProvideSimulationLimits,
		ProvidePricingUseCase,
		ProvideKafkaPricingHandler,

		// Transport
		ProvidePricingEchoHandler,
		ProvidePathsStreamHandler,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
