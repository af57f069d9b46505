package di

import (
	"fmt"

	"OptionLab/internal/domain/repository"
	"OptionLab/internal/domain/service"
	"OptionLab/internal/handler/api"
	internalrepo "OptionLab/internal/repository"
	svccache "OptionLab/internal/service/cache"
	svcmetrics "OptionLab/internal/service/metrics"
	"OptionLab/internal/service/ratelimit"
	"OptionLab/internal/services/features"
	"OptionLab/internal/services/pricing"
	"OptionLab/internal/usecase"
	"OptionLab/pkg/cache"
	"OptionLab/pkg/config"
	xhttp "OptionLab/pkg/http"
	pkgkafka "OptionLab/pkg/kafka"
	"OptionLab/pkg/logger"
	"OptionLab/pkg/metrics"
	"OptionLab/pkg/server"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	svcmetrics.Register()
	return metrics.New()
}

func ProvideAnalyticalPricer() service.AnalyticalPricer {
	return pricing.NewBlackScholesPricer()
}

func ProvidePathSimulator() service.PathSimulator {
	return pricing.NewGBMSimulator()
}

func ProvidePayoffEvaluator() service.PayoffEvaluator {
	return pricing.NewPayoffEvaluator()
}

func ProvideSimulationPricer(sim service.PathSimulator, eval service.PayoffEvaluator) service.SimulationPricer {
	return pricing.NewMonteCarloPricer(sim, eval)
}

func ProvideVolatilityEstimator() service.VolatilityEstimator {
	return features.NewEstimator()
}

// ProvidePricingUseCase creates the pricing use case shared by all transports.
func ProvidePricingUseCase(
	cfg *config.Config,
	analytical service.AnalyticalPricer,
	simulation service.SimulationPricer,
	volatility service.VolatilityEstimator,
	m repository.Metrics,
	results *svccache.ResultCache,
	l *logger.Logger,
) *usecase.PricingUseCase {
	uc := usecase.NewPricingUseCase(analytical, simulation, volatility, m, l, cfg.Pricing.QuoteTimeout)
	if results != nil {
		uc.SetResultCache(results)
	}
	return uc
}

// ProvideResultCache caches seeded simulation results in Redis when a Redis
// store is configured, in process otherwise. Returns nil when disabled.
func ProvideResultCache(cfg *config.Config, store cache.Service) *svccache.ResultCache {
	if !cfg.Pricing.Cache.Enabled {
		return nil
	}
	if store != nil {
		return svccache.NewResultCache(store, cfg.Pricing.Cache.TTL)
	}
	return svccache.NewMemoryResultCache(cfg.Pricing.Cache.TTL, cfg.Pricing.Cache.MaxEntries)
}

func ProvideSimulationLimits(cfg *config.Config) usecase.SimulationLimits {
	return usecase.SimulationLimits{
		DefaultSteps: cfg.Pricing.DefaultSteps,
		DefaultPaths: cfg.Pricing.DefaultPaths,
		MaxCells:     int64(cfg.Pricing.MaxCells),
	}
}

// ProvideRateLimitStore connects to Redis when the redis limiter backend is
// selected. Returns nil otherwise.
func ProvideRateLimitStore(cfg *config.Config) (cache.Service, error) {
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Backend != "redis" {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.RateLimit.Redis.Addr),
		cache.WithRedisPassword(cfg.RateLimit.Redis.Password),
		cache.WithRedisDB(cfg.RateLimit.Redis.DB),
		cache.WithRedisPrefix(cfg.RateLimit.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config, store cache.Service) ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	if store != nil {
		return ratelimit.NewFixedWindow(store, int64(cfg.RateLimit.Capacity), cfg.RateLimit.Window)
	}
	return ratelimit.NewTokenBucket(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideKafkaProducer creates a Kafka producer. Returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideResultPublisher creates the reply publisher. Returns nil without a producer.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ResultPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.ReplyTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
// Returns nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaPricingHandler creates the handler for the request topic.
func ProvideKafkaPricingHandler(
	cfg *config.Config,
	uc *usecase.PricingUseCase,
	replies repository.ResultPublisher,
	limits usecase.SimulationLimits,
	l *logger.Logger,
) *usecase.KafkaPricingHandler {
	return usecase.NewKafkaPricingHandler(cfg.Kafka.RequestTopic, uc, replies, limits, l)
}

func ProvidePricingEchoHandler(
	cfg *config.Config,
	l *logger.Logger,
	uc *usecase.PricingUseCase,
	limits usecase.SimulationLimits,
	limiter ratelimit.Limiter,
) *api.PricingEchoHandler {
	return api.NewPricingEchoHandler(l, uc, limits, cfg.Pricing.DisplayDecimals, limiter)
}

func ProvidePathsStreamHandler(cfg *config.Config, l *logger.Logger, h *api.PricingEchoHandler) *api.PathsStreamHandler {
	return api.NewPathsStreamHandler(l, h, cfg.WebSocket.MaxStreamPaths, cfg.WebSocket.WriteTimeout)
}

// ProvideHTTPHandler combines the routes served by the HTTP server.
func ProvideHTTPHandler(cfg *config.Config, pricingHandler *api.PricingEchoHandler, ws *api.PathsStreamHandler) xhttp.Handler {
	handlers := xhttp.Handlers{pricingHandler}
	if cfg.WebSocket.Enabled {
		handlers = append(handlers, ws)
	}
	return handlers
}

func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithSlowRequestThreshold(cfg.Server.SlowRequest),
		xhttp.WithLogger(l.With("http")),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaPricingHandler,
	producer *pkgkafka.Producer,
	limiter ratelimit.Limiter,
	store cache.Service,
	results *svccache.ResultCache,
) *server.App {
	app := server.New(cfg, l, httpServer)
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.TraceHook())
		app.SetConsumer(consumer, kh)
	}
	if producer != nil {
		app.SetProducer(producer)
	}
	if tb, ok := limiter.(*ratelimit.TokenBucket); ok {
		app.SetPruner(tb)
	}
	if results != nil {
		app.AddCloser(results)
	}
	if store != nil {
		app.AddCloser(store)
	}
	return app
}
