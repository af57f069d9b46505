package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"OptionLab/pkg/config"
	xhttp "OptionLab/pkg/http"
	pkgkafka "OptionLab/pkg/kafka"
	applogger "OptionLab/pkg/logger"
)

// Pruner drops idle per-caller state; the in-memory rate limiter implements it.
type Pruner interface {
	Prune()
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	producer   *pkgkafka.Producer
	pruner     Pruner
	pruneEvery time.Duration
	closers    []io.Closer
}

// New creates a new App instance. Kafka and the other optional parts are
// attached with the Set methods.
func New(cfg *config.Config, l *applogger.Logger, httpServer *xhttp.Server) *App {
	return &App{
		cfg:        cfg,
		logger:     l.With("app"),
		httpServer: httpServer,
		pruneEvery: time.Minute,
	}
}

// SetConsumer attaches the request consumer and its handler.
func (a *App) SetConsumer(c *pkgkafka.Consumer, kh pkgkafka.MessageHandler) {
	a.consumer = c
	a.kh = kh
}

// SetProducer attaches the producer used for replies and aggregated logs.
func (a *App) SetProducer(p *pkgkafka.Producer) { a.producer = p }

func (a *App) SetPruner(p Pruner) { a.pruner = p }

// AddCloser registers a resource closed last during shutdown.
func (a *App) AddCloser(c io.Closer) { a.closers = append(a.closers, c) }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done, then shuts
// down gracefully.
func (a *App) RunContext(ctx context.Context) error {
	if a.producer != nil && a.cfg.Kafka.LogTopic != "" {
		a.logger.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          a.cfg.Kafka.LogTopic,
			Publisher:      a.producer,
		})
		a.logger.Info("error log aggregation enabled", applogger.String("topic", a.cfg.Kafka.LogTopic))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.logger.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.logger.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.pruner != nil {
		go a.pruneLoop(ctx)
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(a.pruneEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.pruner.Prune()
		case <-ctx.Done():
			return
		}
	}
}

// shutdown stops intake first, then flushes and closes outbound resources.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// flush aggregated errors while the producer is still open
	a.logger.RemoveCollector()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
