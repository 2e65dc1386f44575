// Package server owns the application lifecycle: start the HTTP surface,
// the queue workers and the Kafka consumer, then shut everything down in
// reverse order on interrupt.
package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"SignalSynth/internal/usecase"
	"SignalSynth/pkg/cache"
	pkgch "SignalSynth/pkg/clickhouse"
	"SignalSynth/pkg/config"
	xhttp "SignalSynth/pkg/http"
	pkgkafka "SignalSynth/pkg/kafka"
	applogger "SignalSynth/pkg/logger"
	"SignalSynth/pkg/queue"
)

// App encapsulates the application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	runner     *usecase.SynthesisRunner
	handler    xhttp.Handler
	httpServer *xhttp.Server

	// optional components, nil when their backend is disabled
	consumer   *pkgkafka.Consumer
	runHandler pkgkafka.MessageHandler
	queue      *queue.RedisQueue
	chClient   *pkgch.Client
	cache      cache.Service
	publisher  interface{ Close() error }
}

// New creates the App. Optional components may be nil.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	runner *usecase.SynthesisRunner,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	runHandler pkgkafka.MessageHandler,
	q *queue.RedisQueue,
	chClient *pkgch.Client,
	cacheSvc cache.Service,
	publisher interface{ Close() error },
) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		runner:     runner,
		handler:    handler,
		consumer:   consumer,
		runHandler: runHandler,
		queue:      q,
		chClient:   chClient,
		cache:      cacheSvc,
		publisher:  publisher,
	}
}

// RunOnce executes a single synthesis run and returns. Used by the -once
// flag for cron style deployments.
func (a *App) RunOnce(ctx context.Context) error {
	result, err := a.runner.Run(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("single run complete",
		applogger.Int("pairs", result.Pairs),
		applogger.Int("skipped", result.Skipped),
		applogger.Any("emitted", result.Emitted))
	return a.close(ctx)
}

// Run starts the long-running services and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
	)

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			return err
		}
	}

	if a.consumer != nil && a.runHandler != nil {
		a.consumer.RegisterHandler(a.runHandler)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.logger.Info("kafka consumer started", applogger.String("topic", a.runHandler.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			a.logger.Warn("queue stop error", applogger.Error(err))
		}
	}

	if err := a.close(shutdownCtx); err != nil {
		return err
	}

	a.logger.Info("shutdown complete")
	return nil
}

// close releases infrastructure clients.
func (a *App) close(context.Context) error {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}
	return nil
}
