//go:build wireinject
// +build wireinject

package di

import (
	"SignalSynth/pkg/config"
	"SignalSynth/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging
		ProvideLogBuffer,
		ProvideLogger,

		// Static configuration
		ProvideTimeframes,
		ProvideIndicatorParams,

		// Infrastructure
		ProvideMetrics,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideWorkbookStore,
		ProvideTableStore,
		ProvideBarProvider,
		ProvideUniverse,
		ProvidePublisher,
		ProvideRunLock,

		// Use cases
		ProvideRunner,
		ProvideQueue,
		ProvideScheduler,

		// Transport
		ProvideKafkaConsumer,
		ProvideRunHandler,
		ProvideHTTPHandler,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
