//go:build wireinject
// +build wireinject

package di

import (
	"AlphaPull/pkg/config"
	"AlphaPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
    wire.Build(
        // Logging and metrics
        ProvideLogger,
        ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories (with business logic)
		ProvideInsightStore,
		ProvideInsightPublisher,
		ProvideFeedStream,
		ProvideCalendar,

		// Caching, valuation and score intake
		ProvideBytesCache,
		ProvideValuationSource,
		ProvideScoreLocks,
		ProvideScoreApplier,
		ProvideScoreQueue,
		ProvideScorePoller,

        // Use cases
        ProvideInsightProcessor,
        ProvideInsightCollector,
        ProvideWriteUseCase,
        ProvideQueryUseCase,
        ProvideKafkaInsightsHandler,

        // HTTP handlers
        ProvideInsightsHandler,
        ProvideMarketsHandler,

        // Application server
        ProvideApp,
    )
    return &server.App{}, nil
}
