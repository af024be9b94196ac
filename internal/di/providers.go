package di

import (
    "context"
    "fmt"
    "net"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"

    "AlphaPull/internal/domain/repository"
    domsvc "AlphaPull/internal/domain/service"
    "AlphaPull/internal/handler/api"
    mid "AlphaPull/internal/middleware"
    internalrepo "AlphaPull/internal/repository"
    "AlphaPull/internal/service/alphafeed"
    icache "AlphaPull/internal/service/cache"
    "AlphaPull/internal/service/hours"
    "AlphaPull/internal/services/scoring"
    "AlphaPull/internal/usecase"
    pkgcache "AlphaPull/pkg/cache"
    pkgch "AlphaPull/pkg/clickhouse"
    "AlphaPull/pkg/config"
    pkgkafka "AlphaPull/pkg/kafka"
    applogger "AlphaPull/pkg/logger"
    "AlphaPull/pkg/metrics"
    pkgqueue "AlphaPull/pkg/queue"
    "AlphaPull/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideInsightStore creates the ClickHouse insight store and runs its schema.
func ProvideInsightStore(chClient *pkgch.Client) (repository.InsightStore, error) {
	store := internalrepo.NewCHInsightStore(chClient)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.Init(ctx); err != nil {
		_ = chClient.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("insight schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideInsightPublisher creates the Kafka publisher repository.
func ProvideInsightPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config, lgr *applogger.Logger) (*pkgkafka.Consumer, error) {
	opts := []pkgkafka.ConsumerOption{
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	}
	if cfg.Kafka.Consumer.AutoOffsetReset != "" {
		opts = append(opts, pkgkafka.WithConsumerAutoOffsetReset(cfg.Kafka.Consumer.AutoOffsetReset))
	}
	consumer, err := pkgkafka.NewConsumer(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerLogger(lgr)
	return consumer, nil
}

// ProvideKafkaInsightsHandler registers the handler draining the insights topic.
func ProvideKafkaInsightsHandler(store repository.InsightStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaInsightsHandler {
	return usecase.NewKafkaInsightsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideFeedStream creates the AlphaFeed WebSocket stream.
func ProvideFeedStream(cfg *config.Config) repository.InsightStream {
	return alphafeed.New(alphafeed.Config{
		APIKey:         cfg.Feed.APIKey,
		WebSocketURL:   cfg.Feed.WebSocketURL,
		Symbols:        cfg.Feed.Symbols,
		Market:         cfg.Feed.Market,
		SourceModel:    cfg.Feed.SourceModel,
		DefaultPeriod:  cfg.Feed.DefaultPeriod,
		FlatTolerance:  cfg.Feed.FlatTolerance,
		ReconnectDelay: cfg.Feed.ReconnectDelay,
		PingInterval:   cfg.Feed.PingInterval,
	})
}

// ProvideCalendar builds the market hours registry from config.
func ProvideCalendar(cfg *config.Config) (*hours.Registry, error) {
	hcfgs := make([]hours.Config, 0, len(cfg.Markets))
	for _, m := range cfg.Markets {
		hcfgs = append(hcfgs, hours.Config{
			Market:      m.Market,
			TimeZone:    m.TimeZone,
			Week:        m.Week,
			Holidays:    m.Holidays,
			EarlyCloses: m.EarlyCloses,
			LateOpens:   m.LateOpens,
		})
	}
	reg, err := hours.NewRegistry(hcfgs)
	if err != nil {
		return nil, fmt.Errorf("market calendar: %w", err)
	}
	return reg, nil
}

// ProvideBytesCache picks the byte cache backing for responses and valuations.
func ProvideBytesCache(cfg *config.Config) icache.BytesCache {
	if cfg.Scoring.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Scoring.Redis.Addr,
			Password: cfg.Scoring.Redis.Password,
			DB:       cfg.Scoring.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideValuationSource creates the reference value lookup, nil when no
// scoring service is configured.
func ProvideValuationSource(cfg *config.Config, bc icache.BytesCache) repository.ValuationSource {
	if cfg.Scoring.ServiceURL == "" {
		return nil
	}
	return scoring.NewCachedValuationSource(
		scoring.NewHTTPValuationSource(cfg),
		bc,
		cfg.Scoring.CacheTTL.Valuation,
	)
}

// ProvideScoreLocks creates the lock service guarding concurrent score writes.
func ProvideScoreLocks(cfg *config.Config) pkgcache.Service {
	if !cfg.Scoring.Redis.Enabled {
		return pkgcache.NewMemoryCache()
	}

	host, portStr, err := net.SplitHostPort(cfg.Scoring.Redis.Addr)
	if err != nil {
		return pkgcache.NewMemoryCache()
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return pkgcache.NewMemoryCache()
	}

	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Scoring.Redis.Password),
		pkgcache.WithRedisDB(cfg.Scoring.Redis.DB),
	)
	if err != nil {
		return pkgcache.NewMemoryCache()
	}
	return c
}

// ProvideScoreApplier creates the score update applier.
func ProvideScoreApplier(store repository.InsightStore, locks pkgcache.Service, metrics repository.Metrics) *usecase.ScoreApplier {
	return usecase.NewScoreApplier(store, locks, metrics)
}

// ProvideScoreQueue creates the Redis queue draining score update jobs,
// nil when the queue is disabled.
func ProvideScoreQueue(cfg *config.Config, lgr *applogger.Logger, applier *usecase.ScoreApplier) *pkgqueue.RedisQueue {
	if !cfg.Queue.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Queue.Addr,
		Password: cfg.Queue.Password,
		DB:       cfg.Queue.DB,
	})
	qcfg := &pkgqueue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: 3,
		RetryDelay: 5 * time.Second,
	}
	return pkgqueue.NewRedisConsumer(lgr, qcfg, client, []pkgqueue.Job{
		usecase.NewScoreUpdateJob(applier),
	})
}

// ProvideScorePoller creates the external scorer poller, nil when no scoring
// service is configured. With the queue enabled, fetched updates are enqueued
// instead of applied inline.
func ProvideScorePoller(
	cfg *config.Config,
	store repository.InsightStore,
	applier *usecase.ScoreApplier,
	q *pkgqueue.RedisQueue,
	lgr *applogger.Logger,
) *scoring.ScorePoller {
	if cfg.Scoring.ServiceURL == "" {
		return nil
	}

	var target domsvc.ScoreApplier = applier
	if q != nil {
		target = usecase.NewQueueingApplier(q)
	}
	return scoring.NewScorePoller(
		store,
		scoring.NewHTTPScoreSource(cfg),
		target,
		lgr,
		cfg.Scoring.Interval,
		cfg.Scoring.BatchSize,
	)
}

// ProvideInsightProcessor creates the insight processor use case.
func ProvideInsightProcessor(
	pub repository.Publisher,
	store repository.InsightStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.InsightProcessor {
	return usecase.NewInsightProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideWriteUseCase creates the insight write use case.
func ProvideWriteUseCase(
	store repository.InsightStore,
	processor *usecase.InsightProcessor,
	calendar *hours.Registry,
	valuation repository.ValuationSource,
	metrics repository.Metrics,
) *usecase.InsightWriteUseCase {
	return usecase.NewInsightWriteUseCase(store, processor, calendar, valuation, metrics)
}

// ProvideQueryUseCase creates the insight query use case.
func ProvideQueryUseCase(store repository.InsightStore) *usecase.InsightQueryUseCase {
	return usecase.NewInsightQueryUseCase(store)
}

// ProvideInsightCollector creates the insight collector use case.
func ProvideInsightCollector(
    stream repository.InsightStream,
    processor *usecase.InsightProcessor,
    calendar *hours.Registry,
    metrics repository.Metrics,
) *usecase.InsightCollector {
    // Build middleware pipeline between WebSocket and the backend
    pipe := mid.NewInsightPipeline(processor, metrics,
        mid.WithMaxRPS(50),
        mid.WithBufferSize(2000),
    )
    return usecase.NewInsightCollector(stream, processor, calendar, metrics, pipe)
}

// ProvideInsightsHandler creates the insights HTTP handler.
func ProvideInsightsHandler(
	lgr *applogger.Logger,
	writer *usecase.InsightWriteUseCase,
	query *usecase.InsightQueryUseCase,
	applier *usecase.ScoreApplier,
	m repository.Metrics,
	bc icache.BytesCache,
) *api.InsightsEchoHandler {
	h := api.NewInsightsEchoHandler(lgr, writer, query, applier, m)
	h.SetCache(bc)
	return h
}

// ProvideMarketsHandler creates the market calendar HTTP handler.
func ProvideMarketsHandler(calendar *hours.Registry) *api.MarketsHandler {
	return api.NewMarketsHandler(calendar)
}

// kafkaLogPublisher adapts the kafka producer to the logger's aggregated
// error sink.
type kafkaLogPublisher struct {
    p *pkgkafka.Producer
}

func (k kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
    return k.p.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
    cfg *config.Config,
    collector *usecase.InsightCollector,
    consumer *pkgkafka.Consumer,
    kh *usecase.KafkaInsightsHandler,
    chClient *pkgch.Client,
    q *pkgqueue.RedisQueue,
    poller *scoring.ScorePoller,
    insights *api.InsightsEchoHandler,
    markets *api.MarketsHandler,
    m repository.Metrics,
    lgr *applogger.Logger,
    producer *pkgkafka.Producer,
) *server.App {
    if consumer != nil {
        consumer.WithConsumerHook(usecase.NewConsumerMetricsHook(m))
    }
    if cfg.Logging.CollectErrors && producer != nil {
        topic := cfg.Logging.ErrorTopic
        if topic == "" {
            topic = "alphapull.logs"
        }
        lgr.AddCollector(&applogger.CollectionConfig{
            TimeInterval:   30 * time.Second,
            CountThreshold: 100,
            Topic:          topic,
            Publisher:      kafkaLogPublisher{p: producer},
        })
    }
    app := server.New(cfg, collector, consumer, kh, chClient)
    app.SetHandlers(insights, markets)
    app.SetQueue(q)
    app.SetPoller(poller)
    app.SetAppLogger(lgr)
    // attach insight processor to app for closing resources after the collector
    if collector != nil {
        app.InsightProc = collector.Processor()
    }
    return app
}
