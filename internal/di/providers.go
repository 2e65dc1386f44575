package di

import (
	"fmt"

	domrepo "SignalSynth/internal/domain/repository"
	"SignalSynth/internal/handler/api"
	internalrepo "SignalSynth/internal/repository"
	"SignalSynth/internal/service/chartfeed"
	"SignalSynth/internal/services/indicator"
	"SignalSynth/internal/usecase"
	"SignalSynth/pkg/cache"
	pkgch "SignalSynth/pkg/clickhouse"
	"SignalSynth/pkg/config"
	xhttp "SignalSynth/pkg/http"
	pkgkafka "SignalSynth/pkg/kafka"
	"SignalSynth/pkg/logger"
	"SignalSynth/pkg/metrics"
	"SignalSynth/pkg/queue"
	"SignalSynth/pkg/server"
)

// ProvideLogBuffer creates the in-memory buffer backing the /api/logs
// endpoint.
func ProvideLogBuffer(cfg *config.Config) *logger.Buffer {
	size := cfg.Logging.BufferSize
	if size <= 0 {
		size = 500
	}
	return logger.NewBuffer(size)
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config, buf *logger.Buffer) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.WithBuffer(buf), nil
}

// ProvideTimeframes converts the configured timeframes.
func ProvideTimeframes(cfg *config.Config) []domrepo.TimeframeConfig {
	out := make([]domrepo.TimeframeConfig, 0, len(cfg.Timeframes))
	for _, tf := range cfg.Timeframes {
		out = append(out, domrepo.TimeframeConfig{
			Name:     tf.Name,
			Interval: tf.Interval,
			Period:   tf.Period,
		})
	}
	return out
}

// ProvideIndicatorParams converts the configured indicator windows.
func ProvideIndicatorParams(cfg *config.Config) indicator.Params {
	return indicator.Params{
		StochWindow: cfg.Indicators.StochWindow,
		KSmooth:     cfg.Indicators.KSmooth,
		DSmooth:     cfg.Indicators.DSmooth,
		CCIPeriod:   cfg.Indicators.CCIPeriod,
		DMIPeriod:   cfg.Indicators.DMIPeriod,
		SlopeWindow: cfg.Indicators.SlopeWindow,
	}
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideCache creates the cache service: Redis when enabled, otherwise an
// in-process cache.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	c, err := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the bar
// provider does not use it.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.MarketData.Provider != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideWorkbookStore creates the xlsx-backed table store.
func ProvideWorkbookStore(cfg *config.Config, tfs []domrepo.TimeframeConfig, l *logger.Logger) *internalrepo.WorkbookStore {
	return internalrepo.NewWorkbookStore(cfg.Store.Path, tfs, l)
}

// ProvideTableStore exposes the workbook store as the TableStore port.
func ProvideTableStore(ws *internalrepo.WorkbookStore) domrepo.TableStore {
	return ws
}

// ProvideBarProvider selects the configured bar history source and wraps it
// in the TTL cache when one is configured.
func ProvideBarProvider(cfg *config.Config, ch *pkgch.Client, cacheSvc cache.Service, l *logger.Logger) (domrepo.BarProvider, error) {
	var base domrepo.BarProvider
	switch cfg.MarketData.Provider {
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("clickhouse provider selected but no client")
		}
		base = internalrepo.NewCHBarStore(ch, cfg.ClickHouse.BarsTable, l)
	case "chartfeed":
		opts := []chartfeed.Option{}
		if cfg.MarketData.ReadTimeout > 0 {
			opts = append(opts, chartfeed.WithReadTimeout(cfg.MarketData.ReadTimeout))
		}
		if cfg.MarketData.RESTURL != "" {
			opts = append(opts, chartfeed.WithRESTURL(cfg.MarketData.RESTURL))
		}
		base = chartfeed.New(cfg.MarketData.WebSocketURL, cfg.MarketData.APIKey, l, opts...)
	default:
		return nil, fmt.Errorf("unknown marketdata provider %q", cfg.MarketData.Provider)
	}

	if cfg.MarketData.CacheTTL > 0 {
		return internalrepo.NewCachedBarProvider(base, cacheSvc, cfg.MarketData.CacheTTL, l), nil
	}
	return base, nil
}

// ProvideUniverse selects the symbol universe source: the feed's REST
// listing when configured, otherwise the workbook's symbols sheet.
func ProvideUniverse(cfg *config.Config, ws *internalrepo.WorkbookStore, l *logger.Logger) domrepo.UniverseProvider {
	if cfg.MarketData.Provider == "chartfeed" && cfg.MarketData.RESTURL != "" {
		return chartfeed.New(cfg.MarketData.WebSocketURL, cfg.MarketData.APIKey, l,
			chartfeed.WithRESTURL(cfg.MarketData.RESTURL))
	}
	return ws
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher exposes the signal publisher port.
func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer, l *logger.Logger) domrepo.Publisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.SignalsTopic, l)
}

// ProvideRunLock guards the synthesis run: distributed over Redis when
// enabled, process local otherwise.
func ProvideRunLock(cfg *config.Config, cacheSvc cache.Service) domrepo.RunLock {
	if cfg.Redis.Enabled {
		return internalrepo.NewCacheRunLock(cacheSvc, cfg.Redis.LockTTL)
	}
	return internalrepo.NewLocalRunLock()
}

// ProvideRunner creates the synthesis runner.
func ProvideRunner(
	cfg *config.Config,
	bars domrepo.BarProvider,
	universe domrepo.UniverseProvider,
	store domrepo.TableStore,
	publisher domrepo.Publisher,
	lock domrepo.RunLock,
	m domrepo.Metrics,
	tfs []domrepo.TimeframeConfig,
	params indicator.Params,
	l *logger.Logger,
) *usecase.SynthesisRunner {
	return usecase.NewSynthesisRunner(bars, universe, store, publisher, lock, m, tfs, params, cfg.Queue.Workers*2, l)
}

// ProvideQueue creates the Redis job queue with the run job registered, or
// nil when Redis is disabled.
func ProvideQueue(cfg *config.Config, cacheSvc cache.Service, runner *usecase.SynthesisRunner, l *logger.Logger) *queue.RedisQueue {
	if !cfg.Redis.Enabled {
		return nil
	}
	rc, ok := cacheSvc.(*cache.RedisCache)
	if !ok {
		return nil
	}
	return queue.NewRedisQueue(l,
		&queue.Config{
			Workers:    cfg.Queue.Workers,
			RetryLimit: cfg.Queue.RetryLimit,
			RetryDelay: cfg.Queue.RetryDelay,
		},
		rc.Client(),
		[]queue.Job{usecase.NewRunJob(runner, l)},
	)
}

// ProvideScheduler selects how run triggers are dispatched.
func ProvideScheduler(q *queue.RedisQueue, runner *usecase.SynthesisRunner, l *logger.Logger) usecase.Scheduler {
	if q != nil {
		return usecase.NewQueueScheduler(q)
	}
	return usecase.NewDirectScheduler(runner, l)
}

// ProvideKafkaConsumer creates the run trigger consumer, or nil when Kafka
// is disabled or no run topic is configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.RunTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRunHandler creates the Kafka handler for the run trigger topic.
func ProvideRunHandler(cfg *config.Config, scheduler usecase.Scheduler, l *logger.Logger) pkgkafka.MessageHandler {
	if !cfg.Kafka.Enabled || cfg.Kafka.RunTopic == "" {
		return nil
	}
	return usecase.NewKafkaRunHandler(cfg.Kafka.RunTopic, scheduler, l)
}

// ProvideHTTPHandler creates the API handler.
func ProvideHTTPHandler(
	l *logger.Logger,
	runner *usecase.SynthesisRunner,
	scheduler usecase.Scheduler,
	store domrepo.TableStore,
	tfs []domrepo.TimeframeConfig,
	buf *logger.Buffer,
) xhttp.Handler {
	return api.NewSynthesisHandler(l, runner, scheduler, store, tfs, buf)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	runner *usecase.SynthesisRunner,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	runHandler pkgkafka.MessageHandler,
	q *queue.RedisQueue,
	chClient *pkgch.Client,
	cacheSvc cache.Service,
	publisher domrepo.Publisher,
) *server.App {
	return server.New(cfg, l, runner, handler, consumer, runHandler, q, chClient, cacheSvc, publisher)
}
