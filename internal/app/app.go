// Package app wires the catalog service together from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/PaintCatalog/internal/config"
	"github.com/utafrali/PaintCatalog/internal/engagement"
	"github.com/utafrali/PaintCatalog/internal/engine"
	esengine "github.com/utafrali/PaintCatalog/internal/engine/elasticsearch"
	"github.com/utafrali/PaintCatalog/internal/engine/memory"
	"github.com/utafrali/PaintCatalog/internal/event"
	handler "github.com/utafrali/PaintCatalog/internal/handler/http"
	"github.com/utafrali/PaintCatalog/internal/optimistic"
	"github.com/utafrali/PaintCatalog/internal/service"
	"github.com/utafrali/PaintCatalog/internal/session"
	"github.com/utafrali/PaintCatalog/internal/source"
	"github.com/utafrali/PaintCatalog/internal/source/postgres"
	"github.com/utafrali/PaintCatalog/internal/source/remote"
	"github.com/utafrali/PaintCatalog/internal/source/static"
	"github.com/utafrali/PaintCatalog/pkg/database"
	"github.com/utafrali/PaintCatalog/pkg/health"
	"github.com/utafrali/PaintCatalog/pkg/httpclient"
	pkgkafka "github.com/utafrali/PaintCatalog/pkg/kafka"
	"github.com/utafrali/PaintCatalog/pkg/tracing"
)

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	catalog  *service.CatalogService
	sessions *service.SessionService

	consumer   *pkgkafka.Consumer
	producer   *pkgkafka.Producer
	dlq        *pkgkafka.DLQProducer
	redis      *redis.Client
	pool       *pgxpool.Pool
	httpServer *http.Server

	shutdownTracer func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// Components opened before a failure are released.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.release()
		}
	}()

	tcfg := tracing.DefaultConfig(cfg.ServiceName)
	tcfg.Environment = cfg.Environment
	tcfg.Enabled = cfg.TracingEnabled
	tcfg.OTLPEndpoint = cfg.OTLPEndpoint
	tcfg.SampleRate = cfg.TracingSampleRate
	if a.shutdownTracer, err = tracing.InitTracer(ctx, tcfg); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if cfg.UsesRedis() {
		rcfg := database.DefaultRedisConfig()
		rcfg.Addr, rcfg.Password, rcfg.DB = cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB
		if a.redis, err = database.NewRedisClient(ctx, rcfg); err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		logger.Info("redis client initialized", slog.String("addr", cfg.RedisAddr))
	}

	healthHandler := health.NewHandler()

	eng, err := a.newEngine(ctx, healthHandler)
	if err != nil {
		return nil, err
	}
	loader, err := a.newSource(ctx, healthHandler)
	if err != nil {
		return nil, err
	}
	store := a.newSessionStore(healthHandler)
	submitter := a.newSubmitter()

	// Catalog refreshes and engagement commits share one sequencer so every
	// optimistic mutation key lives in a single namespace.
	seq := optimistic.NewSequencer()

	a.catalog = service.NewCatalogService(eng, loader, seq, logger)
	a.sessions = service.NewSessionService(a.catalog, store, cfg.SessionIdleTimeout, logger)
	healthHandler.Register("catalog", a.catalog.Ready)

	var publisher service.EngagementPublisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, logger)
		a.consumer = a.newConsumer()
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
		logger.Info("kafka initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.Any("topics", event.ProductTopics()),
		)
	}
	engagementSvc := service.NewEngagementService(a.catalog.Catalog(), engagement.NewVoteTally(), submitter, publisher, seq, logger)

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName:    cfg.ServiceName,
		DefaultOwner:   cfg.DefaultOwner,
		AllowedOrigins: cfg.AllowedOrigins,
		FacetsMaxAge:   cfg.FacetsMaxAge,
		RequestTimeout: cfg.RequestTimeout,
		PprofCIDRs:     cfg.PprofCIDRs,

		EngagementRPS:   cfg.EngagementRateLimit,
		EngagementBurst: cfg.EngagementRateBurst,
	}, handler.Services{
		Catalog:    a.catalog,
		Sessions:   a.sessions,
		Engagement: engagementSvc,
	}, healthHandler, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

func (a *App) newEngine(ctx context.Context, hh *health.Handler) (engine.SearchEngine, error) {
	if a.cfg.SearchEngine != config.EngineElasticsearch {
		a.logger.Info("in-memory search engine initialized")
		return memory.New(), nil
	}

	es, err := esengine.New(ctx, esengine.Config{
		URL:       a.cfg.ElasticsearchURL,
		IndexName: a.cfg.ElasticsearchIndex,
		Username:  a.cfg.ElasticsearchUser,
		Password:  a.cfg.ElasticsearchPass,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("init elasticsearch engine: %w", err)
	}
	hh.Register("elasticsearch", es.Ping)
	a.logger.Info("elasticsearch search engine initialized",
		slog.String("url", a.cfg.ElasticsearchURL),
		slog.String("index", a.cfg.ElasticsearchIndex),
	)
	return es, nil
}

func (a *App) newSource(ctx context.Context, hh *health.Handler) (source.Loader, error) {
	switch a.cfg.CatalogSource {
	case config.SourceRemote:
		cb := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("catalog-source"),
			a.logger,
		)
		a.logger.Info("remote catalog source initialized", slog.String("url", a.cfg.CatalogURL))
		return remote.NewWithBreaker(cb, a.cfg.CatalogURL), nil

	case config.SourcePostgres:
		pcfg := database.DefaultPostgresConfig()
		pcfg.URL, pcfg.MaxConns = a.cfg.DatabaseURL, a.cfg.DatabaseMaxConns
		pool, err := database.NewPostgresPool(ctx, pcfg, a.logger)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		a.pool = pool

		if err := prometheus.Register(database.NewPoolStatsCollector(pool, a.cfg.ServiceName)); err != nil {
			a.logger.Warn("pool stats collector not registered", slog.String("error", err.Error()))
		}

		src := postgres.New(pool, database.NewQueryTracer("postgresql", a.cfg.SlowQueryThreshold, a.logger), a.logger)
		if err := src.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate catalog database: %w", err)
		}
		hh.Register("postgres", src.Ping)
		a.logger.Info("postgres catalog source initialized")
		return src, nil

	default:
		a.logger.Info("static catalog source initialized", slog.Duration("latency", a.cfg.CatalogLatency))
		return static.New(a.cfg.CatalogLatency), nil
	}
}

func (a *App) newSessionStore(hh *health.Handler) session.Store {
	if a.cfg.SessionStore != config.StoreRedis {
		a.logger.Info("in-memory session store initialized")
		return session.NewMemoryStore()
	}
	store := session.NewRedisStore(a.redis, a.cfg.SessionTTL)
	hh.Register("redis", store.Ping)
	a.logger.Info("redis session store initialized", slog.Duration("ttl", a.cfg.SessionTTL))
	return store
}

func (a *App) newSubmitter() engagement.Submitter {
	if a.cfg.EngagementSubmitter != config.SubmitterRemote {
		return engagement.NewMemorySubmitter(a.cfg.EngagementLatency, a.cfg.EngagementFailureRate)
	}
	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("engagement"),
		a.logger,
	)
	return engagement.NewRemoteSubmitter(client, a.cfg.EngagementURL)
}

func (a *App) newConsumer() *pkgkafka.Consumer {
	var store pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(a.cfg.KafkaIdempotentTTL)
	if a.cfg.KafkaIdempotency == config.IdempotencyRedis {
		store = pkgkafka.NewRedisIdempotencyStore(a.redis, a.cfg.ServiceName+":events:", a.cfg.KafkaIdempotentTTL)
	}

	products := event.NewConsumer(a.catalog, a.logger)
	a.dlq = pkgkafka.NewDLQProducer(a.cfg.KafkaBrokers, a.logger)

	return pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:    a.cfg.KafkaBrokers,
		GroupID:    a.cfg.KafkaGroupID,
		Topics:     event.ProductTopics(),
		MinBytes:   1,
		MaxBytes:   10e6, // 10 MB
		MaxRetries: a.cfg.KafkaMaxRetries,
	}, pkgkafka.IdempotentHandler(store, products.Handle, a.logger), a.logger).WithDeadLetter(a.dlq)
}

// Run loads the catalog, then starts the HTTP server, the Kafka consumer and
// the background loops, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	// A failed initial load leaves the service running; readiness reports it
	// until a later refresh succeeds.
	if _, err := a.catalog.Refresh(ctx); err != nil {
		a.logger.Error("initial catalog load failed", slog.String("error", err.Error()))
	}

	errCh := make(chan error, 2)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go a.sessions.RunJanitor(ctx, a.cfg.SessionJanitor)
	if a.cfg.CatalogRefreshPeriod > 0 {
		go a.refreshLoop(ctx, a.cfg.CatalogRefreshPeriod)
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

func (a *App) refreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.catalog.Refresh(ctx); err != nil && !errors.Is(err, optimistic.ErrSuperseded) {
				a.logger.Warn("scheduled catalog refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	errs = append(errs, a.release())

	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// release closes the Kafka clients and datastore connections.
func (a *App) release() error {
	var errs []error
	closeWith := func(name string, fn func() error) {
		if err := fn(); err != nil {
			a.logger.Error(name+" close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.consumer != nil {
		closeWith("kafka consumer", a.consumer.Close)
	}
	if a.producer != nil {
		closeWith("kafka producer", a.producer.Close)
	}
	if a.dlq != nil {
		closeWith("kafka dlq producer", a.dlq.Close)
	}
	if a.redis != nil {
		closeWith("redis", a.redis.Close)
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
