package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Mehidi-hridoy/dokan/internal/auth"
	"github.com/Mehidi-hridoy/dokan/internal/config"
	"github.com/Mehidi-hridoy/dokan/internal/event"
	handler "github.com/Mehidi-hridoy/dokan/internal/handler/http"
	"github.com/Mehidi-hridoy/dokan/internal/newsletter"
	"github.com/Mehidi-hridoy/dokan/internal/repository/postgres"
	redisrepo "github.com/Mehidi-hridoy/dokan/internal/repository/redis"
	"github.com/Mehidi-hridoy/dokan/internal/search"
	esengine "github.com/Mehidi-hridoy/dokan/internal/search/elasticsearch"
	"github.com/Mehidi-hridoy/dokan/internal/search/memory"
	"github.com/Mehidi-hridoy/dokan/internal/service"
	"github.com/Mehidi-hridoy/dokan/internal/store"
	"github.com/Mehidi-hridoy/dokan/internal/task"
	"github.com/Mehidi-hridoy/dokan/migrations"
	"github.com/Mehidi-hridoy/dokan/pkg/database"
	"github.com/Mehidi-hridoy/dokan/pkg/health"
	"github.com/Mehidi-hridoy/dokan/pkg/httpclient"
	pkgkafka "github.com/Mehidi-hridoy/dokan/pkg/kafka"
	"github.com/Mehidi-hridoy/dokan/pkg/middleware"
	"github.com/Mehidi-hridoy/dokan/pkg/tracing"
)

// consumerGroup identifies this service's Kafka consumer group. All topic
// consumers share it so catalog events are processed once per instance set.
const consumerGroup = "dokan-store"

// App wires together all dependencies and runs the store service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	consumers      []*pkgkafka.Consumer
	runner         *task.Runner
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "dokan-store",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize Redis client for session-scoped state.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "dokan-store")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Initialize the search engine based on configuration.
	var eng search.Engine
	var esEng *esengine.Engine
	switch cfg.SearchEngine {
	case config.EngineElasticsearch:
		esEng, err = esengine.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		eng = esEng
		logger.Info("elasticsearch search engine initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	default:
		eng = memory.New()
		logger.Info("in-memory search engine initialized")
	}

	// Build the dependency graph.
	sessionTTL := cfg.CartTTLDuration()
	cartRepo := redisrepo.NewCartRepository(rdb, sessionTTL)
	wishlistRepo := redisrepo.NewWishlistRepository(rdb, sessionTTL)
	noticeRepo := redisrepo.NewNoticeRepository(rdb)
	productRepo := postgres.NewProductRepository(pool)
	subscriberRepo := postgres.NewSubscriberRepository(pool)

	eventProducer := event.NewProducer(producer, logger)
	runner := task.NewRunner(logger, 5*time.Minute)

	cartService := service.NewCartService(cartRepo, eventProducer, logger)
	wishlistService := service.NewWishlistService(wishlistRepo, eventProducer, logger)
	catalogService := service.NewCatalogService(productRepo, eng, eventProducer, logger)

	var provider newsletter.Provider
	if cfg.NewsletterProviderURL != "" {
		client := httpclient.New(httpclient.DefaultConfig())
		cbClient := httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("newsletter"), logger)
		provider = newsletter.NewHTTPProvider(cbClient, cfg.NewsletterProviderURL, logger)
		logger.Info("newsletter HTTP provider configured", slog.String("url", cfg.NewsletterProviderURL))
	} else {
		provider = newsletter.NewSimulatedProvider(logger, cfg.NewsletterAck())
	}
	newsletterService := service.NewNewsletterService(subscriberRepo, provider, runner, eventProducer, logger)

	// Seed the search index from the catalog so queries work before any
	// catalog event arrives.
	indexed, err := catalogService.ReindexAll(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("reindex products: %w", err)
	}
	logger.Info("search index seeded", slog.Int("products", indexed))

	// Kafka consumers keep the search index in sync with catalog mutations,
	// including those made by other instances.
	eventConsumer := event.NewConsumer(eng, logger)
	idempotencyStore := pkgkafka.NewMemoryIdempotencyStore(24 * time.Hour)
	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)

	var consumers []*pkgkafka.Consumer
	for _, topic := range eventConsumer.Topics() {
		consumerCfg := pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  consumerGroup,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}
		c := pkgkafka.NewConsumer(consumerCfg,
			pkgkafka.IdempotentHandler(idempotencyStore, eventConsumer.Handle, logger),
			logger,
		).WithDLQ(dlq)
		consumers = append(consumers, c)
	}
	logger.Info("kafka consumers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Int("topic_count", len(consumers)),
	)

	// Admin authentication.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL())
	adminService := auth.NewAdminService(cfg.AdminUsername, cfg.AdminPasswordHash, jwtManager, cfg.JWTAccessTTL(), logger)

	// Storefront controller.
	controller, err := store.NewController(store.Config{
		TriggerResetDelay: cfg.TriggerReset(),
		NoticeTTL:         cfg.NoticeTTL(),
		RevealThreshold:   cfg.RevealThreshold,
	}, cartService, wishlistService, catalogService, newsletterService, noticeRepo, runner, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init store controller: %w", err)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	if esEng != nil {
		healthHandler.RegisterNonCritical("elasticsearch", esEng.Ping)
	}

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName:       "dokan-store",
		CORS:              corsCfg,
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
		CacheMaxAge:       cfg.CacheMaxAgeSecs,
	}, controller, cartService, wishlistService, catalogService, newsletterService, adminService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		rdb:            rdb,
		producer:       producer,
		dlq:            dlq,
		consumers:      consumers,
		runner:         runner,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the context
// is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	// Start Kafka consumers in background goroutines.
	for _, c := range a.consumers {
		c := c
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	// Start HTTP server.
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Task runner (let pending trigger resets finish)
// 4. Kafka consumers and producers
// 5. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Let scheduled trigger resets and newsletter acknowledgements finish.
	runnerCtx, runnerCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer runnerCancel()
	if err := a.runner.Shutdown(runnerCtx); err != nil {
		a.logger.Error("task runner shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 4. Close Kafka consumers and producers.
	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := a.dlq.Close(); err != nil {
		a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 5. Close storage clients.
	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
