package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zensushi/zen/internal/config"
	"github.com/zensushi/zen/internal/domain"
	"github.com/zensushi/zen/internal/event"
	handler "github.com/zensushi/zen/internal/handler/http"
	"github.com/zensushi/zen/internal/idempotency"
	"github.com/zensushi/zen/internal/repository/memory"
	"github.com/zensushi/zen/internal/service"
	"github.com/zensushi/zen/pkg/database"
	"github.com/zensushi/zen/pkg/health"
	pkgkafka "github.com/zensushi/zen/pkg/kafka"
	"github.com/zensushi/zen/pkg/middleware"
	"github.com/zensushi/zen/pkg/tracing"
)

// App wires together all dependencies and runs the ordering server.
type App struct {
	cfg            *config.Server
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Server, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Tracing. The propagator is installed even when export is disabled.
	tcfg := tracing.DefaultConfig(handler.ServiceName)
	tcfg.Environment = cfg.Environment
	tcfg.Enabled = cfg.OTelEnabled
	tcfg.OTLPEndpoint = cfg.OTelEndpoint
	tcfg.SampleRate = cfg.OTelSampleRate
	shutdown, err := tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = shutdown

	healthHandler := health.NewHandler()

	// Idempotency store.
	ttl := time.Duration(cfg.IdempotencyTTL) * time.Minute
	var store idempotency.Store
	switch cfg.IdempotencyBackend {
	case config.BackendRedis:
		rcfg := database.DefaultRedisConfig()
		rcfg.Addr = cfg.RedisAddr
		rcfg.Password = cfg.RedisPass
		rcfg.DB = cfg.RedisDB
		rdb, err := database.NewRedisClient(ctx, rcfg, logger)
		if err != nil {
			_ = a.tracerShutdown(context.Background())
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		a.rdb = rdb
		store = idempotency.NewRedisStore(rdb, ttl, idempotency.DefaultPendingTTL)
		healthHandler.RegisterCritical("redis", database.RedisChecker(rdb))
	default:
		store = idempotency.NewMemoryStore(cfg.IdempotencyMaxKeys, ttl, idempotency.DefaultPendingTTL)
	}
	logger.Info("idempotency store initialized", slog.String("backend", cfg.IdempotencyBackend))

	// Kafka producer. A nil publisher disables order events.
	var publisher service.OrderPublisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, cfg.KafkaOrderTopic, logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("topic", cfg.KafkaOrderTopic),
		)
	}

	// Build the dependency graph.
	menuService := service.NewMenuService(memory.NewMenuRepository(domain.DefaultMenu()), logger)
	orderService := service.NewOrderService(store, publisher, logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(menuService, orderService, healthHandler, logger, handler.RouterOptions{
		CORS:            corsCfg,
		MenuCacheMaxAge: cfg.MenuCacheMaxAge,
		PprofCIDRs:      cfg.PprofAllowedCIDRs,
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

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
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
