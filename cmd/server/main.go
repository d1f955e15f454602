package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zensushi/zen/internal/app"
	"github.com/zensushi/zen/internal/config"
	"github.com/zensushi/zen/pkg/logger"
	"github.com/zensushi/zen/pkg/tracing"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.Build(logger.Options{
		Service: "zen-server",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	slog.SetDefault(log)

	if err := serve(cfg, log); err != nil {
		log.Error("zen server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func serve(cfg *config.Server, log *slog.Logger) error {
	log.Info("starting zen server",
		slog.String("version", tracing.Version),
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("idempotency_backend", cfg.IdempotencyBackend),
		slog.Bool("kafka_enabled", cfg.KafkaEnabled),
	)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until ctx is cancelled and shutdown has drained.
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run application: %w", err)
	}
	log.Info("zen server stopped")
	return nil
}
