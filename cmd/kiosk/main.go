package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zensushi/zen/internal/checkout"
	"github.com/zensushi/zen/internal/config"
	"github.com/zensushi/zen/internal/kiosk"
	"github.com/zensushi/zen/pkg/httpclient"
	"github.com/zensushi/zen/pkg/logger"
	"github.com/zensushi/zen/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadKiosk()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Logs go to stderr; stdout belongs to the customer.
	log := logger.Build(logger.Options{
		Service: "zen-kiosk",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Writer:  os.Stderr,
	})
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Propagate trace context to the server even without an exporter.
	shutdownTracer, err := tracing.InitTracer(ctx, tracing.DefaultConfig("zen-kiosk"))
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	menuClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.MenuTimeout(),
		MaxRetries:      cfg.MenuRetries,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 4,
	})

	// Orders are never retried automatically.
	orderClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.SubmitTimeout(),
		MaxRetries:      0,
		MaxConnsPerHost: 4,
	})
	cbCfg := httpclient.DefaultCircuitBreakerConfig("zen-order")
	cbCfg.FailureRatio = cfg.CBFailureRatio
	cbCfg.MinRequests = cfg.CBMinRequests
	cbCfg.Timeout = cfg.CBOpenTimeout()
	breaker := httpclient.NewCircuitBreakerClient(orderClient, cbCfg, log)

	k := kiosk.New(kiosk.Options{
		In:         os.Stdin,
		Out:        os.Stdout,
		Menu:       checkout.NewMenuClient(menuClient, cfg.ServerURL),
		Submitter:  checkout.NewSubmitter(breaker, cfg.ServerURL, cfg.SubmitTimeout(), log),
		CloseDelay: cfg.CloseDelay(),
	}, log)

	log.Info("kiosk started", slog.String("server_url", cfg.ServerURL))
	return k.Run(ctx)
}
