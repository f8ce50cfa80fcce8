// Package main runs the circulation HTTP API together with the expiry and overdue sweeper.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/library-circulation-go/circulation/oteladapters"
	"github.com/AntonStoeckl/library-circulation-go/library/httpapi"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell/config"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell/notify"
	"github.com/AntonStoeckl/library-circulation-go/library/sweeper"
)

const (
	serviceVersion      = "0.1.0"
	instrumentationName = "library-circulation"
	shutdownTimeout     = 10 * time.Second
	readHeaderTimeout   = 5 * time.Second
)

func main() {
	envFile := flag.String("env-file", ".env", "Optional env file, missing files are ignored")
	migrate := flag.Bool("migrate", true, "Create the schema on startup")
	flag.Parse()

	if err := run(*envFile, *migrate); err != nil {
		slog.Error("circulationd stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(envFile string, migrate bool) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}),
	)

	wiring := httpapi.Wiring{
		ContextualLogger: logger,
		SweepBatchSize:   cfg.Sweep.BatchSize,
	}

	if cfg.OTel.Enabled {
		providers, otelErr := config.NewObservabilityProviders(ctx, cfg.OTel, serviceVersion)
		if otelErr != nil {
			return fmt.Errorf("observability: %w", otelErr)
		}

		defer shutdownProviders(providers)

		logger = oteladapters.NewSlogBridgeLogger(instrumentationName)
		wiring.ContextualLogger = logger
		wiring.Metrics = oteladapters.NewMetricsCollector(otel.Meter(instrumentationName))
		wiring.Tracing = oteladapters.NewTracingCollector(otel.Tracer(instrumentationName))
	}

	db, err := openStore(ctx, cfg.Database, wiring)
	if err != nil {
		return err
	}
	defer db.close()

	if migrate {
		if err = db.store.CreateSchema(ctx); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	notifier, closeNotifier, err := newNotifier(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	wiring.Notifier = notifier

	handlers, err := httpapi.NewHandlers(db.store, cfg.Policy, wiring)
	if err != nil {
		return fmt.Errorf("build handlers: %w", err)
	}

	router := httpapi.NewRouter(handlers, httpapi.RouterConfig{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
		Ready:          db.ping,
		Logger:         logger,
	})

	sweep := sweeper.New(
		handlers.ExpireApprovedRequests,
		handlers.MarkOverdueLoans,
		sweeper.WithInterval(cfg.Sweep.Interval),
		sweeper.WithBatchSize(cfg.Sweep.BatchSize),
		sweeper.WithContextualLogging(logger),
	)

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweep.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "circulationd listening", "addr", cfg.HTTP.Addr, "env", cfg.Env, "db_driver", cfg.Database.Driver)

		if listenErr := srv.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
			serveErr <- listenErr
		}

		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.InfoContext(context.Background(), "shutdown signal received")
	case err = <-serveErr:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := srv.Shutdown(shutdownCtx)
	<-sweepDone

	return errors.Join(err, shutdownErr)
}

func newNotifier(ctx context.Context, cfg config.RedisConfig, logger shell.ContextualLogger) (shell.Notifier, func(), error) {
	if !cfg.Enabled() {
		return notify.NewLogNotifier(logger), func() {}, nil
	}

	rdb, err := config.RedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}

	closeFn := func() {
		if closeErr := rdb.Close(); closeErr != nil {
			logger.WarnContext(context.Background(), "closing redis client failed", shell.LogAttrError, closeErr.Error())
		}
	}

	return notify.NewRedisPublisher(rdb, notify.WithChannel(cfg.Channel)), closeFn, nil
}

func shutdownProviders(providers *config.ObservabilityProviders) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := providers.Shutdown(ctx); err != nil {
		slog.Warn("observability shutdown failed", "error", err)
	}
}
