package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/memoryengine"
	"github.com/AntonStoeckl/library-circulation-go/circulation/oteladapters"
	"github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine"
	"github.com/AntonStoeckl/library-circulation-go/library/httpapi"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell/config"
)

const (
	defaultRate            = 30
	defaultBooks           = 20
	defaultCopies          = 3
	defaultReaders         = 200
	defaultScenarioWeights = "60,15,20,5" // request, cancel, fulfill, return
	instrumentationName    = "circulation-load-generator"
)

// Config holds the command line settings of the load generator.
type Config struct {
	Rate                 float64
	Books                int
	CopiesPerBook        int
	Readers              int
	ScenarioWeights      []int
	InMemory             bool
	ObservabilityEnabled bool
	VerifyInterval       time.Duration
}

func main() {
	cfg := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	store, wiring, cleanup, err := setup(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to set up the store: %v", err)
	}
	defer cleanup()

	handlers, err := httpapi.NewHandlers(store, circulation.DefaultPolicy(), wiring)
	if err != nil {
		log.Fatalf("Failed to create handlers: %v", err)
	}

	loadGen := NewLoadGenerator(handlers, cfg)

	errChan := make(chan error, 1)
	go func() {
		if startErr := loadGen.Start(ctx); startErr != nil {
			errChan <- fmt.Errorf("load generator failed: %w", startErr)
		}
	}()

	log.Printf("Circulation load generator started")
	log.Printf("Configuration: rate=%.1f req/s, books=%d, copies=%d, readers=%d, scenario_weights=%v, in_memory=%v",
		cfg.Rate, cfg.Books, cfg.CopiesPerBook, cfg.Readers, cfg.ScenarioWeights, cfg.InMemory)
	log.Printf("Press Ctrl+C to stop...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	case err = <-errChan:
		log.Printf("Error occurred: %v", err)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err = loadGen.Stop(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Printf("Load generator stopped")

	if loadGen.Violations() > 0 {
		os.Exit(1)
	}
}

func parseFlags() Config {
	var (
		rate            = flag.Float64("rate", defaultRate, "Requests per second")
		books           = flag.Int("books", defaultBooks, "Number of books to seed")
		copies          = flag.Int("copies", defaultCopies, "Physical copies per seeded book")
		readers         = flag.Int("readers", defaultReaders, "Number of distinct readers")
		scenarioWeights = flag.String("scenario-weights", defaultScenarioWeights, "Comma-separated weights for request,cancel,fulfill,return")
		inMemory        = flag.Bool("in-memory", false, "Use the in-memory store instead of PostgreSQL")
		observability   = flag.Bool("observability-enabled", false, "Enable OpenTelemetry observability")
		verifyInterval  = flag.Duration("verify-interval", 5*time.Second, "How often the supply bound is verified")
	)

	flag.Parse()

	weights, err := parseScenarioWeights(*scenarioWeights)
	if err != nil {
		log.Fatalf("Invalid scenario weights '%s': %v", *scenarioWeights, err)
	}

	return Config{
		Rate:                 *rate,
		Books:                *books,
		CopiesPerBook:        *copies,
		Readers:              *readers,
		ScenarioWeights:      weights,
		InMemory:             *inMemory,
		ObservabilityEnabled: *observability,
		VerifyInterval:       *verifyInterval,
	}
}

func parseScenarioWeights(weightsStr string) ([]int, error) {
	parts := strings.Split(weightsStr, ",")
	if len(parts) != len(scenarios) {
		return nil, fmt.Errorf("expected %d weights, got %d", len(scenarios), len(parts))
	}

	weights := make([]int, len(parts))
	total := 0

	for i, part := range parts {
		weight, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid weight '%s': %w", part, err)
		}

		if weight < 0 || weight > 100 {
			return nil, fmt.Errorf("weight %d out of range [0, 100]", weight)
		}

		weights[i] = weight
		total += weight
	}

	if total != 100 {
		return nil, fmt.Errorf("weights must sum to 100, got %d", total)
	}

	return weights, nil
}

// setup opens the store selected by the flags and, when enabled, the OpenTelemetry adapters.
func setup(ctx context.Context, cfg Config) (circulation.Store, httpapi.Wiring, func(), error) {
	var wiring httpapi.Wiring

	cleanup := func() {}

	if cfg.ObservabilityEnabled {
		otelCfg := config.OTelConfig{
			Enabled:        true,
			ServiceName:    instrumentationName,
			TraceEndpoint:  "localhost:4317",
			MetricEndpoint: "localhost:4317",
			MetricInterval: 5 * time.Second,
		}

		providers, err := config.NewObservabilityProviders(ctx, otelCfg, "dev")
		if err != nil {
			return nil, wiring, nil, err
		}

		cleanup = func() { _ = providers.Shutdown(context.Background()) }

		wiring.ContextualLogger = oteladapters.NewSlogBridgeLogger(instrumentationName)
		wiring.Metrics = oteladapters.NewMetricsCollector(otel.Meter(instrumentationName))
		wiring.Tracing = oteladapters.NewTracingCollector(otel.Tracer(instrumentationName))
	}

	if cfg.InMemory {
		return memoryengine.NewStore(), wiring, cleanup, nil
	}

	appCfg, err := config.Load()
	if err != nil {
		cleanup()
		return nil, wiring, nil, err
	}

	pool, err := config.PostgresPGXPool(ctx, appCfg.Database.DSN, appCfg.Database.MaxConns)
	if err != nil {
		cleanup()
		return nil, wiring, nil, err
	}

	var opts []postgresengine.Option
	if wiring.ContextualLogger != nil {
		opts = append(opts, postgresengine.WithContextualLogger(wiring.ContextualLogger))
	}

	if wiring.Metrics != nil {
		opts = append(opts, postgresengine.WithMetrics(wiring.Metrics))
	}

	if wiring.Tracing != nil {
		opts = append(opts, postgresengine.WithTracing(wiring.Tracing))
	}

	store, err := postgresengine.NewStoreFromPGXPool(pool, opts...)
	if err != nil {
		pool.Close()
		cleanup()

		return nil, wiring, nil, err
	}

	if err = store.CreateSchema(ctx); err != nil {
		pool.Close()
		cleanup()

		return nil, wiring, nil, err
	}

	closeAll := cleanup

	return store, wiring, func() {
		pool.Close()
		closeAll()
	}, nil
}
