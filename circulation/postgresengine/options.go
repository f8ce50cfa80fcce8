package postgresengine

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithTablePrefix prefixes all table names, e.g. for running isolated test schemas side by side.
func WithTablePrefix(prefix string) Option {
	return func(s *Store) error {
		if prefix == "" {
			return circulation.ErrEmptyTablePrefix
		}

		s.tables = newTableNames(prefix)

		return nil
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Transaction outcomes, durations, concurrency conflicts (production-safe)
// Warn level: Non-critical issues like rollback or cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger circulation.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
// Log records then carry trace/span correlation when tracing is enabled.
func WithContextualLogger(logger circulation.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
// It receives transaction durations, statement counts, concurrency conflicts, and database errors.
func WithMetrics(collector circulation.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
// Every Transact and ReadOnly call becomes one span.
func WithTracing(collector circulation.TracingCollector) Option {
	return func(s *Store) error {
		s.tracingCollector = collector
		return nil
	}
}
