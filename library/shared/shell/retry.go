package shell

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	defaultMaxAttempts  = 6
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3
)

var (
	// ErrNilMetricsCollector is returned when a nil metrics collector is provided to WithMetrics.
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")

	// ErrEmptyCommandType is returned when an empty command type is provided to WithMetrics.
	ErrEmptyCommandType = errors.New("command type must not be empty")

	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// RetryableFunc represents a function that can be retried.
type RetryableFunc func(ctx context.Context) error

// RetryMetrics describes how a retried operation went.
type RetryMetrics struct {
	Attempts         int
	TotalDelay       time.Duration
	LastErrorType    string
	RetriesExhausted bool
}

type retryConfig struct {
	maxAttempts      int
	baseDelay        time.Duration
	jitterFactor     float64
	metricsCollector MetricsCollector
	commandType      string
}

// RetryWithExponentialBackoff executes fn and retries it while it fails with
// circulation.ErrConcurrencyConflict, up to maxAttempts times.
//
// Retry Schedule (default): 0 ms, 10 ms, 20 ms, 40 ms, 80 ms, 160 ms (with 30% jitter)
// Use Case: serialization failures and deadlocks between admission transactions under load
//
// Only ErrConcurrencyConflict is retried. Business conflicts and timeouts fail fast.
func RetryWithExponentialBackoff(
	ctx context.Context,
	fn RetryableFunc,
	options ...RetryOption,
) (RetryMetrics, error) {
	config := &retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	metrics := RetryMetrics{LastErrorType: errorTypeNone}

	for _, option := range options {
		if err := option(config); err != nil {
			return metrics, err
		}
	}

	var lastErr error

	for attempt := 0; attempt < config.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := config.baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * config.jitterFactor //nolint:gosec // math/rand is sufficient for jitter
			backoffDelay := delay + time.Duration(jitter)

			RecordDuration(ctx, config.metricsCollector, CommandHandlerRetryDelayMetric, backoffDelay, map[string]string{
				LogAttrCommandType:   config.commandType,
				LogAttrAttemptNumber: strconv.Itoa(attempt),
			})

			select {
			case <-time.After(backoffDelay):
				metrics.TotalDelay += backoffDelay
			case <-ctx.Done():
				metrics.LastErrorType = ErrorType(ctx.Err())
				return metrics, ctx.Err()
			}
		}

		metrics.Attempts++
		lastErr = fn(ctx)
		metrics.LastErrorType = ErrorType(lastErr)

		if lastErr == nil || !isRetryableError(lastErr) {
			return metrics, lastErr
		}

		if attempt < config.maxAttempts-1 {
			IncrementCounter(ctx, config.metricsCollector, CommandHandlerRetriesMetric,
				BuildRetryLabels(config.commandType, attempt+1, metrics.LastErrorType))
		}
	}

	metrics.RetriesExhausted = true
	IncrementCounter(ctx, config.metricsCollector, CommandHandlerMaxRetriesReachedMetric, map[string]string{
		LogAttrCommandType:    config.commandType,
		LogAttrFinalErrorType: metrics.LastErrorType,
	})

	return metrics, lastErr
}

// isRetryableError determines if an error should be retried.
// Only concurrency conflicts qualify. Retrying timeouts during overload creates cascade failures,
// and business conflicts would fail the same way again.
func isRetryableError(err error) bool {
	return errors.Is(err, circulation.ErrConcurrencyConflict)
}

const errorTypeNone = "none"

// ErrorType returns a low-cardinality label for an error.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return errorTypeNone
	case errors.Is(err, circulation.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, context.Canceled):
		return "context_canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "context_deadline_exceeded"
	default:
		return "other"
	}
}

// RetryOption configures retry behavior using the functional options pattern.
type RetryOption func(*retryConfig) error

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(attempts int) RetryOption {
	return func(config *retryConfig) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		config.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
// Actual delays: baseDelay, baseDelay*2, baseDelay*4, baseDelay*8, etc.
func WithBaseDelay(delay time.Duration) RetryOption {
	return func(config *retryConfig) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		config.baseDelay = delay

		return nil
	}
}

// WithJitterFactor sets the jitter, as a share of the calculated delay, between 0.0 and 1.0.
func WithJitterFactor(factor float64) RetryOption {
	return func(config *retryConfig) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		config.jitterFactor = factor

		return nil
	}
}

// WithMetrics sets the metrics collector for retry instrumentation.
// Requires commandType to properly label metrics.
func WithMetrics(collector MetricsCollector, commandType string) RetryOption {
	return func(config *retryConfig) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		if commandType == "" {
			return ErrEmptyCommandType
		}

		config.metricsCollector = collector
		config.commandType = commandType

		return nil
	}
}
