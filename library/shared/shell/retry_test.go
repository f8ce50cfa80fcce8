package shell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

func Test_RetryWithExponentialBackoff_Success_NoRetries(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn)

	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, time.Duration(0), meta.TotalDelay)
	assert.Equal(t, "none", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_RetryOnConcurrencyConflict(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return circulation.ErrConcurrencyConflict
		}
		return nil
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_BusinessConflictFailsFast(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return circulation.ErrRequestStatusConflict
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn)

	assert.ErrorIs(t, err, circulation.ErrRequestStatusConflict)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "other", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_Exhausted(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return circulation.ErrConcurrencyConflict
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn, WithMaxAttempts(3), WithBaseDelay(time.Millisecond))

	assert.ErrorIs(t, err, circulation.ErrConcurrencyConflict)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.True(t, meta.RetriesExhausted)
	assert.Equal(t, "concurrency_conflict", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_StopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		cancel()
		return circulation.ErrConcurrencyConflict
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn, WithBaseDelay(time.Second))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "context_canceled", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_WithAllOptions(t *testing.T) {
	ctx := context.Background()
	callCount := 0
	collector := &countingCollector{}

	fn := func(_ context.Context) error {
		callCount++
		if callCount < 2 {
			return circulation.ErrConcurrencyConflict
		}
		return nil
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn,
		WithMaxAttempts(3),
		WithBaseDelay(5*time.Millisecond),
		WithJitterFactor(0.1),
		WithMetrics(collector, "CreateBorrowRequest"),
	)

	assert.NoError(t, err)
	assert.Equal(t, 2, callCount)
	assert.Equal(t, 2, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, 1, collector.counters[CommandHandlerRetriesMetric])
	assert.Equal(t, 1, collector.durations[CommandHandlerRetryDelayMetric])
}

func Test_RetryWithExponentialBackoff_InvalidOptions(t *testing.T) {
	ctx := context.Background()
	fn := func(_ context.Context) error { return nil }

	_, err := RetryWithExponentialBackoff(ctx, fn, WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = RetryWithExponentialBackoff(ctx, fn, WithBaseDelay(-1*time.Second))
	assert.ErrorIs(t, err, ErrNegativeBaseDelay)

	_, err = RetryWithExponentialBackoff(ctx, fn, WithJitterFactor(1.5))
	assert.ErrorIs(t, err, ErrInvalidJitterFactor)

	_, err = RetryWithExponentialBackoff(ctx, fn, WithMetrics(nil, "X"))
	assert.ErrorIs(t, err, ErrNilMetricsCollector)

	_, err = RetryWithExponentialBackoff(ctx, fn, WithMetrics(&countingCollector{}, ""))
	assert.ErrorIs(t, err, ErrEmptyCommandType)
}

func Test_ErrorType(t *testing.T) {
	assert.Equal(t, "none", ErrorType(nil))
	assert.Equal(t, "concurrency_conflict", ErrorType(circulation.ErrConcurrencyConflict))
	assert.Equal(t, "context_deadline_exceeded", ErrorType(context.DeadlineExceeded))
	assert.Equal(t, "other", ErrorType(errors.New("boom")))
}

type countingCollector struct {
	counters  map[string]int
	durations map[string]int
}

func (c *countingCollector) RecordDuration(metric string, _ time.Duration, _ map[string]string) {
	if c.durations == nil {
		c.durations = make(map[string]int)
	}
	c.durations[metric]++
}

func (c *countingCollector) IncrementCounter(metric string, _ map[string]string) {
	if c.counters == nil {
		c.counters = make(map[string]int)
	}
	c.counters[metric]++
}

func (c *countingCollector) RecordValue(string, float64, map[string]string) {}
