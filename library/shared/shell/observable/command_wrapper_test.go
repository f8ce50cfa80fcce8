package observable_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell/observable"
	"github.com/AntonStoeckl/library-circulation-go/testutil/observability/testdoubles"
)

type testCommand struct{}

func (testCommand) CommandType() string { return "TestCommand" }

type stubHandler struct {
	output string
	result shell.HandlerResult
	err    error
	calls  int
}

func (h *stubHandler) Handle(_ context.Context, _ testCommand) (string, shell.HandlerResult, error) {
	h.calls++
	return h.output, h.result, h.err
}

func newWrapper(
	t *testing.T,
	handler *stubHandler,
) (*observable.CommandWrapper[testCommand, string], *testdoubles.MetricsCollectorSpy, *testdoubles.TracingCollectorSpy, *testdoubles.LoggerSpy) {
	t.Helper()

	metrics := testdoubles.NewMetricsCollectorSpy(true)
	tracing := testdoubles.NewTracingCollectorSpy(true)
	logger := testdoubles.NewLoggerSpy(true)

	wrapper, err := observable.NewCommandWrapper[testCommand, string](
		handler,
		observable.WithCommandMetrics[testCommand, string](metrics),
		observable.WithCommandTracing[testCommand, string](tracing),
		observable.WithCommandContextualLogging[testCommand, string](logger),
	)
	require.NoError(t, err)

	return wrapper, metrics, tracing, logger
}

func Test_CommandWrapper_Handle_Success(t *testing.T) {
	// arrange
	handler := &stubHandler{output: "done", result: shell.HandlerResult{RetryAttempts: 1, LastErrorType: "none"}}
	wrapper, metrics, tracing, logger := newWrapper(t, handler)

	// act
	output, result, err := wrapper.Handle(context.Background(), testCommand{})

	// assert
	require.NoError(t, err)
	assert.Equal(t, "done", output)
	assert.Equal(t, handler.result, result)
	assert.Equal(t, 1, handler.calls)

	assert.True(t, metrics.HasCounterRecordForMetric(shell.CommandHandlerCallsMetric).
		WithLabel(shell.LogAttrCommandType, "TestCommand").
		WithStatus(shell.StatusSuccess).
		Assert())
	assert.True(t, metrics.HasDurationRecordForMetric(shell.CommandHandlerDurationMetric).
		WithStatus(shell.StatusSuccess).
		Assert())
	assert.False(t, metrics.HasCounterRecordForMetric(shell.CommandHandlerRetriesMetric).Assert())

	assert.True(t, tracing.HasSpanRecordForName(shell.SpanNameCommandHandle).
		WithStatus(shell.StatusSuccess).
		WithStartAttribute(shell.LogAttrCommandType, "TestCommand").
		Assert())

	assert.True(t, logger.HasInfoLog(shell.LogMsgCommandStarted))
	assert.True(t, logger.HasInfoLog(shell.LogMsgCommandCompleted))
}

func Test_CommandWrapper_Handle_Idempotent(t *testing.T) {
	// arrange
	handler := &stubHandler{result: shell.HandlerResult{Idempotent: true, RetryAttempts: 1}}
	wrapper, metrics, _, _ := newWrapper(t, handler)

	// act
	_, _, err := wrapper.Handle(context.Background(), testCommand{})

	// assert
	require.NoError(t, err)
	assert.True(t, metrics.HasCounterRecordForMetric(shell.CommandHandlerIdempotentMetric).
		WithLabel(shell.LogAttrCommandType, "TestCommand").
		Assert())
}

func Test_CommandWrapper_Handle_RecordsRetryMetadata(t *testing.T) {
	// arrange
	handler := &stubHandler{result: shell.HandlerResult{
		RetryAttempts:   3,
		TotalRetryDelay: 15 * time.Millisecond,
		LastErrorType:   "none",
	}}
	wrapper, metrics, _, _ := newWrapper(t, handler)

	// act
	_, _, err := wrapper.Handle(context.Background(), testCommand{})

	// assert
	require.NoError(t, err)
	assert.True(t, metrics.HasCounterRecordForMetric(shell.CommandHandlerRetriesMetric).
		WithLabel(shell.LogAttrAttemptNumber, "2").
		Assert())
	assert.True(t, metrics.HasDurationRecordForMetric(shell.CommandHandlerRetryDelayMetric).Assert())
}

func Test_CommandWrapper_Handle_ClassifiesErrors(t *testing.T) {
	testCases := []struct {
		description string
		err         error
		status      string
		logLevel    string
		logMessage  string
	}{
		{"business rejection", circulation.ErrRequestStatusConflict, shell.StatusRejected, testdoubles.LevelInfo, shell.LogMsgCommandRejected},
		{"renewal rejection", fmt.Errorf("%w: overdue", circulation.ErrRenewalRejected), shell.StatusRejected, testdoubles.LevelInfo, shell.LogMsgCommandRejected},
		{"invariant violation", circulation.ErrSupplyOversold, shell.StatusInvariantViolation, testdoubles.LevelError, shell.LogMsgInvariantViolation},
		{"concurrency conflict", circulation.ErrConcurrencyConflict, shell.StatusConcurrencyConflict, testdoubles.LevelError, shell.LogMsgCommandFailed},
		{"canceled", context.Canceled, shell.StatusCanceled, testdoubles.LevelError, shell.LogMsgCommandFailed},
		{"timeout", context.DeadlineExceeded, shell.StatusTimeout, testdoubles.LevelError, shell.LogMsgCommandFailed},
		{"infrastructure", errors.New("connection reset"), shell.StatusError, testdoubles.LevelError, shell.LogMsgCommandFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			// arrange
			handler := &stubHandler{err: tc.err, result: shell.HandlerResult{RetryAttempts: 1}}
			wrapper, metrics, tracing, logger := newWrapper(t, handler)

			// act
			_, _, err := wrapper.Handle(context.Background(), testCommand{})

			// assert
			assert.ErrorIs(t, err, tc.err)
			assert.True(t, metrics.HasCounterRecordForMetric(shell.CommandHandlerCallsMetric).WithStatus(tc.status).Assert())
			assert.True(t, tracing.HasSpanRecordForName(shell.SpanNameCommandHandle).WithStatus(tc.status).Assert())
			assert.True(t, logger.HasLog(tc.logLevel, tc.logMessage))
		})
	}
}

func Test_CommandWrapper_Handle_RecordsExhaustedRetries(t *testing.T) {
	// arrange
	handler := &stubHandler{
		err:    circulation.ErrConcurrencyConflict,
		result: shell.HandlerResult{RetryAttempts: 6, RetriesExhausted: true, LastErrorType: "concurrency_conflict"},
	}
	wrapper, metrics, _, _ := newWrapper(t, handler)

	// act
	_, _, err := wrapper.Handle(context.Background(), testCommand{})

	// assert
	assert.ErrorIs(t, err, circulation.ErrConcurrencyConflict)
	assert.True(t, metrics.HasCounterRecordForMetric(shell.CommandHandlerMaxRetriesReachedMetric).Assert())
	assert.True(t, metrics.HasCounterRecordForMetric(shell.CommandHandlerConcurrencyConflictMetric).Assert())
}

func Test_CommandWrapper_WithoutObservability(t *testing.T) {
	handler := &stubHandler{output: "plain"}

	wrapper, err := observable.NewCommandWrapper[testCommand, string](handler)
	require.NoError(t, err)

	output, _, err := wrapper.Handle(context.Background(), testCommand{})

	assert.NoError(t, err)
	assert.Equal(t, "plain", output)
}
