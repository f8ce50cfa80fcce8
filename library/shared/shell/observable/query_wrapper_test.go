package observable_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell/observable"
	"github.com/AntonStoeckl/library-circulation-go/testutil/observability/testdoubles"
)

type testQuery struct{}

func (testQuery) QueryType() string { return "TestQuery" }

type stubQueryHandler struct {
	result int
	err    error
}

func (h stubQueryHandler) Handle(_ context.Context, _ testQuery) (int, error) {
	return h.result, h.err
}

func Test_QueryWrapper_Handle(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		// arrange
		metrics := testdoubles.NewMetricsCollectorSpy(true)
		logger := testdoubles.NewLoggerSpy(true)
		wrapper, err := observable.NewQueryWrapper[testQuery, int](
			stubQueryHandler{result: 3},
			observable.WithQueryMetrics[testQuery, int](metrics),
			observable.WithQueryLogging[testQuery, int](logger),
		)
		require.NoError(t, err)

		// act
		result, err := wrapper.Handle(context.Background(), testQuery{})

		// assert
		require.NoError(t, err)
		assert.Equal(t, 3, result)
		assert.True(t, metrics.HasCounterRecordForMetric(shell.QueryHandlerCallsMetric).
			WithLabel(shell.LogAttrQueryType, "TestQuery").
			WithStatus(shell.StatusSuccess).
			Assert())
		assert.True(t, logger.HasInfoLog(shell.LogMsgQueryCompleted))
	})

	t.Run("not found", func(t *testing.T) {
		// arrange
		metrics := testdoubles.NewMetricsCollectorSpy(true)
		tracing := testdoubles.NewTracingCollectorSpy(true)
		wrapper, err := observable.NewQueryWrapper[testQuery, int](
			stubQueryHandler{err: circulation.ErrRequestNotFound},
			observable.WithQueryMetrics[testQuery, int](metrics),
			observable.WithQueryTracing[testQuery, int](tracing),
		)
		require.NoError(t, err)

		// act
		_, err = wrapper.Handle(context.Background(), testQuery{})

		// assert
		assert.ErrorIs(t, err, circulation.ErrNotFound)
		assert.True(t, metrics.HasCounterRecordForMetric(shell.QueryHandlerCallsMetric).WithStatus(shell.StatusRejected).Assert())
		assert.True(t, tracing.HasSpanRecordForName(shell.SpanNameQueryHandle).WithStatus(shell.StatusRejected).Assert())
	})
}
