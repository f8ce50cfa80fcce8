package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/log/noop"

	"github.com/AntonStoeckl/library-circulation-go/circulation/oteladapters"
	"github.com/AntonStoeckl/library-circulation-go/testutil/observability/testdoubles"
)

func Test_SlogBridgeLogger_WritesAllLevels(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "debug message", "book_id", "b-1")
	logger.InfoContext(ctx, "info message")
	logger.WarnContext(ctx, "warn message")
	logger.ErrorContext(ctx, "error message")
	logger.Debug("plain debug", "duration_ms", 1.5)

	// assert
	output := buf.String()
	assert.Contains(t, output, `"msg":"debug message"`)
	assert.Contains(t, output, `"book_id":"b-1"`)
	assert.Contains(t, output, `"msg":"info message"`)
	assert.Contains(t, output, `"msg":"warn message"`)
	assert.Contains(t, output, `"msg":"error message"`)
	assert.Contains(t, output, `"duration_ms":1.5`)
}

func Test_SlogBridgeLogger_RespectsHandlerLevel(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// act
	logger.InfoContext(context.Background(), "hidden")
	logger.WarnContext(context.Background(), "shown")

	// assert
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func Test_SlogBridgeLogger_ForwardsRecordsToHandler(t *testing.T) {
	// arrange
	handler := testdoubles.NewLogHandlerSpy(slog.LevelInfo)
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(handler)

	// act
	logger.Debug("filtered")
	logger.Info("transaction committed")
	logger.ErrorContext(context.Background(), "transaction rolled back")

	// assert
	assert.Equal(t, 2, handler.RecordCount())
	assert.True(t, handler.HasRecord(slog.LevelInfo, "transaction committed"))
	assert.True(t, handler.HasRecord(slog.LevelError, "transaction rolled back"))
	assert.False(t, handler.HasRecord(slog.LevelDebug, "filtered"))
}

func Test_OTelLogger_DoesNotPanicOnOddArgs(t *testing.T) {
	// arrange
	logger := oteladapters.NewOTelLogger(noop.NewLoggerProvider().Logger("test"))

	// act + assert
	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "message", "key", "value", "dangling")
		logger.ErrorContext(context.Background(), "message", 42, "non-string key")
	})
}
