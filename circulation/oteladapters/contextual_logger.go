package oteladapters

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// SlogBridgeLogger implements circulation.ContextualLogger and circulation.Logger with a slog.Logger.
// Built with NewSlogBridgeLogger, records go through the OpenTelemetry slog bridge and carry the
// trace and span IDs of the context.
type SlogBridgeLogger struct {
	logger *slog.Logger
}

// NewSlogBridgeLogger creates a logger on the global OpenTelemetry LoggerProvider.
func NewSlogBridgeLogger(name string) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: otelslog.NewLogger(name)}
}

// NewSlogBridgeLoggerWithHandler creates a logger writing to the given handler, without trace correlation.
// Used for local JSON logging and in tests.
func NewSlogBridgeLoggerWithHandler(handler slog.Handler) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: slog.New(handler)}
}

// DebugContext logs at debug level.
func (l *SlogBridgeLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

// InfoContext logs at info level.
func (l *SlogBridgeLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

// WarnContext logs at warn level.
func (l *SlogBridgeLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

// ErrorContext logs at error level.
func (l *SlogBridgeLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

// Debug logs at debug level without a context, for the SQL logging of the engines.
func (l *SlogBridgeLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info logs at info level without a context.
func (l *SlogBridgeLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Warn logs at warn level without a context.
func (l *SlogBridgeLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs at error level without a context.
func (l *SlogBridgeLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

var (
	_ circulation.ContextualLogger = (*SlogBridgeLogger)(nil)
	_ circulation.Logger           = (*SlogBridgeLogger)(nil)
)

// OTelLogger implements circulation.ContextualLogger by emitting records through the OpenTelemetry log API.
type OTelLogger struct {
	logger log.Logger
}

// NewOTelLogger creates a logger emitting to the given OpenTelemetry logger.
func NewOTelLogger(logger log.Logger) *OTelLogger {
	return &OTelLogger{logger: logger}
}

// DebugContext emits a debug record.
func (l *OTelLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityDebug, msg, args)
}

// InfoContext emits an info record.
func (l *OTelLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityInfo, msg, args)
}

// WarnContext emits a warn record.
func (l *OTelLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityWarn, msg, args)
}

// ErrorContext emits an error record.
func (l *OTelLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityError, msg, args)
}

// emit turns slog-style key/value pairs into string attributes. A trailing key without value is dropped.
func (l *OTelLogger) emit(ctx context.Context, severity log.Severity, msg string, args []any) {
	var record log.Record
	record.SetSeverity(severity)
	record.SetBody(log.StringValue(msg))

	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}

		record.AddAttributes(log.String(key, toString(args[i+1])))
	}

	l.logger.Emit(ctx, record)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return slog.AnyValue(v).String()
}

var _ circulation.ContextualLogger = (*OTelLogger)(nil)
