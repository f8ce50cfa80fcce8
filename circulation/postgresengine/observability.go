package postgresengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	metricTransactionDuration  = "circulation_store_transaction_duration_seconds"
	metricStatementsExecuted   = "circulation_store_statements_total"
	metricConcurrencyConflicts = "circulation_store_concurrency_conflicts_total"
	metricDatabaseErrors       = "circulation_store_database_errors_total"
	spanNameTransaction        = "circulation.store.transaction"
	spanAttrMode               = "mode"
	spanAttrConsistency        = "consistency"
	spanAttrStatements         = "statements"
	spanAttrDurationMS         = "duration_ms"
	spanAttrErrorType          = "error_type"
	labelMode                  = "mode"
	labelStatus                = "status"
	labelErrorType             = "error_type"
	labelConflictType          = "conflict_type"
	statusSuccess              = "success"
	statusError                = "error"
)

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// logQueryWithDuration logs SQL statements with execution time at debug level to whichever loggers are configured.
func (s *Store) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level.
func (s *Store) logOperation(ctx context.Context, action string, args ...any) {
	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logWarn logs non-critical issues at warn level.
func (s *Store) logWarn(ctx context.Context, message string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(message, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, message, args...)
	}
}

// logError logs error information at the error level.
func (s *Store) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if s.logger != nil {
		s.logger.Error(message, allArgs...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// === Tracing Observer Pattern ===

// transactionTracingObserver encapsulates the span lifecycle of one transaction.
type transactionTracingObserver struct {
	s    *Store
	span circulation.SpanContext
}

// startTransactionTracing starts a span if the tracing collector is configured.
func (s *Store) startTransactionTracing(
	ctx context.Context,
	mode string,
	consistency circulation.ConsistencyLevel,
) (*transactionTracingObserver, context.Context) {

	observer := &transactionTracingObserver{s: s}

	if s.tracingCollector == nil {
		return observer, ctx
	}

	newCtx, span := s.tracingCollector.StartSpan(ctx, spanNameTransaction, map[string]string{
		spanAttrMode:        mode,
		spanAttrConsistency: consistency.String(),
	})
	observer.span = span

	return observer, newCtx
}

// finishSuccess completes the span for a committed transaction.
func (o *transactionTracingObserver) finishSuccess(statements int, duration time.Duration) {
	if o.span == nil {
		return
	}

	o.span.SetStatus(statusSuccess)
	o.span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", toMilliseconds(duration)))
	o.s.tracingCollector.FinishSpan(o.span, statusSuccess, map[string]string{
		spanAttrStatements: fmt.Sprintf("%d", statements),
	})
}

// finishError completes the span for a rolled back or failed transaction.
func (o *transactionTracingObserver) finishError(errorType string, duration time.Duration) {
	if o.span == nil {
		return
	}

	o.span.SetStatus(statusError)
	o.span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", toMilliseconds(duration)))
	o.s.tracingCollector.FinishSpan(o.span, statusError, map[string]string{
		spanAttrErrorType: errorType,
	})
}

// === Metrics Observer Pattern ===

// transactionMetricsObserver encapsulates the metrics of one transaction.
type transactionMetricsObserver struct {
	s    *Store
	ctx  context.Context
	mode string
}

// startTransactionMetrics creates a new metrics observer for a transaction.
func (s *Store) startTransactionMetrics(ctx context.Context, mode string) *transactionMetricsObserver {
	return &transactionMetricsObserver{s: s, ctx: ctx, mode: mode}
}

// recordSuccess records the duration and statement count of a committed transaction.
func (o *transactionMetricsObserver) recordSuccess(statements int, duration time.Duration) {
	labels := map[string]string{labelMode: o.mode, labelStatus: statusSuccess}
	o.recordDuration(duration, labels)
	o.recordValue(metricStatementsExecuted, float64(statements), labels)
}

// recordError records the duration and an error counter of a failed transaction.
func (o *transactionMetricsObserver) recordError(errorType string, duration time.Duration) {
	o.recordDuration(duration, map[string]string{labelMode: o.mode, labelStatus: statusError})
	o.incrementCounter(metricDatabaseErrors, map[string]string{
		labelMode:      o.mode,
		labelStatus:    statusError,
		labelErrorType: errorType,
	})
}

// recordConcurrencyConflict counts a transaction aborted by a serialization failure or deadlock.
func (o *transactionMetricsObserver) recordConcurrencyConflict() {
	o.incrementCounter(metricConcurrencyConflicts, map[string]string{
		labelMode:         o.mode,
		labelConflictType: "concurrency",
	})
}

func (o *transactionMetricsObserver) recordDuration(duration time.Duration, labels map[string]string) {
	collector := o.s.metricsCollector
	if collector == nil {
		return
	}

	// Use context-aware method if available
	if contextual, ok := collector.(circulation.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(o.ctx, metricTransactionDuration, duration, labels)
		return
	}

	collector.RecordDuration(metricTransactionDuration, duration, labels)
}

func (o *transactionMetricsObserver) recordValue(metric string, value float64, labels map[string]string) {
	collector := o.s.metricsCollector
	if collector == nil {
		return
	}

	if contextual, ok := collector.(circulation.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(o.ctx, metric, value, labels)
		return
	}

	collector.RecordValue(metric, value, labels)
}

func (o *transactionMetricsObserver) incrementCounter(metric string, labels map[string]string) {
	collector := o.s.metricsCollector
	if collector == nil {
		return
	}

	if contextual, ok := collector.(circulation.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(o.ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}
