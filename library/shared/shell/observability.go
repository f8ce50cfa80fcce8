package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	// CommandHandlerDurationMetric tracks command handler execution duration (OpenTelemetry-compatible).
	CommandHandlerDurationMetric = "commandhandler_handle_duration_seconds"

	// CommandHandlerCallsMetric tracks total command handler calls.
	CommandHandlerCallsMetric = "commandhandler_handle_calls_total"

	// CommandHandlerIdempotentMetric tracks idempotent operations.
	CommandHandlerIdempotentMetric = "commandhandler_idempotent_operations_total"

	// CommandHandlerCanceledMetric tracks canceled operations.
	CommandHandlerCanceledMetric = "commandhandler_canceled_operations_total"

	// CommandHandlerTimeoutMetric tracks timeout operations.
	CommandHandlerTimeoutMetric = "commandhandler_timeout_operations_total"

	// CommandHandlerConcurrencyConflictMetric tracks operations that failed with a concurrency conflict after retrying.
	CommandHandlerConcurrencyConflictMetric = "commandhandler_concurrency_conflicts_total"

	// CommandHandlerInvariantViolationMetric tracks writes refused because they would oversell a book
	// or create a second active request.
	CommandHandlerInvariantViolationMetric = "commandhandler_invariant_violations_total"

	// QueryHandlerDurationMetric tracks query handler execution duration (OpenTelemetry-compatible).
	QueryHandlerDurationMetric = "queryhandler_handle_duration_seconds"

	// QueryHandlerCallsMetric tracks total query handler calls.
	QueryHandlerCallsMetric = "queryhandler_handle_calls_total"

	// QueryHandlerCanceledMetric tracks canceled query operations.
	QueryHandlerCanceledMetric = "queryhandler_canceled_operations_total"

	// QueryHandlerTimeoutMetric tracks timeout query operations.
	QueryHandlerTimeoutMetric = "queryhandler_timeout_operations_total"

	// CommandHandlerRetriesMetric tracks retry attempts in command handlers.
	//
	// Labels:
	//   - command_type: Type of command being retried (e.g., "CreateBorrowRequest")
	//   - attempt_number: Which retry attempt (1, 2, 3, 4, 5)
	//   - error_type: Category of error causing retry (e.g., "concurrency_conflict")
	CommandHandlerRetriesMetric = "commandhandler_retries_total"

	// CommandHandlerRetryDelayMetric tracks retry delays in command handlers.
	CommandHandlerRetryDelayMetric = "commandhandler_retry_delay_seconds"

	// CommandHandlerMaxRetriesReachedMetric tracks when max retries are exhausted.
	CommandHandlerMaxRetriesReachedMetric = "commandhandler_max_retries_reached_total"

	// NotificationsFailedMetric tracks notifications that could not be dispatched.
	NotificationsFailedMetric = "notifications_failed_total"

	// StatusSuccess indicates successful command completion.
	StatusSuccess = "success"

	// StatusError indicates a command processing error.
	StatusError = "error"

	// StatusIdempotent indicates no state change was needed.
	StatusIdempotent = "idempotent"

	// StatusCanceled indicates the operation was canceled due to context cancellation.
	StatusCanceled = "canceled"

	// StatusTimeout indicates the operation timed out due to context deadline exceeded.
	StatusTimeout = "timeout"

	// StatusConcurrencyConflict indicates the operation failed because the database could not serialize it.
	StatusConcurrencyConflict = "concurrency_conflict"

	// StatusInvariantViolation indicates the operation was refused to protect supply or request uniqueness.
	StatusInvariantViolation = "invariant_violation"

	// StatusRejected indicates a business rule refused the operation (validation, conflict, renewal rule).
	StatusRejected = "rejected"

	// LogMsgCommandStarted is logged when command processing begins.
	LogMsgCommandStarted = "command handler started"

	// LogMsgCommandCompleted is logged when command processing succeeds.
	LogMsgCommandCompleted = "command handler completed"

	// LogMsgCommandFailed is logged when command processing fails.
	LogMsgCommandFailed = "command handler failed"

	// LogMsgCommandRejected is logged when a business rule refuses a command.
	LogMsgCommandRejected = "command handler rejected the command"

	// LogMsgInvariantViolation is logged when a write would have oversold a book or duplicated an active request.
	LogMsgInvariantViolation = "invariant violation prevented"

	// LogMsgQueryStarted is logged when query processing begins.
	LogMsgQueryStarted = "query handler started"

	// LogMsgQueryCompleted is logged when query processing succeeds.
	LogMsgQueryCompleted = "query handler completed"

	// LogMsgQueryFailed is logged when query processing fails.
	LogMsgQueryFailed = "query handler failed"

	// LogMsgQueuePromoted is logged when queue heads were approved.
	LogMsgQueuePromoted = "queue heads promoted"

	// LogMsgNotificationFailed is logged when a notification could not be dispatched.
	LogMsgNotificationFailed = "notification dispatch failed"

	// LogAttrCommandType identifies the command type in logs.
	LogAttrCommandType = "command_type"

	// LogAttrQueryType identifies the query type in logs.
	LogAttrQueryType = "query_type"

	// LogAttrStatus indicates the command processing status.
	LogAttrStatus = "status"

	// LogAttrDurationMS indicates the processing duration in milliseconds.
	LogAttrDurationMS = "duration_ms"

	// LogAttrBusinessOutcome classifies the business result.
	LogAttrBusinessOutcome = "business_outcome"

	// LogAttrError contains error details.
	LogAttrError = "error"

	// LogAttrErrorType contains the error label returned by ErrorType.
	LogAttrErrorType = "error_type"

	// LogAttrAttemptNumber is the retry attempt in retry metrics.
	LogAttrAttemptNumber = "attempt_number"

	// LogAttrFinalErrorType is the error that ended a retry loop.
	LogAttrFinalErrorType = "final_error_type"

	// LogAttrBookID identifies the book.
	LogAttrBookID = "book_id"

	// LogAttrRequestID identifies the borrow request.
	LogAttrRequestID = "request_id"

	// LogAttrUserID identifies the user.
	LogAttrUserID = "user_id"

	// LogAttrPromotedCount is the number of queue heads approved.
	LogAttrPromotedCount = "promoted_count"

	// LogAttrNotificationKind identifies the notification.
	LogAttrNotificationKind = "notification_kind"

	// SpanNameCommandHandle is the tracing span name for command handling.
	SpanNameCommandHandle = "commandhandler.handle"

	// SpanNameQueryHandle is the tracing span name for query handling.
	SpanNameQueryHandle = "queryhandler.handle"
)

// MetricsCollector interface for collecting command handler performance metrics.
type MetricsCollector = circulation.MetricsCollector

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
type ContextualMetricsCollector = circulation.ContextualMetricsCollector

// TracingCollector interface for distributed tracing in command handlers.
type TracingCollector = circulation.TracingCollector

// SpanContext represents an active tracing span.
type SpanContext = circulation.SpanContext

// ContextualLogger interface for context-aware logging in command handlers.
type ContextualLogger = circulation.ContextualLogger

// Logger interface for basic logging in command handlers.
type Logger = circulation.Logger

// BuildCommandLabels creates standard metric labels for command handler operations.
func BuildCommandLabels(commandType, status string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		LogAttrStatus:      status,
	}
}

// BuildQueryLabels creates standard metric labels for query handler operations.
func BuildQueryLabels(queryType, status string) map[string]string {
	return map[string]string{
		LogAttrQueryType: queryType,
		LogAttrStatus:    status,
	}
}

// BuildRetryLabels creates standard metric labels for retry operations.
func BuildRetryLabels(commandType string, attemptNumber int, errorType string) map[string]string {
	return map[string]string{
		LogAttrCommandType:   commandType,
		LogAttrAttemptNumber: strconv.Itoa(attemptNumber),
		LogAttrErrorType:     errorType,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with precision.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// incrementCounter prefers the context-aware collector for trace correlation.
func incrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

func recordDuration(ctx context.Context, collector MetricsCollector, metric string, d time.Duration, labels map[string]string) {
	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, d, labels)
		return
	}

	collector.RecordDuration(metric, d, labels)
}

// IncrementCounter records one occurrence of metric, using the context-aware method when available.
// A nil collector is a no-op.
func IncrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if collector == nil {
		return
	}

	incrementCounter(ctx, collector, metric, labels)
}

// RecordDuration records a duration, using the context-aware method when available.
// A nil collector is a no-op.
func RecordDuration(ctx context.Context, collector MetricsCollector, metric string, d time.Duration, labels map[string]string) {
	if collector == nil {
		return
	}

	recordDuration(ctx, collector, metric, d, labels)
}

// commandStatusCounters maps a status to the extra counter it feeds.
var commandStatusCounters = map[string]string{
	StatusIdempotent:          CommandHandlerIdempotentMetric,
	StatusCanceled:            CommandHandlerCanceledMetric,
	StatusTimeout:             CommandHandlerTimeoutMetric,
	StatusConcurrencyConflict: CommandHandlerConcurrencyConflictMetric,
	StatusInvariantViolation:  CommandHandlerInvariantViolationMetric,
}

var queryStatusCounters = map[string]string{
	StatusCanceled: QueryHandlerCanceledMetric,
	StatusTimeout:  QueryHandlerTimeoutMetric,
}

// RecordCommandMetrics records duration and call count for a command operation,
// plus the status specific counter for idempotent, canceled, timeout, conflict and invariant outcomes.
func RecordCommandMetrics(
	ctx context.Context,
	collector MetricsCollector,
	commandType string,
	status string,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	labels := BuildCommandLabels(commandType, status)
	recordDuration(ctx, collector, CommandHandlerDurationMetric, duration, labels)
	incrementCounter(ctx, collector, CommandHandlerCallsMetric, labels)

	if metric, ok := commandStatusCounters[status]; ok {
		incrementCounter(ctx, collector, metric, BuildCommandLabels(commandType, status))
	}
}

// RecordQueryMetrics records duration and call count for a query operation.
func RecordQueryMetrics(
	ctx context.Context,
	collector MetricsCollector,
	queryType string,
	status string,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	labels := BuildQueryLabels(queryType, status)
	recordDuration(ctx, collector, QueryHandlerDurationMetric, duration, labels)
	incrementCounter(ctx, collector, QueryHandlerCallsMetric, labels)

	if metric, ok := queryStatusCounters[status]; ok {
		incrementCounter(ctx, collector, metric, BuildQueryLabels(queryType, status))
	}
}

// StartCommandSpan starts a distributed tracing span for command operations.
// Returns the updated context and span context, or original context and nil if tracing is disabled.
func StartCommandSpan(ctx context.Context, tracingCollector TracingCollector, commandType string) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, SpanNameCommandHandle, map[string]string{LogAttrCommandType: commandType})
}

// StartQuerySpan starts a distributed tracing span for query operations.
func StartQuerySpan(ctx context.Context, tracingCollector TracingCollector, queryType string) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, SpanNameQueryHandle, map[string]string{LogAttrQueryType: queryType})
}

// FinishSpan completes a command or query span with the operation outcome.
func FinishSpan(
	tracingCollector TracingCollector,
	span SpanContext,
	status string,
	duration time.Duration,
	err error,
) {
	if tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: fmt.Sprintf("%.2f", ToMilliseconds(duration)),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	tracingCollector.FinishSpan(span, status, attrs)
}

func logInfo(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.InfoContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Info(msg, args...)
	}
}

func logWarn(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.WarnContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Warn(msg, args...)
	}
}

func logError(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.ErrorContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Error(msg, args...)
	}
}

// LogCommandStart logs the beginning of command processing.
func LogCommandStart(ctx context.Context, logger Logger, contextualLogger ContextualLogger, commandType string) {
	logInfo(ctx, logger, contextualLogger, LogMsgCommandStarted, LogAttrCommandType, commandType)
}

// LogCommandSuccess logs successful command completion.
func LogCommandSuccess(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	commandType string,
	businessOutcome string,
	duration time.Duration,
) {
	logInfo(ctx, logger, contextualLogger, LogMsgCommandCompleted,
		LogAttrCommandType, commandType,
		LogAttrBusinessOutcome, businessOutcome,
		LogAttrDurationMS, ToMilliseconds(duration),
	)
}

// LogCommandRejected logs a command refused by a business rule. This is an expected outcome, not a failure.
func LogCommandRejected(ctx context.Context, logger Logger, contextualLogger ContextualLogger, commandType string, err error) {
	logInfo(ctx, logger, contextualLogger, LogMsgCommandRejected,
		LogAttrCommandType, commandType,
		LogAttrError, err.Error(),
	)
}

// LogCommandError logs command processing errors.
func LogCommandError(ctx context.Context, logger Logger, contextualLogger ContextualLogger, commandType string, err error) {
	logError(ctx, logger, contextualLogger, LogMsgCommandFailed,
		LogAttrCommandType, commandType,
		LogAttrError, err.Error(),
	)
}

// LogInvariantViolation logs a refused write that would have broken supply or request uniqueness.
// It always logs at error level: it means a race escaped the lock or data is corrupt.
func LogInvariantViolation(ctx context.Context, logger Logger, contextualLogger ContextualLogger, commandType string, err error) {
	logError(ctx, logger, contextualLogger, LogMsgInvariantViolation,
		LogAttrCommandType, commandType,
		LogAttrError, err.Error(),
	)
}

// LogQueryStart logs the beginning of query processing.
func LogQueryStart(ctx context.Context, logger Logger, contextualLogger ContextualLogger, queryType string) {
	logInfo(ctx, logger, contextualLogger, LogMsgQueryStarted, LogAttrQueryType, queryType)
}

// LogQuerySuccess logs successful query completion.
func LogQuerySuccess(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	queryType string,
	businessOutcome string,
	duration time.Duration,
) {
	logInfo(ctx, logger, contextualLogger, LogMsgQueryCompleted,
		LogAttrQueryType, queryType,
		LogAttrBusinessOutcome, businessOutcome,
		LogAttrDurationMS, ToMilliseconds(duration),
	)
}

// LogQueryError logs query processing errors.
func LogQueryError(ctx context.Context, logger Logger, contextualLogger ContextualLogger, queryType string, err error) {
	logError(ctx, logger, contextualLogger, LogMsgQueryFailed,
		LogAttrQueryType, queryType,
		LogAttrError, err.Error(),
	)
}

// IsCancellationError checks if an error is due to context cancellation.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTimeoutError checks if an error is due to context deadline exceeded.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// IsConcurrencyConflictError checks if an error is due to a database serialization failure.
func IsConcurrencyConflictError(err error) bool {
	return errors.Is(err, circulation.ErrConcurrencyConflict)
}

// IsInvariantViolationError checks if an error protects supply or request uniqueness.
func IsInvariantViolationError(err error) bool {
	return errors.Is(err, circulation.ErrInvariantViolation)
}

// IsBusinessRejection checks if an error is an expected refusal by a business rule.
func IsBusinessRejection(err error) bool {
	return errors.Is(err, circulation.ErrValidation) ||
		errors.Is(err, circulation.ErrNotFound) ||
		errors.Is(err, circulation.ErrConflict) ||
		errors.Is(err, circulation.ErrForbidden) ||
		errors.Is(err, circulation.ErrRenewalRejected)
}
