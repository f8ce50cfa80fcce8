package observable

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// CommandWrapper instruments any command handler with metrics, tracing and logging.
type CommandWrapper[C shell.Command, R any] struct {
	coreHandler      shell.CommandHandler[C, R]
	commandType      string
	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector
	contextualLogger shell.ContextualLogger
	logger           shell.Logger
}

// NewCommandWrapper creates a new observable wrapper around the core command handler.
func NewCommandWrapper[C shell.Command, R any](
	coreHandler shell.CommandHandler[C, R],
	opts ...CommandOption[C, R],
) (*CommandWrapper[C, R], error) {
	var zeroCommand C

	wrapper := &CommandWrapper[C, R]{
		coreHandler: coreHandler,
		commandType: zeroCommand.CommandType(),
	}

	for _, opt := range opts {
		if err := opt(wrapper); err != nil {
			return nil, err
		}
	}

	return wrapper, nil
}

// Handle delegates to the core handler and records the outcome.
func (w *CommandWrapper[C, R]) Handle(ctx context.Context, command C) (R, shell.HandlerResult, error) {
	commandStart := time.Now()
	ctx, span := shell.StartCommandSpan(ctx, w.tracingCollector, w.commandType)
	shell.LogCommandStart(ctx, w.logger, w.contextualLogger, w.commandType)

	output, result, err := w.coreHandler.Handle(ctx, command)

	w.recordRetryMetrics(ctx, result)

	if err != nil {
		w.recordCommandError(ctx, err, time.Since(commandStart), span)
		return output, result, err
	}

	outcome := shell.StatusSuccess
	if result.Idempotent {
		outcome = shell.StatusIdempotent
	}

	duration := time.Since(commandStart)
	shell.RecordCommandMetrics(ctx, w.metricsCollector, w.commandType, outcome, duration)
	shell.FinishSpan(w.tracingCollector, span, outcome, duration, nil)
	shell.LogCommandSuccess(ctx, w.logger, w.contextualLogger, w.commandType, outcome, duration)

	return output, result, nil
}

// CommandOption defines a functional option for configuring CommandWrapper.
type CommandOption[C shell.Command, R any] func(*CommandWrapper[C, R]) error

// WithCommandMetrics sets the metrics collector for the CommandWrapper.
func WithCommandMetrics[C shell.Command, R any](collector shell.MetricsCollector) CommandOption[C, R] {
	return func(w *CommandWrapper[C, R]) error {
		w.metricsCollector = collector
		return nil
	}
}

// WithCommandTracing sets the tracing collector for the CommandWrapper.
func WithCommandTracing[C shell.Command, R any](collector shell.TracingCollector) CommandOption[C, R] {
	return func(w *CommandWrapper[C, R]) error {
		w.tracingCollector = collector
		return nil
	}
}

// WithCommandContextualLogging sets the contextual logger for the CommandWrapper.
func WithCommandContextualLogging[C shell.Command, R any](logger shell.ContextualLogger) CommandOption[C, R] {
	return func(w *CommandWrapper[C, R]) error {
		w.contextualLogger = logger
		return nil
	}
}

// WithCommandLogging sets the basic logger for the CommandWrapper.
func WithCommandLogging[C shell.Command, R any](logger shell.Logger) CommandOption[C, R] {
	return func(w *CommandWrapper[C, R]) error {
		w.logger = logger
		return nil
	}
}

// errorStatus classifies an error into a metrics status.
func errorStatus(err error) string {
	switch {
	case shell.IsCancellationError(err):
		return shell.StatusCanceled
	case shell.IsTimeoutError(err):
		return shell.StatusTimeout
	case shell.IsConcurrencyConflictError(err):
		return shell.StatusConcurrencyConflict
	case shell.IsInvariantViolationError(err):
		return shell.StatusInvariantViolation
	case shell.IsBusinessRejection(err):
		return shell.StatusRejected
	default:
		return shell.StatusError
	}
}

func (w *CommandWrapper[C, R]) recordCommandError(ctx context.Context, err error, duration time.Duration, span shell.SpanContext) {
	status := errorStatus(err)

	shell.RecordCommandMetrics(ctx, w.metricsCollector, w.commandType, status, duration)
	shell.FinishSpan(w.tracingCollector, span, status, duration, err)

	switch status {
	case shell.StatusRejected:
		shell.LogCommandRejected(ctx, w.logger, w.contextualLogger, w.commandType, err)
	case shell.StatusInvariantViolation:
		shell.LogInvariantViolation(ctx, w.logger, w.contextualLogger, w.commandType, err)
	default:
		shell.LogCommandError(ctx, w.logger, w.contextualLogger, w.commandType, err)
	}
}

// recordRetryMetrics records retry execution metadata from the handler result.
func (w *CommandWrapper[C, R]) recordRetryMetrics(ctx context.Context, result shell.HandlerResult) {
	if w.metricsCollector == nil {
		return
	}

	if result.RetryAttempts > 1 {
		shell.IncrementCounter(ctx, w.metricsCollector, shell.CommandHandlerRetriesMetric,
			shell.BuildRetryLabels(w.commandType, result.RetryAttempts-1, result.LastErrorType))

		shell.RecordDuration(ctx, w.metricsCollector, shell.CommandHandlerRetryDelayMetric, result.TotalRetryDelay,
			map[string]string{shell.LogAttrCommandType: w.commandType})
	}

	if result.RetriesExhausted {
		shell.IncrementCounter(ctx, w.metricsCollector, shell.CommandHandlerMaxRetriesReachedMetric,
			map[string]string{shell.LogAttrCommandType: w.commandType})
	}
}
