package shell

import "time"

// HandlerResult represents the outcome of a command handler execution.
// It captures both business outcomes (idempotency) and execution metadata (retry information)
// without coupling the handler to specific observability implementations.
type HandlerResult struct {
	// Idempotent indicates that no state change was needed.
	Idempotent bool

	// RetryAttempts is the total number of attempts made (1 for no retries, 2+ for retries).
	RetryAttempts int

	// TotalRetryDelay is the cumulative time spent in backoff delays.
	TotalRetryDelay time.Duration

	// LastErrorType describes the final error encountered during retries.
	// Values: "none" (success), "concurrency_conflict", "context_canceled", "context_deadline_exceeded", "other"
	LastErrorType string

	// RetriesExhausted is true only when all attempts failed with a retryable error.
	RetriesExhausted bool
}

func newResult(idempotent bool, metrics RetryMetrics) HandlerResult {
	return HandlerResult{
		Idempotent:       idempotent,
		RetryAttempts:    metrics.Attempts,
		TotalRetryDelay:  metrics.TotalDelay,
		LastErrorType:    metrics.LastErrorType,
		RetriesExhausted: metrics.RetriesExhausted,
	}
}

// NewSuccessResult creates a HandlerResult for operations that changed state.
func NewSuccessResult(metrics RetryMetrics) HandlerResult {
	return newResult(false, metrics)
}

// NewIdempotentResult creates a HandlerResult for operations that found nothing to change.
func NewIdempotentResult(metrics RetryMetrics) HandlerResult {
	return newResult(true, metrics)
}

// NewErrorResult creates a HandlerResult for failed operations, keeping the retry metadata.
func NewErrorResult(metrics RetryMetrics) HandlerResult {
	return newResult(false, metrics)
}
