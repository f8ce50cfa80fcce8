package shell

import (
	"context"
)

// ExecuteFunc is one attempt of a command. It returns the command's output and whether
// the attempt found nothing to change.
type ExecuteFunc[R any] func(ctx context.Context) (output R, idempotent bool, err error)

// HandleWithRetry runs execute with RetryWithExponentialBackoff and builds the HandlerResult.
// Only the output of the last attempt is returned.
func HandleWithRetry[R any](ctx context.Context, retryOptions []RetryOption, execute ExecuteFunc[R]) (R, HandlerResult, error) {
	var (
		output     R
		idempotent bool
	)

	retryMetrics, err := RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		output, idempotent, execErr = execute(retryCtx)

		return execErr
	}, retryOptions...)

	if err != nil {
		var zero R
		return zero, NewErrorResult(retryMetrics), err
	}

	if idempotent {
		return output, NewIdempotentResult(retryMetrics), nil
	}

	return output, NewSuccessResult(retryMetrics), nil
}
