package markoverdueloans

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// CommandHandler runs the overdue sweep with retry.
// It locks no books: loans do not take part in supply or queue decisions.
type CommandHandler struct {
	store        circulation.Store
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store circulation.Store, opts ...Option) CommandHandler {
	handler := CommandHandler{store: store}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes one sweep. A run that marks nothing is idempotent.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	return shell.HandleWithRetry(ctx, h.retryOptions, func(ctx context.Context) (Result, bool, error) {
		var result Result

		err := h.store.Transact(ctx, func(ctx context.Context, tx circulation.Tx) error {
			marked, err := tx.MarkOverdue(ctx, circulation.DateOf(command.OccurredAt))
			result.Marked = marked

			return err
		})
		if err != nil {
			return Result{}, false, err
		}

		return result, result.Marked == 0, nil
	})
}
