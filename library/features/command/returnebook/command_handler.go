package returnebook

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// CommandHandler runs the Read -> Decide -> Close workflow with retry.
// Digital loans hold no copies, so no book is locked.
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

// Handle executes the command with retry on concurrency conflicts.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	if err := core.RequireRole(command.Actor, core.ReaderRoles...); err != nil {
		return Result{}, shell.NewErrorResult(shell.RetryMetrics{}), err
	}

	return shell.HandleWithRetry(ctx, h.retryOptions, func(ctx context.Context) (Result, bool, error) {
		return h.executeCommand(ctx, command)
	})
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (Result, bool, error) {
	var (
		result     Result
		idempotent bool
	)

	err := h.store.Transact(ctx, func(ctx context.Context, tx circulation.Tx) error {
		record, err := tx.BorrowRecord(ctx, command.BorrowRecordID)
		if err != nil {
			return err
		}

		decision := Decide(record, command)
		if err = decision.HasError(); err != nil {
			return err
		}

		if decision.IsIdempotent() {
			idempotent = true
			result.ReturnedAt = *record.ActualReturnDate

			return nil
		}

		if err = tx.CloseBorrowRecord(ctx, record.ID, command.OccurredAt); err != nil {
			return err
		}

		result.ReturnedAt = command.OccurredAt

		return nil
	})
	if err != nil {
		return Result{}, false, err
	}

	return result, idempotent, nil
}
