package addbook

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// CommandHandler runs the Read -> Decide -> Write workflow with retry.
// A new book has no queue yet, so nothing is promoted.
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
	if err := core.RequireRole(command.Actor, core.StaffRoles...); err != nil {
		return Result{}, shell.NewErrorResult(shell.RetryMetrics{}), err
	}

	return shell.HandleWithRetry(ctx, h.retryOptions, func(ctx context.Context) (Result, bool, error) {
		return h.executeCommand(ctx, command)
	})
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (Result, bool, error) {
	result := Result{BookID: command.BookID, ItemIDs: make([]uuid.UUID, 0, command.Copies)}
	idempotent := false

	err := h.store.Transact(ctx, func(ctx context.Context, tx circulation.Tx) error {
		_, err := tx.Book(ctx, command.BookID)
		if err != nil && !errors.Is(err, circulation.ErrBookNotFound) {
			return err
		}

		decision := Decide(err == nil, command)
		if err = decision.HasError(); err != nil {
			return err
		}

		if decision.IsIdempotent() {
			idempotent = true
			return nil
		}

		if err = tx.InsertBook(ctx, decision.Value); err != nil {
			return err
		}

		items := make([]circulation.BookItem, 0, command.Copies)
		for range command.Copies {
			itemID, idErr := uuid.NewV7()
			if idErr != nil {
				return idErr
			}

			items = append(items, circulation.BookItem{ID: itemID, BookID: command.BookID, Status: circulation.BookItemAvailable})
			result.ItemIDs = append(result.ItemIDs, itemID)
		}

		if len(items) == 0 {
			return nil
		}

		return tx.InsertBookItems(ctx, items...)
	})
	if err != nil {
		return Result{}, false, err
	}

	return result, idempotent, nil
}
