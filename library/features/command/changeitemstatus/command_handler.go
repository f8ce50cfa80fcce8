package changeitemstatus

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// CommandHandler runs the Lock -> Read -> Decide -> Write -> Promote workflow with retry.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	store        circulation.Store
	dispatcher   shell.NotificationDispatcher
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

// WithNotifications sends the promotion notices after commit.
func WithNotifications(dispatcher shell.NotificationDispatcher) Option {
	return func(h *CommandHandler) {
		h.dispatcher = dispatcher
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

	var notifications shell.Notifications

	result, handlerResult, err := shell.HandleWithRetry(ctx, h.retryOptions, func(ctx context.Context) (Result, bool, error) {
		output, idempotent, pending, execErr := h.executeCommand(ctx, command)
		notifications = pending

		return output, idempotent, execErr
	})
	if err != nil {
		return result, handlerResult, err
	}

	h.dispatcher.Dispatch(ctx, notifications)

	return result, handlerResult, nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (Result, bool, shell.Notifications, error) {
	var (
		result        Result
		idempotent    bool
		notifications shell.Notifications
	)

	err := h.store.Transact(ctx, func(ctx context.Context, tx circulation.Tx) error {
		item, err := tx.BookItem(ctx, command.ItemID)
		if err != nil {
			return err
		}

		if _, err = tx.LockBooks(ctx, item.BookID); err != nil {
			return err
		}

		if item, err = tx.BookItem(ctx, command.ItemID); err != nil {
			return err
		}

		supply, err := shell.ReadSupply(ctx, tx, item.BookID)
		if err != nil {
			return err
		}

		result.Previous = item.Status

		decision := Decide(item, supply, command)
		if err = decision.HasError(); err != nil {
			return err
		}

		if decision.IsIdempotent() {
			idempotent = true
			return nil
		}

		if _, err = tx.SetItemStatus(ctx, item.ID, decision.Value.To); err != nil {
			return err
		}

		if decision.Value.LeavesSupply() {
			return shell.VerifySupply(ctx, tx, item.BookID)
		}

		if decision.Value.JoinsSupply() {
			promotion, promoteErr := shell.PromoteQueueHead(ctx, tx, item.BookID, command.OccurredAt)
			if promoteErr != nil {
				return promoteErr
			}

			result.Promoted = promotion.Count()
			notifications = promotion.Notifications(command.OccurredAt)
		}

		return nil
	})
	if err != nil {
		return Result{}, false, nil, err
	}

	return result, idempotent, notifications, nil
}
