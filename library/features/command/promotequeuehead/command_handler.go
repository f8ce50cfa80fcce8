package promotequeuehead

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// CommandHandler locks the book and runs the shared promotion step with retry.
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

// WithNotifications sends the approval and queue position notices after commit.
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

// Handle executes the command. Promoting nothing is idempotent.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	if err := core.RequireRole(command.Actor, core.StaffRoles...); err != nil {
		return Result{}, shell.NewErrorResult(shell.RetryMetrics{}), err
	}

	var notifications shell.Notifications

	result, handlerResult, err := shell.HandleWithRetry(ctx, h.retryOptions, func(ctx context.Context) (Result, bool, error) {
		promotion, execErr := h.executeCommand(ctx, command)
		if execErr != nil {
			return Result{}, false, execErr
		}

		notifications = promotion.Notifications(command.OccurredAt)

		return Result{Promoted: requestIDs(promotion.Approved)}, promotion.Count() == 0, nil
	})
	if err != nil {
		return result, handlerResult, err
	}

	h.dispatcher.Dispatch(ctx, notifications)

	return result, handlerResult, nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (shell.Promotion, error) {
	var promotion shell.Promotion

	err := h.store.Transact(ctx, func(ctx context.Context, tx circulation.Tx) error {
		if _, err := tx.LockBooks(ctx, command.BookID); err != nil {
			return err
		}

		var err error
		promotion, err = shell.PromoteQueueHead(ctx, tx, command.BookID, command.OccurredAt)

		return err
	})

	return promotion, err
}

func requestIDs(queue circulation.Queue) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(queue))
	for _, entry := range queue {
		ids = append(ids, entry.RequestID)
	}

	return ids
}
