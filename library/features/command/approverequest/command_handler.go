package approverequest

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// CommandHandler runs the Lock -> Read -> Decide -> Write workflow with retry.
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

// WithNotifications sends approval and queue position notices through the dispatcher after commit.
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
		output, pending, execErr := h.executeCommand(ctx, command)
		notifications = pending

		return output, false, execErr
	})
	if err != nil {
		return result, handlerResult, err
	}

	h.dispatcher.Dispatch(ctx, notifications)

	return result, handlerResult, nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (Result, shell.Notifications, error) {
	var (
		result        Result
		notifications shell.Notifications
	)

	err := h.store.Transact(ctx, func(ctx context.Context, tx circulation.Tx) error {
		request, err := shell.LockRequest(ctx, tx, command.RequestID)
		if err != nil {
			return err
		}

		supply, err := shell.ReadSupply(ctx, tx, request.BookID())
		if err != nil {
			return err
		}

		result = Result{RequestID: request.ID, Status: request.Status}

		decision := Decide(State{Request: request, Supply: supply}, command)
		if err = decision.HasError(); err != nil {
			return err
		}

		queue, err := tx.PendingQueue(ctx, request.BookID())
		if err != nil {
			return err
		}

		if err = tx.TransitionRequest(ctx, decision.Value); err != nil {
			return err
		}

		if err = shell.VerifySupply(ctx, tx, request.BookID()); err != nil {
			return err
		}

		survivors, err := tx.PendingQueue(ctx, request.BookID())
		if err != nil {
			return err
		}

		result.Status = circulation.RequestApproved
		notifications = append(
			shell.Notifications{shell.RequestApproved(request.UserID, request.ID, request.BookID(), command.OccurredAt)},
			shell.PositionsChanged(request.BookID(), core.DiffPositions(queue, survivors), command.OccurredAt)...,
		)

		return nil
	})
	if err != nil {
		return Result{}, nil, err
	}

	return result, notifications, nil
}
