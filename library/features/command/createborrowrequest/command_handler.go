package createborrowrequest

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// CommandHandler runs the Lock -> Read -> Decide -> Write workflow with retry.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	store        circulation.Store
	policy       circulation.Policy
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

// WithNotifications sends the approval notice through the dispatcher after commit.
func WithNotifications(dispatcher shell.NotificationDispatcher) Option {
	return func(h *CommandHandler) {
		h.dispatcher = dispatcher
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store circulation.Store, policy circulation.Policy, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store:  store,
		policy: policy,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the command with retry on concurrency conflicts.
// Notifications are sent only after a successful commit.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	if err := core.RequireRole(command.Actor, core.ReaderRoles...); err != nil {
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
		if _, err := tx.LockBooks(ctx, command.BookID); err != nil {
			return err
		}

		active, err := tx.CountActiveRequests(ctx, command.Actor.UserID, command.BookID)
		if err != nil {
			return err
		}

		supply, err := shell.ReadSupply(ctx, tx, command.BookID)
		if err != nil {
			return err
		}

		decision := Decide(State{ActiveRequests: active, Supply: supply}, command, h.policy)
		if err = decision.HasError(); err != nil {
			return err
		}

		request, err := buildBorrowRequest(command, decision.Value)
		if err != nil {
			return err
		}

		if err = tx.InsertBorrowRequest(ctx, request); err != nil {
			return err
		}

		result = Result{RequestID: request.ID, Status: request.Status}

		if decision.Value == core.AdmissionApprove {
			notifications = shell.Notifications{
				shell.RequestApproved(request.UserID, request.ID, command.BookID, command.OccurredAt),
			}

			return shell.VerifySupply(ctx, tx, command.BookID)
		}

		queue, err := tx.PendingQueue(ctx, command.BookID)
		if err != nil {
			return err
		}

		position := core.RankInQueue(queue, request.ID)
		result.QueuePosition = &position

		return nil
	})
	if err != nil {
		return Result{}, nil, err
	}

	return result, notifications, nil
}

func buildBorrowRequest(command Command, admission core.Admission) (circulation.BorrowRequest, error) {
	requestID, err := uuid.NewV7()
	if err != nil {
		return circulation.BorrowRequest{}, err
	}

	request := circulation.BorrowRequest{
		ID:        requestID,
		UserID:    command.Actor.UserID,
		StartDate: command.StartDate,
		EndDate:   command.EndDate,
		Status:    admission.RequestStatus(),
		CreatedAt: command.OccurredAt,
		UpdatedAt: command.OccurredAt,
		Item: circulation.BorrowRequestItem{
			BookID:    command.BookID,
			Quantity:  command.Quantity,
			StartDate: command.StartDate,
			EndDate:   command.EndDate,
		},
	}

	if admission == core.AdmissionApprove {
		approvedAt := command.OccurredAt
		request.ApprovedAt = &approvedAt
	}

	return request, nil
}
