package expireapprovedrequests

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

const defaultBatchSize = 100

// CommandHandler runs the Read -> Lock -> Re-read -> Decide -> Write -> Promote workflow with retry.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	store        circulation.Store
	policy       circulation.Policy
	batchSize    int
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

// WithNotifications sends the expiry, promotion and queue position notices after commit.
func WithNotifications(dispatcher shell.NotificationDispatcher) Option {
	return func(h *CommandHandler) {
		h.dispatcher = dispatcher
	}
}

// WithBatchSize limits how many requests one run expires.
func WithBatchSize(size int) Option {
	return func(h *CommandHandler) {
		if size > 0 {
			h.batchSize = size
		}
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store circulation.Store, policy circulation.Policy, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store:     store,
		policy:    policy,
		batchSize: defaultBatchSize,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// BatchSize returns the configured batch size. A run that expires exactly this many requests
// may have left more behind.
func (h CommandHandler) BatchSize() int {
	return h.batchSize
}

// Handle executes one sweep with retry on concurrency conflicts. A run that expires nothing is idempotent.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	var notifications shell.Notifications

	result, handlerResult, err := shell.HandleWithRetry(ctx, h.retryOptions, func(ctx context.Context) (Result, bool, error) {
		output, pending, execErr := h.executeCommand(ctx, command)
		notifications = pending

		return output, len(output.Expired) == 0, execErr
	})
	if err != nil {
		return result, handlerResult, err
	}

	h.dispatcher.Dispatch(ctx, notifications)

	return result, handlerResult, nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (Result, shell.Notifications, error) {
	var (
		result        = Result{Expired: make([]uuid.UUID, 0)}
		notifications shell.Notifications
	)

	err := h.store.Transact(ctx, func(ctx context.Context, tx circulation.Tx) error {
		stale, err := tx.ApprovedRequestsBefore(ctx, Cutoff(command.OccurredAt, h.policy), h.batchSize)
		if err != nil {
			return err
		}

		if len(stale) == 0 {
			return nil
		}

		if _, err = tx.LockBooks(ctx, bookIDsOf(stale)...); err != nil {
			return err
		}

		candidates, err := reread(ctx, tx, stale)
		if err != nil {
			return err
		}

		touched := make([]uuid.UUID, 0)
		seen := make(map[uuid.UUID]struct{})

		for _, request := range Decide(candidates, command, h.policy) {
			withdrawal, withdrawErr := shell.WithdrawRequest(ctx, tx, request, circulation.RequestExpired, command.OccurredAt)
			if withdrawErr != nil {
				return withdrawErr
			}

			result.Expired = append(result.Expired, request.ID)
			result.Promoted += len(withdrawal.Promoted)

			notifications = append(notifications, shell.RequestExpired(request.UserID, request.ID, request.BookID(), command.OccurredAt))
			notifications = append(notifications, withdrawal.Notifications(command.OccurredAt)...)

			if _, ok := seen[request.BookID()]; !ok {
				seen[request.BookID()] = struct{}{}
				touched = append(touched, request.BookID())
			}
		}

		for _, bookID := range touched {
			if err = shell.VerifySupply(ctx, tx, bookID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return Result{}, nil, err
	}

	return result, notifications, nil
}

// reread returns the current state of the candidates after their books were locked.
// Requests that disappeared in the meantime are skipped.
func reread(ctx context.Context, tx circulation.Tx, stale []circulation.BorrowRequest) ([]circulation.BorrowRequest, error) {
	current := make([]circulation.BorrowRequest, 0, len(stale))

	for _, request := range stale {
		fresh, err := tx.BorrowRequest(ctx, request.ID)
		if errors.Is(err, circulation.ErrRequestNotFound) {
			continue
		}

		if err != nil {
			return nil, err
		}

		current = append(current, fresh)
	}

	return current, nil
}

func bookIDsOf(requests []circulation.BorrowRequest) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(requests))
	for _, request := range requests {
		ids = append(ids, request.BookID())
	}

	return ids
}
