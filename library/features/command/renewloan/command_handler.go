package renewloan

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// CommandHandler runs the Lock -> Read demand -> Decide -> Write workflow with retry.
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

// WithNotifications sends the renewal confirmation after commit.
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
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	if err := core.RequireRole(command.Actor, core.ReaderRoles...); err != nil {
		return Result{}, shell.NewErrorResult(shell.RetryMetrics{}), err
	}

	result, handlerResult, err := shell.HandleWithRetry(ctx, h.retryOptions, func(ctx context.Context) (Result, bool, error) {
		output, execErr := h.executeCommand(ctx, command)

		return output, false, execErr
	})
	if err != nil {
		return result, handlerResult, err
	}

	h.dispatcher.Dispatch(ctx, shell.Notifications{
		shell.LoanRenewed(command.Actor.UserID, result.NewReturnDate, command.OccurredAt),
	})

	return result, handlerResult, nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (Result, error) {
	var result Result

	err := h.store.Transact(ctx, func(ctx context.Context, tx circulation.Tx) error {
		record, books, err := shell.LockRecord(ctx, tx, command.BorrowRecordID)
		if err != nil {
			return err
		}

		demand, err := readDemand(ctx, tx, record, books)
		if err != nil {
			return err
		}

		input := core.RenewalInput{
			Record:           record,
			RequestingUserID: command.Actor.UserID,
			Today:            command.OccurredAt,
			Demand:           demand,
		}

		decision := Decide(input, command, h.policy)
		if err = decision.HasError(); err != nil {
			return err
		}

		renewal := decision.Value
		if err = tx.RenewBorrowRecord(ctx, record.ID, record.RenewalCount, renewal.NewReturnDate); err != nil {
			return err
		}

		result = Result{NewReturnDate: renewal.NewReturnDate, RenewalCount: renewal.RenewalCount}

		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return result, nil
}

// readDemand reads the outstanding demand of every book of the loan, in the loan's book order.
func readDemand(
	ctx context.Context,
	tx circulation.Tx,
	record circulation.BorrowRecord,
	books []circulation.Book,
) ([]core.BookDemand, error) {
	titles := make(map[uuid.UUID]string, len(books))
	for _, book := range books {
		titles[book.ID] = book.Title
	}

	demand := make([]core.BookDemand, 0, len(books))

	for _, bookID := range record.BookIDs() {
		outstanding, err := tx.OutstandingDemand(ctx, bookID)
		if err != nil {
			return nil, err
		}

		demand = append(demand, core.BookDemand{BookID: bookID, Title: titles[bookID], Outstanding: outstanding})
	}

	return demand, nil
}
