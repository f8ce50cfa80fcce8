package borrowebook

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// CommandHandler runs the Lock -> Read -> Decide -> Write workflow with retry.
// The book is locked so two concurrent borrows by the same reader cannot both pass the duplicate check.
type CommandHandler struct {
	store        circulation.Store
	policy       circulation.Policy
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

	return shell.HandleWithRetry(ctx, h.retryOptions, func(ctx context.Context) (Result, bool, error) {
		result, err := h.executeCommand(ctx, command)

		return result, false, err
	})
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (Result, error) {
	var result Result

	err := h.store.Transact(ctx, func(ctx context.Context, tx circulation.Tx) error {
		books, err := tx.LockBooks(ctx, command.BookID)
		if err != nil {
			return err
		}

		hasActiveLoan, err := tx.HasActiveEbookLoan(ctx, command.Actor.UserID, command.BookID)
		if err != nil {
			return err
		}

		decision := Decide(State{Book: books[0], HasActiveLoan: hasActiveLoan}, command, h.policy)
		if err = decision.HasError(); err != nil {
			return err
		}

		request, record, err := buildLoan(command, decision.Value)
		if err != nil {
			return err
		}

		if err = tx.InsertBorrowRequest(ctx, request); err != nil {
			return err
		}

		if err = tx.InsertBorrowRecord(ctx, record); err != nil {
			return err
		}

		result = Result{RequestID: request.ID, BorrowRecordID: record.ID, ReturnDate: record.ReturnDate}

		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return result, nil
}

func buildLoan(command Command, loan core.EbookLoan) (circulation.BorrowRequest, circulation.BorrowRecord, error) {
	requestID, err := uuid.NewV7()
	if err != nil {
		return circulation.BorrowRequest{}, circulation.BorrowRecord{}, err
	}

	recordID, err := uuid.NewV7()
	if err != nil {
		return circulation.BorrowRequest{}, circulation.BorrowRecord{}, err
	}

	request := circulation.BorrowRequest{
		ID:        requestID,
		UserID:    command.Actor.UserID,
		StartDate: loan.BorrowDate,
		EndDate:   loan.ReturnDate,
		Status:    circulation.RequestFulfilled,
		CreatedAt: command.OccurredAt,
		UpdatedAt: command.OccurredAt,
		Item: circulation.BorrowRequestItem{
			BookID:    command.BookID,
			Quantity:  1,
			StartDate: loan.BorrowDate,
			EndDate:   loan.ReturnDate,
		},
	}

	record := circulation.BorrowRecord{
		ID:         recordID,
		UserID:     command.Actor.UserID,
		RequestID:  &requestID,
		BorrowDate: loan.BorrowDate,
		ReturnDate: loan.ReturnDate,
		Status:     circulation.LoanBorrowed,
		Ebooks:     []circulation.BorrowEbook{{BookID: command.BookID}},
	}

	return request, record, nil
}
