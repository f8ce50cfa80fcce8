package fulfillrequest

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// CommandHandler runs the Lock -> Read -> Decide -> Allocate -> Write workflow with retry.
// External wrappers handle all observability concerns.
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
	if err := core.RequireRole(command.Actor, core.StaffRoles...); err != nil {
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
		request, err := shell.LockRequest(ctx, tx, command.RequestID)
		if err != nil {
			return err
		}

		decision := Decide(request, command, h.policy)
		if err = decision.HasError(); err != nil {
			return err
		}

		if err = tx.TransitionRequest(ctx, core.BuildTransition(request.ID, circulation.RequestFulfilled, command.OccurredAt)); err != nil {
			return err
		}

		itemIDs, err := tx.AllocateAvailableItems(ctx, request.BookID(), request.Item.Quantity)
		if err != nil {
			return err
		}

		record, err := buildBorrowRecord(request, itemIDs, decision.Value)
		if err != nil {
			return err
		}

		if err = tx.InsertBorrowRecord(ctx, record); err != nil {
			return err
		}

		if err = shell.VerifySupply(ctx, tx, request.BookID()); err != nil {
			return err
		}

		result = Result{
			BorrowRecordID: record.ID,
			ItemIDs:        itemIDs,
			BorrowDate:     record.BorrowDate,
			ReturnDate:     record.ReturnDate,
		}

		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return result, nil
}

func buildBorrowRecord(request circulation.BorrowRequest, itemIDs []uuid.UUID, loan Loan) (circulation.BorrowRecord, error) {
	recordID, err := uuid.NewV7()
	if err != nil {
		return circulation.BorrowRecord{}, err
	}

	requestID := request.ID
	record := circulation.BorrowRecord{
		ID:         recordID,
		UserID:     request.UserID,
		RequestID:  &requestID,
		BorrowDate: loan.BorrowDate,
		ReturnDate: loan.ReturnDate,
		Status:     circulation.LoanBorrowed,
		Books:      make([]circulation.BorrowBook, 0, len(itemIDs)),
	}

	for _, itemID := range itemIDs {
		record.Books = append(record.Books, circulation.BorrowBook{BookItemID: itemID, BookID: request.BookID()})
	}

	return record, nil
}
