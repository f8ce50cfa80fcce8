package circulation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TxFunc is the unit of work run inside one database transaction.
// Returning an error rolls the transaction back.
type TxFunc func(ctx context.Context, tx Tx) error

// Store runs units of work transactionally.
type Store interface {
	// Transact runs fn in a read-write transaction on the primary database.
	Transact(ctx context.Context, fn TxFunc) error

	// ReadOnly runs fn in a read-only transaction. With EventualConsistency in the context,
	// engines that have a replica configured may serve it from the replica.
	ReadOnly(ctx context.Context, fn TxFunc) error
}

// Tx is the set of reads and guarded writes available inside a transaction.
//
// Write paths must call LockBooks before reading supply, reservations or queues of those books.
type Tx interface {
	// LockBooks locks the given (non-deleted) books for the rest of the transaction, in ascending ID order,
	// and returns them in that order. Returns ErrBookNotFound if any of them is missing or deleted.
	LockBooks(ctx context.Context, bookIDs ...uuid.UUID) ([]Book, error)

	// Book reads a non-deleted book without locking it.
	Book(ctx context.Context, bookID uuid.UUID) (Book, error)

	// AvailableItemCount counts non-deleted copies in status AVAILABLE.
	AvailableItemCount(ctx context.Context, bookID uuid.UUID) (int, error)

	// ReservedQuantity sums the quantity of non-deleted APPROVED requests.
	ReservedQuantity(ctx context.Context, bookID uuid.UUID) (int, error)

	// OutstandingDemand sums the quantity of non-deleted PENDING and APPROVED requests.
	OutstandingDemand(ctx context.Context, bookID uuid.UUID) (int, error)

	// PendingQueue lists non-deleted PENDING requests ordered by arrival (created_at, then id).
	PendingQueue(ctx context.Context, bookID uuid.UUID) (Queue, error)

	// CountActiveRequests counts non-deleted PENDING or APPROVED requests of the user for the book.
	CountActiveRequests(ctx context.Context, userID uuid.UUID, bookID uuid.UUID) (int, error)

	InsertBorrowRequest(ctx context.Context, request BorrowRequest) error

	// BorrowRequest reads a non-deleted request. Returns ErrRequestNotFound otherwise.
	BorrowRequest(ctx context.Context, requestID uuid.UUID) (BorrowRequest, error)

	// TransitionRequest applies a guarded single-row status update.
	// Returns ErrRequestStatusConflict when the request exists but is not in one of the From states,
	// and ErrRequestNotFound when it does not exist.
	TransitionRequest(ctx context.Context, transition RequestTransition) error

	// ApprovedRequestsBefore lists non-deleted APPROVED requests approved before the cutoff, oldest first.
	ApprovedRequestsBefore(ctx context.Context, cutoff time.Time, limit int) ([]BorrowRequest, error)

	InsertBook(ctx context.Context, book Book) error
	InsertBookItems(ctx context.Context, items ...BookItem) error

	// SetItemStatus changes the status of a non-deleted copy and returns the previous state.
	SetItemStatus(ctx context.Context, itemID uuid.UUID, status BookItemStatus) (BookItem, error)

	// BookItem reads a non-deleted copy without locking it.
	BookItem(ctx context.Context, itemID uuid.UUID) (BookItem, error)

	// AllocateAvailableItems moves quantity AVAILABLE copies of the book to ON_BORROW and returns their IDs.
	// Returns ErrInsufficientCopies if fewer are available.
	AllocateAvailableItems(ctx context.Context, bookID uuid.UUID, quantity int) ([]uuid.UUID, error)

	// ReleaseItems moves the given ON_BORROW copies back to AVAILABLE.
	// Returns ErrItemStatusConflict if any of them is not ON_BORROW.
	ReleaseItems(ctx context.Context, itemIDs ...uuid.UUID) error

	InsertBorrowRecord(ctx context.Context, record BorrowRecord) error

	// BorrowRecord reads a non-deleted record including its BorrowBook and BorrowEbook rows.
	// Ebook rows released by a return are included with DeletedAt set.
	BorrowRecord(ctx context.Context, recordID uuid.UUID) (BorrowRecord, error)

	// RenewBorrowRecord sets the new due date and increments the renewal count, guarded by the
	// expected renewal count and status BORROWED. Returns ErrRecordStatusConflict on mismatch.
	RenewBorrowRecord(ctx context.Context, recordID uuid.UUID, expectedRenewalCount int, newReturnDate time.Time) error

	// CloseBorrowRecord marks a BORROWED or OVERDUE record RETURNED and soft-deletes its ebook rows.
	CloseBorrowRecord(ctx context.Context, recordID uuid.UUID, returnedAt time.Time) error

	// HasActiveEbookLoan reports whether the user holds an unreturned ebook loan for the book.
	HasActiveEbookLoan(ctx context.Context, userID uuid.UUID, bookID uuid.UUID) (bool, error)

	// MarkOverdue moves BORROWED records with a due date before today to OVERDUE.
	MarkOverdue(ctx context.Context, today time.Time) (int64, error)
}
