package circulation

import (
	"errors"
	"fmt"
)

// Error classes. Every specific error below wraps exactly one of them, so callers
// (e.g. the transport layer) can classify with errors.Is.
var (
	// ErrValidation marks malformed input. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing or soft-deleted book, request or record.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a state transition attempted from the wrong state. The write was a no-op.
	ErrConflict = errors.New("conflict, please refresh and retry")

	// ErrInvariantViolation marks a write that would break the single-active-request rule or the supply bound. The transaction is rolled back.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrForbidden marks a caller whose role or ownership does not allow the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrRenewalRejected marks a renewal refused by one of its preconditions.
	ErrRenewalRejected = errors.New("renewal rejected")
)

// ErrConcurrencyConflict is returned when the database could not serialize a transaction
// (serialization failure, deadlock). Command handlers retry it with exponential backoff.
var ErrConcurrencyConflict = errors.New("concurrency error, transaction could not be serialized")

// Infrastructure errors.
var (
	ErrNilDatabaseConnection     = errors.New("database connection must not be nil")
	ErrBeginTransactionFailed    = errors.New("beginning the transaction failed")
	ErrCommitTransactionFailed   = errors.New("committing the transaction failed")
	ErrBuildingQueryFailed       = errors.New("building the query failed")
	ErrQueryingFailed            = errors.New("querying the database failed")
	ErrScanningDBRowFailed       = errors.New("scanning the database row failed")
	ErrExecutingFailed           = errors.New("executing the statement failed")
	ErrGettingRowsAffectedFailed = errors.New("getting the rows affected failed")
	ErrEmptyTablePrefix          = errors.New("empty table prefix supplied")
)

// Specific errors.
var (
	ErrBookNotFound          = fmt.Errorf("book %w", ErrNotFound)
	ErrBookItemNotFound      = fmt.Errorf("book item %w", ErrNotFound)
	ErrRequestNotFound       = fmt.Errorf("borrow request %w", ErrNotFound)
	ErrBorrowRecordNotFound  = fmt.Errorf("borrow record %w", ErrNotFound)
	ErrActiveRequestExists   = fmt.Errorf("%w: an active borrow request for this book already exists", ErrValidation)
	ErrActiveEbookLoanExists = fmt.Errorf("%w: an active ebook loan for this book already exists", ErrValidation)
	ErrNonPositiveQuantity   = fmt.Errorf("%w: quantity must be positive", ErrValidation)
	ErrStartDateInPast       = fmt.Errorf("%w: start date must be today or later", ErrValidation)
	ErrEndDateNotAfterStart  = fmt.Errorf("%w: end date must be after start date", ErrValidation)
	ErrRequestSpanTooLong    = fmt.Errorf("%w: borrow period is too long", ErrValidation)
	ErrNoEbookEdition        = fmt.Errorf("%w: book has no digital edition", ErrValidation)
	ErrEmptyTitle            = fmt.Errorf("%w: title must not be empty", ErrValidation)
	ErrNegativeCopies        = fmt.Errorf("%w: number of copies must not be negative", ErrValidation)
	ErrInvalidItemStatus     = fmt.Errorf("%w: book item status cannot be set directly", ErrValidation)
	ErrRequestStatusConflict = fmt.Errorf("%w: borrow request is not in the expected status", ErrConflict)
	ErrRecordStatusConflict  = fmt.Errorf("%w: borrow record is not in the expected status", ErrConflict)
	ErrItemStatusConflict    = fmt.Errorf("%w: book item is not in the expected status", ErrConflict)
	ErrInsufficientCopies    = fmt.Errorf("%w: not enough available copies to fulfill the request", ErrConflict)
	ErrNotEbookLoan          = fmt.Errorf("%w: borrow record is not an ebook loan", ErrConflict)
	ErrNotPhysicalLoan       = fmt.Errorf("%w: borrow record is not a physical loan", ErrConflict)
	ErrSupplyOversold        = fmt.Errorf("%w: reserved quantity would exceed available copies", ErrInvariantViolation)
	ErrDuplicateActive       = fmt.Errorf("%w: more than one active request per user and book", ErrInvariantViolation)
	ErrRoleNotAllowed        = fmt.Errorf("%w: role is not allowed to perform this operation", ErrForbidden)
	ErrNotOwner              = fmt.Errorf("%w: caller does not own this resource", ErrForbidden)
)
