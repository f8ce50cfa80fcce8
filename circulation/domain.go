package circulation

import (
	"time"

	"github.com/google/uuid"
)

// DateOf truncates t to its calendar date in UTC. All dates in this package
// (start, end, borrow and due dates) are values returned by DateOf.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BookItemStatus is the lifecycle state of a physical copy.
type BookItemStatus string

// Physical copy states. Only BookItemAvailable counts toward supply.
const (
	BookItemAvailable   BookItemStatus = "AVAILABLE"
	BookItemOnBorrow    BookItemStatus = "ON_BORROW"
	BookItemReserved    BookItemStatus = "RESERVED"
	BookItemMaintenance BookItemStatus = "MAINTENANCE"
	BookItemRetired     BookItemStatus = "RETIRED"
	BookItemLost        BookItemStatus = "LOST"
)

// RequestStatus is the lifecycle state of a BorrowRequest.
type RequestStatus string

// Borrow request states.
const (
	RequestPending   RequestStatus = "PENDING"
	RequestApproved  RequestStatus = "APPROVED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestFulfilled RequestStatus = "FULFILLED"
	RequestCancelled RequestStatus = "CANCELLED"
	RequestExpired   RequestStatus = "EXPIRED"
)

// IsActive reports whether the status counts toward the single-active-request rule.
func (s RequestStatus) IsActive() bool {
	return s == RequestPending || s == RequestApproved
}

// IsTerminal reports whether no further transition is possible.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestRejected, RequestFulfilled, RequestCancelled, RequestExpired:
		return true
	default:
		return false
	}
}

// LoanStatus is the lifecycle state of a BorrowRecord.
type LoanStatus string

// Loan states.
const (
	LoanBorrowed LoanStatus = "BORROWED"
	LoanReturned LoanStatus = "RETURNED"
	LoanOverdue  LoanStatus = "OVERDUE"
)

// Role is the capability of an identified caller.
type Role string

// Caller roles.
const (
	RoleReader    Role = "READER"
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
)

// Actor is the identified caller, as supplied by the authentication layer.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// HasAnyRole reports whether the actor holds one of the given roles.
func (a Actor) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if a.Role == role {
			return true
		}
	}

	return false
}

// Book is a catalog entry.
type Book struct {
	ID        uuid.UUID
	Title     string
	HasEbook  bool
	DeletedAt *time.Time
}

// BookItem is one physical copy of a Book.
type BookItem struct {
	ID        uuid.UUID
	BookID    uuid.UUID
	Status    BookItemStatus
	DeletedAt *time.Time
}

// BorrowRequestItem carries the book and the quantity of a BorrowRequest.
type BorrowRequestItem struct {
	BookID    uuid.UUID
	Quantity  int
	StartDate time.Time
	EndDate   time.Time
}

// BorrowRequest is one reader's intent to borrow a title.
type BorrowRequest struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	StartDate  time.Time
	EndDate    time.Time
	Status     RequestStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ApprovedAt *time.Time
	DeletedAt  *time.Time
	Item       BorrowRequestItem
}

// BookID is a shortcut for the (single) item's book.
func (r BorrowRequest) BookID() uuid.UUID {
	return r.Item.BookID
}

// BorrowBook joins a BorrowRecord to a physical copy.
type BorrowBook struct {
	BookItemID uuid.UUID
	BookID     uuid.UUID
}

// BorrowEbook joins a BorrowRecord to a digital title.
type BorrowEbook struct {
	BookID    uuid.UUID
	DeletedAt *time.Time
}

// BorrowRecord is an actual loan, physical or digital.
type BorrowRecord struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	RequestID        *uuid.UUID
	BorrowDate       time.Time
	ReturnDate       time.Time
	ActualReturnDate *time.Time
	Status           LoanStatus
	RenewalCount     int
	DeletedAt        *time.Time
	Books            []BorrowBook
	Ebooks           []BorrowEbook
}

// IsEbookLoan reports whether the record is a digital loan.
func (r BorrowRecord) IsEbookLoan() bool {
	return len(r.Books) == 0 && len(r.Ebooks) > 0
}

// BookIDs returns the distinct books of the physical part of the record, in row order.
func (r BorrowRecord) BookIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(r.Books))
	ids := make([]uuid.UUID, 0, len(r.Books))

	for _, b := range r.Books {
		if _, ok := seen[b.BookID]; ok {
			continue
		}

		seen[b.BookID] = struct{}{}
		ids = append(ids, b.BookID)
	}

	return ids
}

// QueueEntry is one PENDING request waiting for a book, as seen by the queue ranker.
type QueueEntry struct {
	RequestID uuid.UUID
	UserID    uuid.UUID
	Quantity  int
	CreatedAt time.Time
}

// Queue is the arrival-ordered list of PENDING requests for one book.
type Queue []QueueEntry

// RequestTransition describes one guarded state change of a BorrowRequest.
// The update only applies while the current status is one of From.
type RequestTransition struct {
	RequestID uuid.UUID
	From      []RequestStatus
	To        RequestStatus
	At        time.Time
}
