package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Reasons for rejecting a renewal.
const (
	RenewalReasonNotPhysical = "only physical loans can be renewed"
	RenewalReasonNotActive   = "the loan is not active"
	RenewalReasonOverdue     = "the loan is overdue"
	RenewalReasonMaxReached  = "the maximum number of renewals has been reached"
	RenewalReasonRequested   = "the book is requested by other readers"
)

// RenewalRejection is returned by DecideRenewal when a precondition fails.
// BookTitle is set when the rejection is caused by outstanding demand for a book.
type RenewalRejection struct {
	Reason    string
	BookID    uuid.UUID
	BookTitle string
}

func (r *RenewalRejection) Error() string {
	if r.BookTitle != "" {
		return fmt.Sprintf("%s: %s (%q)", circulation.ErrRenewalRejected, r.Reason, r.BookTitle)
	}

	return fmt.Sprintf("%s: %s", circulation.ErrRenewalRejected, r.Reason)
}

func (r *RenewalRejection) Unwrap() error {
	return circulation.ErrRenewalRejected
}

// BookDemand is the outstanding demand (PENDING plus APPROVED quantity) for one book of a loan.
type BookDemand struct {
	BookID      uuid.UUID
	Title       string
	Outstanding int
}

// RenewalInput is everything DecideRenewal needs, read while the loan's books are locked.
type RenewalInput struct {
	Record           circulation.BorrowRecord
	RequestingUserID uuid.UUID
	Today            time.Time
	Demand           []BookDemand // in the order of Record.BookIDs()
}

// Renewal is the accepted outcome of DecideRenewal.
type Renewal struct {
	NewReturnDate time.Time
	RenewalCount  int
	Clamped       bool
}

// DecideRenewal applies the renewal preconditions in order; the first failing one wins.
//
// Business Rules:
//
//	GIVEN: a loan of the requesting user that is not deleted
//	WHEN: the user asks to renew it
//	THEN: extend the due date by ExtensionDays, capped at BorrowDate + MaxBorrowDays
//	ELSE: reject if the loan is not BORROWED, is past due, was renewed MaxRenewals times,
//	      or any of its books has outstanding requests
func DecideRenewal(input RenewalInput, policy circulation.Policy) (Renewal, error) {
	record := input.Record
	today := circulation.DateOf(input.Today)

	if record.DeletedAt != nil || record.UserID != input.RequestingUserID {
		return Renewal{}, circulation.ErrBorrowRecordNotFound
	}

	if len(record.Books) == 0 {
		return Renewal{}, &RenewalRejection{Reason: RenewalReasonNotPhysical}
	}

	if record.Status != circulation.LoanBorrowed || record.ActualReturnDate != nil {
		return Renewal{}, &RenewalRejection{Reason: RenewalReasonNotActive}
	}

	if today.After(circulation.DateOf(record.ReturnDate)) {
		return Renewal{}, &RenewalRejection{Reason: RenewalReasonOverdue}
	}

	if record.RenewalCount >= policy.MaxRenewals {
		return Renewal{}, &RenewalRejection{Reason: RenewalReasonMaxReached}
	}

	for _, demand := range input.Demand {
		if demand.Outstanding > 0 {
			return Renewal{}, &RenewalRejection{
				Reason:    RenewalReasonRequested,
				BookID:    demand.BookID,
				BookTitle: demand.Title,
			}
		}
	}

	newReturnDate := AddDays(record.ReturnDate, policy.ExtensionDays)
	limit := AddDays(record.BorrowDate, policy.MaxBorrowDays)
	clamped := false

	if newReturnDate.After(limit) {
		newReturnDate = limit
		clamped = true
	}

	return Renewal{
		NewReturnDate: newReturnDate,
		RenewalCount:  record.RenewalCount + 1,
		Clamped:       clamped,
	}, nil
}
