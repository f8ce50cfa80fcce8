package borrowebook

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// State is what Decide needs, read after the book was locked.
type State struct {
	Book          circulation.Book
	HasActiveLoan bool
}

// Decide determines whether a digital loan is granted and until when.
//
// Business Rules:
//
//	GIVEN: a book with a digital edition
//	WHEN: BorrowEbook is received from a reader
//	THEN: a loan from today until the requested end date, capped at today + MaxBorrowDays
//	ERROR: role is not READER
//	ERROR: no digital edition, an active digital loan of this book exists, end date not after today
func Decide(s State, command Command, policy circulation.Policy) core.DecisionResult[core.EbookLoan] {
	if err := core.RequireRole(command.Actor, core.ReaderRoles...); err != nil {
		return core.ErrorDecision[core.EbookLoan](err)
	}

	loan, err := core.DecideEbookLoan(s.Book, s.HasActiveLoan, command.EndDate, command.OccurredAt, policy)
	if err != nil {
		return core.ErrorDecision[core.EbookLoan](err)
	}

	return core.SuccessDecision(loan)
}
