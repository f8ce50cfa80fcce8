package returnebook

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// Decide determines whether the caller may close the digital loan.
//
// Business Rules:
//
//	GIVEN: a digital loan of the calling reader
//	WHEN: ReturnEbook is received
//	THEN: the loan is RETURNED and its BorrowEbook row is released
//	ERROR: role is not READER
//	ERROR: the loan belongs to someone else (not found), or is a physical loan
//	IDEMPOTENCY: a RETURNED loan stays as it is
func Decide(record circulation.BorrowRecord, command Command) core.DecisionResult[circulation.LoanStatus] {
	if err := core.RequireRole(command.Actor, core.ReaderRoles...); err != nil {
		return core.ErrorDecision[circulation.LoanStatus](err)
	}

	if record.UserID != command.Actor.UserID {
		return core.ErrorDecision[circulation.LoanStatus](circulation.ErrBorrowRecordNotFound)
	}

	if !record.IsEbookLoan() {
		return core.ErrorDecision[circulation.LoanStatus](circulation.ErrNotEbookLoan)
	}

	if record.Status == circulation.LoanReturned {
		return core.IdempotentDecision[circulation.LoanStatus]()
	}

	return core.SuccessDecision(circulation.LoanReturned)
}
