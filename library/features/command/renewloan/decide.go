package renewloan

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// Decide applies the role check and the renewal guard.
//
// Business Rules:
//
//	GIVEN: the caller's loan and the outstanding demand for each of its books
//	WHEN: RenewLoan is received from a reader
//	THEN: the due date moves by ExtensionDays, capped at BorrowDate + MaxBorrowDays
//	ERROR: role is not READER
//	ERROR: the loan does not exist or belongs to someone else (not found)
//	REJECTED: digital loan, not BORROWED, past due, MaxRenewals reached, or a book is requested
func Decide(input core.RenewalInput, command Command, policy circulation.Policy) core.DecisionResult[core.Renewal] {
	if err := core.RequireRole(command.Actor, core.ReaderRoles...); err != nil {
		return core.ErrorDecision[core.Renewal](err)
	}

	renewal, err := core.DecideRenewal(input, policy)
	if err != nil {
		return core.ErrorDecision[core.Renewal](err)
	}

	return core.SuccessDecision(renewal)
}
