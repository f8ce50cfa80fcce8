package fulfillrequest

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// Loan is the due date window of the loan opened by a pickup.
type Loan struct {
	BorrowDate time.Time
	ReturnDate time.Time
}

// Decide determines whether a request can be picked up and when the loan is due.
//
// Business Rules:
//
//	GIVEN: an APPROVED request
//	WHEN: FulfillBorrowRequest is received from a librarian or admin
//	THEN: a loan from today until the request's end date, capped at today + MaxBorrowDays
//	ERROR: role is not LIBRARIAN or ADMIN
//	ERROR: the request is not APPROVED
func Decide(request circulation.BorrowRequest, command Command, policy circulation.Policy) core.DecisionResult[Loan] {
	if err := core.RequireRole(command.Actor, core.StaffRoles...); err != nil {
		return core.ErrorDecision[Loan](err)
	}

	if err := core.CheckTransition(request, circulation.RequestFulfilled); err != nil {
		return core.ErrorDecision[Loan](err)
	}

	today := circulation.DateOf(command.OccurredAt)
	returnDate := circulation.DateOf(request.EndDate)
	limit := core.AddDays(today, policy.MaxBorrowDays)

	if returnDate.After(limit) {
		returnDate = limit
	}

	if !returnDate.After(today) {
		returnDate = core.AddDays(today, 1)
	}

	return core.SuccessDecision(Loan{BorrowDate: today, ReturnDate: returnDate})
}
