package createborrowrequest

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// State is what Decide needs, read after the book was locked.
type State struct {
	ActiveRequests int
	Supply         core.Supply
}

// Decide determines whether a new borrow request is approved at once or queued.
//
// Business Rules:
//
//	GIVEN: a reader and a locked, existing book
//	WHEN: CreateBorrowRequest is received
//	THEN: APPROVED if the remaining supply covers the quantity, PENDING otherwise
//	ERROR: role is not READER
//	ERROR: the reader already has a PENDING or APPROVED request for the book
//	ERROR: start date in the past, end not after start, span too long, quantity not positive
func Decide(s State, command Command, policy circulation.Policy) core.DecisionResult[core.Admission] {
	if err := core.RequireRole(command.Actor, core.ReaderRoles...); err != nil {
		return core.ErrorDecision[core.Admission](err)
	}

	if err := core.CheckNoActiveRequest(s.ActiveRequests); err != nil {
		return core.ErrorDecision[core.Admission](err)
	}

	input := core.BorrowRequestInput{
		Quantity:  command.Quantity,
		StartDate: command.StartDate,
		EndDate:   command.EndDate,
	}

	if err := core.ValidateBorrowRequest(input, command.OccurredAt, policy); err != nil {
		return core.ErrorDecision[core.Admission](err)
	}

	return core.SuccessDecision(core.DecideAdmission(s.Supply, command.Quantity))
}
