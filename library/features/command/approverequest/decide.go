package approverequest

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// State is what Decide needs, read after the request's book was locked.
type State struct {
	Request circulation.BorrowRequest
	Supply  core.Supply
}

// Decide determines whether a request can be approved.
//
// Business Rules:
//
//	GIVEN: a PENDING request and its locked book
//	WHEN: ApproveBorrowRequest is received from a librarian or admin
//	THEN: the request is transitioned to APPROVED
//	ERROR: role is not LIBRARIAN or ADMIN
//	ERROR: the request is not PENDING
//	ERROR: the remaining supply does not cover the quantity
func Decide(s State, command Command) core.DecisionResult[circulation.RequestTransition] {
	if err := core.RequireRole(command.Actor, core.StaffRoles...); err != nil {
		return core.ErrorDecision[circulation.RequestTransition](err)
	}

	if err := core.CheckTransition(s.Request, circulation.RequestApproved); err != nil {
		return core.ErrorDecision[circulation.RequestTransition](err)
	}

	if !s.Supply.Fits(s.Request.Item.Quantity) {
		return core.ErrorDecision[circulation.RequestTransition](circulation.ErrInsufficientCopies)
	}

	return core.SuccessDecision(core.BuildTransition(s.Request.ID, circulation.RequestApproved, command.OccurredAt))
}
