package cancelrequest

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// Decide determines whether a request can be cancelled by the caller.
//
// Business Rules:
//
//	GIVEN: a PENDING or APPROVED request of the calling reader
//	WHEN: CancelBorrowRequest is received
//	THEN: the request is transitioned to CANCELLED
//	ERROR: role is not READER, or the request belongs to another reader
//	ERROR: the request is CANCELLED, REJECTED, FULFILLED or EXPIRED
func Decide(request circulation.BorrowRequest, command Command) core.DecisionResult[circulation.RequestStatus] {
	if err := core.RequireRole(command.Actor, core.ReaderRoles...); err != nil {
		return core.ErrorDecision[circulation.RequestStatus](err)
	}

	if request.UserID != command.Actor.UserID {
		return core.ErrorDecision[circulation.RequestStatus](circulation.ErrNotOwner)
	}

	if err := core.CheckTransition(request, circulation.RequestCancelled); err != nil {
		return core.ErrorDecision[circulation.RequestStatus](err)
	}

	return core.SuccessDecision(circulation.RequestCancelled)
}
