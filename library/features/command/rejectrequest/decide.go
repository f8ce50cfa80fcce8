package rejectrequest

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// Decide determines whether a request can be rejected.
//
// Business Rules:
//
//	GIVEN: a PENDING or APPROVED request
//	WHEN: RejectBorrowRequest is received from a librarian or admin
//	THEN: the request is transitioned to REJECTED
//	ERROR: role is not LIBRARIAN or ADMIN
//	ERROR: the request is REJECTED, FULFILLED, CANCELLED or EXPIRED
func Decide(request circulation.BorrowRequest, command Command) core.DecisionResult[circulation.RequestStatus] {
	if err := core.RequireRole(command.Actor, core.StaffRoles...); err != nil {
		return core.ErrorDecision[circulation.RequestStatus](err)
	}

	if err := core.CheckTransition(request, circulation.RequestRejected); err != nil {
		return core.ErrorDecision[circulation.RequestStatus](err)
	}

	return core.SuccessDecision(circulation.RequestRejected)
}
