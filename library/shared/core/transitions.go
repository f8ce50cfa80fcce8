package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// allowedTransitions is the borrow request lifecycle. Terminal states have no entry.
var allowedTransitions = map[circulation.RequestStatus][]circulation.RequestStatus{
	circulation.RequestPending: {
		circulation.RequestApproved,
		circulation.RequestRejected,
		circulation.RequestCancelled,
	},
	circulation.RequestApproved: {
		circulation.RequestRejected,
		circulation.RequestCancelled,
		circulation.RequestFulfilled,
		circulation.RequestExpired,
	},
}

// sourceOrder fixes the order of From states in built transitions.
var sourceOrder = []circulation.RequestStatus{circulation.RequestPending, circulation.RequestApproved}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to circulation.RequestStatus) bool {
	for _, target := range allowedTransitions[from] {
		if target == to {
			return true
		}
	}

	return false
}

// SourceStates returns every status from which a request may move to the given status.
func SourceStates(to circulation.RequestStatus) []circulation.RequestStatus {
	sources := make([]circulation.RequestStatus, 0, len(sourceOrder))

	for _, from := range sourceOrder {
		if CanTransition(from, to) {
			sources = append(sources, from)
		}
	}

	return sources
}

// BuildTransition creates the guarded update that moves a request to the given status
// from any status allowed by the lifecycle.
func BuildTransition(requestID uuid.UUID, to circulation.RequestStatus, at time.Time) circulation.RequestTransition {
	return circulation.RequestTransition{
		RequestID: requestID,
		From:      SourceStates(to),
		To:        to,
		At:        at,
	}
}

// CheckTransition verifies a transition against the request's current status.
func CheckTransition(request circulation.BorrowRequest, to circulation.RequestStatus) error {
	if !CanTransition(request.Status, to) {
		return circulation.ErrRequestStatusConflict
	}

	return nil
}

// ReleasesReservation reports whether leaving the given status frees reserved supply,
// which means the book's queue should be promoted afterwards.
func ReleasesReservation(from circulation.RequestStatus) bool {
	return from == circulation.RequestApproved
}
