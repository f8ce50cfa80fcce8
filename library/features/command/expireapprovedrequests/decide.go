package expireapprovedrequests

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Cutoff is the approval time before which an APPROVED request is overdue for pickup.
func Cutoff(now time.Time, policy circulation.Policy) time.Time {
	return now.Add(-policy.PickupWindow)
}

// Decide selects the candidates that are still APPROVED and were approved before the cutoff,
// as re-read after their books were locked.
//
// Business Rules:
//
//	GIVEN: APPROVED requests read after locking their books
//	WHEN: the sweep runs at command.OccurredAt
//	THEN: every request approved more than PickupWindow ago is expired
//	SKIP: requests that were picked up, cancelled or rejected in the meantime
func Decide(candidates []circulation.BorrowRequest, command Command, policy circulation.Policy) []circulation.BorrowRequest {
	cutoff := Cutoff(command.OccurredAt, policy)
	expired := make([]circulation.BorrowRequest, 0, len(candidates))

	for _, request := range candidates {
		if request.Status != circulation.RequestApproved || request.ApprovedAt == nil {
			continue
		}

		if request.ApprovedAt.Before(cutoff) {
			expired = append(expired, request)
		}
	}

	return expired
}
