package core

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Admission is the outcome of the admission decision for a new borrow request.
type Admission string

const (
	// AdmissionApprove means the request is stored as APPROVED, reserving its quantity.
	AdmissionApprove Admission = "APPROVE"

	// AdmissionQueue means the request is stored as PENDING and waits in the book's queue.
	AdmissionQueue Admission = "QUEUE"
)

// RequestStatus returns the status a new request is stored with.
func (a Admission) RequestStatus() circulation.RequestStatus {
	if a == AdmissionApprove {
		return circulation.RequestApproved
	}

	return circulation.RequestPending
}

// Supply is a point-in-time view of one book's copies, read while the book is locked.
type Supply struct {
	BookID    uuid.UUID
	Available int // AVAILABLE, non-deleted copies
	Reserved  int // quantity promised to APPROVED requests
}

// Remaining is the number of copies that can still be promised. Negative if already oversold.
func (s Supply) Remaining() int {
	return s.Available - s.Reserved
}

// Fits reports whether quantity more copies can be promised.
func (s Supply) Fits(quantity int) bool {
	return s.Remaining() >= quantity
}

// Reserve returns the supply after promising quantity copies.
func (s Supply) Reserve(quantity int) Supply {
	s.Reserved += quantity
	return s
}

// DecideAdmission approves the request if the remaining supply covers it, otherwise queues it.
//
// Business Rules:
//
//	GIVEN: the book's available and reserved copies
//	WHEN: a reader requests quantity copies
//	THEN: APPROVE if available - reserved >= quantity
//	ELSE: QUEUE (also when the remaining supply is already negative)
func DecideAdmission(supply Supply, requestedQuantity int) Admission {
	if supply.Fits(requestedQuantity) {
		return AdmissionApprove
	}

	return AdmissionQueue
}
