package queueposition

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// QueuePosition is the read model of a request's place in its book's queue.
// Position is nil unless the request is PENDING.
type QueuePosition struct {
	RequestID   uuid.UUID
	BookID      uuid.UUID
	Status      circulation.RequestStatus
	Position    *int
	QueueLength int
}
