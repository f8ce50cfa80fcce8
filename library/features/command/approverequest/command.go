package approverequest

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	commandType = "ApproveBorrowRequest"
)

// Command represents a librarian's intent to approve a borrow request.
type Command struct {
	Actor      circulation.Actor
	RequestID  uuid.UUID
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(actor circulation.Actor, requestID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		Actor:      actor,
		RequestID:  requestID,
		OccurredAt: occurredAt,
	}
}

// Result reports the request's status after the command.
type Result struct {
	RequestID uuid.UUID
	Status    circulation.RequestStatus
}
