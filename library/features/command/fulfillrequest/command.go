package fulfillrequest

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	commandType = "FulfillBorrowRequest"
)

// Command represents a librarian's intent to hand out the copies of an approved request.
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

// Result describes the opened loan.
type Result struct {
	BorrowRecordID uuid.UUID
	ItemIDs        []uuid.UUID
	BorrowDate     time.Time
	ReturnDate     time.Time
}
