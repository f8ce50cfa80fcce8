package borrowebook

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	commandType = "BorrowEbook"
)

// Command represents a reader's intent to borrow a digital edition.
// A zero EndDate asks for the longest allowed loan.
type Command struct {
	Actor      circulation.Actor
	BookID     uuid.UUID
	EndDate    time.Time
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(actor circulation.Actor, bookID uuid.UUID, endDate time.Time, occurredAt time.Time) Command {
	command := Command{
		Actor:      actor,
		BookID:     bookID,
		OccurredAt: occurredAt,
	}

	if !endDate.IsZero() {
		command.EndDate = circulation.DateOf(endDate)
	}

	return command
}

// Result describes the opened digital loan.
type Result struct {
	RequestID      uuid.UUID
	BorrowRecordID uuid.UUID
	ReturnDate     time.Time
}
