package returnebook

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	commandType = "ReturnEbook"
)

// Command represents a reader's intent to end a digital loan.
type Command struct {
	Actor          circulation.Actor
	BorrowRecordID uuid.UUID
	OccurredAt     time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(actor circulation.Actor, borrowRecordID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		Actor:          actor,
		BorrowRecordID: borrowRecordID,
		OccurredAt:     occurredAt,
	}
}

// Result carries the time the loan was closed.
type Result struct {
	ReturnedAt time.Time
}
