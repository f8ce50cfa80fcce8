package renewloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	commandType = "RenewLoan"
)

// Command represents a reader's intent to extend a loan.
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

// Result carries the new due date.
type Result struct {
	NewReturnDate time.Time
	RenewalCount  int
}
