package returnloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	commandType = "ReturnLoan"
)

// Command represents a librarian's intent to check in the copies of a loan.
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

// Result reports how many queued requests were approved with the returned copies.
type Result struct {
	ReturnedItems []uuid.UUID
	Promoted      int
}
