package changeitemstatus

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	commandType = "ChangeItemStatus"
)

// Command represents a librarian's intent to change the status of a copy.
type Command struct {
	Actor      circulation.Actor
	ItemID     uuid.UUID
	Status     circulation.BookItemStatus
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(actor circulation.Actor, itemID uuid.UUID, status circulation.BookItemStatus, occurredAt time.Time) Command {
	return Command{
		Actor:      actor,
		ItemID:     itemID,
		Status:     status,
		OccurredAt: occurredAt,
	}
}

// Result reports the previous status and how many queued requests were approved.
type Result struct {
	Previous circulation.BookItemStatus
	Promoted int
}
