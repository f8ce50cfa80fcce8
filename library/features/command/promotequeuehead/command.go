package promotequeuehead

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	commandType = "PromoteQueueHead"
)

// Command represents a librarian's intent to approve queued requests that now fit.
type Command struct {
	Actor      circulation.Actor
	BookID     uuid.UUID
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(actor circulation.Actor, bookID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		Actor:      actor,
		BookID:     bookID,
		OccurredAt: occurredAt,
	}
}

// Result lists the approved requests in queue order.
type Result struct {
	Promoted []uuid.UUID
}
