package createborrowrequest

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	commandType = "CreateBorrowRequest"
)

// Command represents a reader's intent to borrow copies of a book.
type Command struct {
	Actor      circulation.Actor
	BookID     uuid.UUID
	Quantity   int
	StartDate  time.Time
	EndDate    time.Time
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command. Start and end are truncated to calendar dates.
func BuildCommand(
	actor circulation.Actor,
	bookID uuid.UUID,
	quantity int,
	startDate time.Time,
	endDate time.Time,
	occurredAt time.Time,
) Command {
	return Command{
		Actor:      actor,
		BookID:     bookID,
		Quantity:   quantity,
		StartDate:  circulation.DateOf(startDate),
		EndDate:    circulation.DateOf(endDate),
		OccurredAt: occurredAt,
	}
}

// Result is the admission outcome. QueuePosition is set only for PENDING requests.
type Result struct {
	RequestID     uuid.UUID
	Status        circulation.RequestStatus
	QueuePosition *int
}
