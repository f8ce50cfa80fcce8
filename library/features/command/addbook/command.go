package addbook

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	commandType = "AddBook"
)

// Command represents a librarian's intent to add a title and its copies.
type Command struct {
	Actor      circulation.Actor
	BookID     uuid.UUID
	Title      string
	HasEbook   bool
	Copies     int
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	actor circulation.Actor,
	bookID uuid.UUID,
	title string,
	hasEbook bool,
	copies int,
	occurredAt time.Time,
) Command {
	return Command{
		Actor:      actor,
		BookID:     bookID,
		Title:      strings.TrimSpace(title),
		HasEbook:   hasEbook,
		Copies:     copies,
		OccurredAt: occurredAt,
	}
}

// Result lists the new copies.
type Result struct {
	BookID  uuid.UUID
	ItemIDs []uuid.UUID
}
