package expireapprovedrequests

import (
	"time"

	"github.com/google/uuid"
)

const (
	commandType = "ExpireApprovedRequests"
)

// Command represents one run of the pickup window sweep.
type Command struct {
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(occurredAt time.Time) Command {
	return Command{OccurredAt: occurredAt}
}

// Result lists the expired requests and the number of queued requests approved in their place.
type Result struct {
	Expired  []uuid.UUID
	Promoted int
}
