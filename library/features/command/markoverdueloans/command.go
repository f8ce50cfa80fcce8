package markoverdueloans

import (
	"time"
)

const (
	commandType = "MarkOverdueLoans"
)

// Command represents one run of the overdue sweep.
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

// Result reports how many loans were marked.
type Result struct {
	Marked int64
}
