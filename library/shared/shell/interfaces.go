package shell

import (
	"context"
)

// Command represents the contract for all command types.
// The CommandType method enables polymorphic handling and observability instrumentation.
type Command interface {
	CommandType() string
}

// CommandHandler defines the contract for components that process commands.
// Handlers return the command's output R plus a HandlerResult containing the business outcome
// (idempotency) and execution metadata (retry info).
// Implementations focus on business logic and are wrapped with observable.CommandWrapper for instrumentation.
type CommandHandler[C Command, R any] interface {
	Handle(ctx context.Context, command C) (R, HandlerResult, error)
}

// Query represents the contract for all query types.
type Query interface {
	QueryType() string
}

// QueryHandler defines the contract for components that process queries and return read models.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
