package circulation

import "context"

// ConsistencyLevel defines the consistency requirements for read-only Store operations.
type ConsistencyLevel int

const (
	// StrongConsistency requires reads from the primary database. This is the default,
	// and write transactions always run on the primary regardless of this setting.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency allows ReadOnly units of work to be served from a replica.
	// Suitable for projections such as queue positions that are recomputed on every read anyway.
	EventualConsistency
)

type contextKey string

// ConsistencyLevelKey is the context key used to store consistency level preferences.
const ConsistencyLevelKey contextKey = "circulation.consistency_level"

// WithStrongConsistency returns a context that pins ReadOnly operations to the primary database.
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, StrongConsistency)
}

// WithEventualConsistency returns a context that lets ReadOnly operations use a replica.
//
// Example usage:
//
//	ctx = circulation.WithEventualConsistency(ctx)
//	err := store.ReadOnly(ctx, func(ctx context.Context, tx circulation.Tx) error { ... })
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, EventualConsistency)
}

// GetConsistencyLevel extracts the consistency level from the context, defaulting to StrongConsistency.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	if level, ok := ctx.Value(ConsistencyLevelKey).(ConsistencyLevel); ok {
		return level
	}

	return StrongConsistency
}

// String provides a string representation of ConsistencyLevel for logging.
func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
