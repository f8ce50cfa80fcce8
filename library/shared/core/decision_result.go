package core

// DecisionResult represents the outcome of a business decision in a Decide function.
//
// IMPORTANT: DecisionResult should only be constructed using the provided factory functions:
// IdempotentDecision(), SuccessDecision(value), or ErrorDecision(err).
type DecisionResult[T any] struct {
	Outcome string // "idempotent", "success", or "error"
	Value   T      // zero for idempotent and error decisions
	Err     error
}

const (
	idempotentOutcome = "idempotent"
	successOutcome    = "success"
	errorOutcome      = "error"
)

// IdempotentDecision creates a DecisionResult indicating no state change is needed.
func IdempotentDecision[T any]() DecisionResult[T] {
	return DecisionResult[T]{Outcome: idempotentOutcome}
}

// SuccessDecision creates a DecisionResult indicating a state change described by value.
func SuccessDecision[T any](value T) DecisionResult[T] {
	return DecisionResult[T]{Outcome: successOutcome, Value: value}
}

// ErrorDecision creates a DecisionResult indicating a business rule violation.
func ErrorDecision[T any](err error) DecisionResult[T] {
	return DecisionResult[T]{Outcome: errorOutcome, Err: err}
}

// IsIdempotent returns true if no state change is needed.
func (r DecisionResult[T]) IsIdempotent() bool {
	return r.Outcome == idempotentOutcome
}

// HasError returns the error if there is one, otherwise nil.
func (r DecisionResult[T]) HasError() error {
	if r.Outcome == errorOutcome {
		return r.Err
	}

	return nil
}
