package queueposition

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	queryType = "QueuePosition"
)

// Query represents the intent to read the queue position of a borrow request.
type Query struct {
	Actor     circulation.Actor
	RequestID uuid.UUID
}

// BuildQuery creates a new Query with the provided parameters.
func BuildQuery(actor circulation.Actor, requestID uuid.UUID) Query {
	return Query{
		Actor:     actor,
		RequestID: requestID,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
