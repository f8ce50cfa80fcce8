package queueposition

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// QueryHandler reads a request and its book's queue in one read-only transaction and projects the position.
// Observability is added by wrapping it with observable.QueryWrapper.
type QueryHandler struct {
	store circulation.Store
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(store circulation.Store) QueryHandler {
	return QueryHandler{store: store}
}

// Handle executes the query. Readers may only ask about their own requests; staff may ask about any.
// A reader asking about someone else's request gets ErrRequestNotFound.
func (h QueryHandler) Handle(ctx context.Context, query Query) (QueuePosition, error) {
	var result QueuePosition

	ctx = circulation.WithEventualConsistency(ctx)

	err := h.store.ReadOnly(ctx, func(ctx context.Context, tx circulation.Tx) error {
		request, err := tx.BorrowRequest(ctx, query.RequestID)
		if err != nil {
			return err
		}

		if err = authorize(query.Actor, request); err != nil {
			return err
		}

		queue, err := tx.PendingQueue(ctx, request.BookID())
		if err != nil {
			return err
		}

		result = Project(request, queue)

		return nil
	})
	if err != nil {
		return QueuePosition{}, err
	}

	return result, nil
}

func authorize(actor circulation.Actor, request circulation.BorrowRequest) error {
	if core.RequireRole(actor, core.StaffRoles...) == nil {
		return nil
	}

	if err := core.RequireRole(actor, core.ReaderRoles...); err != nil {
		return err
	}

	if request.UserID != actor.UserID {
		return circulation.ErrRequestNotFound
	}

	return nil
}
