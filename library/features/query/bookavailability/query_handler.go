package bookavailability

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// QueryHandler reads a book's counters and queue in one read-only transaction.
type QueryHandler struct {
	store circulation.Store
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(store circulation.Store) QueryHandler {
	return QueryHandler{store: store}
}

// Handle executes the query.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Availability, error) {
	var result Availability

	ctx = circulation.WithEventualConsistency(ctx)

	err := h.store.ReadOnly(ctx, func(ctx context.Context, tx circulation.Tx) error {
		book, err := tx.Book(ctx, query.BookID)
		if err != nil {
			return err
		}

		supply, err := shell.ReadSupply(ctx, tx, book.ID)
		if err != nil {
			return err
		}

		queue, err := tx.PendingQueue(ctx, book.ID)
		if err != nil {
			return err
		}

		result = Availability{
			BookID:      book.ID,
			Title:       book.Title,
			HasEbook:    book.HasEbook,
			Available:   supply.Available,
			Reserved:    supply.Reserved,
			Remaining:   supply.Remaining(),
			QueueLength: len(queue),
		}

		return nil
	})
	if err != nil {
		return Availability{}, err
	}

	return result, nil
}
