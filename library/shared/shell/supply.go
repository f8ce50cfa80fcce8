package shell

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// ReadSupply reads the supply counters of a book. The book must be locked by the transaction.
func ReadSupply(ctx context.Context, tx circulation.Tx, bookID uuid.UUID) (core.Supply, error) {
	available, err := tx.AvailableItemCount(ctx, bookID)
	if err != nil {
		return core.Supply{}, err
	}

	reserved, err := tx.ReservedQuantity(ctx, bookID)
	if err != nil {
		return core.Supply{}, err
	}

	return core.Supply{BookID: bookID, Available: available, Reserved: reserved}, nil
}

// VerifySupply re-reads the counters after a write and fails the transaction if the book is oversold.
func VerifySupply(ctx context.Context, tx circulation.Tx, bookID uuid.UUID) error {
	supply, err := ReadSupply(ctx, tx, bookID)
	if err != nil {
		return err
	}

	return core.CheckSupplyInvariant(supply)
}

// Promotion is the result of PromoteQueueHead.
type Promotion struct {
	BookID   uuid.UUID
	Approved circulation.Queue
	Moved    []core.PositionChange
}

// Count returns the number of approved queue heads.
func (p Promotion) Count() int {
	return len(p.Approved)
}

// Notifications builds the approval notices and the position change notices for the promotion.
func (p Promotion) Notifications(at time.Time) Notifications {
	notifications := make(Notifications, 0, len(p.Approved)+len(p.Moved))

	for _, entry := range p.Approved {
		notifications = append(notifications, RequestApproved(entry.UserID, entry.RequestID, p.BookID, at))
	}

	return append(notifications, PositionsChanged(p.BookID, p.Moved, at)...)
}

// PromoteQueueHead approves PENDING requests of a locked book in arrival order while the
// remaining supply covers them. It stops at the first head that does not fit.
//
// Every write path that frees supply (reject or cancel of an APPROVED request, expiry,
// returns, copies becoming AVAILABLE) calls it in the same transaction.
func PromoteQueueHead(ctx context.Context, tx circulation.Tx, bookID uuid.UUID, now time.Time) (Promotion, error) {
	promotion := Promotion{BookID: bookID}

	supply, err := ReadSupply(ctx, tx, bookID)
	if err != nil {
		return promotion, err
	}

	queue, err := tx.PendingQueue(ctx, bookID)
	if err != nil {
		return promotion, err
	}

	promotion.Approved = core.SelectPromotions(queue, supply)
	if promotion.Count() == 0 {
		return promotion, nil
	}

	for _, entry := range promotion.Approved {
		transition := core.BuildTransition(entry.RequestID, circulation.RequestApproved, now)
		if err = tx.TransitionRequest(ctx, transition); err != nil {
			return promotion, err
		}
	}

	if err = VerifySupply(ctx, tx, bookID); err != nil {
		return promotion, err
	}

	promotion.Moved = core.DiffPositions(queue, queue[promotion.Count():])

	return promotion, nil
}
