package shell

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// Withdrawal is the result of WithdrawRequest.
type Withdrawal struct {
	BookID   uuid.UUID
	From     circulation.RequestStatus
	Promoted circulation.Queue
	Moved    []core.PositionChange
}

// Notifications builds the approval notices for promoted requests and the position notices for
// everyone who moved up in the queue.
func (w Withdrawal) Notifications(at time.Time) Notifications {
	notifications := make(Notifications, 0, len(w.Promoted)+len(w.Moved))

	for _, entry := range w.Promoted {
		notifications = append(notifications, RequestApproved(entry.UserID, entry.RequestID, w.BookID, at))
	}

	return append(notifications, PositionsChanged(w.BookID, w.Moved, at)...)
}

// WithdrawRequest moves an active request of a locked book to a terminal status (REJECTED, CANCELLED,
// EXPIRED). If the request held a reservation, the queue is promoted in the same transaction.
// Moved compares the queue before and after both steps.
func WithdrawRequest(
	ctx context.Context,
	tx circulation.Tx,
	request circulation.BorrowRequest,
	to circulation.RequestStatus,
	now time.Time,
) (Withdrawal, error) {
	withdrawal := Withdrawal{BookID: request.BookID(), From: request.Status}

	before, err := tx.PendingQueue(ctx, withdrawal.BookID)
	if err != nil {
		return withdrawal, err
	}

	if err = tx.TransitionRequest(ctx, core.BuildTransition(request.ID, to, now)); err != nil {
		return withdrawal, err
	}

	if core.ReleasesReservation(request.Status) {
		promotion, promoteErr := PromoteQueueHead(ctx, tx, withdrawal.BookID, now)
		if promoteErr != nil {
			return withdrawal, promoteErr
		}

		withdrawal.Promoted = promotion.Approved
	}

	after, err := tx.PendingQueue(ctx, withdrawal.BookID)
	if err != nil {
		return withdrawal, err
	}

	withdrawal.Moved = core.DiffPositions(before, after)

	return withdrawal, nil
}
