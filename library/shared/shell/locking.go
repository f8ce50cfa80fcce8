package shell

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// LockRequest locks the book of a request and returns the request as read after the lock.
// The first read only finds the book; its status may be stale until the lock is held.
func LockRequest(ctx context.Context, tx circulation.Tx, requestID uuid.UUID) (circulation.BorrowRequest, error) {
	request, err := tx.BorrowRequest(ctx, requestID)
	if err != nil {
		return circulation.BorrowRequest{}, err
	}

	if _, err = tx.LockBooks(ctx, request.BookID()); err != nil {
		return circulation.BorrowRequest{}, err
	}

	return tx.BorrowRequest(ctx, requestID)
}

// LockRecord locks the books of a physical loan and returns the loan and the locked books.
// Digital loans lock nothing.
func LockRecord(ctx context.Context, tx circulation.Tx, recordID uuid.UUID) (circulation.BorrowRecord, []circulation.Book, error) {
	record, err := tx.BorrowRecord(ctx, recordID)
	if err != nil {
		return circulation.BorrowRecord{}, nil, err
	}

	bookIDs := record.BookIDs()
	if len(bookIDs) == 0 {
		return record, nil, nil
	}

	books, err := tx.LockBooks(ctx, bookIDs...)
	if err != nil {
		return circulation.BorrowRecord{}, nil, err
	}

	record, err = tx.BorrowRecord(ctx, recordID)
	if err != nil {
		return circulation.BorrowRecord{}, nil, err
	}

	return record, books, nil
}

// PromoteQueueHeads runs PromoteQueueHead for each book, in the given order, and merges the results.
func PromoteQueueHeads(ctx context.Context, tx circulation.Tx, bookIDs []uuid.UUID, now time.Time) ([]Promotion, error) {
	promotions := make([]Promotion, 0, len(bookIDs))

	for _, bookID := range bookIDs {
		promotion, err := PromoteQueueHead(ctx, tx, bookID, now)
		if err != nil {
			return nil, err
		}

		promotions = append(promotions, promotion)
	}

	return promotions, nil
}

// PromotedCount sums the approved queue heads of several promotions.
func PromotedCount(promotions []Promotion) int {
	total := 0
	for _, p := range promotions {
		total += p.Count()
	}

	return total
}

// PromotionNotifications collects the notices of several promotions.
func PromotionNotifications(promotions []Promotion, at time.Time) Notifications {
	notifications := make(Notifications, 0)
	for _, p := range promotions {
		notifications = append(notifications, p.Notifications(at)...)
	}

	return notifications
}
