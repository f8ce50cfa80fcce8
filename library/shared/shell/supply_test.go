package shell_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/memoryengine"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

func Test_PromoteQueueHead_ApprovesHeadsWhileSupplyAllows(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewStore()
	now := time.Now().UTC()
	bookID := givenBookWithCopies(t, store, 2)
	first := givenPendingRequest(t, store, bookID, 1, now.Add(-3*time.Minute))
	second := givenPendingRequest(t, store, bookID, 1, now.Add(-2*time.Minute))
	third := givenPendingRequest(t, store, bookID, 1, now.Add(-1*time.Minute))

	// act
	var promotion shell.Promotion
	err := store.Transact(ctx, func(ctx context.Context, tx circulation.Tx) error {
		if _, err := tx.LockBooks(ctx, bookID); err != nil {
			return err
		}

		var err error
		promotion, err = shell.PromoteQueueHead(ctx, tx, bookID, now)

		return err
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, promotion.Count())
	assert.Equal(t, first, promotion.Approved[0].RequestID)
	assert.Equal(t, second, promotion.Approved[1].RequestID)
	require.Len(t, promotion.Moved, 1)
	assert.Equal(t, third, promotion.Moved[0].Entry.RequestID)
	assert.Equal(t, 1, promotion.Moved[0].NewPosition)

	notifications := promotion.Notifications(now)
	assert.Len(t, notifications, 3)
	assert.Equal(t, shell.NotificationRequestApproved, notifications[0].Kind)
	assert.Equal(t, shell.NotificationQueuePositionChanged, notifications[2].Kind)

	assertRequestStatus(t, store, first, circulation.RequestApproved)
	assertRequestStatus(t, store, third, circulation.RequestPending)
}

func Test_PromoteQueueHead_DoesNotSkipHeadThatDoesNotFit(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewStore()
	now := time.Now().UTC()
	bookID := givenBookWithCopies(t, store, 1)
	head := givenPendingRequest(t, store, bookID, 2, now.Add(-2*time.Minute))
	small := givenPendingRequest(t, store, bookID, 1, now.Add(-1*time.Minute))

	// act
	var promotion shell.Promotion
	err := store.Transact(ctx, func(ctx context.Context, tx circulation.Tx) error {
		var err error
		promotion, err = shell.PromoteQueueHead(ctx, tx, bookID, now)
		return err
	})

	// assert
	require.NoError(t, err)
	assert.Zero(t, promotion.Count())
	assertRequestStatus(t, store, head, circulation.RequestPending)
	assertRequestStatus(t, store, small, circulation.RequestPending)
}

func Test_VerifySupply_DetectsOversoldBook(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewStore()
	bookID := givenBookWithCopies(t, store, 1)
	givenApprovedRequest(t, store, bookID, 2)

	// act
	err := store.ReadOnly(ctx, func(ctx context.Context, tx circulation.Tx) error {
		return shell.VerifySupply(ctx, tx, bookID)
	})

	// assert
	assert.ErrorIs(t, err, circulation.ErrSupplyOversold)
}

func givenBookWithCopies(t *testing.T, store *memoryengine.Store, copies int) uuid.UUID {
	t.Helper()

	bookID := uuid.New()
	err := store.Transact(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		if err := tx.InsertBook(ctx, circulation.Book{ID: bookID, Title: "Dune"}); err != nil {
			return err
		}

		items := make([]circulation.BookItem, 0, copies)
		for range copies {
			items = append(items, circulation.BookItem{ID: uuid.New(), BookID: bookID, Status: circulation.BookItemAvailable})
		}

		return tx.InsertBookItems(ctx, items...)
	})
	require.NoError(t, err)

	return bookID
}

func givenPendingRequest(t *testing.T, store *memoryengine.Store, bookID uuid.UUID, quantity int, createdAt time.Time) uuid.UUID {
	t.Helper()

	return givenRequest(t, store, bookID, quantity, circulation.RequestPending, createdAt)
}

func givenApprovedRequest(t *testing.T, store *memoryengine.Store, bookID uuid.UUID, quantity int) uuid.UUID {
	t.Helper()

	return givenRequest(t, store, bookID, quantity, circulation.RequestApproved, time.Now().UTC())
}

func givenRequest(
	t *testing.T,
	store *memoryengine.Store,
	bookID uuid.UUID,
	quantity int,
	status circulation.RequestStatus,
	createdAt time.Time,
) uuid.UUID {
	t.Helper()

	today := circulation.DateOf(createdAt)
	request := circulation.BorrowRequest{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		StartDate: today,
		EndDate:   today.AddDate(0, 0, 7),
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Item:      circulation.BorrowRequestItem{BookID: bookID, Quantity: quantity, StartDate: today, EndDate: today.AddDate(0, 0, 7)},
	}

	if status == circulation.RequestApproved {
		request.ApprovedAt = &createdAt
	}

	err := store.Transact(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		return tx.InsertBorrowRequest(ctx, request)
	})
	require.NoError(t, err)

	return request.ID
}

func assertRequestStatus(t *testing.T, store *memoryengine.Store, requestID uuid.UUID, expected circulation.RequestStatus) {
	t.Helper()

	err := store.ReadOnly(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		request, err := tx.BorrowRequest(ctx, requestID)
		if err != nil {
			return err
		}

		assert.Equal(t, expected, request.Status)

		return nil
	})
	require.NoError(t, err)
}
