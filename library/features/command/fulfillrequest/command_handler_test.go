package fulfillrequest_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/memoryengine"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/fulfillrequest"
	"github.com/AntonStoeckl/library-circulation-go/testutil/fixtures"
)

func Test_CommandHandler_Handle_OpensLoan_AndKeepsRemainingSupply(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := fulfillrequest.NewCommandHandler(store, circulation.DefaultPolicy())
	bookID, _ := fixtures.GivenBook(t, store, 3)
	readerID := uuid.New()
	now := time.Now()
	requestID := fixtures.GivenRequest(t, store, readerID, bookID, 2, circulation.RequestApproved, now.Add(-time.Hour))
	before := fixtures.Supply(t, store, bookID)

	// act
	result, _, err := handler.Handle(context.Background(), fulfillrequest.BuildCommand(fixtures.Librarian(), requestID, now))

	// assert
	require.NoError(t, err)
	require.Len(t, result.ItemIDs, 2)
	assert.Equal(t, circulation.RequestFulfilled, fixtures.Request(t, store, requestID).Status)

	for _, itemID := range result.ItemIDs {
		assert.Equal(t, circulation.BookItemOnBorrow, fixtures.Item(t, store, itemID).Status)
	}

	record := fixtures.Record(t, store, result.BorrowRecordID)
	assert.Equal(t, readerID, record.UserID)
	assert.Equal(t, circulation.LoanBorrowed, record.Status)
	require.NotNil(t, record.RequestID)
	assert.Equal(t, requestID, *record.RequestID)
	assert.Len(t, record.Books, 2)

	after := fixtures.Supply(t, store, bookID)
	assert.Equal(t, before.Remaining(), after.Remaining())
	assert.Equal(t, 1, after.Available)
	assert.Zero(t, after.Reserved)
}

func Test_CommandHandler_Handle_Error_RequestNotApproved(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := fulfillrequest.NewCommandHandler(store, circulation.DefaultPolicy())
	bookID, _ := fixtures.GivenBook(t, store, 1)
	requestID := fixtures.GivenRequest(t, store, uuid.New(), bookID, 1, circulation.RequestPending, time.Now())

	// act
	_, _, err := handler.Handle(context.Background(), fulfillrequest.BuildCommand(fixtures.Librarian(), requestID, time.Now()))

	// assert
	assert.ErrorIs(t, err, circulation.ErrRequestStatusConflict)
	assert.Equal(t, 1, fixtures.Supply(t, store, bookID).Available)
}

func Test_CommandHandler_Handle_Error_CopiesGone_RollsBack(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := fulfillrequest.NewCommandHandler(store, circulation.DefaultPolicy())
	bookID, itemIDs := fixtures.GivenBook(t, store, 2)
	requestID := fixtures.GivenRequest(t, store, uuid.New(), bookID, 2, circulation.RequestApproved, time.Now())
	fixtures.GivenLoan(t, store, uuid.New(), bookID, itemIDs[:1], time.Now(), time.Now().AddDate(0, 0, 7))

	// act
	_, _, err := handler.Handle(context.Background(), fulfillrequest.BuildCommand(fixtures.Librarian(), requestID, time.Now()))

	// assert
	assert.ErrorIs(t, err, circulation.ErrInsufficientCopies)
	assert.Equal(t, circulation.RequestApproved, fixtures.Request(t, store, requestID).Status)
	assert.Equal(t, circulation.BookItemAvailable, fixtures.Item(t, store, itemIDs[1]).Status)
}
