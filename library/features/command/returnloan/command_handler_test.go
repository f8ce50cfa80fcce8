package returnloan_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/memoryengine"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/returnloan"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/testutil/fixtures"
)

func Test_CommandHandler_Handle_ReleasesCopies_AndPromotesQueue(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	notifier := fixtures.NewNotifierSpy(nil)
	handler := returnloan.NewCommandHandler(
		store,
		returnloan.WithNotifications(shell.NewNotificationDispatcher(notifier)),
	)
	bookID, itemIDs := fixtures.GivenBook(t, store, 1)
	today := fixtures.Today()
	recordID := fixtures.GivenLoan(t, store, uuid.New(), bookID, itemIDs, today.AddDate(0, 0, -20), today.AddDate(0, 0, -1))
	waitingOwner := uuid.New()
	waiting := fixtures.GivenRequest(t, store, waitingOwner, bookID, 1, circulation.RequestPending, time.Now().Add(-time.Hour))

	// act
	result, handlerResult, err := handler.Handle(context.Background(), returnloan.BuildCommand(fixtures.Librarian(), recordID, time.Now()))

	// assert
	require.NoError(t, err)
	assert.False(t, handlerResult.Idempotent)
	assert.Equal(t, itemIDs, result.ReturnedItems)
	assert.Equal(t, 1, result.Promoted)

	record := fixtures.Record(t, store, recordID)
	assert.Equal(t, circulation.LoanReturned, record.Status)
	assert.NotNil(t, record.ActualReturnDate)
	assert.Equal(t, circulation.BookItemAvailable, fixtures.Item(t, store, itemIDs[0]).Status)
	assert.Equal(t, circulation.RequestApproved, fixtures.Request(t, store, waiting).Status)
	fixtures.RequireSupplyInvariant(t, store, bookID)

	approvals := notifier.SentOfKind(shell.NotificationRequestApproved)
	require.Len(t, approvals, 1)
	assert.Equal(t, waitingOwner, approvals[0].UserID)
}

func Test_CommandHandler_Handle_Idempotent_AlreadyReturned(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := returnloan.NewCommandHandler(store)
	bookID, itemIDs := fixtures.GivenBook(t, store, 1)
	today := fixtures.Today()
	recordID := fixtures.GivenLoan(t, store, uuid.New(), bookID, itemIDs, today, today.AddDate(0, 0, 7))

	_, _, err := handler.Handle(context.Background(), returnloan.BuildCommand(fixtures.Librarian(), recordID, time.Now()))
	require.NoError(t, err)

	// act
	_, handlerResult, err := handler.Handle(context.Background(), returnloan.BuildCommand(fixtures.Librarian(), recordID, time.Now()))

	// assert
	require.NoError(t, err)
	assert.True(t, handlerResult.Idempotent)
}

func Test_CommandHandler_Handle_Error_ReaderMayNotCheckIn(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := returnloan.NewCommandHandler(store)
	bookID, itemIDs := fixtures.GivenBook(t, store, 1)
	today := fixtures.Today()
	reader := fixtures.Reader()
	recordID := fixtures.GivenLoan(t, store, reader.UserID, bookID, itemIDs, today, today.AddDate(0, 0, 7))

	// act
	_, _, err := handler.Handle(context.Background(), returnloan.BuildCommand(reader, recordID, time.Now()))

	// assert
	assert.ErrorIs(t, err, circulation.ErrRoleNotAllowed)
	assert.Equal(t, circulation.BookItemOnBorrow, fixtures.Item(t, store, itemIDs[0]).Status)
}
