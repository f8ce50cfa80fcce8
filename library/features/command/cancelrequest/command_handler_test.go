package cancelrequest_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/memoryengine"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/cancelrequest"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/testutil/fixtures"
)

func Test_CommandHandler_Handle_CancellingQueuedRequest_MovesOthersUp(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	notifier := fixtures.NewNotifierSpy(nil)
	handler := cancelrequest.NewCommandHandler(
		store,
		cancelrequest.WithNotifications(shell.NewNotificationDispatcher(notifier)),
	)
	bookID, _ := fixtures.GivenBook(t, store, 0)
	reader := fixtures.Reader()
	now := time.Now()

	first := fixtures.GivenRequest(t, store, uuid.New(), bookID, 1, circulation.RequestPending, now.Add(-3*time.Minute))
	mine := fixtures.GivenRequest(t, store, reader.UserID, bookID, 1, circulation.RequestPending, now.Add(-2*time.Minute))
	last := fixtures.GivenRequest(t, store, uuid.New(), bookID, 1, circulation.RequestPending, now.Add(-time.Minute))

	// act
	result, handlerResult, err := handler.Handle(context.Background(), cancelrequest.BuildCommand(reader, mine, now))

	// assert
	require.NoError(t, err)
	assert.False(t, handlerResult.Idempotent)
	assert.Zero(t, result.Promoted)
	assert.Equal(t, circulation.RequestCancelled, fixtures.Request(t, store, mine).Status)

	queue := fixtures.Queue(t, store, bookID)
	require.Len(t, queue, 2)
	assert.Equal(t, first, queue[0].RequestID)
	assert.Equal(t, last, queue[1].RequestID)

	moved := notifier.SentOfKind(shell.NotificationQueuePositionChanged)
	require.Len(t, moved, 1)
	assert.Equal(t, last, moved[0].RequestID)
	assert.Equal(t, 2, moved[0].Position)
}

func Test_CommandHandler_Handle_CancellingApprovedRequest_PromotesQueueHead(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := cancelrequest.NewCommandHandler(store)
	bookID, _ := fixtures.GivenBook(t, store, 2)
	reader := fixtures.Reader()
	now := time.Now()

	mine := fixtures.GivenRequest(t, store, reader.UserID, bookID, 2, circulation.RequestApproved, now.Add(-3*time.Minute))
	head := fixtures.GivenRequest(t, store, uuid.New(), bookID, 1, circulation.RequestPending, now.Add(-2*time.Minute))
	next := fixtures.GivenRequest(t, store, uuid.New(), bookID, 1, circulation.RequestPending, now.Add(-time.Minute))

	// act
	result, _, err := handler.Handle(context.Background(), cancelrequest.BuildCommand(reader, mine, now))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Promoted)
	assert.Equal(t, circulation.RequestApproved, fixtures.Request(t, store, head).Status)
	assert.Equal(t, circulation.RequestApproved, fixtures.Request(t, store, next).Status)
	assert.Empty(t, fixtures.Queue(t, store, bookID))
	fixtures.RequireSupplyInvariant(t, store, bookID)
}

func Test_CommandHandler_Handle_Error_AlreadyCancelled(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := cancelrequest.NewCommandHandler(store)
	bookID, _ := fixtures.GivenBook(t, store, 0)
	reader := fixtures.Reader()
	cancelled := fixtures.GivenRequest(t, store, reader.UserID, bookID, 1, circulation.RequestCancelled, time.Now())

	// act
	_, handlerResult, err := handler.Handle(context.Background(), cancelrequest.BuildCommand(reader, cancelled, time.Now()))

	// assert
	assert.ErrorIs(t, err, circulation.ErrRequestStatusConflict)
	assert.False(t, handlerResult.Idempotent)
}

func Test_CommandHandler_Handle_Error_NotOwner(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := cancelrequest.NewCommandHandler(store)
	bookID, _ := fixtures.GivenBook(t, store, 0)
	requestID := fixtures.GivenRequest(t, store, uuid.New(), bookID, 1, circulation.RequestPending, time.Now())

	// act
	_, _, err := handler.Handle(context.Background(), cancelrequest.BuildCommand(fixtures.Reader(), requestID, time.Now()))

	// assert
	assert.ErrorIs(t, err, circulation.ErrNotOwner)
	assert.ErrorIs(t, err, circulation.ErrForbidden)
	assert.Equal(t, circulation.RequestPending, fixtures.Request(t, store, requestID).Status)
}

func Test_CommandHandler_Handle_Error_FulfilledRequest(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := cancelrequest.NewCommandHandler(store)
	bookID, _ := fixtures.GivenBook(t, store, 1)
	reader := fixtures.Reader()
	requestID := fixtures.GivenRequest(t, store, reader.UserID, bookID, 1, circulation.RequestFulfilled, time.Now())

	// act
	_, _, err := handler.Handle(context.Background(), cancelrequest.BuildCommand(reader, requestID, time.Now()))

	// assert
	assert.ErrorIs(t, err, circulation.ErrRequestStatusConflict)
}
