package createborrowrequest_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/memoryengine"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/createborrowrequest"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/testutil/fixtures"
)

func Test_CommandHandler_Handle_Queues_WhenNoCopyIsAvailable(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memoryengine.NewStore()
	handler := createborrowrequest.NewCommandHandler(store, circulation.DefaultPolicy())
	bookID, _ := fixtures.GivenBook(t, store, 0)
	now := time.Now()

	// act
	first, firstResult, err := handler.Handle(ctx, buildCommand(fixtures.Reader(), bookID, 1, now))
	require.NoError(t, err)

	second, _, err := handler.Handle(ctx, buildCommand(fixtures.Reader(), bookID, 1, now.Add(time.Second)))
	require.NoError(t, err)

	// assert
	assert.False(t, firstResult.Idempotent)
	assert.Equal(t, circulation.RequestPending, first.Status)
	require.NotNil(t, first.QueuePosition)
	assert.Equal(t, 1, *first.QueuePosition)

	assert.Equal(t, circulation.RequestPending, second.Status)
	require.NotNil(t, second.QueuePosition)
	assert.Equal(t, 2, *second.QueuePosition)
}

func Test_CommandHandler_Handle_ApprovesAndReserves_WhenCopiesAreAvailable(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memoryengine.NewStore()
	notifier := fixtures.NewNotifierSpy(nil)
	handler := createborrowrequest.NewCommandHandler(
		store,
		circulation.DefaultPolicy(),
		createborrowrequest.WithNotifications(shell.NewNotificationDispatcher(notifier)),
	)
	bookID, _ := fixtures.GivenBook(t, store, 3)
	reader := fixtures.Reader()

	// act
	result, _, err := handler.Handle(ctx, buildCommand(reader, bookID, 2, time.Now()))

	// assert
	require.NoError(t, err)
	assert.Equal(t, circulation.RequestApproved, result.Status)
	assert.Nil(t, result.QueuePosition)

	request := fixtures.Request(t, store, result.RequestID)
	assert.Equal(t, reader.UserID, request.UserID)
	assert.NotNil(t, request.ApprovedAt)

	supply := fixtures.Supply(t, store, bookID)
	assert.Equal(t, 3, supply.Available)
	assert.Equal(t, 2, supply.Reserved)

	approvals := notifier.SentOfKind(shell.NotificationRequestApproved)
	require.Len(t, approvals, 1)
	assert.Equal(t, reader.UserID, approvals[0].UserID)
}

func Test_CommandHandler_Handle_Queues_WhenRemainingSupplyIsTooSmall(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memoryengine.NewStore()
	handler := createborrowrequest.NewCommandHandler(store, circulation.DefaultPolicy())
	bookID, _ := fixtures.GivenBook(t, store, 2)
	now := time.Now()

	_, _, err := handler.Handle(ctx, buildCommand(fixtures.Reader(), bookID, 2, now))
	require.NoError(t, err)

	// act
	result, _, err := handler.Handle(ctx, buildCommand(fixtures.Reader(), bookID, 1, now.Add(time.Second)))

	// assert
	require.NoError(t, err)
	assert.Equal(t, circulation.RequestPending, result.Status)
	require.NotNil(t, result.QueuePosition)
	assert.Equal(t, 1, *result.QueuePosition)
	fixtures.RequireSupplyInvariant(t, store, bookID)
}

func Test_CommandHandler_Handle_Error_ActiveRequestExists(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memoryengine.NewStore()
	handler := createborrowrequest.NewCommandHandler(store, circulation.DefaultPolicy())
	bookID, _ := fixtures.GivenBook(t, store, 0)
	reader := fixtures.Reader()
	now := time.Now()

	_, _, err := handler.Handle(ctx, buildCommand(reader, bookID, 1, now))
	require.NoError(t, err)

	// act
	_, result, err := handler.Handle(ctx, buildCommand(reader, bookID, 1, now.Add(time.Second)))

	// assert
	assert.ErrorIs(t, err, circulation.ErrActiveRequestExists)
	assert.ErrorIs(t, err, circulation.ErrValidation)
	assert.Equal(t, 1, result.RetryAttempts)
	assert.Len(t, fixtures.Queue(t, store, bookID), 1)
}

func Test_CommandHandler_Handle_Error_BookNotFound(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := createborrowrequest.NewCommandHandler(store, circulation.DefaultPolicy())

	// act
	_, _, err := handler.Handle(context.Background(), buildCommand(fixtures.Reader(), uuid.New(), 1, time.Now()))

	// assert
	assert.ErrorIs(t, err, circulation.ErrBookNotFound)
}

func Test_CommandHandler_Handle_RetriesConcurrencyConflicts(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	bookID, _ := fixtures.GivenBook(t, store, 1)
	store.InjectConcurrencyConflicts(2)

	handler := createborrowrequest.NewCommandHandler(
		store,
		circulation.DefaultPolicy(),
		createborrowrequest.WithRetryOptions(shell.WithBaseDelay(time.Millisecond)),
	)

	// act
	result, handlerResult, err := handler.Handle(
		context.Background(),
		buildCommand(fixtures.Reader(), bookID, 1, time.Now()),
	)

	// assert
	require.NoError(t, err)
	assert.Equal(t, circulation.RequestApproved, result.Status)
	assert.Equal(t, 3, handlerResult.RetryAttempts)
}

func Test_CommandHandler_Handle_ConcurrentRequestsNeverOversell(t *testing.T) {
	// setup
	const (
		copies  = 3
		readers = 20
	)

	ctx := context.Background()
	store := memoryengine.NewStore()
	handler := createborrowrequest.NewCommandHandler(store, circulation.DefaultPolicy())
	bookID, _ := fixtures.GivenBook(t, store, copies)
	now := time.Now()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		approved int
		pending  int
	)

	// act
	for i := range readers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			result, _, err := handler.Handle(ctx, buildCommand(fixtures.Reader(), bookID, 1, now.Add(time.Duration(i)*time.Millisecond)))
			assert.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()

			if result.Status == circulation.RequestApproved {
				approved++
			} else {
				pending++
			}
		}()
	}

	wg.Wait()

	// assert
	assert.Equal(t, copies, approved)
	assert.Equal(t, readers-copies, pending)
	fixtures.RequireSupplyInvariant(t, store, bookID)
	assert.Len(t, fixtures.Queue(t, store, bookID), readers-copies)
}

func buildCommand(actor circulation.Actor, bookID uuid.UUID, quantity int, now time.Time) createborrowrequest.Command {
	today := circulation.DateOf(now)

	return createborrowrequest.BuildCommand(actor, bookID, quantity, today, today.AddDate(0, 0, 14), now)
}
