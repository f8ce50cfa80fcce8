package memoryengine_test

import (
	"context"
	"errors"
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

func Test_Transact_DiscardsChanges_WhenUnitOfWorkFails(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	bookID, _ := fixtures.GivenBook(t, store, 1)
	failure := errors.New("boom")

	// act
	err := store.Transact(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		if _, err := tx.AllocateAvailableItems(ctx, bookID, 1); err != nil {
			return err
		}

		return failure
	})

	// assert
	require.ErrorIs(t, err, failure)
	assert.Equal(t, 1, fixtures.Supply(t, store, bookID).Available)
}

func Test_ReadOnly_DiscardsWrites(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	bookID, _ := fixtures.GivenBook(t, store, 2)

	// act
	err := store.ReadOnly(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		_, err := tx.AllocateAvailableItems(ctx, bookID, 2)
		return err
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, fixtures.Supply(t, store, bookID).Available)
}

func Test_Transact_RespectsCanceledContext(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false

	// act
	err := store.Transact(ctx, func(context.Context, circulation.Tx) error {
		called = true
		return nil
	})

	// assert
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func Test_InjectedConcurrencyConflicts_AreRetriedByHandlers(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	bookID, _ := fixtures.GivenBook(t, store, 1)
	store.InjectConcurrencyConflicts(2)
	before := store.TransactionCount()

	handler := createborrowrequest.NewCommandHandler(
		store,
		circulation.DefaultPolicy(),
		createborrowrequest.WithRetryOptions(shell.WithBaseDelay(time.Millisecond)),
	)
	today := fixtures.Today()

	// act
	result, handlerResult, err := handler.Handle(
		context.Background(),
		createborrowrequest.BuildCommand(fixtures.Reader(), bookID, 1, today, today.AddDate(0, 0, 7), time.Now()),
	)

	// assert
	require.NoError(t, err)
	assert.Equal(t, circulation.RequestApproved, result.Status)
	assert.Equal(t, 3, store.TransactionCount()-before)
	assert.Equal(t, 3, handlerResult.RetryAttempts)
}

func Test_WithInjectedConcurrencyConflicts_FailsTransact(t *testing.T) {
	// setup
	store := memoryengine.NewStore(memoryengine.WithInjectedConcurrencyConflicts(1))

	// act
	first := store.Transact(context.Background(), func(context.Context, circulation.Tx) error { return nil })
	second := store.Transact(context.Background(), func(context.Context, circulation.Tx) error { return nil })

	// assert
	require.ErrorIs(t, first, circulation.ErrConcurrencyConflict)
	require.NoError(t, second)
}

func Test_InsertBorrowRequest_RejectsSecondActiveRequest(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	bookID, _ := fixtures.GivenBook(t, store, 1)
	userID := uuid.New()
	existing := fixtures.Request(t, store, fixtures.GivenRequest(t, store, userID, bookID, 1, circulation.RequestPending, time.Now()))

	duplicate := existing
	duplicate.ID = uuid.New()

	// act
	err := store.Transact(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		return tx.InsertBorrowRequest(ctx, duplicate)
	})

	// assert
	require.ErrorIs(t, err, circulation.ErrDuplicateActive)
}

func Test_InsertBorrowRequest_AcceptsInactiveRequestNextToActiveOne(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	bookID, _ := fixtures.GivenBook(t, store, 1)
	userID := uuid.New()
	existing := fixtures.Request(t, store, fixtures.GivenRequest(t, store, userID, bookID, 1, circulation.RequestPending, time.Now()))

	cancelled := existing
	cancelled.ID = uuid.New()
	cancelled.Status = circulation.RequestCancelled

	// act
	err := store.Transact(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		return tx.InsertBorrowRequest(ctx, cancelled)
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, circulation.RequestCancelled, fixtures.Request(t, store, cancelled.ID).Status)
}

func Test_PendingQueue_IsOrderedByCreationTime(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	bookID, _ := fixtures.GivenBook(t, store, 0)
	now := time.Now()

	third := fixtures.GivenRequest(t, store, uuid.New(), bookID, 1, circulation.RequestPending, now)
	first := fixtures.GivenRequest(t, store, uuid.New(), bookID, 2, circulation.RequestPending, now.Add(-2*time.Minute))
	second := fixtures.GivenRequest(t, store, uuid.New(), bookID, 1, circulation.RequestPending, now.Add(-time.Minute))
	fixtures.GivenRequest(t, store, uuid.New(), bookID, 1, circulation.RequestCancelled, now.Add(-time.Hour))

	// act
	queue := fixtures.Queue(t, store, bookID)

	// assert
	require.Len(t, queue, 3)
	assert.Equal(t, []uuid.UUID{first, second, third}, []uuid.UUID{queue[0].RequestID, queue[1].RequestID, queue[2].RequestID})
	assert.Equal(t, 2, queue[0].Quantity)
}

func Test_ApprovedRequestsBefore_ReturnsOldestFirst_UpToLimit(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	bookID, _ := fixtures.GivenBook(t, store, 3)
	now := time.Now()

	oldest := fixtures.GivenRequest(t, store, uuid.New(), bookID, 1, circulation.RequestApproved, now.Add(-5*time.Hour))
	older := fixtures.GivenRequest(t, store, uuid.New(), bookID, 1, circulation.RequestApproved, now.Add(-4*time.Hour))
	fixtures.GivenRequest(t, store, uuid.New(), bookID, 1, circulation.RequestApproved, now.Add(-3*time.Hour))

	var stale []circulation.BorrowRequest

	// act
	err := store.ReadOnly(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		var err error
		stale, err = tx.ApprovedRequestsBefore(ctx, now.Add(-time.Hour), 2)

		return err
	})

	// assert
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.Equal(t, oldest, stale[0].ID)
	assert.Equal(t, older, stale[1].ID)
}
