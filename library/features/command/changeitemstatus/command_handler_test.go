package changeitemstatus_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/memoryengine"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/changeitemstatus"
	"github.com/AntonStoeckl/library-circulation-go/testutil/fixtures"
)

func Test_CommandHandler_Handle_CopyBackOnShelf_PromotesQueue(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := changeitemstatus.NewCommandHandler(store)
	bookID, itemIDs := fixtures.GivenBook(t, store, 1)
	librarian := fixtures.Librarian()

	_, _, err := handler.Handle(context.Background(), changeitemstatus.BuildCommand(librarian, itemIDs[0], circulation.BookItemMaintenance, time.Now()))
	require.NoError(t, err)

	waiting := fixtures.GivenRequest(t, store, uuid.New(), bookID, 1, circulation.RequestPending, time.Now())

	// act
	result, _, err := handler.Handle(context.Background(), changeitemstatus.BuildCommand(librarian, itemIDs[0], circulation.BookItemAvailable, time.Now()))

	// assert
	require.NoError(t, err)
	assert.Equal(t, circulation.BookItemMaintenance, result.Previous)
	assert.Equal(t, 1, result.Promoted)
	assert.Equal(t, circulation.RequestApproved, fixtures.Request(t, store, waiting).Status)
	fixtures.RequireSupplyInvariant(t, store, bookID)
}

func Test_CommandHandler_Handle_Error_ReservedCopyCannotLeaveSupply(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := changeitemstatus.NewCommandHandler(store)
	bookID, itemIDs := fixtures.GivenBook(t, store, 1)
	fixtures.GivenRequest(t, store, uuid.New(), bookID, 1, circulation.RequestApproved, time.Now())

	// act
	_, _, err := handler.Handle(context.Background(), changeitemstatus.BuildCommand(fixtures.Librarian(), itemIDs[0], circulation.BookItemLost, time.Now()))

	// assert
	assert.ErrorIs(t, err, circulation.ErrSupplyOversold)
	assert.Equal(t, circulation.BookItemAvailable, fixtures.Item(t, store, itemIDs[0]).Status)
}

func Test_CommandHandler_Handle_Idempotent_SameStatus(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := changeitemstatus.NewCommandHandler(store)
	_, itemIDs := fixtures.GivenBook(t, store, 1)

	// act
	result, handlerResult, err := handler.Handle(context.Background(), changeitemstatus.BuildCommand(fixtures.Librarian(), itemIDs[0], circulation.BookItemAvailable, time.Now()))

	// assert
	require.NoError(t, err)
	assert.True(t, handlerResult.Idempotent)
	assert.Equal(t, circulation.BookItemAvailable, result.Previous)
}

func Test_CommandHandler_Handle_Error(t *testing.T) {
	testCases := []struct {
		name        string
		actor       circulation.Actor
		onLoan      bool
		target      circulation.BookItemStatus
		expectedErr error
	}{
		{name: "reader may not change copies", actor: fixtures.Reader(), target: circulation.BookItemLost, expectedErr: circulation.ErrRoleNotAllowed},
		{name: "on borrow cannot be set", actor: fixtures.Librarian(), target: circulation.BookItemOnBorrow, expectedErr: circulation.ErrInvalidItemStatus},
		{name: "unknown status", actor: fixtures.Librarian(), target: circulation.BookItemStatus("SHREDDED"), expectedErr: circulation.ErrInvalidItemStatus},
		{name: "copy on loan", actor: fixtures.Librarian(), onLoan: true, target: circulation.BookItemLost, expectedErr: circulation.ErrItemStatusConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			store := memoryengine.NewStore()
			handler := changeitemstatus.NewCommandHandler(store)
			bookID, itemIDs := fixtures.GivenBook(t, store, 1)

			if tc.onLoan {
				today := fixtures.Today()
				fixtures.GivenLoan(t, store, uuid.New(), bookID, itemIDs, today, today.AddDate(0, 0, 7))
			}

			// act
			_, _, err := handler.Handle(context.Background(), changeitemstatus.BuildCommand(tc.actor, itemIDs[0], tc.target, time.Now()))

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}
