package markoverdueloans_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/memoryengine"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/markoverdueloans"
	"github.com/AntonStoeckl/library-circulation-go/testutil/fixtures"
)

func Test_CommandHandler_Handle_MarksLoansPastDueDate(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := markoverdueloans.NewCommandHandler(store)
	bookID, itemIDs := fixtures.GivenBook(t, store, 3)
	today := fixtures.Today()

	overdue := fixtures.GivenLoan(t, store, uuid.New(), bookID, itemIDs[:1], today.AddDate(0, 0, -20), today.AddDate(0, 0, -1))
	dueToday := fixtures.GivenLoan(t, store, uuid.New(), bookID, itemIDs[1:2], today.AddDate(0, 0, -10), today)

	// act
	result, handlerResult, err := handler.Handle(context.Background(), markoverdueloans.BuildCommand(time.Now()))

	// assert
	require.NoError(t, err)
	assert.False(t, handlerResult.Idempotent)
	assert.Equal(t, int64(1), result.Marked)
	assert.Equal(t, circulation.LoanOverdue, fixtures.Record(t, store, overdue).Status)
	assert.Equal(t, circulation.LoanBorrowed, fixtures.Record(t, store, dueToday).Status)
}

func Test_CommandHandler_Handle_Idempotent_WhenNothingIsOverdue(t *testing.T) {
	// setup
	store := memoryengine.NewStore()
	handler := markoverdueloans.NewCommandHandler(store)

	// act
	result, handlerResult, err := handler.Handle(context.Background(), markoverdueloans.BuildCommand(time.Now()))

	// assert
	require.NoError(t, err)
	assert.True(t, handlerResult.Idempotent)
	assert.Zero(t, result.Marked)
}
