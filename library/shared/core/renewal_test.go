package core_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

func Test_DecideRenewal_ExtendsDueDate(t *testing.T) {
	// arrange
	today := circulation.DateOf(time.Now())
	input := givenRenewalInput(today, today.AddDate(0, 0, -10), today.AddDate(0, 0, 5))

	// act
	renewal, err := core.DecideRenewal(input, circulation.DefaultPolicy())

	// assert
	require.NoError(t, err)
	assert.Equal(t, today.AddDate(0, 0, 12), renewal.NewReturnDate)
	assert.Equal(t, 1, renewal.RenewalCount)
	assert.False(t, renewal.Clamped)
}

func Test_DecideRenewal_ClampsToMaxBorrowDays(t *testing.T) {
	// arrange
	today := circulation.DateOf(time.Now())
	input := givenRenewalInput(today, today.AddDate(0, 0, -25), today.AddDate(0, 0, 1))

	// act
	renewal, err := core.DecideRenewal(input, circulation.DefaultPolicy())

	// assert
	require.NoError(t, err)
	assert.Equal(t, today.AddDate(0, 0, 5), renewal.NewReturnDate)
	assert.True(t, renewal.Clamped)
}

func Test_DecideRenewal_SucceedsOnTheDueDate(t *testing.T) {
	// arrange
	today := circulation.DateOf(time.Now())
	input := givenRenewalInput(today, today.AddDate(0, 0, -7), today)

	// act
	_, err := core.DecideRenewal(input, circulation.DefaultPolicy())

	// assert
	assert.NoError(t, err)
}

func Test_DecideRenewal_RejectsWhenBookIsRequested(t *testing.T) {
	// arrange
	today := circulation.DateOf(time.Now())
	input := givenRenewalInput(today, today.AddDate(0, 0, -10), today.AddDate(0, 0, 5))
	input.Demand[0].Outstanding = 1

	// act
	_, err := core.DecideRenewal(input, circulation.DefaultPolicy())

	// assert
	assertRenewalRejected(t, err, core.RenewalReasonRequested)

	var rejection *core.RenewalRejection
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, "Dune", rejection.BookTitle)
	assert.Equal(t, input.Demand[0].BookID, rejection.BookID)
	assert.Contains(t, err.Error(), "Dune")
}

func Test_DecideRenewal_FirstFailingPreconditionWins(t *testing.T) {
	today := circulation.DateOf(time.Now())
	policy := circulation.DefaultPolicy()

	t.Run("not active before overdue", func(t *testing.T) {
		input := givenRenewalInput(today, today.AddDate(0, 0, -20), today.AddDate(0, 0, -1))
		input.Record.Status = circulation.LoanOverdue
		input.Demand[0].Outstanding = 3

		_, err := core.DecideRenewal(input, policy)

		assertRenewalRejected(t, err, core.RenewalReasonNotActive)
	})

	t.Run("overdue before max renewals", func(t *testing.T) {
		input := givenRenewalInput(today, today.AddDate(0, 0, -20), today.AddDate(0, 0, -1))
		input.Record.RenewalCount = policy.MaxRenewals
		input.Demand[0].Outstanding = 3

		_, err := core.DecideRenewal(input, policy)

		assertRenewalRejected(t, err, core.RenewalReasonOverdue)
	})

	t.Run("max renewals before demand", func(t *testing.T) {
		input := givenRenewalInput(today, today.AddDate(0, 0, -10), today.AddDate(0, 0, 5))
		input.Record.RenewalCount = policy.MaxRenewals
		input.Demand[0].Outstanding = 3

		_, err := core.DecideRenewal(input, policy)

		assertRenewalRejected(t, err, core.RenewalReasonMaxReached)
	})

	t.Run("returned loan is not active", func(t *testing.T) {
		input := givenRenewalInput(today, today.AddDate(0, 0, -10), today.AddDate(0, 0, 5))
		returnedAt := today
		input.Record.ActualReturnDate = &returnedAt

		_, err := core.DecideRenewal(input, policy)

		assertRenewalRejected(t, err, core.RenewalReasonNotActive)
	})

	t.Run("ebook loans cannot be renewed", func(t *testing.T) {
		input := givenRenewalInput(today, today.AddDate(0, 0, -10), today.AddDate(0, 0, 5))
		input.Record.Books = nil
		input.Record.Ebooks = []circulation.BorrowEbook{{BookID: uuid.New()}}

		_, err := core.DecideRenewal(input, policy)

		assertRenewalRejected(t, err, core.RenewalReasonNotPhysical)
	})
}

func Test_DecideRenewal_ForeignOrDeletedRecordIsNotFound(t *testing.T) {
	today := circulation.DateOf(time.Now())
	policy := circulation.DefaultPolicy()

	input := givenRenewalInput(today, today.AddDate(0, 0, -10), today.AddDate(0, 0, 5))
	input.RequestingUserID = uuid.New()
	_, err := core.DecideRenewal(input, policy)
	assert.ErrorIs(t, err, circulation.ErrBorrowRecordNotFound)

	input = givenRenewalInput(today, today.AddDate(0, 0, -10), today.AddDate(0, 0, 5))
	deletedAt := today
	input.Record.DeletedAt = &deletedAt
	_, err = core.DecideRenewal(input, policy)
	assert.ErrorIs(t, err, circulation.ErrBorrowRecordNotFound)
}

func givenRenewalInput(today, borrowDate, returnDate time.Time) core.RenewalInput {
	userID := uuid.New()
	bookID := uuid.New()

	return core.RenewalInput{
		Record: circulation.BorrowRecord{
			ID:         uuid.New(),
			UserID:     userID,
			BorrowDate: borrowDate,
			ReturnDate: returnDate,
			Status:     circulation.LoanBorrowed,
			Books:      []circulation.BorrowBook{{BookItemID: uuid.New(), BookID: bookID}},
		},
		RequestingUserID: userID,
		Today:            today,
		Demand:           []core.BookDemand{{BookID: bookID, Title: "Dune"}},
	}
}

func assertRenewalRejected(t *testing.T, err error, reason string) {
	t.Helper()

	assert.ErrorIs(t, err, circulation.ErrRenewalRejected)

	var rejection *core.RenewalRejection
	if assert.True(t, errors.As(err, &rejection)) {
		assert.Equal(t, reason, rejection.Reason)
	}
}
