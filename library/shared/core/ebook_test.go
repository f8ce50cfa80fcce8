package core_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

func Test_DecideEbookLoan(t *testing.T) {
	today := circulation.DateOf(time.Now())
	policy := circulation.DefaultPolicy()
	book := circulation.Book{ID: uuid.New(), Title: "Dune", HasEbook: true}

	t.Run("defaults to the longest allowed loan", func(t *testing.T) {
		loan, err := core.DecideEbookLoan(book, false, time.Time{}, today, policy)

		require.NoError(t, err)
		assert.Equal(t, today, loan.BorrowDate)
		assert.Equal(t, today.AddDate(0, 0, policy.MaxBorrowDays), loan.ReturnDate)
	})

	t.Run("caps the end date", func(t *testing.T) {
		loan, err := core.DecideEbookLoan(book, false, today.AddDate(0, 0, 90), today, policy)

		require.NoError(t, err)
		assert.Equal(t, today.AddDate(0, 0, policy.MaxBorrowDays), loan.ReturnDate)
	})

	t.Run("keeps a shorter end date", func(t *testing.T) {
		loan, err := core.DecideEbookLoan(book, false, today.AddDate(0, 0, 3), today, policy)

		require.NoError(t, err)
		assert.Equal(t, today.AddDate(0, 0, 3), loan.ReturnDate)
	})

	t.Run("rejects books without ebook", func(t *testing.T) {
		_, err := core.DecideEbookLoan(circulation.Book{ID: uuid.New()}, false, time.Time{}, today, policy)

		assert.ErrorIs(t, err, circulation.ErrNoEbookEdition)
	})

	t.Run("rejects a second active loan", func(t *testing.T) {
		_, err := core.DecideEbookLoan(book, true, time.Time{}, today, policy)

		assert.ErrorIs(t, err, circulation.ErrActiveEbookLoanExists)
	})

	t.Run("rejects an end date that is not after today", func(t *testing.T) {
		_, err := core.DecideEbookLoan(book, false, today, today, policy)

		assert.ErrorIs(t, err, circulation.ErrEndDateNotAfterStart)
	})
}
