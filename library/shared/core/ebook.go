package core

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// EbookLoan is the accepted outcome of DecideEbookLoan.
type EbookLoan struct {
	BorrowDate time.Time
	ReturnDate time.Time
}

// DecideEbookLoan checks an instant digital loan. Digital loans bypass the queue and the supply bound.
// A zero endDate means "as long as allowed"; any end date is capped at today + MaxBorrowDays.
func DecideEbookLoan(
	book circulation.Book,
	hasActiveLoan bool,
	endDate time.Time,
	today time.Time,
	policy circulation.Policy,
) (EbookLoan, error) {
	today = circulation.DateOf(today)
	limit := AddDays(today, policy.MaxBorrowDays)

	if !book.HasEbook {
		return EbookLoan{}, circulation.ErrNoEbookEdition
	}

	if hasActiveLoan {
		return EbookLoan{}, circulation.ErrActiveEbookLoanExists
	}

	if endDate.IsZero() {
		return EbookLoan{BorrowDate: today, ReturnDate: limit}, nil
	}

	returnDate := circulation.DateOf(endDate)
	if !returnDate.After(today) {
		return EbookLoan{}, circulation.ErrEndDateNotAfterStart
	}

	if returnDate.After(limit) {
		returnDate = limit
	}

	return EbookLoan{BorrowDate: today, ReturnDate: returnDate}, nil
}
