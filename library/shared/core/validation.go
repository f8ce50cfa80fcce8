package core

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// BorrowRequestInput is the reader-supplied part of a new borrow request.
// Dates are calendar dates as returned by circulation.DateOf.
type BorrowRequestInput struct {
	Quantity  int
	StartDate time.Time
	EndDate   time.Time
}

// ValidateBorrowRequest checks the request input against today's date and the policy.
// The first failing rule is returned.
func ValidateBorrowRequest(input BorrowRequestInput, today time.Time, policy circulation.Policy) error {
	today = circulation.DateOf(today)
	start := circulation.DateOf(input.StartDate)
	end := circulation.DateOf(input.EndDate)

	switch {
	case start.Before(today):
		return circulation.ErrStartDateInPast
	case !end.After(start):
		return circulation.ErrEndDateNotAfterStart
	case DaysBetween(start, end) > policy.MaxRequestSpanDays:
		return circulation.ErrRequestSpanTooLong
	case input.Quantity <= 0:
		return circulation.ErrNonPositiveQuantity
	}

	return nil
}

// DaysBetween counts calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(circulation.DateOf(b).Sub(circulation.DateOf(a)).Hours() / 24)
}

// AddDays moves a calendar date by n days.
func AddDays(date time.Time, n int) time.Time {
	return circulation.DateOf(date).AddDate(0, 0, n)
}
