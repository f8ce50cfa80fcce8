package fulfillrequest_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/fulfillrequest"
	"github.com/AntonStoeckl/library-circulation-go/testutil/fixtures"
)

func Test_Decide_DueDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	today := circulation.DateOf(now)

	testCases := []struct {
		name     string
		endDate  time.Time
		expected time.Time
	}{
		{name: "request end date", endDate: today.AddDate(0, 0, 14), expected: today.AddDate(0, 0, 14)},
		{name: "capped at max borrow days", endDate: today.AddDate(0, 0, 45), expected: today.AddDate(0, 0, 30)},
		{name: "late pickup keeps at least one day", endDate: today.AddDate(0, 0, -2), expected: today.AddDate(0, 0, 1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			request := circulation.BorrowRequest{ID: uuid.New(), Status: circulation.RequestApproved, EndDate: tc.endDate}
			command := fulfillrequest.BuildCommand(fixtures.Librarian(), request.ID, now)

			// act
			result := fulfillrequest.Decide(request, command, circulation.DefaultPolicy())

			// assert
			assert.NoError(t, result.HasError())
			assert.Equal(t, today, result.Value.BorrowDate)
			assert.Equal(t, tc.expected, result.Value.ReturnDate)
		})
	}
}

func Test_Decide_Error(t *testing.T) {
	testCases := []struct {
		name        string
		actor       circulation.Actor
		status      circulation.RequestStatus
		expectedErr error
	}{
		{name: "reader may not hand out copies", actor: fixtures.Reader(), status: circulation.RequestApproved, expectedErr: circulation.ErrRoleNotAllowed},
		{name: "pending request", actor: fixtures.Librarian(), status: circulation.RequestPending, expectedErr: circulation.ErrRequestStatusConflict},
		{name: "fulfilled request", actor: fixtures.Librarian(), status: circulation.RequestFulfilled, expectedErr: circulation.ErrRequestStatusConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			request := circulation.BorrowRequest{ID: uuid.New(), Status: tc.status}
			command := fulfillrequest.BuildCommand(tc.actor, request.ID, time.Now())

			// act
			result := fulfillrequest.Decide(request, command, circulation.DefaultPolicy())

			// assert
			assert.ErrorIs(t, result.HasError(), tc.expectedErr)
		})
	}
}
