package returnloan

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// Decide determines which copies go back on the shelf.
//
// Business Rules:
//
//	GIVEN: a physical loan
//	WHEN: ReturnLoan is received from a librarian or admin
//	THEN: the loan is closed and its copies are released
//	ERROR: role is not LIBRARIAN or ADMIN
//	ERROR: the loan is digital
//	IDEMPOTENCY: a RETURNED loan stays as it is
func Decide(record circulation.BorrowRecord, command Command) core.DecisionResult[[]uuid.UUID] {
	if err := core.RequireRole(command.Actor, core.StaffRoles...); err != nil {
		return core.ErrorDecision[[]uuid.UUID](err)
	}

	if len(record.Books) == 0 {
		return core.ErrorDecision[[]uuid.UUID](circulation.ErrNotPhysicalLoan)
	}

	if record.Status == circulation.LoanReturned {
		return core.IdempotentDecision[[]uuid.UUID]()
	}

	itemIDs := make([]uuid.UUID, 0, len(record.Books))
	for _, book := range record.Books {
		itemIDs = append(itemIDs, book.BookItemID)
	}

	return core.SuccessDecision(itemIDs)
}
