package addbook

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// Decide determines whether the title can be added.
//
// Business Rules:
//
//	GIVEN: a book ID that is not in the catalog
//	WHEN: AddBook is received from a librarian or admin
//	THEN: the book and its AVAILABLE copies are created
//	ERROR: role is not LIBRARIAN or ADMIN, empty title, negative number of copies
//	IDEMPOTENCY: the book already exists
func Decide(bookExists bool, command Command) core.DecisionResult[circulation.Book] {
	if err := core.RequireRole(command.Actor, core.StaffRoles...); err != nil {
		return core.ErrorDecision[circulation.Book](err)
	}

	if bookExists {
		return core.IdempotentDecision[circulation.Book]()
	}

	if command.Title == "" {
		return core.ErrorDecision[circulation.Book](circulation.ErrEmptyTitle)
	}

	if command.Copies < 0 {
		return core.ErrorDecision[circulation.Book](circulation.ErrNegativeCopies)
	}

	return core.SuccessDecision(circulation.Book{
		ID:       command.BookID,
		Title:    command.Title,
		HasEbook: command.HasEbook,
	})
}
