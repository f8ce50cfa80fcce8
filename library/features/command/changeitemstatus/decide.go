package changeitemstatus

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// Change is the accepted outcome of Decide.
type Change struct {
	From circulation.BookItemStatus
	To   circulation.BookItemStatus
}

// LeavesSupply reports whether the copy stops counting as available.
func (c Change) LeavesSupply() bool {
	return c.From == circulation.BookItemAvailable && c.To != circulation.BookItemAvailable
}

// JoinsSupply reports whether the copy starts counting as available.
func (c Change) JoinsSupply() bool {
	return c.From != circulation.BookItemAvailable && c.To == circulation.BookItemAvailable
}

var settableStatuses = map[circulation.BookItemStatus]struct{}{
	circulation.BookItemAvailable:   {},
	circulation.BookItemMaintenance: {},
	circulation.BookItemRetired:     {},
	circulation.BookItemLost:        {},
	circulation.BookItemReserved:    {},
}

// Decide determines whether a copy may change its status.
//
// Business Rules:
//
//	GIVEN: a copy that is not on loan
//	WHEN: ChangeItemStatus is received from a librarian or admin
//	THEN: the copy moves to the target status
//	ERROR: role is not LIBRARIAN or ADMIN
//	ERROR: target is ON_BORROW or unknown
//	ERROR: the copy is ON_BORROW
//	ERROR: the copy is AVAILABLE and the approved requests need it
//	IDEMPOTENCY: the copy already has the target status
func Decide(item circulation.BookItem, supply core.Supply, command Command) core.DecisionResult[Change] {
	if err := core.RequireRole(command.Actor, core.StaffRoles...); err != nil {
		return core.ErrorDecision[Change](err)
	}

	if _, ok := settableStatuses[command.Status]; !ok {
		return core.ErrorDecision[Change](circulation.ErrInvalidItemStatus)
	}

	if item.Status == command.Status {
		return core.IdempotentDecision[Change]()
	}

	if item.Status == circulation.BookItemOnBorrow {
		return core.ErrorDecision[Change](circulation.ErrItemStatusConflict)
	}

	change := Change{From: item.Status, To: command.Status}

	if change.LeavesSupply() {
		after := core.Supply{BookID: supply.BookID, Available: supply.Available - 1, Reserved: supply.Reserved}
		if err := core.CheckSupplyInvariant(after); err != nil {
			return core.ErrorDecision[Change](err)
		}
	}

	return core.SuccessDecision(change)
}
