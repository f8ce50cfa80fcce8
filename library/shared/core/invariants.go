package core

import (
	"fmt"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// CheckSupplyInvariant verifies that promised copies never exceed available copies.
func CheckSupplyInvariant(supply Supply) error {
	if supply.Reserved > supply.Available {
		return fmt.Errorf(
			"%w (book %s: reserved %d, available %d)",
			circulation.ErrSupplyOversold, supply.BookID, supply.Reserved, supply.Available,
		)
	}

	return nil
}

// CheckNoActiveRequest verifies the precondition for creating a request:
// the user has no PENDING or APPROVED request for the book yet.
func CheckNoActiveRequest(activeCount int) error {
	if activeCount > 0 {
		return circulation.ErrActiveRequestExists
	}

	return nil
}
