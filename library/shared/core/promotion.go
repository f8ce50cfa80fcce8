package core

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// SelectPromotions returns the queue heads that can be approved with the current supply.
//
// The queue is served strictly in arrival order: it walks from the head and stops at the
// first request whose quantity does not fit, even if a later, smaller request would fit.
func SelectPromotions(queue circulation.Queue, supply Supply) circulation.Queue {
	promoted := make(circulation.Queue, 0)

	for _, entry := range queue {
		if !supply.Fits(entry.Quantity) {
			break
		}

		supply = supply.Reserve(entry.Quantity)
		promoted = append(promoted, entry)
	}

	return promoted
}
