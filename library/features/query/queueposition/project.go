package queueposition

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// Project ranks the request in its book's current queue.
func Project(request circulation.BorrowRequest, queue circulation.Queue) QueuePosition {
	result := QueuePosition{
		RequestID:   request.ID,
		BookID:      request.BookID(),
		Status:      request.Status,
		QueueLength: len(queue),
	}

	if request.Status != circulation.RequestPending {
		return result
	}

	position := core.RankInQueue(queue, request.ID)
	result.Position = &position

	return result
}
