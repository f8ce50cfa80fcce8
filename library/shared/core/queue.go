package core

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// RankInQueue returns the 1-based position of requestID in an arrival-ordered queue.
// A request that is not in the queue is ranked as if it were appended: len(queue)+1.
func RankInQueue(queue circulation.Queue, requestID uuid.UUID) int {
	for i, entry := range queue {
		if entry.RequestID == requestID {
			return i + 1
		}
	}

	return len(queue) + 1
}

// QueuePositions returns the 1-based position of every request in the queue.
func QueuePositions(queue circulation.Queue) map[uuid.UUID]int {
	positions := make(map[uuid.UUID]int, len(queue))
	for i, entry := range queue {
		positions[entry.RequestID] = i + 1
	}

	return positions
}

// PositionChange describes a queued request whose position moved between two snapshots.
type PositionChange struct {
	Entry       circulation.QueueEntry
	OldPosition int
	NewPosition int
}

// DiffPositions compares two snapshots of the same book's queue and returns the
// requests that are in both and moved. Requests that left or joined are not reported.
func DiffPositions(before, after circulation.Queue) []PositionChange {
	old := QueuePositions(before)
	changes := make([]PositionChange, 0)

	for i, entry := range after {
		if oldPosition, ok := old[entry.RequestID]; ok && oldPosition != i+1 {
			changes = append(changes, PositionChange{Entry: entry, OldPosition: oldPosition, NewPosition: i + 1})
		}
	}

	return changes
}
