package reservations

import (
	"sort"

	"github.com/google/uuid"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
)

// byQueueOrder sorts pending holds into FIFO order. Priority is the stored
// order; request date then ID break ties so a corrupted priority column
// still yields a stable queue.
func byQueueOrder(pending []models.Reservation) {
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority < pending[j].Priority
		}
		if !pending[i].RequestDate.Equal(pending[j].RequestDate) {
			return pending[i].RequestDate.Before(pending[j].RequestDate)
		}
		return pending[i].ID.String() < pending[j].ID.String()
	})
}

// nextPriority returns the 1-based slot a new hold takes at the back of the
// queue.
func nextPriority(pending []models.Reservation) int {
	return len(pending) + 1
}

// without returns the queue minus the given reservation, order preserved.
func without(pending []models.Reservation, id uuid.UUID) []models.Reservation {
	remaining := make([]models.Reservation, 0, len(pending))
	for _, r := range pending {
		if r.ID != id {
			remaining = append(remaining, r)
		}
	}
	return remaining
}

// resequence reassigns contiguous 1-based priorities in slice order and
// returns only the records whose priority actually changed.
func resequence(pending []models.Reservation) []models.Reservation {
	var changed []models.Reservation
	for i := range pending {
		want := i + 1
		if pending[i].Priority != want {
			pending[i].Priority = want
			changed = append(changed, pending[i])
		}
	}
	return changed
}
