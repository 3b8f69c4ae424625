// Package ledger computes how long a task has spent in the in_work state
// from its status log. It is a pure function over an explicitly passed,
// pre-sorted sequence so it can be tested without a data store.
package ledger

import (
	"time"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
)

// TimeInWork returns the cumulative hours the task spent in_work.
//
// entries must belong to a single task and be sorted by timestamp ascending;
// unsorted input is a precondition violation. Each entry whose NewStatus is
// in_work opens an interval that closes at the next chronological entry of
// any status, or at now if it is the last entry. A task never in_work
// yields 0.
func TimeInWork(entries []domain.StatusLogEntry, now time.Time) float64 {
	var total time.Duration
	for i, e := range entries {
		if e.NewStatus != domain.StatusInWork {
			continue
		}
		end := now
		if i+1 < len(entries) {
			end = entries[i+1].Timestamp
		}
		if end.After(e.Timestamp) {
			total += end.Sub(e.Timestamp)
		}
	}
	return total.Hours()
}
