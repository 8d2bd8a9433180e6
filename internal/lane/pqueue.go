// Package lane implements the task-lane dispatch core: bounded per-tenant
// priority queues layered under the Main, Cron, and Subagent lanes, and the
// Lane Manager that routes submissions to them.
package lane

import (
	"container/list"

	"github.com/tutu-network/tasklane/internal/domain"
)

// priorityQueue is a bounded, 11-level FIFO. Levels are indexed 0 (lowest)
// through domain.NumPriorityLevels-1 (highest). Dequeue scans high to low;
// within a level, FIFO order holds. The number of items queued at a level
// at one time is bounded by maxDepth: levelFull reports when a level has
// reached it, and the caller, holding the lane mutex, checks it before
// push — push itself does not enforce the bound.
type priorityQueue[T any] struct {
	levels   [domain.NumPriorityLevels]*list.List
	maxDepth int
}

func newPriorityQueue[T any](maxDepth int) *priorityQueue[T] {
	pq := &priorityQueue[T]{maxDepth: maxDepth}
	for i := range pq.levels {
		pq.levels[i] = list.New()
	}
	return pq
}

// levelSize returns the number of items currently queued at level p.
func (pq *priorityQueue[T]) levelSize(p int) int {
	return pq.levels[p].Len()
}

// levelFull reports whether level p is at capacity.
func (pq *priorityQueue[T]) levelFull(p int) bool {
	return pq.levels[p].Len() >= pq.maxDepth
}

// push appends item to level p. Caller must have already checked levelFull.
func (pq *priorityQueue[T]) push(p int, item T) {
	pq.levels[p].PushBack(item)
}

// popHighest removes and returns the head of the highest non-empty level,
// scanning from the top priority down. ok is false if every level is empty.
func (pq *priorityQueue[T]) popHighest() (item T, ok bool) {
	for p := domain.NumPriorityLevels - 1; p >= 0; p-- {
		l := pq.levels[p]
		if front := l.Front(); front != nil {
			l.Remove(front)
			return front.Value.(T), true
		}
	}
	return item, false
}

// size returns the total number of items queued across all levels.
func (pq *priorityQueue[T]) size() int {
	total := 0
	for _, l := range pq.levels {
		total += l.Len()
	}
	return total
}
