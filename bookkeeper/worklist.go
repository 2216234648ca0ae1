package bookkeeper

import "github.com/speakeasy-api/annotator"

// ReflowQueue collects positions whose earlier answers may be stale. The
// driver owns the fixpoint loop and drains the queue; the engine only
// appends to it. A position already waiting is not queued twice.
type ReflowQueue struct {
	pending []annotator.Position
	queued  map[annotator.Position]bool
	total   int // Positions ever accepted
}

// NewReflowQueue creates an empty queue.
func NewReflowQueue() *ReflowQueue {
	return &ReflowQueue{
		pending: make([]annotator.Position, 0, 32),
		queued:  make(map[annotator.Position]bool),
	}
}

// Push adds pos unless it is already waiting. It reports whether pos was
// added.
func (q *ReflowQueue) Push(pos annotator.Position) bool {
	if q.queued[pos] {
		return false
	}
	q.queued[pos] = true
	q.pending = append(q.pending, pos)
	q.total++
	return true
}

// Pop removes and returns the oldest waiting position (FIFO).
func (q *ReflowQueue) Pop() (annotator.Position, bool) {
	if len(q.pending) == 0 {
		return annotator.NoPosition, false
	}
	pos := q.pending[0]
	q.pending = q.pending[1:]
	delete(q.queued, pos)
	return pos, true
}

// Drain removes and returns every waiting position in arrival order.
func (q *ReflowQueue) Drain() []annotator.Position {
	out := q.pending
	q.pending = make([]annotator.Position, 0, 32)
	clear(q.queued)
	return out
}

// Len returns the number of waiting positions.
func (q *ReflowQueue) Len() int {
	return len(q.pending)
}

// IsEmpty reports whether nothing is waiting.
func (q *ReflowQueue) IsEmpty() bool {
	return len(q.pending) == 0
}

// Total returns how many positions were ever accepted.
func (q *ReflowQueue) Total() int {
	return q.total
}
