package match

// Queue is the FIFO of connection handles waiting for an opponent.
// A handle appears at most once; insertion order is matching priority.
// Callers serialize access.
type Queue struct {
	handles []string
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends handle to the back of the queue, first dropping any
// stale occurrence so repeated find_match requests cannot duplicate it.
func (q *Queue) Enqueue(handle string) {
	q.Remove(handle)
	q.handles = append(q.handles, handle)
}

// DequeueFront pops the earliest-enqueued handle. Non-blocking.
func (q *Queue) DequeueFront() (string, bool) {
	if len(q.handles) == 0 {
		return "", false
	}
	front := q.handles[0]
	q.handles = q.handles[1:]
	return front, true
}

// Remove drops all occurrences of handle. Absent handles are a no-op.
func (q *Queue) Remove(handle string) {
	kept := q.handles[:0]
	for _, h := range q.handles {
		if h != handle {
			kept = append(kept, h)
		}
	}
	q.handles = kept
}

func (q *Queue) Len() int {
	return len(q.handles)
}

// Snapshot copies the current queue contents, front first.
func (q *Queue) Snapshot() []string {
	out := make([]string, len(q.handles))
	copy(out, q.handles)
	return out
}
