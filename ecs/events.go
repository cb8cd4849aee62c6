package ecs

// Queue is a simple FIFO queue.
type Queue[T any] struct {
	items []T
}

// Push adds an item.
func (q *Queue[T]) Push(v T) {
	if q == nil {
		return
	}
	q.items = append(q.items, v)
}

// Drain returns all items and clears the queue.
func (q *Queue[T]) Drain() []T {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *Queue[T]) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Run drains the queue into fn until it stays empty, so items pushed while
// running are handled in the same call.
func Run(q *Queue[func()]) int {
	n := 0
	for q.Len() > 0 {
		for _, fn := range q.Drain() {
			fn()
			n++
		}
	}
	return n
}
