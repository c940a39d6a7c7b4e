package openlist

import "github.com/elektrokombinacija/mapf-cbs/internal/stats"

// OpenList is a BinaryHeap with a FIFO fast path for runs of equally ranked items.
// Every queued item ranks equal to the others and strictly better than everything in the heap.
type OpenList[T Item] struct {
	heap  *BinaryHeap[T]
	queue []T
	less  func(a, b T) bool

	quickInserted int64
	quickRemoved  int64
}

// New creates an empty open list.
func New[T Item](less func(a, b T) bool) *OpenList[T] {
	return &OpenList[T]{heap: NewBinaryHeap(less), less: less}
}

func (o *OpenList[T]) Len() int { return o.heap.Len() + len(o.queue) }

// Add inserts it. Items better than the heap's minimum bypass the heap.
func (o *OpenList[T]) Add(it T) {
	if len(o.queue) == 0 {
		if top, ok := o.heap.Peek(); !ok || o.less(it, top) {
			o.enqueue(it)
			return
		}
		o.heap.Add(it)
		return
	}

	front := o.queue[0]
	switch {
	case o.less(front, it):
		o.heap.Add(it)
	case o.less(it, front):
		for _, q := range o.queue {
			o.heap.Add(q)
		}
		o.queue = o.queue[:0]
		o.enqueue(it)
	default:
		o.enqueue(it)
	}
}

func (o *OpenList[T]) enqueue(it T) {
	it.SetIndex(InQueue)
	o.queue = append(o.queue, it)
	o.quickInserted++
}

// Peek returns the best item without removing it.
func (o *OpenList[T]) Peek() (T, bool) {
	if len(o.queue) > 0 {
		return o.queue[0], true
	}
	return o.heap.Peek()
}

// RemoveMin pops the best item. It panics when empty.
func (o *OpenList[T]) RemoveMin() T {
	if len(o.queue) > 0 {
		it := o.queue[0]
		var zero T
		o.queue[0] = zero
		o.queue = o.queue[1:]
		it.SetIndex(NotQueued)
		o.quickRemoved++
		return it
	}
	return o.heap.RemoveMin()
}

// Contains reports whether it is stored in the list.
func (o *OpenList[T]) Contains(it T) bool {
	if it.Index() == InQueue {
		for _, q := range o.queue {
			if q == it {
				return true
			}
		}
		return false
	}
	return o.heap.Contains(it)
}

// Remove deletes it from the list.
func (o *OpenList[T]) Remove(it T) bool {
	if it.Index() != InQueue {
		return o.heap.Remove(it)
	}
	for i, q := range o.queue {
		if q == it {
			o.queue = append(o.queue[:i], o.queue[i+1:]...)
			it.SetIndex(NotQueued)
			return true
		}
	}
	return false
}

// Items returns every stored item in no particular order.
func (o *OpenList[T]) Items() []T {
	return append(o.heap.Items(), o.queue...)
}

// Clear empties the list and keeps the counters.
func (o *OpenList[T]) Clear() {
	o.heap.Clear()
	for _, q := range o.queue {
		q.SetIndex(NotQueued)
	}
	o.queue = nil
}

// QuickInserted returns how many insertions took the fast path.
func (o *OpenList[T]) QuickInserted() int64 { return o.quickInserted }

// QuickRemoved returns how many removals were served by the fast path.
func (o *OpenList[T]) QuickRemoved() int64 { return o.quickRemoved }

func (o *OpenList[T]) OutputStatistics(sink stats.Sink) {
	sink.Counter("open_quick_inserted", o.quickInserted)
	sink.Counter("open_quick_removed", o.quickRemoved)
}
