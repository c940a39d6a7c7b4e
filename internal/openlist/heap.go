// Package openlist provides the priority queues used by the best-first searches.
package openlist

import "container/heap"

// Index values for items outside the heap.
const (
	NotQueued = -1
	InQueue   = -2 // Held by an OpenList's fast-path queue
)

// Item is an element that records its own position so it can be removed or fixed in O(log n).
type Item interface {
	comparable
	Index() int
	SetIndex(int)
}

// heapSlice implements heap.Interface.
type heapSlice[T Item] struct {
	items []T
	less  func(a, b T) bool
}

func (h *heapSlice[T]) Len() int           { return len(h.items) }
func (h *heapSlice[T]) Less(i, j int) bool { return h.less(h.items[i], h.items[j]) }
func (h *heapSlice[T]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].SetIndex(i)
	h.items[j].SetIndex(j)
}
func (h *heapSlice[T]) Push(x any) {
	it := x.(T)
	it.SetIndex(len(h.items))
	h.items = append(h.items, it)
}
func (h *heapSlice[T]) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	var zero T
	old[n-1] = zero
	h.items = old[0 : n-1]
	it.SetIndex(NotQueued)
	return it
}

// BinaryHeap is a min-heap ordered by less.
type BinaryHeap[T Item] struct {
	h heapSlice[T]
}

// NewBinaryHeap creates an empty heap.
func NewBinaryHeap[T Item](less func(a, b T) bool) *BinaryHeap[T] {
	return &BinaryHeap[T]{h: heapSlice[T]{less: less}}
}

func (b *BinaryHeap[T]) Len() int { return b.h.Len() }

// Add inserts an item.
func (b *BinaryHeap[T]) Add(it T) { heap.Push(&b.h, it) }

// Peek returns the minimum without removing it.
func (b *BinaryHeap[T]) Peek() (T, bool) {
	if b.h.Len() == 0 {
		var zero T
		return zero, false
	}
	return b.h.items[0], true
}

// RemoveMin pops the minimum. It panics on an empty heap.
func (b *BinaryHeap[T]) RemoveMin() T {
	if b.h.Len() == 0 {
		panic("openlist: RemoveMin on empty heap")
	}
	return heap.Pop(&b.h).(T)
}

// Contains reports whether it is currently stored in the heap.
func (b *BinaryHeap[T]) Contains(it T) bool {
	i := it.Index()
	return i >= 0 && i < b.h.Len() && b.h.items[i] == it
}

// Remove deletes it from the heap, returning false if it was not there.
func (b *BinaryHeap[T]) Remove(it T) bool {
	if !b.Contains(it) {
		return false
	}
	heap.Remove(&b.h, it.Index())
	return true
}

// Fix restores heap order after its priority changed.
func (b *BinaryHeap[T]) Fix(it T) {
	if b.Contains(it) {
		heap.Fix(&b.h, it.Index())
	}
}

// Items returns the stored items in heap order (not sorted).
func (b *BinaryHeap[T]) Items() []T {
	return append([]T(nil), b.h.items...)
}

// Clear empties the heap.
func (b *BinaryHeap[T]) Clear() {
	for _, it := range b.h.items {
		it.SetIndex(NotQueued)
	}
	b.h.items = nil
}
