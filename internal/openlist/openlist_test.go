package openlist

import (
	"math/rand"
	"sort"
	"testing"
)

type item struct {
	key, seq int
	index    int
}

func (i *item) Index() int     { return i.index }
func (i *item) SetIndex(n int) { i.index = n }

func byKey(a, b *item) bool { return a.key < b.key }

func TestBinaryHeapOrder(t *testing.T) {
	h := NewBinaryHeap(byKey)
	rng := rand.New(rand.NewSource(1))
	var keys []int
	for i := 0; i < 200; i++ {
		k := rng.Intn(50)
		keys = append(keys, k)
		h.Add(&item{key: k})
	}
	sort.Ints(keys)

	for i, want := range keys {
		got := h.RemoveMin()
		if got.key != want {
			t.Fatalf("pop %d: key %d, want %d", i, got.key, want)
		}
		if got.Index() != NotQueued {
			t.Fatalf("popped item still has index %d", got.Index())
		}
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d after draining", h.Len())
	}
}

func TestBinaryHeapRemove(t *testing.T) {
	h := NewBinaryHeap(byKey)
	items := make([]*item, 10)
	for i := range items {
		items[i] = &item{key: 10 - i}
		h.Add(items[i])
	}

	if !h.Remove(items[9]) {
		t.Fatal("Remove returned false for stored item")
	}
	if h.Remove(items[9]) {
		t.Error("second Remove of the same item succeeded")
	}
	if got := h.RemoveMin(); got.key != 2 {
		t.Errorf("min after removal = %d, want 2", got.key)
	}

	items[0].key = -1
	h.Fix(items[0])
	if got, _ := h.Peek(); got != items[0] {
		t.Errorf("Fix did not move updated item to the top")
	}
}

func TestOpenListQuickInsert(t *testing.T) {
	o := New(byKey)

	// Empty list: the first item takes the fast path.
	o.Add(&item{key: 5, seq: 0})
	// Equal keys join the queue in FIFO order.
	o.Add(&item{key: 5, seq: 1})
	o.Add(&item{key: 5, seq: 2})
	// Worse items go to the heap.
	o.Add(&item{key: 7, seq: 3})

	if o.QuickInserted() != 3 {
		t.Errorf("QuickInserted() = %d, want 3", o.QuickInserted())
	}

	// A better item flushes the queue into the heap.
	o.Add(&item{key: 4, seq: 4})

	var got []int
	for o.Len() > 0 {
		got = append(got, o.RemoveMin().seq)
	}

	if got[0] != 4 || got[len(got)-1] != 3 {
		t.Errorf("pop order = %v, want 4 first and 3 last", got)
	}
	if o.QuickRemoved() == 0 {
		t.Error("expected fast-path removals")
	}
}

func TestOpenListMatchesHeapOrder(t *testing.T) {
	o := New(byKey)
	rng := rand.New(rand.NewSource(7))
	var keys []int

	for round := 0; round < 500; round++ {
		if rng.Intn(3) > 0 || o.Len() == 0 {
			k := rng.Intn(10)
			keys = append(keys, k)
			o.Add(&item{key: k})
			continue
		}
		sort.Ints(keys)
		got := o.RemoveMin()
		if got.key != keys[0] {
			t.Fatalf("round %d: popped %d, want %d", round, got.key, keys[0])
		}
		keys = keys[1:]
	}
}

func TestOpenListRemove(t *testing.T) {
	o := New(byKey)
	a := &item{key: 1}
	b := &item{key: 1}
	c := &item{key: 3}
	o.Add(a)
	o.Add(b)
	o.Add(c)

	if a.Index() != InQueue || !o.Contains(a) {
		t.Fatal("expected a in the fast-path queue")
	}
	if !o.Remove(a) || o.Contains(a) {
		t.Error("failed to remove queued item")
	}
	if !o.Remove(c) || o.Len() != 1 {
		t.Errorf("failed to remove heap item, Len() = %d", o.Len())
	}
	if got := o.RemoveMin(); got != b {
		t.Error("wrong remaining item")
	}
}
