package cbs

// DisjointSet is a union-find over agent indices, used for meta-agent groups.
type DisjointSet struct {
	parent []int
	rank   []int
	size   []int
}

// NewDisjointSet creates n singleton sets.
func NewDisjointSet(n int) *DisjointSet {
	d := &DisjointSet{parent: make([]int, n), rank: make([]int, n), size: make([]int, n)}
	for i := range d.parent {
		d.parent[i] = i
		d.size[i] = 1
	}
	return d
}

// Clone returns an independent copy.
func (d *DisjointSet) Clone() *DisjointSet {
	return &DisjointSet{
		parent: append([]int(nil), d.parent...),
		rank:   append([]int(nil), d.rank...),
		size:   append([]int(nil), d.size...),
	}
}

func (d *DisjointSet) Len() int { return len(d.parent) }

// Find returns x's representative.
func (d *DisjointSet) Find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

// Union merges the sets of x and y and reports whether they were separate.
func (d *DisjointSet) Union(x, y int) bool {
	rx, ry := d.Find(x), d.Find(y)
	if rx == ry {
		return false
	}
	if d.rank[rx] < d.rank[ry] {
		rx, ry = ry, rx
	}
	d.parent[ry] = rx
	d.size[rx] += d.size[ry]
	if d.rank[rx] == d.rank[ry] {
		d.rank[rx]++
	}
	return true
}

// Same reports whether x and y are in one set.
func (d *DisjointSet) Same(x, y int) bool { return d.Find(x) == d.Find(y) }

// SizeOf returns the size of x's set.
func (d *DisjointSet) SizeOf(x int) int { return d.size[d.Find(x)] }

// Members lists x's set in ascending order.
func (d *DisjointSet) Members(x int) []int {
	r := d.Find(x)
	var out []int
	for i := range d.parent {
		if d.Find(i) == r {
			out = append(out, i)
		}
	}
	return out
}

// Canonical labels every element with the smallest member of its set, so equal
// partitions give equal labelings regardless of union order.
func (d *DisjointSet) Canonical() []int {
	minOf := make(map[int]int, len(d.parent))
	labels := make([]int, len(d.parent))
	for i := range d.parent {
		r := d.Find(i)
		if _, ok := minOf[r]; !ok {
			minOf[r] = i
		}
		labels[i] = minOf[r]
	}
	return labels
}

// MaxSize returns the size of the largest set.
func (d *DisjointSet) MaxSize() int {
	m := 0
	for i := range d.parent {
		if d.parent[i] == i && d.size[i] > m {
			m = d.size[i]
		}
	}
	return m
}
