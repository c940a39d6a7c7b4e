package cbs

// ConflictGraph is an undirected graph over agents with an edge for every pair that
// has a cardinal conflict.
type ConflictGraph struct {
	adj   [][]bool
	edges int
}

// NewConflictGraph creates a graph with n vertices and no edges.
func NewConflictGraph(n int) *ConflictGraph {
	g := &ConflictGraph{adj: make([][]bool, n)}
	for i := range g.adj {
		g.adj[i] = make([]bool, n)
	}
	return g
}

func (g *ConflictGraph) clone() *ConflictGraph {
	c := &ConflictGraph{adj: make([][]bool, len(g.adj)), edges: g.edges}
	for i := range g.adj {
		c.adj[i] = append([]bool(nil), g.adj[i]...)
	}
	return c
}

// Add inserts the edge a-b. Self loops and duplicates are ignored.
func (g *ConflictGraph) Add(a, b int) {
	if a == b || g.adj[a][b] {
		return
	}
	g.adj[a][b] = true
	g.adj[b][a] = true
	g.edges++
}

func (g *ConflictGraph) Edges() int { return g.edges }

// activeVertices counts vertices with at least one edge.
func (g *ConflictGraph) activeVertices() int {
	n := 0
	for i := range g.adj {
		for _, e := range g.adj[i] {
			if e {
				n++
				break
			}
		}
	}
	return n
}

// MinimumVertexCover returns the exact cover size. When prev is the cover size of a
// graph that differs from this one by the edges of a single vertex, only prev-1, prev
// and prev+1 are tried; pass a negative prev otherwise.
func (g *ConflictGraph) MinimumVertexCover(prev int) int {
	if g.edges < 2 {
		return g.edges
	}
	if prev < 0 {
		n := g.activeVertices()
		for k := 1; k < n; k++ {
			if g.kVertexCover(k, n, 0) {
				return k
			}
		}
		return n
	}
	n := g.activeVertices()
	if prev-1 >= 0 && g.kVertexCover(prev-1, n, 0) {
		return prev - 1
	}
	if g.kVertexCover(prev, n, 0) {
		return prev
	}
	return prev + 1
}

// kVertexCover reports whether k vertices can cover every edge. Branches on the two
// endpoints of the first uncovered edge at or after row from.
func (g *ConflictGraph) kVertexCover(k, vertices, from int) bool {
	if g.edges == 0 {
		return true
	}
	if k <= 0 || g.edges > k*(vertices-1) {
		return false
	}
	a, b := -1, -1
	for i := from; i < len(g.adj)-1 && a < 0; i++ {
		for j := i + 1; j < len(g.adj); j++ {
			if g.adj[i][j] {
				a, b = i, j
				break
			}
		}
	}
	if a < 0 {
		return true
	}
	for _, v := range [2]int{a, b} {
		c := g.clone()
		for j := range c.adj[v] {
			if c.adj[v][j] {
				c.adj[v][j] = false
				c.adj[j][v] = false
				c.edges--
			}
		}
		if c.kVertexCover(k-1, vertices-1, a) {
			return true
		}
	}
	return false
}

// MaximalMatching returns the size of a greedy maximal matching, a lower bound on the
// minimum vertex cover.
func (g *ConflictGraph) MaximalMatching() int {
	matched := make([]bool, len(g.adj))
	n := 0
	for i := range g.adj {
		if matched[i] {
			continue
		}
		for j := i + 1; j < len(g.adj); j++ {
			if g.adj[i][j] && !matched[j] {
				matched[i], matched[j] = true, true
				n++
				break
			}
		}
	}
	return n
}

// ApproximateMinimumVertexCover returns the size of the greedy 2-approximate cover:
// both endpoints of a maximal matching.
func (g *ConflictGraph) ApproximateMinimumVertexCover() int {
	return 2 * g.MaximalMatching()
}
