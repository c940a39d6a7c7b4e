package mdd

import "github.com/elektrokombinacija/mapf-cbs/internal/core"

// PruningDone reports how much Sync removed.
type PruningDone int

const (
	Nothing PruningDone = iota
	Some
	Everything // The two agents cannot both keep their costs
)

func (p PruningDone) String() string {
	return [...]string{"Nothing", "Some", "Everything"}[p]
}

type pair struct {
	a, b *Node
}

// successors returns n's children at level i+1, treating the terminal node as waiting.
func (m *MDD) successors(n *Node, i int) []*Node {
	if i+1 < len(m.Levels) {
		return n.Children
	}
	return []*Node{n}
}

// Sync prunes both diagrams to the nodes that appear on some pair of mutually
// collision-free paths. It reports Everything and empties both diagrams when no
// such pair of paths exists.
func Sync(a, b *MDD, allowHeadOn bool) PruningDone {
	if a.Levels == nil || b.Levels == nil {
		return Everything
	}
	last := len(a.Levels) - 1
	if len(b.Levels)-1 > last {
		last = len(b.Levels) - 1
	}

	// Forward pass over joint (a, b) node pairs.
	layers := make([]map[pair][]pair, last+1)
	layers[0] = map[pair][]pair{{a.Levels[0][0], b.Levels[0][0]}: nil}
	for i := 0; i < last; i++ {
		layers[i+1] = make(map[pair][]pair)
		for p := range layers[i] {
			for _, ca := range a.successors(p.a, i) {
				for _, cb := range b.successors(p.b, i) {
					if collides(p.a.Cell(), ca.Cell(), p.b.Cell(), cb.Cell(), allowHeadOn) {
						continue
					}
					child := pair{ca, cb}
					layers[i][p] = append(layers[i][p], child)
					if _, ok := layers[i+1][child]; !ok {
						layers[i+1][child] = nil
					}
				}
			}
		}
	}

	// Backward pass: keep pairs that reach the last layer.
	alive := make([]map[pair]bool, last+1)
	alive[last] = make(map[pair]bool, len(layers[last]))
	for p := range layers[last] {
		alive[last][p] = true
	}
	for i := last - 1; i >= 0; i-- {
		alive[i] = make(map[pair]bool)
		for p, children := range layers[i] {
			for _, c := range children {
				if alive[i+1][c] {
					alive[i][p] = true
					break
				}
			}
		}
	}

	if len(alive[0]) == 0 {
		a.Levels, a.index = nil, nil
		b.Levels, b.index = nil, nil
		return Everything
	}

	keepA := make([]map[*Node]bool, last+1)
	keepB := make([]map[*Node]bool, last+1)
	for i := range alive {
		keepA[i] = make(map[*Node]bool)
		keepB[i] = make(map[*Node]bool)
		for p := range alive[i] {
			keepA[i][p.a] = true
			keepB[i][p.b] = true
		}
	}

	removed := a.pruneExcept(keepA) + b.pruneExcept(keepB)
	if a.Levels == nil || b.Levels == nil {
		return Everything
	}
	if removed > 0 {
		return Some
	}
	return Nothing
}

func (m *MDD) pruneExcept(keep []map[*Node]bool) int {
	var doomed []*Node
	for i, lvl := range m.Levels {
		for _, n := range lvl {
			if !keep[i][n] {
				doomed = append(doomed, n)
			}
		}
	}
	for _, n := range doomed {
		m.delete(n)
	}
	if len(doomed) > 0 {
		m.compact()
	}
	return len(doomed)
}

func collides(fromA, toA, fromB, toB core.Cell, allowHeadOn bool) bool {
	if toA == toB {
		return true
	}
	return !allowHeadOn && toA == fromB && toB == fromA
}
