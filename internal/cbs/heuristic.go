package cbs

import (
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
	"github.com/elektrokombinacija/mapf-cbs/internal/mdd"
)

// Heuristic selects the admissible estimate added to a node's cost.
type Heuristic int

const (
	NoHeuristic Heuristic = iota
	MVCHeuristic          // Minimum vertex cover of the cardinal conflict graph
	ApproxMVCHeuristic    // Maximal matching of the cardinal conflict graph
	MDDPruningHeuristic   // 1 when the chosen conflict's MDDs cannot be synchronized
)

func (h Heuristic) String() string {
	return [...]string{"none", "mvc", "approx-mvc", "mdd-pruning"}[h]
}

// prepare picks the conflict n branches on and computes n.h. The full conflict list is
// dropped afterwards.
func (s *Solver) prepare(n *Node) {
	n.prepared = true
	n.h = 0
	defer func() { n.conflicts = nil }()
	if n.conflict == nil {
		return
	}

	cardinal := s.opts.ConflictChoice == ChooseCardinal ||
		s.opts.Heuristic == MVCHeuristic || s.opts.Heuristic == ApproxMVCHeuristic
	var kinds []Cardinality
	if cardinal {
		kinds = make([]Cardinality, len(n.conflicts))
		for i, c := range n.conflicts {
			kinds[i] = s.cardinality(n, c)
		}
	}

	if s.opts.ConflictChoice == ChooseCardinal {
		best := 0
		for i, k := range kinds {
			if k > kinds[best] {
				best = i
			}
			if k == Cardinal {
				break
			}
		}
		c := n.conflicts[best]
		n.conflict = &c
	}

	switch s.opts.Heuristic {
	case MVCHeuristic, ApproxMVCHeuristic:
		g := NewConflictGraph(len(n.plans))
		for i, c := range n.conflicts {
			if kinds[i] == Cardinal {
				g.Add(c.A, c.B)
			}
		}
		if s.opts.Heuristic == ApproxMVCHeuristic {
			n.h = g.MaximalMatching()
			break
		}
		prev := -1
		if n.parent >= 0 && n.replanSize == 1 {
			prev = n.parentMVC
		}
		n.mvc = g.MinimumVertexCover(prev)
		n.h = n.mvc
	case MDDPruningHeuristic:
		c := *n.conflict
		if n.groups.SizeOf(c.A) > 1 || n.groups.SizeOf(c.B) > 1 {
			break
		}
		cs := s.allConstraints(n)
		a := mdd.Build(s.req.Instance, s.agents[c.A], n.costs[c.A], n.plans[c.A].Len(), cs)
		b := mdd.Build(s.req.Instance, s.agents[c.B], n.costs[c.B], n.plans[c.B].Len(), cs)
		if mdd.Sync(a, b, s.opts.Config.AllowHeadOn) == mdd.Everything {
			n.h = 1
		}
	}

	if s.global != nil {
		s.global[n.conflict.A][n.conflict.B]++
	}
}

// cardinality classifies c by whether each side's MDD is narrow where the conflict
// happens. Only conflicts between single agents are considered.
func (s *Solver) cardinality(n *Node, c Conflict) Cardinality {
	if n.groups.SizeOf(c.A) > 1 || n.groups.SizeOf(c.B) > 1 {
		return NonCardinal
	}
	k := NonCardinal
	for _, a := range [2]int{c.A, c.B} {
		if s.forced(n, a, c) {
			k++
		}
	}
	return k
}

// forced reports whether every optimal path of agent a performs its side of c.
func (s *Solver) forced(n *Node, a int, c Conflict) bool {
	m := s.mddOf(n, a)
	if !m.Solvable() {
		return false
	}
	narrow := func(t int) bool { return t >= m.NumLevels() || m.Narrow(t) }
	if c.Vertex {
		return narrow(c.Time)
	}
	return narrow(c.Time) && narrow(c.Time-1)
}

// mddOf returns the cached MDD of local agent a at its current cost.
func (s *Solver) mddOf(n *Node, a int) *mdd.MDD {
	if m, ok := n.mdds[a]; ok {
		return m
	}
	m := mdd.Build(s.req.Instance, s.agents[a], n.costs[a], n.plans[a].Len(), s.allConstraints(n))
	n.mdds[a] = m
	return m
}

// allConstraints merges the caller's constraints with those along n's branch.
func (s *Solver) allConstraints(n *Node) *core.ConstraintSet {
	cs := s.req.Constraints.Clone()
	for _, c := range s.constraints(n) {
		c.ApplyTo(cs)
	}
	return cs
}
