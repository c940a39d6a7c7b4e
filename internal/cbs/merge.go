package cbs

// MergePolicy selects how conflicts between two groups are counted.
type MergePolicy int

const (
	MergeLocal  MergePolicy = iota // Conflicts along the node's branch
	MergeGlobal                    // Conflicts anywhere in the constraint tree
)

func (p MergePolicy) String() string {
	return [...]string{"Local", "Global"}[p]
}

// shouldMerge reports whether the groups of c's agents conflicted more often than the
// merge threshold allows.
func (s *Solver) shouldMerge(n *Node, c Conflict) bool {
	if s.opts.MergeThreshold < 0 {
		return false
	}
	return s.conflictCount(n, c.A, c.B) > s.opts.MergeThreshold
}

func (s *Solver) conflictCount(n *Node, a, b int) int {
	if s.global != nil {
		count := 0
		for _, i := range n.groups.Members(a) {
			for _, j := range n.groups.Members(b) {
				count += s.global[i][j] + s.global[j][i]
			}
		}
		return count
	}

	count := 1
	for p := n.parent; p >= 0; p = s.arena[p].parent {
		pc := s.arena[p].conflict
		if pc == nil {
			continue
		}
		if (n.groups.Same(pc.A, a) && n.groups.Same(pc.B, b)) ||
			(n.groups.Same(pc.A, b) && n.groups.Same(pc.B, a)) {
			count++
		}
	}
	return count
}

// merge joins the groups of c's agents and replans them together in place. The node
// goes back to the open list as if it were new, unless an identical node was already
// generated.
func (s *Solver) merge(n *Node, c Conflict) {
	delete(s.closed, closedKey(n, s.constraints(n)))
	n.groups.Union(c.A, c.B)
	key := closedKey(n, s.constraints(n))
	if _, ok := s.closed[key]; ok {
		s.closedHits++
		return
	}
	s.closed[key] = struct{}{}
	s.merges++

	n.expansion = [2]ExpansionState{NotExpanded, NotExpanded}
	n.prepared = false
	n.mvc = -1
	if !s.replan(n, c.A) {
		return
	}
	n.totalCost = n.PlanCost(s.opts.Config.CostFunction)
	n.h = 0
	s.findConflicts(n)
	if size := n.groups.SizeOf(c.A); size > s.maxGroupSize {
		s.maxGroupSize = size
	}
	group := s.instanceAgents(n.groups.Members(c.A))
	s.logf("node %d: merged agents %v, cost=%d", n.id, group, n.totalCost)
	if s.opts.Observer != nil {
		s.opts.Observer.OnMerge(s.info(n), group)
	}
	if s.req.MaxCost >= 0 && n.totalCost > s.req.MaxCost {
		return
	}
	s.open.Add(n)
}
