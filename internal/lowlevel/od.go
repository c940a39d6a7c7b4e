package lowlevel

import "github.com/elektrokombinacija/mapf-cbs/internal/core"

// ODAStar is A* with operator decomposition: each expansion moves a single agent, so a
// timestep of n agents spans n levels of partial states.
type ODAStar struct {
	search
}

// NewODAStar creates an operator decomposition solver.
func NewODAStar(cfg Config) *ODAStar {
	o := &ODAStar{search: newSearch(cfg)}
	o.expand = func(s *worldState) { o.expandOD(s, 1) }
	return o
}

func (o *ODAStar) Name() string { return "A*+OD" }

// expandOD moves the agent whose turn it is. Partial children that rank the same as
// their parent would be popped next anyway, so they are expanded right away.
func (o *ODAStar) expandOD(parent *worldState, depth int) {
	n := len(parent.agents)
	i := parent.turn
	moved := parent.agents[:i]

	for _, next := range o.agentMoves(parent.agents[i]) {
		if o.collidesWithAny(next.Last.Move, moved) {
			continue
		}
		agents := append([]core.AgentState(nil), parent.agents...)
		agents[i] = next

		turn, makespan := i+1, parent.makespan
		if turn == n {
			turn, makespan = 0, parent.makespan+1
		}
		e, in := o.stepConflicts(next.Last)
		child := o.generate(parent, agents, makespan, turn, e, in)
		if child == nil {
			continue
		}
		if turn != 0 && depth < n && sameRank(child, parent) {
			child.popped = true
			o.expanded++
			o.expandOD(child, depth+1)
			continue
		}
		o.open.Add(child)
	}
}
