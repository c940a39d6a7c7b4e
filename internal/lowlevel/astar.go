package lowlevel

import "github.com/elektrokombinacija/mapf-cbs/internal/core"

// ClassicAStar searches the joint space of a group, generating the full cross product of
// the agents' moves on every expansion.
type ClassicAStar struct {
	search
}

// NewClassicAStar creates a joint A* solver.
func NewClassicAStar(cfg Config) *ClassicAStar {
	a := &ClassicAStar{search: newSearch(cfg)}
	a.expand = a.expandFull
	return a
}

func (a *ClassicAStar) Name() string { return "A*" }

// expandFull generates every collision-free combination of single-agent moves.
func (a *ClassicAStar) expandFull(parent *worldState) {
	n := len(parent.agents)
	options := make([][]core.AgentState, n)
	for i, ag := range parent.agents {
		options[i] = a.agentMoves(ag)
		if len(options[i]) == 0 {
			return
		}
	}

	chosen := make([]core.AgentState, 0, n)
	var rec func(i, external, internal int)
	rec = func(i, external, internal int) {
		if i == n {
			agents := append([]core.AgentState(nil), chosen...)
			if child := a.generate(parent, agents, parent.makespan+1, 0, external, internal); child != nil {
				a.open.Add(child)
			}
			return
		}
		for _, next := range options[i] {
			if a.collidesWithAny(next.Last.Move, chosen) {
				continue
			}
			e, in := a.stepConflicts(next.Last)
			chosen = append(chosen, next)
			rec(i+1, external+e, internal+in)
			chosen = chosen[:i]
		}
	}
	rec(0, 0, 0)
}
