// Package cat implements the conflict avoidance table: a record of where other agents'
// plans put them, used to break ties in favor of paths that conflict less.
package cat

import (
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

type occupant struct {
	agent int
	dir   core.Direction
}

type goalWait struct {
	from  int // First timestep after the plan ends
	agent int
}

// Table maps timed cells to the agents occupying them. Agents that finished their plan
// occupy their goal for every later timestep.
type Table struct {
	moves map[core.TimedCell][]occupant
	goals map[core.Cell][]goalWait
}

// New creates an empty table.
func New() *Table {
	return &Table{
		moves: make(map[core.TimedCell][]occupant),
		goals: make(map[core.Cell][]goalWait),
	}
}

// Add records every move of plan under agent.
func (t *Table) Add(plan *core.SinglePlan, agent int) {
	for _, m := range plan.Moves {
		k := m.Key()
		t.moves[k] = append(t.moves[k], occupant{agent: agent, dir: m.Dir})
	}
	goal := plan.Goal()
	t.goals[goal] = append(t.goals[goal], goalWait{from: plan.Len(), agent: agent})
}

// Remove deletes the entries Add created for plan and agent.
func (t *Table) Remove(plan *core.SinglePlan, agent int) {
	for _, m := range plan.Moves {
		k := m.Key()
		occ := t.moves[k]
		for i, o := range occ {
			if o.agent == agent {
				occ = append(occ[:i], occ[i+1:]...)
				break
			}
		}
		if len(occ) == 0 {
			delete(t.moves, k)
		} else {
			t.moves[k] = occ
		}
	}
	goal := plan.Goal()
	waits := t.goals[goal]
	for i, w := range waits {
		if w.agent == agent {
			waits = append(waits[:i], waits[i+1:]...)
			break
		}
	}
	if len(waits) == 0 {
		delete(t.goals, goal)
	} else {
		t.goals[goal] = waits
	}
}

// AddPlan records every plan of p; agents[i] is the id of p[i].
func (t *Table) AddPlan(p core.Plan, agents []int) {
	for i, sp := range p {
		t.Add(sp, agents[i])
	}
}

// Count returns how many recorded agents collide with m: agents in the same cell at the
// same time, agents performing the opposite move, and agents resting at their goal.
// It counts nothing for a nil table.
func (t *Table) Count(m core.TimedMove) int {
	if t == nil {
		return 0
	}
	n := len(t.moves[m.Key()])
	if m.Dir != core.Wait && m.Dir != core.NoDirection {
		src := core.TimedCell{Cell: m.Source(), Time: m.Time}
		opp := m.Dir.Opposite()
		for _, o := range t.moves[src] {
			if o.dir == opp {
				n++
			}
		}
	}
	for _, w := range t.goals[m.Cell()] {
		if m.Time >= w.from {
			n++
		}
	}
	return n
}

// Agents returns the agents occupying m's cell at m's time, including goal waits.
func (t *Table) Agents(m core.TimedMove) []int {
	if t == nil {
		return nil
	}
	var ids []int
	for _, o := range t.moves[m.Key()] {
		ids = append(ids, o.agent)
	}
	for _, w := range t.goals[m.Cell()] {
		if m.Time >= w.from {
			ids = append(ids, w.agent)
		}
	}
	return ids
}

// Len returns the number of timed cells with at least one occupant.
func (t *Table) Len() int { return len(t.moves) }

// Merge copies every entry of other into t. A nil other is ignored.
func (t *Table) Merge(other *Table) {
	if other == nil {
		return
	}
	for k, occ := range other.moves {
		t.moves[k] = append(t.moves[k], occ...)
	}
	for c, waits := range other.goals {
		t.goals[c] = append(t.goals[c], waits...)
	}
}
