// Package cbs implements Conflict-Based Search: a best-first search over a tree of
// constraint sets, replanning one agent (or merged group) per branch.
package cbs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// Constraint forbids a move for a set of agents.
// Agents holds instance indices, sorted. Vertex constraints carry NoDirection.
type Constraint struct {
	Agents []int
	Move   core.TimedMove
}

// NewConstraint builds the constraint that resolves c for one side of the conflict.
// The constraint covers every agent of that side's group.
func NewConstraint(c Conflict, first bool, group []int) Constraint {
	m := c.MoveB
	if first {
		m = c.MoveA
	}
	if c.Vertex {
		m.Dir = core.NoDirection
	}
	agents := append([]int(nil), group...)
	sort.Ints(agents)
	return Constraint{Agents: agents, Move: core.TimedMove{Move: m, Time: c.Time}}
}

// Time returns the constrained timestep.
func (c Constraint) Time() int { return c.Move.Time }

// ApplyTo adds the constraint to cs for each of its agents.
func (c Constraint) ApplyTo(cs *core.ConstraintSet) {
	for _, a := range c.Agents {
		cs.Forbid(a, c.Move)
	}
}

// key identifies the constraint in closed-list keys.
func (c Constraint) key() string {
	var b strings.Builder
	for i, a := range c.Agents {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", a)
	}
	fmt.Fprintf(&b, "-%d,%d,%d@%d", c.Move.X, c.Move.Y, c.Move.Dir, c.Move.Time)
	return b.String()
}

func (c Constraint) String() string {
	return fmt.Sprintf("agents %v must not perform %v", c.Agents, c.Move)
}
