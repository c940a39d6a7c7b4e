package cbs

import (
	"fmt"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// Conflict is a collision between two agents' plans.
// A and B index the solver's agent list, not the instance.
type Conflict struct {
	A, B   int
	MoveA  core.Move
	MoveB  core.Move
	Time   int
	Vertex bool // Both moves end on the same cell; otherwise a swap
}

func newConflict(a, b int, ma, mb core.Move, t int) Conflict {
	return Conflict{A: a, B: b, MoveA: ma, MoveB: mb, Time: t, Vertex: ma.Cell() == mb.Cell()}
}

func (c Conflict) String() string {
	kind := "swap"
	if c.Vertex {
		kind = "vertex"
	}
	return fmt.Sprintf("%s conflict: agent %d %v, agent %d %v at t=%d", kind, c.A, c.MoveA, c.B, c.MoveB, c.Time)
}

// Cardinality classifies a conflict by how many sides must pay to resolve it.
type Cardinality int

const (
	NonCardinal  Cardinality = iota
	SemiCardinal             // One side has no alternative of the same cost
	Cardinal                 // Neither side does
)

func (c Cardinality) String() string {
	return [...]string{"non-cardinal", "semi-cardinal", "cardinal"}[c]
}

// ConflictChoice selects which of a node's conflicts to branch on.
type ConflictChoice int

const (
	ChooseFirst    ConflictChoice = iota // Earliest conflict in scan order
	ChooseCardinal                       // Cardinal, then semi-cardinal, then the earliest
)

func (c ConflictChoice) String() string {
	return [...]string{"first", "cardinal"}[c]
}
