// Package mdd builds multi-value decision diagrams: the layered graph of every path of a
// fixed length and cost for one agent.
package mdd

import (
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// Node is one (cell, level) vertex of an MDD.
type Node struct {
	Move     core.TimedMove // Dir is Wait for the root and NoDirection elsewhere
	Children []*Node
	Parents  []*Node
	Legal    bool // Cleared once the node is pruned
}

// Level returns the node's timestep.
func (n *Node) Level() int { return n.Move.Time }

// Cell returns the node's cell.
func (n *Node) Cell() core.Cell { return n.Move.Cell() }

// MDD holds all paths of length len(Levels)-1 from the agent's start to its goal whose
// sum-of-costs contribution is at most Cost. Levels is nil when no such path exists.
type MDD struct {
	Agent  int
	Cost   int
	Goal   core.Cell
	Levels [][]*Node

	index []map[core.Cell]*Node
}

// Build constructs the MDD of agent for the given cost and number of levels, respecting
// the agent's negative and positive constraints.
func Build(inst *core.Instance, agent, cost, numLevels int, constraints *core.ConstraintSet) *MDD {
	a := inst.Agents[agent]
	m := &MDD{Agent: agent, Cost: cost, Goal: a.Goal}
	if numLevels < 1 {
		return m
	}
	m.Levels = make([][]*Node, numLevels)
	m.index = make([]map[core.Cell]*Node, numLevels)
	for i := range m.index {
		m.index[i] = make(map[core.Cell]*Node)
	}

	root := &Node{Move: core.NewTimedMove(a.Start, core.Wait, 0), Legal: true}
	m.Levels[0] = []*Node{root}
	m.index[0][a.Start] = root

	last := numLevels - 1
	dirs := core.Directions(inst.AllowDiagonal)
	for i := 0; i < last; i++ {
		budget := cost - i - 1
		if budget < 0 {
			budget = 0
		}
		for _, n := range m.Levels[i] {
			for _, d := range dirs {
				tm := n.Move.Next(d)
				if !inst.IsValid(tm.Move) || inst.Distance(agent, tm.Cell()) > budget {
					continue
				}
				if !constraints.Allows(agent, tm) {
					continue
				}
				child := m.index[i+1][tm.Cell()]
				if child == nil {
					child = &Node{Move: core.NewTimedMove(tm.Cell(), core.NoDirection, i+1), Legal: true}
					m.index[i+1][tm.Cell()] = child
					m.Levels[i+1] = append(m.Levels[i+1], child)
				}
				n.Children = append(n.Children, child)
				child.Parents = append(child.Parents, n)
			}
		}
	}

	for _, n := range m.Levels[last] {
		if n.Cell() != a.Goal {
			m.delete(n)
		}
	}
	for i := last - 1; i >= 0; i-- {
		for _, n := range m.Levels[i] {
			if n.Legal && len(n.Children) == 0 {
				m.delete(n)
			}
		}
	}
	m.compact()
	return m
}

// delete removes n and cascades to parents left without children and children left
// without parents.
func (m *MDD) delete(n *Node) {
	if !n.Legal {
		return
	}
	n.Legal = false
	lvl := n.Level()
	delete(m.index[lvl], n.Cell())

	parents := n.Parents
	n.Parents = nil
	for _, p := range parents {
		p.Children = removeNode(p.Children, n)
		if len(p.Children) == 0 {
			m.delete(p)
		}
	}
	children := n.Children
	n.Children = nil
	for _, c := range children {
		c.Parents = removeNode(c.Parents, n)
		if len(c.Parents) == 0 {
			m.delete(c)
		}
	}
}

func removeNode(nodes []*Node, n *Node) []*Node {
	for i, x := range nodes {
		if x == n {
			return append(nodes[:i], nodes[i+1:]...)
		}
	}
	return nodes
}

// compact drops pruned nodes from the level slices and collapses the MDD when a level is empty.
func (m *MDD) compact() {
	for i, lvl := range m.Levels {
		kept := lvl[:0]
		for _, n := range lvl {
			if n.Legal {
				kept = append(kept, n)
			}
		}
		m.Levels[i] = kept
		if len(kept) == 0 {
			m.Levels = nil
			m.index = nil
			return
		}
	}
}

// Solvable reports whether any path survived.
func (m *MDD) Solvable() bool { return m.Levels != nil }

// NumLevels returns the number of levels, or 0 when unsolvable.
func (m *MDD) NumLevels() int { return len(m.Levels) }

// Width returns the number of nodes on a level. Levels past the end hold only the goal.
func (m *MDD) Width(level int) int {
	if m.Levels == nil {
		return 0
	}
	if level >= len(m.Levels) {
		return 1
	}
	return len(m.Levels[level])
}

// Narrow reports whether every path passes through a single cell at level.
func (m *MDD) Narrow(level int) bool { return m.Width(level) == 1 }

// Contains reports whether some path visits move's cell at move's time.
func (m *MDD) Contains(move core.TimedMove) bool {
	if m.Levels == nil || move.Time < 0 {
		return false
	}
	if move.Time >= len(m.Levels) {
		return move.Cell() == m.Goal
	}
	_, ok := m.index[move.Time][move.Cell()]
	return ok
}

// AllowsStep reports whether some path moves from cell from into to.
func (m *MDD) AllowsStep(from core.Cell, to core.TimedMove) bool {
	if m.Levels == nil || to.Time < 1 {
		return false
	}
	if to.Time >= len(m.Levels) {
		return from == m.Goal && to.Cell() == m.Goal
	}
	n := m.index[to.Time][to.Cell()]
	if n == nil {
		return false
	}
	for _, p := range n.Parents {
		if p.Cell() == from {
			return true
		}
	}
	return false
}

// Paths enumerates every root-to-terminal path with directions filled in.
// The number of paths is exponential in general; use on small diagrams.
func (m *MDD) Paths() [][]core.TimedMove {
	if m.Levels == nil {
		return nil
	}
	var out [][]core.TimedMove
	var walk func(n *Node, acc []core.TimedMove)
	walk = func(n *Node, acc []core.TimedMove) {
		if len(n.Children) == 0 {
			out = append(out, append([]core.TimedMove(nil), acc...))
			return
		}
		for _, c := range n.Children {
			walk(c, append(acc, core.TimedMove{Move: core.NewMove(c.Cell(), directionBetween(n.Cell(), c.Cell())), Time: c.Level()}))
		}
	}
	root := m.Levels[0][0]
	walk(root, []core.TimedMove{root.Move})
	return out
}

func directionBetween(from, to core.Cell) core.Direction {
	for _, d := range core.Directions(true) {
		dx, dy := d.Delta()
		if from.X+dx == to.X && from.Y+dy == to.Y {
			return d
		}
	}
	return core.NoDirection
}
