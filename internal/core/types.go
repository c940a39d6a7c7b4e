// Package core defines the grid, agent and plan models shared by the MAPF solvers.
package core

import "fmt"

// Direction is the heading of a single-step move.
type Direction int

const (
	Wait Direction = iota
	North
	East
	South
	West
	NorthEast
	SouthEast
	SouthWest
	NorthWest
	NoDirection // Matches any direction in equality checks
)

var directionNames = [...]string{"Wait", "N", "E", "S", "W", "NE", "SE", "SW", "NW", "NoDirection"}

func (d Direction) String() string {
	if d < Wait || d > NoDirection {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// North decreases Y, East increases X.
var directionDeltas = [...][2]int{
	Wait:      {0, 0},
	North:     {0, -1},
	East:      {1, 0},
	South:     {0, 1},
	West:      {-1, 0},
	NorthEast: {1, -1},
	SouthEast: {1, 1},
	SouthWest: {-1, 1},
	NorthWest: {-1, -1},
}

// Delta returns the cell offset of the direction.
func (d Direction) Delta() (dx, dy int) {
	if d < Wait || d > NorthWest {
		panic(fmt.Sprintf("core: no delta for %v", d))
	}
	return directionDeltas[d][0], directionDeltas[d][1]
}

// Opposite returns the reverse heading. Wait and NoDirection are their own opposites.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case NorthEast:
		return SouthWest
	case SouthWest:
		return NorthEast
	case SouthEast:
		return NorthWest
	case NorthWest:
		return SouthEast
	default:
		return d
	}
}

// Directions returns the operators available to an agent.
func Directions(allowDiagonal bool) []Direction {
	if allowDiagonal {
		return []Direction{Wait, North, East, South, West, NorthEast, SouthEast, SouthWest, NorthWest}
	}
	return []Direction{Wait, North, East, South, West}
}

// Cell is a grid coordinate.
type Cell struct {
	X, Y int
}

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// Move is an arrival into a cell from a direction.
type Move struct {
	X, Y int
	Dir  Direction
}

// NewMove creates a move.
func NewMove(c Cell, d Direction) Move {
	return Move{X: c.X, Y: c.Y, Dir: d}
}

// Cell returns the destination cell, which is also the hash key of the move.
func (m Move) Cell() Cell { return Cell{X: m.X, Y: m.Y} }

// Step returns the move that continues from m's cell in direction d.
func (m Move) Step(d Direction) Move {
	dx, dy := d.Delta()
	return Move{X: m.X + dx, Y: m.Y + dy, Dir: d}
}

// Source returns the cell the move came from.
// Moves without a concrete direction are treated as waits.
func (m Move) Source() Cell {
	if m.Dir == NoDirection {
		return m.Cell()
	}
	dx, dy := m.Dir.Delta()
	return Cell{X: m.X - dx, Y: m.Y - dy}
}

// Equal compares cells and directions; NoDirection on either side matches any direction.
func (m Move) Equal(o Move) bool {
	if m.X != o.X || m.Y != o.Y {
		return false
	}
	return m.Dir == o.Dir || m.Dir == NoDirection || o.Dir == NoDirection
}

// IsSwap reports whether m and o exchange cells (head-on collision).
func (m Move) IsSwap(o Move) bool {
	if m.Dir == Wait || m.Dir == NoDirection || o.Dir == Wait || o.Dir == NoDirection {
		return false
	}
	return m.Cell() != o.Cell() && m.Source() == o.Cell() && o.Source() == m.Cell()
}

// Collides reports a vertex collision, or a head-on swap when those are not allowed.
func (m Move) Collides(o Move, allowHeadOn bool) bool {
	if m.X == o.X && m.Y == o.Y {
		return true
	}
	return !allowHeadOn && m.IsSwap(o)
}

func (m Move) String() string { return fmt.Sprintf("(%d,%d)%v", m.X, m.Y, m.Dir) }

// TimedMove is a move performed at a specific timestep.
type TimedMove struct {
	Move
	Time int
}

// NewTimedMove creates a timed move.
func NewTimedMove(c Cell, d Direction, t int) TimedMove {
	return TimedMove{Move: NewMove(c, d), Time: t}
}

// Equal additionally requires equal time.
func (m TimedMove) Equal(o TimedMove) bool {
	return m.Time == o.Time && m.Move.Equal(o.Move)
}

// Next returns the move at the following timestep in direction d.
func (m TimedMove) Next(d Direction) TimedMove {
	return TimedMove{Move: m.Move.Step(d), Time: m.Time + 1}
}

// Key returns the direction-free hash key of the move.
func (m TimedMove) Key() TimedCell {
	return TimedCell{Cell: m.Cell(), Time: m.Time}
}

func (m TimedMove) String() string { return fmt.Sprintf("%v@%d", m.Move, m.Time) }

// TimedCell is a cell at a timestep.
type TimedCell struct {
	Cell
	Time int
}
