package core

import (
	"fmt"
	"strings"
)

// Grid is a rectangular occupancy map.
type Grid struct {
	Width, Height int
	blocked       []bool
}

// NewGrid creates an obstacle-free grid.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:   width,
		Height:  height,
		blocked: make([]bool, width*height),
	}
}

// ParseGrid builds a grid from rows of text where '@', '#' and 'T' mark obstacles.
func ParseGrid(rows ...string) (*Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty grid")
	}
	width := len(rows[0])
	g := NewGrid(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has width %d, want %d", y, len(row), width)
		}
		for x, ch := range row {
			if strings.ContainsRune("@#T", ch) {
				g.Block(Cell{X: x, Y: y})
			}
		}
	}
	return g, nil
}

// MustParseGrid is ParseGrid for literal maps.
func MustParseGrid(rows ...string) *Grid {
	g, err := ParseGrid(rows...)
	if err != nil {
		panic(err)
	}
	return g
}

// Block marks a cell as an obstacle.
func (g *Grid) Block(c Cell) {
	if g.InBounds(c) {
		g.blocked[g.index(c)] = true
	}
}

// InBounds reports whether c lies inside the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// IsValid reports whether c is inside the grid and free.
func (g *Grid) IsValid(c Cell) bool {
	return g.InBounds(c) && !g.blocked[g.index(c)]
}

// Size returns the number of cells.
func (g *Grid) Size() int { return g.Width * g.Height }

// FreeCells returns all traversable cells in row-major order.
func (g *Grid) FreeCells() []Cell {
	var cells []Cell
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if c := (Cell{X: x, Y: y}); g.IsValid(c) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

func (g *Grid) index(c Cell) int { return c.Y*g.Width + c.X }
