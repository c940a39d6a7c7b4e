package cat

import (
	"testing"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

func corridorPlan(agent int, cells ...core.Cell) *core.SinglePlan {
	moves := []core.TimedMove{core.NewTimedMove(cells[0], core.Wait, 0)}
	for t := 1; t < len(cells); t++ {
		prev, cur := cells[t-1], cells[t]
		dir := core.Wait
		for _, d := range core.Directions(false) {
			dx, dy := d.Delta()
			if prev.X+dx == cur.X && prev.Y+dy == cur.Y {
				dir = d
			}
		}
		moves = append(moves, core.NewTimedMove(cur, dir, t))
	}
	return core.NewSinglePlan(agent, moves)
}

func TestCount(t *testing.T) {
	table := New()
	// Agent 7 walks east (0,0) -> (1,0) -> (2,0) and stays.
	table.Add(corridorPlan(7, core.Cell{X: 0, Y: 0}, core.Cell{X: 1, Y: 0}, core.Cell{X: 2, Y: 0}), 7)

	tests := []struct {
		name string
		move core.TimedMove
		want int
	}{
		{"vertex", core.NewTimedMove(core.Cell{X: 1, Y: 0}, core.South, 1), 1},
		{"swap", core.NewTimedMove(core.Cell{X: 0, Y: 0}, core.West, 1), 1},
		{"same cell other time", core.NewTimedMove(core.Cell{X: 1, Y: 0}, core.Wait, 2), 0},
		{"goal wait", core.NewTimedMove(core.Cell{X: 2, Y: 0}, core.North, 10), 1},
		{"goal before arrival", core.NewTimedMove(core.Cell{X: 2, Y: 0}, core.North, 1), 0},
		{"free", core.NewTimedMove(core.Cell{X: 0, Y: 1}, core.South, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Count(tt.move); got != tt.want {
				t.Errorf("Count(%v) = %d, want %d", tt.move, got, tt.want)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	table := New()
	a := corridorPlan(1, core.Cell{X: 0, Y: 0}, core.Cell{X: 1, Y: 0})
	b := corridorPlan(2, core.Cell{X: 1, Y: 1}, core.Cell{X: 1, Y: 0})
	table.Add(a, 1)
	table.Add(b, 2)

	m := core.NewTimedMove(core.Cell{X: 1, Y: 0}, core.Wait, 1)
	if got := table.Count(m); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}

	table.Remove(a, 1)
	if got := table.Agents(m); len(got) != 1 || got[0] != 2 {
		t.Errorf("Agents after removal = %v, want [2]", got)
	}
	table.Remove(b, 2)
	if table.Len() != 0 || table.Count(core.NewTimedMove(core.Cell{X: 1, Y: 0}, core.Wait, 9)) != 0 {
		t.Error("table not empty after removing every plan")
	}

	var none *Table
	if none.Count(m) != 0 {
		t.Error("nil table must count nothing")
	}
}

func TestMerge(t *testing.T) {
	a := New()
	a.Add(corridorPlan(1, core.Cell{X: 0, Y: 0}, core.Cell{X: 1, Y: 0}), 1)
	b := New()
	b.Add(corridorPlan(2, core.Cell{X: 1, Y: 1}, core.Cell{X: 1, Y: 0}), 2)

	merged := New()
	merged.Merge(a)
	merged.Merge(b)
	merged.Merge(nil)

	if got := merged.Count(core.NewTimedMove(core.Cell{X: 1, Y: 0}, core.Wait, 1)); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
	if got := a.Count(core.NewTimedMove(core.Cell{X: 1, Y: 0}, core.Wait, 1)); got != 1 {
		t.Errorf("source table changed: Count = %d, want 1", got)
	}
}
