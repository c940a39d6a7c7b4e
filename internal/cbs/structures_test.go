package cbs

import (
	"reflect"
	"testing"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

func graph(n int, edges ...[2]int) *ConflictGraph {
	g := NewConflictGraph(n)
	for _, e := range edges {
		g.Add(e[0], e[1])
	}
	return g
}

func TestMinimumVertexCover(t *testing.T) {
	tests := []struct {
		name     string
		g        *ConflictGraph
		cover    int
		matching int
	}{
		{"empty", graph(3), 0, 0},
		{"single edge", graph(2, [2]int{0, 1}), 1, 1},
		{"star", graph(5, [2]int{0, 1}, [2]int{0, 2}, [2]int{0, 3}, [2]int{0, 4}), 1, 1},
		{"triangle", graph(3, [2]int{0, 1}, [2]int{1, 2}, [2]int{0, 2}), 2, 1},
		{"path of four", graph(4, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}), 2, 2},
		{"two disjoint edges", graph(4, [2]int{0, 1}, [2]int{2, 3}), 2, 2},
		{"clique of four", graph(4, [2]int{0, 1}, [2]int{0, 2}, [2]int{0, 3}, [2]int{1, 2}, [2]int{1, 3}, [2]int{2, 3}), 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.MinimumVertexCover(-1); got != tt.cover {
				t.Errorf("cover %d, want %d", got, tt.cover)
			}
			if got := tt.g.MaximalMatching(); got != tt.matching {
				t.Errorf("matching %d, want %d", got, tt.matching)
			}
			if approx := tt.g.ApproximateMinimumVertexCover(); approx < tt.cover || approx > 2*tt.cover {
				t.Errorf("approximate cover %d outside [%d, %d]", approx, tt.cover, 2*tt.cover)
			}
		})
	}
}

func TestMinimumVertexCoverIncremental(t *testing.T) {
	// Adding the edges of one vertex moves the cover by at most one.
	base := graph(5, [2]int{0, 1}, [2]int{2, 3})
	prev := base.MinimumVertexCover(-1)

	grown := graph(5, [2]int{0, 1}, [2]int{2, 3}, [2]int{4, 0}, [2]int{4, 2})
	if got, want := grown.MinimumVertexCover(prev), grown.MinimumVertexCover(-1); got != want {
		t.Errorf("incremental cover %d, full %d", got, want)
	}

	shrunk := graph(5, [2]int{0, 1})
	if got, want := shrunk.MinimumVertexCover(prev), shrunk.MinimumVertexCover(-1); got != want {
		t.Errorf("incremental cover %d, full %d", got, want)
	}
}

func TestConflictGraphIgnoresDuplicates(t *testing.T) {
	g := graph(3, [2]int{0, 1}, [2]int{1, 0}, [2]int{2, 2})
	if g.Edges() != 1 {
		t.Errorf("edges %d, want 1", g.Edges())
	}
}

func TestDisjointSet(t *testing.T) {
	d := NewDisjointSet(5)
	if !d.Union(0, 3) || !d.Union(3, 4) {
		t.Fatal("union of separate sets reported no change")
	}
	if d.Union(0, 4) {
		t.Error("union within one set reported a change")
	}
	if !d.Same(0, 4) || d.Same(0, 1) {
		t.Error("wrong membership")
	}
	if got := d.Members(4); !reflect.DeepEqual(got, []int{0, 3, 4}) {
		t.Errorf("members %v", got)
	}
	if d.SizeOf(3) != 3 || d.MaxSize() != 3 {
		t.Errorf("size %d, max %d", d.SizeOf(3), d.MaxSize())
	}

	c := d.Clone()
	c.Union(1, 2)
	if d.Same(1, 2) {
		t.Error("clone shares state")
	}

	// Canonical labels do not depend on union order.
	e := NewDisjointSet(5)
	e.Union(4, 3)
	e.Union(3, 0)
	if !reflect.DeepEqual(d.Canonical(), e.Canonical()) {
		t.Errorf("canonical %v != %v", d.Canonical(), e.Canonical())
	}
	if want := []int{0, 1, 2, 0, 0}; !reflect.DeepEqual(d.Canonical(), want) {
		t.Errorf("canonical %v, want %v", d.Canonical(), want)
	}
}

func TestNewConstraint(t *testing.T) {
	c := newConflict(0, 1,
		core.NewMove(core.Cell{X: 1, Y: 0}, core.East),
		core.NewMove(core.Cell{X: 1, Y: 0}, core.West), 1)
	if !c.Vertex {
		t.Fatal("same-cell conflict not a vertex conflict")
	}
	con := NewConstraint(c, true, []int{5, 2})
	if !reflect.DeepEqual(con.Agents, []int{2, 5}) {
		t.Errorf("agents %v, want sorted", con.Agents)
	}
	if con.Move.Dir != core.NoDirection || con.Time() != 1 {
		t.Errorf("vertex constraint %v", con)
	}

	swap := newConflict(0, 1,
		core.NewMove(core.Cell{X: 2, Y: 0}, core.East),
		core.NewMove(core.Cell{X: 1, Y: 0}, core.West), 2)
	if swap.Vertex {
		t.Fatal("swap reported as vertex conflict")
	}
	con = NewConstraint(swap, false, []int{1})
	if con.Move.Dir != core.West || con.Move.Cell() != (core.Cell{X: 1, Y: 0}) {
		t.Errorf("edge constraint %v", con)
	}

	cs := core.NewConstraintSet()
	con.ApplyTo(cs)
	if cs.Allows(1, con.Move) {
		t.Error("constrained move still allowed")
	}
	if !cs.Allows(0, con.Move) {
		t.Error("constraint leaked to another agent")
	}

	// A group constraint forbids the move for every member and requires nothing.
	group := NewConstraint(c, false, []int{4, 3})
	cs = core.NewConstraintSet()
	group.ApplyTo(cs)
	for _, a := range []int{3, 4} {
		if !cs.Forbidden(a, group.Move) {
			t.Errorf("agent %d not constrained by %v", a, group)
		}
		if m, ok := cs.Required(a, group.Time()); ok {
			t.Errorf("agent %d required to perform %v", a, m)
		}
	}
	if got, want := group.String(), "agents [3 4] must not perform "+group.Move.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
