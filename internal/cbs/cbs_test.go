package cbs

import (
	"fmt"
	"testing"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
	"github.com/elektrokombinacija/mapf-cbs/internal/lowlevel"
	"github.com/elektrokombinacija/mapf-cbs/internal/stats"
)

type fakeRunner struct{ elapsed int64 }

func (f *fakeRunner) ElapsedMilliseconds() int64 { return f.elapsed }

func cell(x, y int) core.Cell { return core.Cell{X: x, Y: y} }

func newInstance(t *testing.T, grid *core.Grid, agents ...core.Agent) *core.Instance {
	t.Helper()
	inst, err := core.NewInstance(grid, agents)
	if err != nil {
		t.Fatal(err)
	}
	return inst
}

// pocketInstance: two agents swap ends of a corridor with a one-cell pocket.
func pocketInstance(t *testing.T) *core.Instance {
	return newInstance(t, core.MustParseGrid(
		"...",
		"#.#",
	),
		core.Agent{ID: 0, Start: cell(0, 0), Goal: cell(2, 0)},
		core.Agent{ID: 1, Start: cell(2, 0), Goal: cell(0, 0)},
	)
}

// mergeInstance is the pocket swap plus a third agent in a separate room.
func mergeInstance(t *testing.T) *core.Instance {
	return newInstance(t, core.MustParseGrid(
		"...#..",
		"#.##..",
	),
		core.Agent{ID: 0, Start: cell(0, 0), Goal: cell(2, 0)},
		core.Agent{ID: 1, Start: cell(2, 0), Goal: cell(0, 0)},
		core.Agent{ID: 2, Start: cell(4, 0), Goal: cell(5, 1)},
	)
}

// triangleInstance has three agents meeting at one junction: every pair conflicts.
func triangleInstance(t *testing.T) *core.Instance {
	return newInstance(t, core.MustParseGrid(
		"#...",
		"##..",
		"....",
	),
		core.Agent{ID: 0, Start: cell(1, 2), Goal: cell(1, 0)},
		core.Agent{ID: 1, Start: cell(2, 1), Goal: cell(2, 2)},
		core.Agent{ID: 2, Start: cell(3, 2), Goal: cell(0, 2)},
	)
}

// yieldInstance costs 8 under sum-of-costs, where agent 0 waits once, and 5 under
// makespan, where agent 1 steps into the lower pocket to let agent 0 pass.
func yieldInstance(t *testing.T) *core.Instance {
	return newInstance(t, core.MustParseGrid(
		"#.####",
		"......",
		"##.###",
	),
		core.Agent{ID: 0, Start: cell(0, 1), Goal: cell(5, 1)},
		core.Agent{ID: 1, Start: cell(2, 1), Goal: cell(1, 0)},
	)
}

func crossingInstance(t *testing.T) *core.Instance {
	return newInstance(t, core.NewGrid(3, 3),
		core.Agent{ID: 0, Start: cell(0, 1), Goal: cell(2, 1)},
		core.Agent{ID: 1, Start: cell(1, 0), Goal: cell(1, 2)},
	)
}

func newSolver(t *testing.T, opts Options) *Solver {
	t.Helper()
	s, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func solve(t *testing.T, s *Solver, inst *core.Instance) bool {
	t.Helper()
	s.Setup(lowlevel.NewRequest(inst, inst.AllAgents(), core.NewRunner()))
	return s.Solve()
}

func checkPlan(t *testing.T, s *Solver, inst *core.Instance) {
	t.Helper()
	plan := s.Plan()
	if err := plan.CheckValid(inst, inst.AllAgents()); err != nil {
		t.Fatalf("invalid plan: %v", err)
	}
	if c, ok := plan.FirstCollision(false); ok {
		t.Fatalf("agents %d and %d collide at t=%d", c.A, c.B, c.Time)
	}
	if got := plan.CostUnder(s.opts.Config.CostFunction); got != s.SolutionCost() {
		t.Errorf("plan cost %d, reported %d", got, s.SolutionCost())
	}
}

// jointCost solves inst with joint A* over every agent, which is optimal by construction.
func jointCost(t *testing.T, inst *core.Instance, cf core.CostFunction) int {
	t.Helper()
	joint, err := lowlevel.New(lowlevel.KindOD, lowlevel.Config{CostFunction: cf})
	if err != nil {
		t.Fatal(err)
	}
	joint.Setup(lowlevel.NewRequest(inst, inst.AllAgents(), core.NewRunner()))
	if !joint.Solve() {
		t.Fatalf("joint search: %v", joint.Status())
	}
	return joint.SolutionCost()
}

func TestSolveOptimal(t *testing.T) {
	tests := []struct {
		name string
		inst func(*testing.T) *core.Instance
		want int
	}{
		{"pocket swap", pocketInstance, 7},
		{"crossing", crossingInstance, 5},
		{"pocket swap beside independent agent", mergeInstance, 9},
		{"triangle", triangleInstance, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := tt.inst(t)
			s := newSolver(t, DefaultOptions())
			if !solve(t, s, inst) {
				t.Fatalf("status %v", s.Status())
			}
			checkPlan(t, s, inst)
			if s.SolutionCost() != tt.want {
				t.Errorf("cost %d, want %d", s.SolutionCost(), tt.want)
			}

			if joint := jointCost(t, inst, core.SumOfCosts); joint != s.SolutionCost() {
				t.Errorf("CBS cost %d, joint A* cost %d", s.SolutionCost(), joint)
			}
		})
	}
}

func TestIndependentAgents(t *testing.T) {
	inst := newInstance(t, core.NewGrid(5, 5),
		core.Agent{ID: 0, Start: cell(0, 0), Goal: cell(4, 0)},
		core.Agent{ID: 1, Start: cell(0, 4), Goal: cell(4, 4)},
	)
	s := newSolver(t, DefaultOptions())
	if !solve(t, s, inst) {
		t.Fatalf("status %v", s.Status())
	}
	checkPlan(t, s, inst)
	if s.SolutionCost() != 8 {
		t.Errorf("cost %d, want 8", s.SolutionCost())
	}
	if s.HighLevelExpanded() != 0 {
		t.Errorf("expanded %d high-level nodes, want 0", s.HighLevelExpanded())
	}
}

func TestMergeLocal(t *testing.T) {
	inst := mergeInstance(t)
	opts := DefaultOptions()
	opts.MergeThreshold = 1
	s := newSolver(t, opts)
	if !solve(t, s, inst) {
		t.Fatalf("status %v", s.Status())
	}
	checkPlan(t, s, inst)
	if s.SolutionCost() != 9 {
		t.Errorf("cost %d, want 9", s.SolutionCost())
	}
	if s.MaxGroupSize() != 2 {
		t.Errorf("max group size %d, want 2", s.MaxGroupSize())
	}
}

func TestMergeGlobal(t *testing.T) {
	inst := mergeInstance(t)
	opts := DefaultOptions()
	opts.MergeThreshold = 1
	opts.MergePolicy = MergeGlobal
	rec := NewRecorder()
	opts.Observer = rec
	s := newSolver(t, opts)
	if !solve(t, s, inst) {
		t.Fatalf("status %v", s.Status())
	}
	checkPlan(t, s, inst)
	if s.SolutionCost() != 9 {
		t.Errorf("cost %d, want 9", s.SolutionCost())
	}
	if s.MaxGroupSize() != 2 {
		t.Errorf("max group size %d, want 2", s.MaxGroupSize())
	}
	if len(rec.Merges) == 0 {
		t.Fatal("no merge observed")
	}
	if g := rec.Merges[0]; len(g) != 2 || g[0] != 0 || g[1] != 1 {
		t.Errorf("merged %v, want [0 1]", g)
	}
}

func TestMergeTriangle(t *testing.T) {
	for _, policy := range []MergePolicy{MergeLocal, MergeGlobal} {
		t.Run(policy.String(), func(t *testing.T) {
			inst := triangleInstance(t)
			opts := DefaultOptions()
			opts.MergeThreshold = 1
			opts.MergePolicy = policy
			rec := NewRecorder()
			opts.Observer = rec
			s := newSolver(t, opts)
			if !solve(t, s, inst) {
				t.Fatalf("status %v", s.Status())
			}
			checkPlan(t, s, inst)
			if want := jointCost(t, inst, core.SumOfCosts); s.SolutionCost() != want {
				t.Errorf("cost %d, joint A* cost %d", s.SolutionCost(), want)
			}
			if s.MaxGroupSize() != 2 {
				t.Errorf("max group size %d, want 2", s.MaxGroupSize())
			}
			if len(rec.Merges) == 0 {
				t.Error("no merge observed")
			}
		})
	}
}

func TestMakespan(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
	}{
		{"cbs", -1},
		{"ma-cbs", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := yieldInstance(t)
			opts := DefaultOptions()
			opts.MergeThreshold = tt.threshold
			opts.Config.CostFunction = core.Makespan
			s := newSolver(t, opts)
			if !solve(t, s, inst) {
				t.Fatalf("status %v", s.Status())
			}
			checkPlan(t, s, inst)
			if s.SolutionCost() != 5 {
				t.Errorf("makespan %d, want 5", s.SolutionCost())
			}
			if want := jointCost(t, inst, core.Makespan); s.SolutionCost() != want {
				t.Errorf("CBS makespan %d, joint A* makespan %d", s.SolutionCost(), want)
			}
			if sum := s.Plan().Cost(); sum != 10 {
				t.Errorf("sum of costs %d, want 10", sum)
			}
		})
	}

	soc := newSolver(t, DefaultOptions())
	inst := yieldInstance(t)
	if !solve(t, soc, inst) {
		t.Fatalf("status %v", soc.Status())
	}
	if soc.SolutionCost() != 8 || soc.Plan().CostUnder(core.Makespan) != 6 {
		t.Errorf("sum-of-costs plan: cost %d, latest arrival %d; want 8 and 6",
			soc.SolutionCost(), soc.Plan().CostUnder(core.Makespan))
	}

	opts := DefaultOptions()
	opts.Config.CostFunction = core.Makespan
	opts.Heuristic = MVCHeuristic
	if _, err := New(opts); err == nil {
		t.Error("MVC heuristic accepted under makespan")
	}
}

func TestMemoryCaps(t *testing.T) {
	t.Run("constraint tree", func(t *testing.T) {
		opts := DefaultOptions()
		opts.MaxNodes = 1
		s := newSolver(t, opts)
		if solve(t, s, pocketInstance(t)) {
			t.Fatal("solved past the node cap")
		}
		if s.Status() != core.MemoryExhausted || s.SolutionCost() != core.MaxMemoryCost {
			t.Errorf("status %v cost %d", s.Status(), s.SolutionCost())
		}

		// A conflict-free root is returned before the cap applies.
		free := newInstance(t, core.NewGrid(3, 2),
			core.Agent{ID: 0, Start: cell(0, 0), Goal: cell(2, 0)},
			core.Agent{ID: 1, Start: cell(0, 1), Goal: cell(2, 1)},
		)
		if !solve(t, s, free) {
			t.Errorf("status %v", s.Status())
		}
	})

	t.Run("low level", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Config.MaxStates = 2
		s := newSolver(t, opts)
		if solve(t, s, pocketInstance(t)) {
			t.Fatal("solved past the state cap")
		}
		if s.Status() != core.MemoryExhausted {
			t.Errorf("status %v, want MemoryExhausted", s.Status())
		}
		if s.Status().Err() != core.ErrMemoryExhausted {
			t.Errorf("err = %v", s.Status().Err())
		}
	})
}

func TestMergeImmediately(t *testing.T) {
	for _, kind := range lowlevel.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			inst := pocketInstance(t)
			opts := DefaultOptions()
			opts.MergeThreshold = 0
			opts.GroupLowLevel = kind
			s := newSolver(t, opts)
			if !solve(t, s, inst) {
				t.Fatalf("status %v", s.Status())
			}
			checkPlan(t, s, inst)
			if s.SolutionCost() != 7 {
				t.Errorf("cost %d, want 7", s.SolutionCost())
			}
			if s.HighLevelGenerated() != 0 {
				t.Errorf("generated %d children, want 0", s.HighLevelGenerated())
			}
		})
	}
}

func TestNestedGroupSolver(t *testing.T) {
	inner := newSolver(t, DefaultOptions())
	opts := DefaultOptions()
	opts.MergeThreshold = 1
	opts.GroupSolver = inner
	s := newSolver(t, opts)
	inst := mergeInstance(t)
	if !solve(t, s, inst) {
		t.Fatalf("status %v", s.Status())
	}
	checkPlan(t, s, inst)
	if s.SolutionCost() != 9 {
		t.Errorf("cost %d, want 9", s.SolutionCost())
	}
	if want := "MA-CBS Local(1)/A*/CBS/A*"; s.Name() != want {
		t.Errorf("name %q, want %q", s.Name(), want)
	}
}

func TestNoSolution(t *testing.T) {
	inst := newInstance(t, core.MustParseGrid(".#."),
		core.Agent{ID: 0, Start: cell(0, 0), Goal: cell(2, 0)},
	)
	s := newSolver(t, DefaultOptions())
	if solve(t, s, inst) {
		t.Fatal("solved an unreachable goal")
	}
	if s.Status() != core.NoSolution {
		t.Errorf("status %v, want NoSolution", s.Status())
	}
	if s.SolutionCost() != core.NoSolutionCost {
		t.Errorf("cost %d, want %d", s.SolutionCost(), core.NoSolutionCost)
	}
}

func TestMaxCost(t *testing.T) {
	inst := pocketInstance(t)
	s := newSolver(t, DefaultOptions())
	req := lowlevel.NewRequest(inst, inst.AllAgents(), core.NewRunner())
	req.MaxCost = 6
	s.Setup(req)
	if s.Solve() {
		t.Fatalf("found a plan of cost %d under a bound of 6", s.SolutionCost())
	}
	if s.Status() != core.NoSolution {
		t.Errorf("status %v, want NoSolution", s.Status())
	}

	req.MaxCost = 7
	s.Setup(req)
	if !s.Solve() || s.SolutionCost() != 7 {
		t.Errorf("status %v cost %d, want Solved at 7", s.Status(), s.SolutionCost())
	}
}

func TestTimeout(t *testing.T) {
	inst := pocketInstance(t)
	opts := DefaultOptions()
	opts.Config.MaxTime = 1
	s := newSolver(t, opts)
	s.Setup(lowlevel.NewRequest(inst, inst.AllAgents(), &fakeRunner{elapsed: 5}))
	if s.Solve() {
		t.Fatal("solved past the time budget")
	}
	if s.Status() != core.Timeout {
		t.Errorf("status %v, want Timeout", s.Status())
	}
	if s.SolutionCost() != core.TimeoutCost {
		t.Errorf("cost %d, want %d", s.SolutionCost(), core.TimeoutCost)
	}
}

func TestDeferredExpansion(t *testing.T) {
	// Agent 0 reaches its goal at t=1, right where agent 1 passes.
	inst := newInstance(t, core.NewGrid(3, 3),
		core.Agent{ID: 0, Start: cell(0, 1), Goal: cell(1, 1)},
		core.Agent{ID: 1, Start: cell(1, 0), Goal: cell(1, 2)},
	)
	s := newSolver(t, DefaultOptions())
	if !solve(t, s, inst) {
		t.Fatalf("status %v", s.Status())
	}
	checkPlan(t, s, inst)
	if s.SolutionCost() != 4 {
		t.Errorf("cost %d, want 4", s.SolutionCost())
	}
	sink := stats.NewMemory()
	s.OutputStatistics(sink)
	if d, _ := sink.Get("deferred"); d < 1 {
		t.Errorf("deferred %d, want at least 1", d)
	}
}

func TestMonotonicExpansion(t *testing.T) {
	for _, build := range []func(*testing.T) *core.Instance{pocketInstance, mergeInstance, crossingInstance} {
		inst := build(t)
		rec := NewRecorder()
		opts := DefaultOptions()
		opts.Observer = rec
		s := newSolver(t, opts)
		if !solve(t, s, inst) {
			t.Fatalf("status %v", s.Status())
		}
		for i := 1; i < len(rec.Expanded); i++ {
			prev, cur := rec.Expanded[i-1], rec.Expanded[i]
			if cur.Cost+cur.H < prev.Cost+prev.H {
				t.Errorf("node %d popped at f=%d after node %d at f=%d", cur.ID, cur.Cost+cur.H, prev.ID, prev.Cost+prev.H)
			}
		}
		for _, g := range rec.Generated {
			if len(g.Constraints) != 1 {
				t.Errorf("node %d carries %d own constraints, want 1", g.ID, len(g.Constraints))
			}
		}
		if len(rec.Solutions) != 1 {
			t.Errorf("%d solutions reported, want 1", len(rec.Solutions))
		}
	}
}

func TestTargetCostResume(t *testing.T) {
	inst := pocketInstance(t)
	s := newSolver(t, DefaultOptions())
	s.SetTargetCost(5)
	if solve(t, s, inst) {
		t.Fatal("solved below the target cost")
	}
	if s.Status() != core.Interrupted {
		t.Fatalf("status %v, want Interrupted", s.Status())
	}
	if s.TotalCost() < 5 || s.TotalCost() > 7 {
		t.Errorf("lower bound %d, want between 5 and 7", s.TotalCost())
	}

	s.SetTargetCost(-1)
	if !s.Solve() {
		t.Fatalf("resumed search: %v", s.Status())
	}
	checkPlan(t, s, inst)
	if s.SolutionCost() != 7 {
		t.Errorf("cost %d, want 7", s.SolutionCost())
	}
}

func TestLowLevelGeneratedCap(t *testing.T) {
	inst := pocketInstance(t)
	s := newSolver(t, DefaultOptions())
	s.SetLowLevelGeneratedCap(0)
	if solve(t, s, inst) {
		t.Fatal("solved past the generated cap")
	}
	if s.Status() != core.Interrupted {
		t.Errorf("status %v, want Interrupted", s.Status())
	}
}

func TestHeuristicsAgree(t *testing.T) {
	heuristics := []Heuristic{NoHeuristic, MVCHeuristic, ApproxMVCHeuristic, MDDPruningHeuristic}
	choices := []ConflictChoice{ChooseFirst, ChooseCardinal}
	instances := map[string]func(*testing.T) *core.Instance{
		"pocket":   pocketInstance,
		"crossing": crossingInstance,
		"merge":    mergeInstance,
	}
	want := map[string]int{"pocket": 7, "crossing": 5, "merge": 9}

	for name, build := range instances {
		for _, h := range heuristics {
			for _, c := range choices {
				t.Run(fmt.Sprintf("%s/%v/%v", name, h, c), func(t *testing.T) {
					inst := build(t)
					opts := DefaultOptions()
					opts.Heuristic = h
					opts.ConflictChoice = c
					s := newSolver(t, opts)
					if !solve(t, s, inst) {
						t.Fatalf("status %v", s.Status())
					}
					checkPlan(t, s, inst)
					if s.SolutionCost() != want[name] {
						t.Errorf("cost %d, want %d", s.SolutionCost(), want[name])
					}
				})
			}
		}
	}
}

func TestCardinality(t *testing.T) {
	// In a one-cell-wide corridor every step is forced.
	inst := newInstance(t, core.MustParseGrid("...."),
		core.Agent{ID: 0, Start: cell(0, 0), Goal: cell(2, 0)},
		core.Agent{ID: 1, Start: cell(3, 0), Goal: cell(1, 0)},
	)
	s := newSolver(t, DefaultOptions())
	s.Setup(lowlevel.NewRequest(inst, inst.AllAgents(), core.NewRunner()))
	root := s.arena[0]
	if root.conflict == nil {
		t.Fatal("root has no conflict")
	}
	if k := s.cardinality(root, *root.conflict); k != Cardinal {
		t.Errorf("corridor conflict is %v, want cardinal", k)
	}

	// On an open grid both agents can detour at no cost.
	open := newInstance(t, core.NewGrid(3, 3),
		core.Agent{ID: 0, Start: cell(0, 0), Goal: cell(2, 2)},
		core.Agent{ID: 1, Start: cell(2, 0), Goal: cell(0, 2)},
	)
	s.Setup(lowlevel.NewRequest(open, open.AllAgents(), core.NewRunner()))
	root = s.arena[0]
	if root.conflict != nil {
		if k := s.cardinality(root, *root.conflict); k == Cardinal {
			t.Errorf("open grid conflict %v is cardinal", *root.conflict)
		}
	}
}

func TestStatistics(t *testing.T) {
	inst := mergeInstance(t)
	opts := DefaultOptions()
	opts.MergeThreshold = 1
	s := newSolver(t, opts)
	if !solve(t, s, inst) {
		t.Fatalf("status %v", s.Status())
	}
	sink := stats.NewMemory()
	s.OutputStatistics(sink)
	for _, name := range []string{
		"high_level_expanded", "high_level_generated", "closed_list_hits", "max_group_size",
		"merges", "low_level_expanded", "low_level_generated", "single_expanded", "group_expanded",
	} {
		if _, ok := sink.Get(name); !ok {
			t.Errorf("counter %q not reported", name)
		}
	}
	if v, _ := sink.Get("merges"); v < 1 {
		t.Errorf("merges %d, want at least 1", v)
	}
	if v, _ := sink.Get("low_level_expanded"); v != int64(s.LowLevelExpanded()) {
		t.Errorf("low_level_expanded %d, accessor %d", v, s.LowLevelExpanded())
	}
}

func TestName(t *testing.T) {
	s := newSolver(t, DefaultOptions())
	if s.Name() != "CBS/A*" {
		t.Errorf("name %q", s.Name())
	}
	opts := DefaultOptions()
	opts.MergeThreshold = 2
	opts.MergePolicy = MergeGlobal
	s = newSolver(t, opts)
	if want := "MA-CBS Global(2)/A*/A*+OD"; s.Name() != want {
		t.Errorf("name %q, want %q", s.Name(), want)
	}
	if _, err := New(Options{LowLevel: "dijkstra"}); err == nil {
		t.Error("unknown low-level kind accepted")
	}
}
