package scenario

import (
	"reflect"
	"testing"

	"github.com/elektrokombinacija/mapf-cbs/internal/cbs"
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
	"github.com/elektrokombinacija/mapf-cbs/internal/lowlevel"
)

func TestBuiltinOptimalCosts(t *testing.T) {
	for _, sc := range All() {
		t.Run(sc.Name, func(t *testing.T) {
			inst, err := sc.Instance()
			if err != nil {
				t.Fatal(err)
			}
			if inst.Name != sc.Name {
				t.Errorf("instance name %q", inst.Name)
			}
			s, err := cbs.New(cbs.DefaultOptions())
			if err != nil {
				t.Fatal(err)
			}
			s.Setup(lowlevel.NewRequest(inst, inst.AllAgents(), core.NewRunner()))
			solved := s.Solve()
			if sc.Optimal < 0 {
				if solved {
					t.Errorf("solved with cost %d, want no solution", s.SolutionCost())
				}
				return
			}
			if !solved {
				t.Fatalf("status %v", s.Status())
			}
			if s.SolutionCost() != sc.Optimal {
				t.Errorf("cost %d, want %d", s.SolutionCost(), sc.Optimal)
			}
		})
	}
}

func TestGet(t *testing.T) {
	if _, ok := Get("pocket"); !ok {
		t.Error("pocket not found")
	}
	if _, ok := Get("nope"); ok {
		t.Error("unknown scenario found")
	}
	all := All()
	for i := 1; i < len(all); i++ {
		if all[i-1].Name >= all[i].Name {
			t.Errorf("scenarios not sorted: %q before %q", all[i-1].Name, all[i].Name)
		}
	}
}

func TestRandom(t *testing.T) {
	p := RandomParams{Seed: 42, Width: 8, Height: 8, Agents: 6, ObstacleDensity: 0.2}
	a, err := Random(p)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Random(p)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Agents, b.Agents) {
		t.Error("same seed produced different agents")
	}
	if a.Name != "random_6_8x8_42" {
		t.Errorf("name %q", a.Name)
	}
	if len(a.Agents) != 6 {
		t.Fatalf("%d agents", len(a.Agents))
	}
	if a.SumOfIndividualCosts(a.AllAgents()) >= core.Unreachable {
		t.Error("generated an unreachable goal")
	}

	p.Seed = 43
	c, err := Random(p)
	if err != nil {
		t.Fatal(err)
	}
	if reflect.DeepEqual(a.Agents, c.Agents) {
		t.Error("different seeds produced identical agents")
	}
}

func TestRandomSolvable(t *testing.T) {
	for seed := int64(1); seed <= 3; seed++ {
		inst, err := Random(RandomParams{Seed: seed, Width: 6, Height: 6, Agents: 3})
		if err != nil {
			t.Fatal(err)
		}
		s, err := cbs.New(cbs.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		s.Setup(lowlevel.NewRequest(inst, inst.AllAgents(), core.NewRunner()))
		if !s.Solve() {
			t.Fatalf("seed %d: status %v", seed, s.Status())
		}
		if err := s.Plan().CheckValid(inst, inst.AllAgents()); err != nil {
			t.Errorf("seed %d: %v", seed, err)
		}
	}
}

func TestRandomRejects(t *testing.T) {
	tests := []RandomParams{
		{Width: 0, Height: 4, Agents: 1},
		{Width: 4, Height: 4, Agents: 0},
		{Width: 2, Height: 1, Agents: 3},
	}
	for _, p := range tests {
		if _, err := Random(p); err == nil {
			t.Errorf("%+v accepted", p)
		}
	}
}
