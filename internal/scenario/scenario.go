// Package scenario provides built-in MAPF instances and a seeded random generator.
package scenario

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// Scenario is a named instance with its optimal sum-of-costs when known.
type Scenario struct {
	Name        string
	Description string
	Optimal     int // -1 if unknown or unsolvable
	build       func() (*core.Instance, error)
}

// Instance builds a fresh copy of the scenario's instance.
func (s Scenario) Instance() (*core.Instance, error) {
	inst, err := s.build()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	inst.Name = s.Name
	return inst, nil
}

func cell(x, y int) core.Cell { return core.Cell{X: x, Y: y} }

func fixed(rows []string, agents ...core.Agent) func() (*core.Instance, error) {
	return func() (*core.Instance, error) {
		grid, err := core.ParseGrid(rows...)
		if err != nil {
			return nil, err
		}
		return core.NewInstance(grid, agents)
	}
}

var builtin = []Scenario{
	{
		Name:        "pocket",
		Description: "two agents swap ends of a corridor using a one-cell side pocket",
		Optimal:     7,
		build: fixed([]string{"...", "#.#"},
			core.Agent{ID: 0, Start: cell(0, 0), Goal: cell(2, 0)},
			core.Agent{ID: 1, Start: cell(2, 0), Goal: cell(0, 0)},
		),
	},
	{
		Name:        "independent",
		Description: "two agents on a 5x5 grid whose shortest paths never meet",
		Optimal:     8,
		build: fixed([]string{".....", ".....", ".....", ".....", "....."},
			core.Agent{ID: 0, Start: cell(0, 0), Goal: cell(4, 0)},
			core.Agent{ID: 1, Start: cell(0, 4), Goal: cell(4, 4)},
		),
	},
	{
		Name:        "merge",
		Description: "the pocket swap next to a separate room with a third agent",
		Optimal:     9,
		build: fixed([]string{"...#..", "#.##.."},
			core.Agent{ID: 0, Start: cell(0, 0), Goal: cell(2, 0)},
			core.Agent{ID: 1, Start: cell(2, 0), Goal: cell(0, 0)},
			core.Agent{ID: 2, Start: cell(4, 0), Goal: cell(5, 1)},
		),
	},
	{
		Name:        "crossing",
		Description: "two agents cross the center of a 3x3 grid",
		Optimal:     5,
		build: fixed([]string{"...", "...", "..."},
			core.Agent{ID: 0, Start: cell(0, 1), Goal: cell(2, 1)},
			core.Agent{ID: 1, Start: cell(1, 0), Goal: cell(1, 2)},
		),
	},
	{
		Name:        "goal-in-path",
		Description: "one agent parks on a cell the other must pass",
		Optimal:     4,
		build: fixed([]string{"...", "...", "..."},
			core.Agent{ID: 0, Start: cell(0, 1), Goal: cell(1, 1)},
			core.Agent{ID: 1, Start: cell(1, 0), Goal: cell(1, 2)},
		),
	},
	{
		Name:        "blocked",
		Description: "the goal is walled off",
		Optimal:     -1,
		build: fixed([]string{".#."},
			core.Agent{ID: 0, Start: cell(0, 0), Goal: cell(2, 0)},
		),
	},
}

// All lists the built-in scenarios sorted by name.
func All() []Scenario {
	out := append([]Scenario(nil), builtin...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get looks up a built-in scenario.
func Get(name string) (Scenario, bool) {
	for _, s := range builtin {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// RandomParams controls Random.
type RandomParams struct {
	Seed            int64   `json:"seed" yaml:"seed"`
	Width           int     `json:"width" yaml:"width"`
	Height          int     `json:"height" yaml:"height"`
	Agents          int     `json:"agents" yaml:"agents"`
	ObstacleDensity float64 `json:"obstacle_density" yaml:"obstacle_density"` // Fraction of blocked cells
	AllowDiagonal   bool    `json:"allow_diagonal" yaml:"allow_diagonal"`
}

// Name identifies the generated instance.
func (p RandomParams) Name() string {
	return fmt.Sprintf("random_%d_%dx%d_%d", p.Agents, p.Width, p.Height, p.Seed)
}

const maxStartAttempts = 1000

// Random generates a deterministic instance: obstacles are placed at the given density,
// then each agent gets a distinct start and a distinct goal it can reach.
func Random(p RandomParams) (*core.Instance, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("grid size %dx%d", p.Width, p.Height)
	}
	if p.Agents <= 0 {
		return nil, fmt.Errorf("need at least one agent, got %d", p.Agents)
	}
	rng := rand.New(rand.NewSource(p.Seed))

	grid := core.NewGrid(p.Width, p.Height)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			if rng.Float64() < p.ObstacleDensity {
				grid.Block(cell(x, y))
			}
		}
	}
	free := grid.FreeCells()
	if len(free) < p.Agents {
		return nil, fmt.Errorf("%d free cells for %d agents", len(free), p.Agents)
	}

	// Reachability is read from a probe instance whose goal is the start.
	usedStart := make(map[core.Cell]bool, p.Agents)
	usedGoal := make(map[core.Cell]bool, p.Agents)
	agents := make([]core.Agent, 0, p.Agents)
	for id := 0; id < p.Agents; id++ {
		placed := false
		for attempt := 0; attempt < maxStartAttempts && !placed; attempt++ {
			start := free[rng.Intn(len(free))]
			if usedStart[start] {
				continue
			}
			probe := &core.Instance{Grid: grid, Agents: []core.Agent{{ID: id, Start: start, Goal: start}}, AllowDiagonal: p.AllowDiagonal}
			if err := probe.Init(); err != nil {
				return nil, err
			}
			var goals []core.Cell
			for _, c := range free {
				if !usedGoal[c] && probe.Distance(0, c) < core.Unreachable {
					goals = append(goals, c)
				}
			}
			if len(goals) == 0 {
				continue
			}
			goal := goals[rng.Intn(len(goals))]
			usedStart[start] = true
			usedGoal[goal] = true
			agents = append(agents, core.Agent{ID: id, Start: start, Goal: goal})
			placed = true
		}
		if !placed {
			return nil, fmt.Errorf("agent %d: no free start with a reachable goal after %d attempts", id, maxStartAttempts)
		}
	}

	inst := &core.Instance{Name: p.Name(), Grid: grid, Agents: agents, AllowDiagonal: p.AllowDiagonal}
	if err := inst.Init(); err != nil {
		return nil, err
	}
	return inst, nil
}
