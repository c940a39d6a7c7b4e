package core

import (
	"errors"
	"fmt"
)

// Unreachable is the distance reported for cells that cannot reach an agent's goal.
const Unreachable = 1 << 30

// Agent is a start/goal pair.
type Agent struct {
	ID    int
	Start Cell
	Goal  Cell
}

// Instance represents a MAPF problem instance: a grid and agents.
// Distances to every goal are precomputed by Init and read-only afterwards.
type Instance struct {
	Name          string
	Grid          *Grid
	Agents        []Agent
	AllowDiagonal bool

	distances [][]int // agent index -> cell index -> steps to goal
}

// NewInstance creates an instance and precomputes its distance tables.
func NewInstance(grid *Grid, agents []Agent) (*Instance, error) {
	inst := &Instance{Grid: grid, Agents: agents}
	if err := inst.Init(); err != nil {
		return nil, err
	}
	return inst, nil
}

// Init validates the instance and runs a breadth-first search from every goal.
func (inst *Instance) Init() error {
	if err := inst.Validate(); err != nil {
		return err
	}
	inst.distances = make([][]int, len(inst.Agents))
	for i, a := range inst.Agents {
		inst.distances[i] = inst.bfsFrom(a.Goal)
	}
	return nil
}

// Validate checks instance consistency.
func (inst *Instance) Validate() error {
	if inst.Grid == nil {
		return errors.New("instance has no grid")
	}
	if len(inst.Agents) == 0 {
		return errors.New("instance has no agents")
	}
	starts := make(map[Cell]int, len(inst.Agents))
	goals := make(map[Cell]int, len(inst.Agents))
	for i, a := range inst.Agents {
		if !inst.Grid.IsValid(a.Start) {
			return fmt.Errorf("agent %d: start %v is not a free cell", a.ID, a.Start)
		}
		if !inst.Grid.InBounds(a.Goal) {
			return fmt.Errorf("agent %d: goal %v is outside the grid", a.ID, a.Goal)
		}
		if j, ok := starts[a.Start]; ok {
			return fmt.Errorf("agents %d and %d share start %v", inst.Agents[j].ID, a.ID, a.Start)
		}
		if j, ok := goals[a.Goal]; ok {
			return fmt.Errorf("agents %d and %d share goal %v", inst.Agents[j].ID, a.ID, a.Goal)
		}
		starts[a.Start] = i
		goals[a.Goal] = i
	}
	return nil
}

// bfsFrom computes unit-cost distances from c over the reversed move graph,
// which equals the forward graph because every operator has an opposite.
func (inst *Instance) bfsFrom(c Cell) []int {
	dist := make([]int, inst.Grid.Size())
	for i := range dist {
		dist[i] = Unreachable
	}
	if !inst.Grid.IsValid(c) {
		return dist
	}
	dist[inst.Grid.index(c)] = 0
	queue := []Cell{c}
	dirs := Directions(inst.AllowDiagonal)[1:]
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := dist[inst.Grid.index(cur)]
		for _, dir := range dirs {
			dx, dy := dir.Delta()
			next := Cell{X: cur.X + dx, Y: cur.Y + dy}
			if !inst.Grid.IsValid(next) {
				continue
			}
			if idx := inst.Grid.index(next); dist[idx] == Unreachable {
				dist[idx] = d + 1
				queue = append(queue, next)
			}
		}
	}
	return dist
}

// Distance returns the optimal single-agent distance from c to agent i's goal,
// or Unreachable.
func (inst *Instance) Distance(agent int, c Cell) int {
	if !inst.Grid.InBounds(c) {
		return Unreachable
	}
	return inst.distances[agent][inst.Grid.index(c)]
}

// SingleAgentOptimalCost returns agent i's independent optimal cost.
func (inst *Instance) SingleAgentOptimalCost(agent int) int {
	return inst.Distance(agent, inst.Agents[agent].Start)
}

// SumOfIndividualCosts is the admissible lower bound over the given agents.
// It returns Unreachable when any of them cannot reach its goal.
func (inst *Instance) SumOfIndividualCosts(agents []int) int {
	sum := 0
	for _, a := range agents {
		d := inst.SingleAgentOptimalCost(a)
		if d >= Unreachable {
			return Unreachable
		}
		sum += d
	}
	return sum
}

// AllAgents returns the indices 0..n-1.
func (inst *Instance) AllAgents() []int {
	ids := make([]int, len(inst.Agents))
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// IsValid reports whether m lands on a free cell.
func (inst *Instance) IsValid(m Move) bool {
	return inst.Grid.IsValid(m.Cell())
}
