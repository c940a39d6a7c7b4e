package core

import "fmt"

// SinglePlan is one agent's timed path from start to goal. Moves[t].Time == t.
type SinglePlan struct {
	AgentID int
	Moves   []TimedMove
	cost    int
}

// NewSinglePlan wraps moves into a plan; the last move must be on the goal.
func NewSinglePlan(agentID int, moves []TimedMove) *SinglePlan {
	p := &SinglePlan{AgentID: agentID, Moves: moves}
	p.cost = len(moves) - 1
	if len(moves) > 0 {
		goal := moves[len(moves)-1].Cell()
		for p.cost > 0 && moves[p.cost-1].Cell() == goal {
			p.cost--
		}
	}
	return p
}

// Len returns the number of timesteps covered, including time 0.
func (p *SinglePlan) Len() int { return len(p.Moves) }

// Cost is the arrival time of the final stay at the goal.
func (p *SinglePlan) Cost() int { return p.cost }

// Goal returns the final cell.
func (p *SinglePlan) Goal() Cell { return p.Moves[len(p.Moves)-1].Cell() }

// LocationAt returns the move at time t. After the plan ends the agent waits at its goal.
func (p *SinglePlan) LocationAt(t int) Move {
	if t < len(p.Moves) {
		return p.Moves[t].Move
	}
	return NewMove(p.Goal(), Wait)
}

// TimedLocationAt is LocationAt with the time attached.
func (p *SinglePlan) TimedLocationAt(t int) TimedMove {
	return TimedMove{Move: p.LocationAt(t), Time: t}
}

func (p *SinglePlan) String() string {
	return fmt.Sprintf("agent %d cost %d %v", p.AgentID, p.cost, p.Moves)
}

// Plan holds one SinglePlan per agent.
type Plan []*SinglePlan

// Cost returns the sum-of-costs.
func (p Plan) Cost() int {
	sum := 0
	for _, sp := range p {
		sum += sp.Cost()
	}
	return sum
}

// CostUnder folds the agents' costs with cf.
func (p Plan) CostUnder(cf CostFunction) int {
	costs := make([]int, len(p))
	for i, sp := range p {
		costs[i] = sp.Cost()
	}
	return cf.Combine(costs...)
}

// Makespan returns the longest plan length minus one.
func (p Plan) Makespan() int {
	m := 0
	for _, sp := range p {
		if sp.Len()-1 > m {
			m = sp.Len() - 1
		}
	}
	return m
}

// Collision describes two plans colliding at a timestep.
type Collision struct {
	A, B   int // Indices into the plan
	Time   int
	MoveA  Move
	MoveB  Move
	Vertex bool
}

// FirstCollision scans timesteps in order and returns the earliest collision, if any.
func (p Plan) FirstCollision(allowHeadOn bool) (Collision, bool) {
	for t := 1; t <= p.Makespan(); t++ {
		for i := 0; i < len(p); i++ {
			mi := p[i].LocationAt(t)
			for j := i + 1; j < len(p); j++ {
				mj := p[j].LocationAt(t)
				if mi.Collides(mj, allowHeadOn) {
					return Collision{
						A: i, B: j, Time: t,
						MoveA: mi, MoveB: mj,
						Vertex: mi.Cell() == mj.Cell(),
					}, true
				}
			}
		}
	}
	return Collision{}, false
}

// CheckValid verifies that every plan starts at its agent's start, moves between
// adjacent free cells and ends on its goal.
func (p Plan) CheckValid(inst *Instance, agents []int) error {
	if len(p) != len(agents) {
		return fmt.Errorf("plan has %d agents, want %d", len(p), len(agents))
	}
	for k, sp := range p {
		a := inst.Agents[agents[k]]
		if sp.Len() == 0 {
			return fmt.Errorf("agent %d: empty plan", a.ID)
		}
		if sp.Moves[0].Cell() != a.Start {
			return fmt.Errorf("agent %d: starts at %v, want %v", a.ID, sp.Moves[0].Cell(), a.Start)
		}
		if sp.Goal() != a.Goal {
			return fmt.Errorf("agent %d: ends at %v, want %v", a.ID, sp.Goal(), a.Goal)
		}
		for t, m := range sp.Moves {
			if m.Time != t {
				return fmt.Errorf("agent %d: move %d has time %d", a.ID, t, m.Time)
			}
			if !inst.IsValid(m.Move) {
				return fmt.Errorf("agent %d: %v is not a free cell", a.ID, m)
			}
			if t > 0 && m.Source() != sp.Moves[t-1].Cell() {
				return fmt.Errorf("agent %d: %v does not follow %v", a.ID, m, sp.Moves[t-1])
			}
		}
	}
	return nil
}
