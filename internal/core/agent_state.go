package core

// NotArrived marks an agent that is currently away from its goal.
const NotArrived = -1

// AgentState is one agent's position within a search node.
type AgentState struct {
	Agent       int // Index into Instance.Agents
	Goal        Cell
	Last        TimedMove // Last move performed; Last.Time is the agent's current step
	H           int       // Distance to goal
	ArrivalTime int       // First step of the current stay at the goal, or NotArrived
}

// NewAgentState places agent i at its start at time 0.
func NewAgentState(inst *Instance, agent int) AgentState {
	a := inst.Agents[agent]
	s := AgentState{
		Agent:       agent,
		Goal:        a.Goal,
		Last:        NewTimedMove(a.Start, Wait, 0),
		H:           inst.Distance(agent, a.Start),
		ArrivalTime: NotArrived,
	}
	if s.AtGoal() {
		s.ArrivalTime = 0
	}
	return s
}

// AtGoal reports whether the agent currently stands on its goal.
func (s AgentState) AtGoal() bool { return s.Last.Cell() == s.Goal }

// MoveTo advances the agent by one step.
// Arrival time is set when the agent steps onto its goal and cleared when it leaves.
func (s *AgentState) MoveTo(inst *Instance, m TimedMove) {
	wasAtGoal := s.AtGoal()
	s.Last = m
	s.H = inst.Distance(s.Agent, m.Cell())
	switch {
	case !s.AtGoal():
		s.ArrivalTime = NotArrived
	case !wasAtGoal:
		s.ArrivalTime = m.Time
	}
}

// Cost is the agent's contribution to sum-of-costs at the given makespan.
func (s AgentState) Cost(makespan int) int {
	if s.AtGoal() {
		return s.ArrivalTime
	}
	return makespan
}
