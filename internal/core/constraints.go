package core

// ConstraintSet indexes the negative and positive constraints that apply to one search.
// A nil *ConstraintSet allows everything.
type ConstraintSet struct {
	forbidden map[agentCell][]Direction
	required  map[agentTime]Move
	latest    map[int]int
	size      int
}

type agentCell struct {
	agent int
	at    TimedCell
}

type agentTime struct {
	agent, time int
}

// NewConstraintSet creates an empty set.
func NewConstraintSet() *ConstraintSet {
	return &ConstraintSet{
		forbidden: make(map[agentCell][]Direction),
		required:  make(map[agentTime]Move),
		latest:    make(map[int]int),
	}
}

// Forbid adds "agent must not perform m". A NoDirection move forbids any arrival into the cell.
func (s *ConstraintSet) Forbid(agent int, m TimedMove) {
	k := agentCell{agent: agent, at: m.Key()}
	s.forbidden[k] = append(s.forbidden[k], m.Dir)
	s.touch(agent, m.Time)
}

// Require adds "agent must perform m at m.Time".
func (s *ConstraintSet) Require(agent int, m TimedMove) {
	s.required[agentTime{agent: agent, time: m.Time}] = m.Move
	s.touch(agent, m.Time)
}

func (s *ConstraintSet) touch(agent, t int) {
	s.size++
	if cur, ok := s.latest[agent]; !ok || t > cur {
		s.latest[agent] = t
	}
}

// Len returns the number of constraints added.
func (s *ConstraintSet) Len() int {
	if s == nil {
		return 0
	}
	return s.size
}

// Forbidden reports whether a negative constraint matches m for agent.
func (s *ConstraintSet) Forbidden(agent int, m TimedMove) bool {
	if s == nil {
		return false
	}
	for _, d := range s.forbidden[agentCell{agent: agent, at: m.Key()}] {
		if d == NoDirection || d == m.Dir || m.Dir == NoDirection {
			return true
		}
	}
	return false
}

// Required returns the move agent is forced to perform at time t.
func (s *ConstraintSet) Required(agent, t int) (Move, bool) {
	if s == nil {
		return Move{}, false
	}
	m, ok := s.required[agentTime{agent: agent, time: t}]
	return m, ok
}

// Allows reports whether agent may perform m.
func (s *ConstraintSet) Allows(agent int, m TimedMove) bool {
	if s.Forbidden(agent, m) {
		return false
	}
	if req, ok := s.Required(agent, m.Time); ok && !req.Equal(m.Move) {
		return false
	}
	return true
}

// LatestTime returns the time of the last constraint on agent, or 0.
func (s *ConstraintSet) LatestTime(agent int) int {
	if s == nil {
		return 0
	}
	return s.latest[agent]
}

// GoalDepth returns the earliest time from which the agent may rest at goal forever:
// one past the last constraint that stops it waiting on goal, and no earlier than its
// last positive constraint.
func (s *ConstraintSet) GoalDepth(agent int, goal Cell) int {
	if s == nil {
		return 0
	}
	depth := 0
	for k, dirs := range s.forbidden {
		if k.agent != agent || k.at.Cell != goal || k.at.Time < depth {
			continue
		}
		for _, d := range dirs {
			if d == NoDirection || d == Wait {
				depth = k.at.Time + 1
				break
			}
		}
	}
	for k := range s.required {
		if k.agent == agent && k.time > depth {
			depth = k.time
		}
	}
	return depth
}

// Clone returns an independent copy. Cloning nil yields an empty set.
func (s *ConstraintSet) Clone() *ConstraintSet {
	c := NewConstraintSet()
	if s == nil {
		return c
	}
	for k, dirs := range s.forbidden {
		c.forbidden[k] = append([]Direction(nil), dirs...)
	}
	for k, m := range s.required {
		c.required[k] = m
	}
	for a, t := range s.latest {
		c.latest[a] = t
	}
	c.size = s.size
	return c
}
