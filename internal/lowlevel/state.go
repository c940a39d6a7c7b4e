package lowlevel

import (
	"encoding/binary"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// worldState is a joint search node: one AgentState per agent in the group.
type worldState struct {
	agents    []core.AgentState
	makespan  int // Time of the agents that have not moved yet this step
	turn      int // Number of agents that already moved this step (operator decomposition)
	g, h      int
	conflicts int // Accumulated collisions with the external CAT
	internal  int // Accumulated collisions with the internal CAT
	prev      int // Arena index of the parent, -1 for the root
	id        int // Arena index
	index     int // Open list slot
	popped    bool

	// Partial expansion bookkeeping.
	targetDeltaF int
	epea         *partialExpansion
}

func (s *worldState) Index() int     { return s.index }
func (s *worldState) SetIndex(i int) { s.index = i }

func (s *worldState) f() int { return s.g + s.h }

// rank is the open list ordering key, including the partial-expansion threshold.
func (s *worldState) rank() int { return s.g + s.h + s.targetDeltaF }

// less orders by f, then fewer CAT conflicts, then fewer internal conflicts, then full
// states before partial ones and deeper partial states first, then larger g.
func less(a, b *worldState) bool {
	if a.rank() != b.rank() {
		return a.rank() < b.rank()
	}
	if a.conflicts != b.conflicts {
		return a.conflicts < b.conflicts
	}
	if a.internal != b.internal {
		return a.internal < b.internal
	}
	if a.turn != b.turn {
		if a.turn == 0 || b.turn == 0 {
			return a.turn == 0
		}
		return a.turn > b.turn
	}
	return a.g > b.g
}

// sameRank reports whether neither state would be ordered before the other on the
// fields that do not depend on progress: f and conflict counts.
func sameRank(a, b *worldState) bool {
	return a.rank() == b.rank() && a.conflicts == b.conflicts && a.internal == b.internal
}

func (s *worldState) allAtGoal() bool {
	if s.h != 0 {
		return false
	}
	for _, a := range s.agents {
		if !a.AtGoal() {
			return false
		}
	}
	return true
}

// computeCosts sets g and h under cf. For makespan, f is the latest time any agent
// can finish: its arrival if resting on the goal, otherwise its time plus distance.
func (s *worldState) computeCosts(cf core.CostFunction) {
	s.g, s.h = 0, 0
	if cf == core.Makespan {
		f := 0
		for _, a := range s.agents {
			s.g = max(s.g, a.Cost(a.Last.Time))
			if a.AtGoal() {
				f = max(f, a.ArrivalTime)
			} else {
				f = max(f, a.Last.Time+a.H)
			}
		}
		s.h = f - s.g
		return
	}
	for _, a := range s.agents {
		s.g += a.Cost(a.Last.Time)
		s.h += a.H
	}
}

// dominates reports whether every continuation of o costs at least as much from s:
// same key, no later time, and no agent resting on its goal arrived later. With a
// minimum cost in force a cheaper state may still need to grow, so g must match.
func (s *worldState) dominates(o *worldState, exactCost bool) bool {
	if s.makespan > o.makespan || s.g > o.g || (exactCost && s.g != o.g) {
		return false
	}
	for i := range s.agents {
		if s.agents[i].AtGoal() && s.agents[i].ArrivalTime > o.agents[i].ArrivalTime {
			return false
		}
	}
	return true
}

const noDirectionKey = 0xff

// closedKey identifies states with interchangeable futures. Times past clamp collapse
// because no constraint applies there; directions of moved agents are kept only when a
// later mover could still swap with them.
func closedKey(buf []byte, s *worldState, clamp int, allowHeadOn, mirror bool) []byte {
	t := s.makespan
	if t > clamp {
		t = clamp
	}
	buf = binary.AppendUvarint(buf[:0], uint64(t))
	buf = binary.AppendUvarint(buf, uint64(s.turn))
	for i, a := range s.agents {
		c := a.Last.Cell()
		buf = binary.AppendVarint(buf, int64(c.X))
		buf = binary.AppendVarint(buf, int64(c.Y))
		dir := byte(noDirectionKey)
		if i < s.turn && !allowHeadOn && (!mirror || restricting(s, i)) {
			dir = byte(a.Last.Dir)
		}
		buf = append(buf, dir)
	}
	return buf
}

// restricting reports whether moved agent i now stands where an unmoved agent is,
// so that agent's options depend on the direction i came from.
func restricting(s *worldState, i int) bool {
	c := s.agents[i].Last.Cell()
	for j := s.turn; j < len(s.agents); j++ {
		if s.agents[j].Last.Cell() == c {
			return true
		}
	}
	return false
}
