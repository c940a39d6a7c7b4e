package lowlevel

import (
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
	"github.com/elektrokombinacija/mapf-cbs/internal/openlist"
	"github.com/elektrokombinacija/mapf-cbs/internal/stats"
)

// search holds what every A* variant shares: the request, open and closed lists, the
// state arena and the budget. Variants plug in their own expansion.
type search struct {
	cfg    Config
	req    Request
	expand func(s *worldState)

	open   *openlist.OpenList[*worldState]
	closed map[string][]*worldState
	arena  []*worldState
	keyBuf []byte
	dirs   []core.Direction

	goalDepth  int // Earliest time the whole group may rest on its goals
	clampDepth int // No constraint or MDD level applies after this time

	status    core.Status
	cost      int
	plan      core.Plan
	exhausted bool // The arena reached Config.MaxStates

	expanded   int
	generated  int
	closedHits int
	reopened   int
}

func newSearch(cfg Config) search {
	return search{cfg: cfg, cost: core.NoSolutionCost}
}

// Setup prepares the root state.
func (s *search) Setup(req Request) {
	if req.Runner == nil {
		req.Runner = core.NewRunner()
	}
	if len(req.Agents) != 1 {
		req.MDD = nil
	}
	s.req = req
	s.open = openlist.New(less)
	s.closed = make(map[string][]*worldState)
	s.arena = s.arena[:0]
	s.dirs = core.Directions(req.Instance.AllowDiagonal)
	s.status = core.Unsolved
	s.cost = core.NoSolutionCost
	s.plan = nil
	s.exhausted = false

	s.goalDepth = req.MinDepth
	s.clampDepth = req.MinDepth
	for _, a := range req.Agents {
		if d := req.Constraints.GoalDepth(a, req.Instance.Agents[a].Goal); d > s.goalDepth {
			s.goalDepth = d
		}
		if d := req.Constraints.LatestTime(a); d > s.clampDepth {
			s.clampDepth = d
		}
	}
	if s.goalDepth > s.clampDepth {
		s.clampDepth = s.goalDepth
	}
	if req.MinCost > s.clampDepth {
		s.clampDepth = req.MinCost
	}
	if req.MDD != nil && req.MDD.NumLevels() > s.clampDepth {
		s.clampDepth = req.MDD.NumLevels()
	}

	root := &worldState{
		agents: make([]core.AgentState, len(req.Agents)),
		prev:   -1,
		index:  openlist.NotQueued,
	}
	for i, a := range req.Agents {
		root.agents[i] = core.NewAgentState(req.Instance, a)
		if root.agents[i].H >= core.Unreachable {
			return
		}
	}
	if req.MDD != nil && !req.MDD.Solvable() {
		return
	}
	root.computeCosts(s.cfg.CostFunction)
	if req.MaxCost >= 0 && root.f() > req.MaxCost {
		return
	}
	s.admit(root)
	s.open.Add(root)
}

// Solve pops states in best-first order until a goal is popped, the open list empties
// or the budget runs out.
func (s *search) Solve() bool {
	if s.status != core.Unsolved || s.open == nil {
		return s.status == core.Solved
	}
	limit := s.cfg.maxTime()
	for s.open.Len() > 0 {
		if s.req.Runner.ElapsedMilliseconds() > limit {
			s.fail(core.Timeout)
			return false
		}
		st := s.open.RemoveMin()
		if !st.popped {
			st.popped = true
			if s.isGoal(st) {
				s.finish(st)
				return true
			}
		}
		s.expanded++
		s.expand(st)
		if s.exhausted {
			s.fail(core.MemoryExhausted)
			return false
		}
	}
	s.fail(core.NoSolution)
	return false
}

func (s *search) isGoal(st *worldState) bool {
	if st.turn != 0 || !st.allAtGoal() || st.makespan < s.goalDepth {
		return false
	}
	return s.req.MinCost < 0 || st.g >= s.req.MinCost
}

func (s *search) finish(goal *worldState) {
	n := len(s.req.Agents)
	moves := make([][]core.TimedMove, n)
	for i := range moves {
		moves[i] = make([]core.TimedMove, goal.makespan+1)
	}
	for st := goal; st != nil; st = s.parent(st) {
		if st.turn != 0 {
			continue
		}
		for i, a := range st.agents {
			moves[i][st.makespan] = a.Last
		}
	}
	s.plan = make(core.Plan, n)
	for i, a := range s.req.Agents {
		s.plan[i] = core.NewSinglePlan(s.req.Instance.Agents[a].ID, moves[i])
	}
	s.cost = goal.g
	s.status = core.Solved
	s.release()
}

func (s *search) fail(status core.Status) {
	s.status = status
	s.cost = status.Cost()
	s.plan = nil
	s.release()
}

// release drops search memory after termination.
func (s *search) release() {
	if s.open != nil {
		s.open.Clear()
	}
	s.closed = nil
	s.arena = nil
}

func (s *search) parent(st *worldState) *worldState {
	if st.prev < 0 {
		return nil
	}
	return s.arena[st.prev]
}

// admit records st in the closed list unless an existing state dominates it.
// States that st dominates are dropped from both lists.
func (s *search) admit(st *worldState) bool {
	s.keyBuf = closedKey(s.keyBuf, st, s.clampDepth, s.cfg.AllowHeadOn, s.cfg.ODMirrorKeys)
	key := string(s.keyBuf)
	exact := s.req.MinCost >= 0
	entries := s.closed[key]
	for _, e := range entries {
		if e.dominates(st, exact) {
			s.closedHits++
			return false
		}
	}
	kept := entries[:0]
	for _, e := range entries {
		if st.dominates(e, exact) {
			s.open.Remove(e)
			s.reopened++
			continue
		}
		kept = append(kept, e)
	}
	s.closed[key] = append(kept, st)
	st.id = len(s.arena)
	s.arena = append(s.arena, st)
	return true
}

// agentMoves returns every legal single-step successor of a, ignoring other agents.
func (s *search) agentMoves(a core.AgentState) []core.AgentState {
	inst := s.req.Instance
	out := make([]core.AgentState, 0, len(s.dirs))
	for _, d := range s.dirs {
		m := a.Last.Next(d)
		if !inst.IsValid(m.Move) || inst.Distance(a.Agent, m.Cell()) >= core.Unreachable {
			continue
		}
		if !s.req.Constraints.Allows(a.Agent, m) {
			continue
		}
		if s.req.MDD != nil && !s.req.MDD.AllowsStep(a.Last.Cell(), m) {
			continue
		}
		next := a
		next.MoveTo(inst, m)
		out = append(out, next)
	}
	return out
}

// collidesWithAny checks m against moves already chosen for this timestep.
func (s *search) collidesWithAny(m core.Move, chosen []core.AgentState) bool {
	for _, c := range chosen {
		if m.Collides(c.Last.Move, s.cfg.AllowHeadOn) {
			return true
		}
	}
	return false
}

// stepConflicts counts CAT hits of a single move.
func (s *search) stepConflicts(m core.TimedMove) (external, internal int) {
	return s.req.CAT.Count(m), s.req.InternalCAT.Count(m)
}

// generate builds a child of parent, applies MaxCost pruning and duplicate detection,
// and returns nil when the child is discarded. It does not add the child to open.
func (s *search) generate(parent *worldState, agents []core.AgentState, makespan, turn, external, internal int) *worldState {
	if s.cfg.MaxStates > 0 && len(s.arena) >= s.cfg.MaxStates {
		s.exhausted = true
		return nil
	}
	child := &worldState{
		agents:    agents,
		makespan:  makespan,
		turn:      turn,
		conflicts: parent.conflicts + external,
		internal:  parent.internal + internal,
		prev:      parent.id,
		index:     openlist.NotQueued,
	}
	child.computeCosts(s.cfg.CostFunction)
	if s.req.MaxCost >= 0 && child.f() > s.req.MaxCost {
		return nil
	}
	if !s.admit(child) {
		return nil
	}
	s.generated++
	return child
}

func (s *search) Plan() core.Plan     { return s.plan }
func (s *search) SolutionCost() int   { return s.cost }
func (s *search) Status() core.Status { return s.status }
func (s *search) Expanded() int       { return s.expanded }
func (s *search) Generated() int      { return s.generated }
func (s *search) ClosedListHits() int { return s.closedHits }
func (s *search) Clear()              { s.release() }

func (s *search) OutputStatistics(sink stats.Sink) {
	sink.Counter("expanded", int64(s.expanded))
	sink.Counter("generated", int64(s.generated))
	sink.Counter("closed_list_hits", int64(s.closedHits))
	sink.Counter("reopened", int64(s.reopened))
	if s.open != nil {
		s.open.OutputStatistics(sink)
	}
}
