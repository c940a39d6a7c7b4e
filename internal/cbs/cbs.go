package cbs

import (
	"fmt"
	"log"

	"github.com/elektrokombinacija/mapf-cbs/internal/cat"
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
	"github.com/elektrokombinacija/mapf-cbs/internal/lowlevel"
	"github.com/elektrokombinacija/mapf-cbs/internal/mdd"
	"github.com/elektrokombinacija/mapf-cbs/internal/openlist"
	"github.com/elektrokombinacija/mapf-cbs/internal/stats"
)

// Options configures a CBS solver.
type Options struct {
	LowLevel      lowlevel.Kind   // Single-agent replanning
	GroupLowLevel lowlevel.Kind   // Joint replanning of merged groups
	GroupSolver   lowlevel.Solver // Overrides GroupLowLevel, e.g. with a nested CBS
	Config        lowlevel.Config

	MergeThreshold int // Merge two groups once they conflicted more than this; -1 disables
	MergePolicy    MergePolicy
	MaxNodes       int // Constraint tree size at which Solve stops with MemoryExhausted; 0 disables

	Heuristic      Heuristic
	ConflictChoice ConflictChoice

	Observer Observer
	Logger   *log.Logger // nil means silent
}

// DefaultOptions returns plain CBS over A* with merging disabled.
func DefaultOptions() Options {
	return Options{
		LowLevel:       lowlevel.KindAStar,
		GroupLowLevel:  lowlevel.KindOD,
		MergeThreshold: -1,
	}
}

// Solver is a CBS (or MA-CBS, when merging is enabled) search. It implements
// lowlevel.Solver, so it can plan merged groups for an outer CBS.
type Solver struct {
	opts  Options
	low   lowlevel.Solver
	group lowlevel.Solver

	req      lowlevel.Request
	agents   []int      // Local index -> instance agent index
	external *cat.Table // Caller's plans, for tie-breaking

	open   *openlist.OpenList[*Node]
	closed map[string]struct{}
	arena  []*Node
	global [][]int // Conflict counts between local agents, global merge policy only

	status    core.Status
	cost      int
	plan      core.Plan
	timedOut  bool
	exhausted bool // A low-level search hit its state cap

	targetCost           int
	lowLevelGeneratedCap int
	milliCap             int64

	highLevelExpanded  int
	highLevelGenerated int
	closedHits         int
	maxGroupSize       int
	deferred           int
	merges             int
	lowLevelExpanded   int
	lowLevelGenerated  int
}

// New creates a solver with the low-level algorithms named in opts.
func New(opts Options) (*Solver, error) {
	if opts.Config.CostFunction != core.SumOfCosts && opts.Heuristic != NoHeuristic {
		return nil, fmt.Errorf("heuristic %v supports only sum-of-costs, not %v", opts.Heuristic, opts.Config.CostFunction)
	}
	low, err := lowlevel.New(opts.LowLevel, opts.Config)
	if err != nil {
		return nil, fmt.Errorf("single-agent solver: %w", err)
	}
	group := opts.GroupSolver
	if group == nil {
		kind := opts.GroupLowLevel
		if kind == "" {
			kind = lowlevel.KindOD
		}
		if group, err = lowlevel.New(kind, opts.Config); err != nil {
			return nil, fmt.Errorf("group solver: %w", err)
		}
	}
	return &Solver{
		opts:                 opts,
		low:                  low,
		group:                group,
		status:               core.Unsolved,
		cost:                 core.NoSolutionCost,
		targetCost:           -1,
		lowLevelGeneratedCap: -1,
		milliCap:             -1,
	}, nil
}

func (s *Solver) Name() string {
	if s.opts.MergeThreshold < 0 {
		return "CBS/" + s.low.Name()
	}
	return fmt.Sprintf("MA-CBS %v(%d)/%s/%s", s.opts.MergePolicy, s.opts.MergeThreshold, s.low.Name(), s.group.Name())
}

func (s *Solver) logf(format string, args ...any) {
	if s.opts.Logger != nil {
		s.opts.Logger.Printf(format, args...)
	}
}

// Setup plans every agent on its own and pushes the root node.
// Request.MinCost and Request.MDD are ignored.
func (s *Solver) Setup(req lowlevel.Request) {
	if req.Runner == nil {
		req.Runner = core.NewRunner()
	}
	s.req = req
	s.agents = append([]int(nil), req.Agents...)
	s.external = cat.New()
	s.external.Merge(req.CAT)
	s.external.Merge(req.InternalCAT)
	s.open = openlist.New(nodeLess)
	s.closed = make(map[string]struct{})
	s.arena = nil
	s.status = core.Unsolved
	s.cost = core.NoSolutionCost
	s.plan = nil
	s.timedOut = false
	s.exhausted = false

	s.highLevelExpanded = 0
	s.highLevelGenerated = 0
	s.closedHits = 0
	s.deferred = 0
	s.merges = 0
	s.lowLevelExpanded = 0
	s.lowLevelGenerated = 0
	s.maxGroupSize = 1

	n := len(s.agents)
	s.global = nil
	if s.opts.MergeThreshold >= 0 && s.opts.MergePolicy == MergeGlobal {
		s.global = make([][]int, n)
		for i := range s.global {
			s.global[i] = make([]int, n)
		}
	}

	root := &Node{
		parent: -1,
		plans:  make([]*core.SinglePlan, n),
		costs:  make([]int, n),
		groups: NewDisjointSet(n),
		mvc:    -1,
		index:  openlist.NotQueued,
		mdds:   make(map[int]*mdd.MDD),
	}
	for i := range s.agents {
		if !s.replan(root, i) {
			s.fail(s.failure())
			return
		}
	}
	root.totalCost = root.PlanCost(s.opts.Config.CostFunction)
	if s.req.MaxCost >= 0 && root.totalCost > s.req.MaxCost {
		s.fail(core.NoSolution)
		return
	}
	s.findConflicts(root)
	s.closed[closedKey(root, nil)] = struct{}{}
	s.arena = append(s.arena, root)
	s.open.Add(root)
	s.logf("root: cost=%d conflicts=%d", root.totalCost, root.internal)
}

// Solve pops constraint tree nodes until one has no conflicts. A search stopped by a
// target cost or soft cap reports Interrupted and may be resumed by calling Solve again.
func (s *Solver) Solve() bool {
	switch s.status {
	case core.Interrupted:
		s.status = core.Unsolved
	case core.Unsolved:
	default:
		return s.status == core.Solved
	}
	if s.open == nil {
		return false
	}
	limit := s.opts.Config.MaxTime
	if limit <= 0 {
		limit = core.DefaultMaxTime
	}

	for s.open.Len() > 0 {
		elapsed := s.req.Runner.ElapsedMilliseconds()
		if s.timedOut || elapsed > limit {
			s.logf("out of time after %d ms", elapsed)
			s.fail(core.Timeout)
			return false
		}
		if s.exhausted {
			s.logf("low-level search ran out of states")
			s.fail(core.MemoryExhausted)
			return false
		}
		n := s.open.RemoveMin()

		// Step 1: choose the conflict and compute h the first time the node is seen
		if !n.prepared {
			s.prepare(n)
			if n.h > 0 {
				s.open.Add(n)
				continue
			}
		}
		if s.opts.Observer != nil {
			s.opts.Observer.OnNodeExpanded(s.info(n))
		}

		// Step 2: goal test
		if n.conflict == nil {
			s.plan = n.Plan()
			s.cost = n.totalCost
			s.status = core.Solved
			s.logf("solved: cost=%d expanded=%d generated=%d", s.cost, s.highLevelExpanded, s.highLevelGenerated)
			if s.opts.Observer != nil {
				s.opts.Observer.OnSolutionFound(s.plan, s.cost)
			}
			s.release()
			return true
		}

		// Step 3: stop early when the caller's target or caps are reached
		if (s.targetCost >= 0 && n.F() >= s.targetCost) ||
			(s.lowLevelGeneratedCap >= 0 && s.lowLevelGenerated > s.lowLevelGeneratedCap) ||
			(s.milliCap >= 0 && elapsed > s.milliCap) {
			s.open.Add(n)
			s.status = core.Interrupted
			s.cost = n.F()
			return false
		}

		// Step 4: expand, possibly only one branch
		if s.opts.MaxNodes > 0 && len(s.arena) >= s.opts.MaxNodes {
			s.logf("constraint tree reached %d nodes", len(s.arena))
			s.fail(core.MemoryExhausted)
			return false
		}
		fresh := n.expansion[0] == NotExpanded && n.expansion[1] == NotExpanded
		s.expand(n)
		if fresh {
			s.highLevelExpanded++
		}
		if n.bothExpanded() {
			n.clear()
		}
	}

	s.fail(s.failure())
	return false
}

// failure is the status of a search that ran out of nodes: NoSolution, unless a
// low-level search gave up on its budget first.
func (s *Solver) failure() core.Status {
	switch {
	case s.timedOut:
		return core.Timeout
	case s.exhausted:
		return core.MemoryExhausted
	default:
		return core.NoSolution
	}
}

// expand resolves n's conflict by merging the two groups or by generating the
// children that are not yet generated. A vertex conflict at or after an agent's
// arrival defers that agent's child: n goes back to the open list with the cost the
// child is bound to have, so other nodes get a chance first.
func (s *Solver) expand(n *Node) {
	c := *n.conflict
	if s.opts.Observer != nil {
		s.opts.Observer.OnConflictDetected(s.info(n), c)
	}
	if s.shouldMerge(n, c) {
		s.merge(n, c)
		return
	}

	for side := 0; side < 2; side++ {
		agent := c.A
		if side == 1 {
			agent = c.B
		}
		switch n.expansion[side] {
		case Expanded:
			continue
		case NotExpanded:
			if c.Vertex && c.Time >= n.costs[agent] && n.groups.SizeOf(agent) == 1 {
				if n.expansion[1-side] == Deferred {
					panic(fmt.Sprintf("cbs: both sides of %v deferred", c))
				}
				n.expansion[side] = Deferred
				cf := s.opts.Config.CostFunction
				raised := append([]int(nil), n.costs...)
				raised[agent] = c.Time + 1
				delta := cf.Combine(raised...) - n.PlanCost(cf)
				n.totalCost += delta
				n.h = max(0, n.h-delta)
				s.deferred++
				s.open.Add(n)
				continue
			}
		}
		s.generate(n, c, side == 0)
		n.expansion[side] = Expanded
	}
}

// generate adds the child of n that constrains one side of c.
func (s *Solver) generate(n *Node, c Conflict, first bool) {
	agent := c.B
	if first {
		agent = c.A
	}
	con := NewConstraint(c, first, s.instanceAgents(n.groups.Members(agent)))
	child := n.newChild(con)
	key := closedKey(child, s.constraints(child))
	if _, ok := s.closed[key]; ok {
		s.closedHits++
		return
	}
	if !s.replan(child, agent) {
		return
	}
	child.totalCost = child.PlanCost(s.opts.Config.CostFunction)
	if parent := n.PlanCost(s.opts.Config.CostFunction); child.totalCost < parent {
		panic(fmt.Sprintf("cbs: child cost %d below parent cost %d", child.totalCost, parent))
	}
	if s.req.MaxCost >= 0 && child.totalCost > s.req.MaxCost {
		return
	}
	s.findConflicts(child)
	s.closed[key] = struct{}{}
	child.id = len(s.arena)
	s.arena = append(s.arena, child)
	s.highLevelGenerated++
	s.open.Add(child)
	if s.opts.Observer != nil {
		s.opts.Observer.OnConstraintAdded(s.info(child), con)
	}
}

// replan finds a new plan for the group of local agent a under n's constraints and
// writes it into n. The plans of the other agents serve as the internal CAT.
func (s *Solver) replan(n *Node, a int) bool {
	members := n.groups.Members(a)
	internal := cat.New()
	others := 0
	for i, p := range n.plans {
		if p == nil || n.groups.Same(i, a) {
			continue
		}
		internal.Add(p, s.agents[i])
		others += n.costs[i]
	}

	req := lowlevel.Request{
		Instance:    s.req.Instance,
		Agents:      s.instanceAgents(members),
		MinDepth:    s.req.MinDepth,
		Runner:      s.req.Runner,
		CAT:         s.external,
		InternalCAT: internal,
		Constraints: s.allConstraints(n),
		MinCost:     -1,
		MaxCost:     -1,
	}
	if s.req.MaxCost >= 0 {
		req.MaxCost = s.req.MaxCost
		if s.opts.Config.CostFunction == core.SumOfCosts {
			req.MaxCost -= others
		}
		if req.MaxCost < 0 {
			return false
		}
	}

	solver := s.low
	if len(members) > 1 {
		solver = s.group
	}
	solver.Setup(req)
	expanded, generated := solver.Expanded(), solver.Generated()
	ok := solver.Solve()
	s.lowLevelExpanded += solver.Expanded() - expanded
	s.lowLevelGenerated += solver.Generated() - generated
	if !ok {
		switch solver.Status() {
		case core.Timeout:
			s.timedOut = true
		case core.MemoryExhausted:
			s.exhausted = true
		}
		return false
	}

	plan := solver.Plan()
	for i, m := range members {
		n.plans[m] = plan[i]
		n.costs[m] = plan[i].Cost()
		delete(n.mdds, m)
	}
	n.replanSize = len(members)
	return true
}

// findConflicts records every collision between agents of different groups, in
// time order, and counts collisions with the external CAT.
func (s *Solver) findConflicts(n *Node) {
	n.conflicts = nil
	n.conflict = nil
	makespan := core.Plan(n.plans).Makespan()
	for t := 1; t <= makespan; t++ {
		for i := 0; i < len(n.plans); i++ {
			mi := n.plans[i].LocationAt(t)
			for j := i + 1; j < len(n.plans); j++ {
				if n.groups.Same(i, j) {
					continue
				}
				mj := n.plans[j].LocationAt(t)
				if mi.Collides(mj, s.opts.Config.AllowHeadOn) {
					n.conflicts = append(n.conflicts, newConflict(i, j, mi, mj, t))
				}
			}
		}
	}
	n.internal = len(n.conflicts)
	if n.internal > 0 {
		c := n.conflicts[0]
		n.conflict = &c
	}

	n.external = 0
	if s.external.Len() > 0 {
		for _, p := range n.plans {
			for _, m := range p.Moves {
				n.external += s.external.Count(m)
			}
		}
	}
}

// constraints collects the constraints of n and its ancestors.
func (s *Solver) constraints(n *Node) []Constraint {
	var all []Constraint
	for cur := n; ; cur = s.arena[cur.parent] {
		all = append(all, cur.constraints...)
		if cur.parent < 0 {
			return all
		}
	}
}

func (s *Solver) instanceAgents(local []int) []int {
	out := make([]int, len(local))
	for i, a := range local {
		out[i] = s.agents[a]
	}
	return out
}

func (s *Solver) fail(status core.Status) {
	s.status = status
	s.cost = status.Cost()
	s.plan = nil
	s.release()
}

func (s *Solver) release() {
	if s.open != nil {
		s.open.Clear()
	}
	s.closed = nil
	s.arena = nil
}

// SetTargetCost makes Solve stop once the best open node reaches cost; -1 disables.
func (s *Solver) SetTargetCost(cost int) { s.targetCost = cost }

// SetLowLevelGeneratedCap makes Solve stop once the low-level searches generated more
// than limit states; -1 disables.
func (s *Solver) SetLowLevelGeneratedCap(limit int) { s.lowLevelGeneratedCap = limit }

// SetMilliCap makes Solve stop once the runner passes ms; -1 disables.
func (s *Solver) SetMilliCap(ms int64) { s.milliCap = ms }

// TotalCost returns the solution cost, the lower bound reached by an interrupted
// search, or a cost sentinel.
func (s *Solver) TotalCost() int { return s.cost }

func (s *Solver) Plan() core.Plan { return s.plan }

func (s *Solver) SolutionCost() int {
	if s.status == core.Solved {
		return s.cost
	}
	return s.status.Cost()
}

func (s *Solver) Status() core.Status { return s.status }

// Expanded returns the number of high-level nodes expanded.
func (s *Solver) Expanded() int { return s.highLevelExpanded }

// Generated returns the number of high-level nodes generated.
func (s *Solver) Generated() int { return s.highLevelGenerated }

func (s *Solver) HighLevelExpanded() int  { return s.highLevelExpanded }
func (s *Solver) HighLevelGenerated() int { return s.highLevelGenerated }
func (s *Solver) ClosedListHits() int     { return s.closedHits }
func (s *Solver) LowLevelExpanded() int   { return s.lowLevelExpanded }
func (s *Solver) LowLevelGenerated() int  { return s.lowLevelGenerated }

// CostFunction returns the objective the solver minimises.
func (s *Solver) CostFunction() core.CostFunction { return s.opts.Config.CostFunction }

// MaxGroupSize returns the size of the largest merged group seen.
func (s *Solver) MaxGroupSize() int { return s.maxGroupSize }

// Clear drops the constraint tree. An interrupted search cannot be resumed afterwards.
func (s *Solver) Clear() {
	s.release()
	s.open = nil
}

func (s *Solver) OutputStatistics(sink stats.Sink) {
	sink.Counter("high_level_expanded", int64(s.highLevelExpanded))
	sink.Counter("high_level_generated", int64(s.highLevelGenerated))
	sink.Counter("closed_list_hits", int64(s.closedHits))
	sink.Counter("max_group_size", int64(s.maxGroupSize))
	sink.Counter("deferred", int64(s.deferred))
	sink.Counter("merges", int64(s.merges))
	sink.Counter("low_level_expanded", int64(s.lowLevelExpanded))
	sink.Counter("low_level_generated", int64(s.lowLevelGenerated))
	if s.open != nil {
		s.open.OutputStatistics(sink)
	}
	s.low.OutputStatistics(stats.Prefixed(sink, "single_"))
	if s.opts.MergeThreshold >= 0 {
		s.group.OutputStatistics(stats.Prefixed(sink, "group_"))
	}
}
