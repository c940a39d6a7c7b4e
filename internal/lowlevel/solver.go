// Package lowlevel implements the A*-family searches that plan one agent or a merged
// group of agents under a set of constraints.
package lowlevel

import (
	"fmt"

	"github.com/elektrokombinacija/mapf-cbs/internal/cat"
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
	"github.com/elektrokombinacija/mapf-cbs/internal/mdd"
	"github.com/elektrokombinacija/mapf-cbs/internal/stats"
)

// Solver is the interface every planner exposes to the high-level search.
type Solver interface {
	// Setup prepares a search over req.Agents. It must be called before Solve.
	Setup(req Request)

	// Solve runs the search and reports whether a plan was found.
	Solve() bool

	// Plan returns one SinglePlan per requested agent, or nil on failure.
	Plan() core.Plan

	// SolutionCost returns the cost under Config.CostFunction, or a cost sentinel on failure.
	SolutionCost() int

	Status() core.Status
	Expanded() int
	Generated() int

	// Clear releases search memory, keeping counters.
	Clear()

	// Name returns the algorithm name.
	Name() string

	OutputStatistics(sink stats.Sink)
}

// Config holds settings fixed for a solver's lifetime.
type Config struct {
	AllowHeadOn  bool  // Permit agents to swap cells
	MaxTime      int64 // Budget in milliseconds; 0 means core.DefaultMaxTime
	ODMirrorKeys bool  // Fold partial OD states whose moved agents cannot restrict the rest
	MaxStates    int   // Stored states at which the search stops with MemoryExhausted; 0 disables
	CostFunction core.CostFunction
}

func (c Config) maxTime() int64 {
	if c.MaxTime <= 0 {
		return core.DefaultMaxTime
	}
	return c.MaxTime
}

// Request is the per-search context passed to Setup.
type Request struct {
	Instance    *core.Instance
	Agents      []int // Indices into Instance.Agents
	MinDepth    int   // Plans may not end before this timestep
	Runner      core.Runner
	CAT         *cat.Table // Plans of agents outside the caller, for tie-breaking
	InternalCAT *cat.Table // Plans of the caller's other agents, for tie-breaking
	Constraints *core.ConstraintSet
	MinCost     int      // Goals cheaper than this are not accepted; negative disables
	MaxCost     int      // States costlier than this are pruned; negative disables
	MDD         *mdd.MDD // Optional restriction for single-agent searches
}

// NewRequest fills the defaults for a search over agents.
func NewRequest(inst *core.Instance, agents []int, runner core.Runner) Request {
	return Request{
		Instance: inst,
		Agents:   agents,
		Runner:   runner,
		MinCost:  -1,
		MaxCost:  -1,
	}
}

// Kind selects a low-level algorithm.
type Kind string

const (
	KindAStar Kind = "astar"
	KindOD    Kind = "astar-od"
	KindEPEA  Kind = "epea"
)

// Kinds lists the available algorithms.
func Kinds() []Kind { return []Kind{KindAStar, KindOD, KindEPEA} }

// New creates a low-level solver of the given kind.
func New(kind Kind, cfg Config) (Solver, error) {
	switch kind {
	case KindAStar, "":
		return NewClassicAStar(cfg), nil
	case KindOD:
		return NewODAStar(cfg), nil
	case KindEPEA:
		// Operator deltas are per-agent f increases, which only add up under sum-of-costs.
		if cfg.CostFunction != core.SumOfCosts {
			return nil, fmt.Errorf("low-level solver %q supports only sum-of-costs, not %v", kind, cfg.CostFunction)
		}
		return NewEPEAStar(cfg), nil
	default:
		return nil, fmt.Errorf("unknown low-level solver %q", kind)
	}
}
