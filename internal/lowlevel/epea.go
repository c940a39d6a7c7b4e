package lowlevel

import (
	"sort"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
	"github.com/elektrokombinacija/mapf-cbs/internal/stats"
)

// option is one move of one agent together with the f increase it causes.
type option struct {
	next  core.AgentState
	delta int
}

// partialExpansion caches the per-agent operator tables of a node between bands.
type partialExpansion struct {
	options   [][]option // Sorted by delta
	minSuffix []int      // Smallest delta sum achievable by agents i..n-1
	maxSuffix []int
	targets   []int // Every achievable delta sum, ascending
}

// EPEAStar is enhanced partial expansion A*: a node is expanded one f band at a time
// and only children whose f equals the band are generated.
type EPEAStar struct {
	search
	fullExpansions int
}

// NewEPEAStar creates a partial expansion solver.
func NewEPEAStar(cfg Config) *EPEAStar {
	e := &EPEAStar{search: newSearch(cfg)}
	e.expand = e.expandBand
	return e
}

func (e *EPEAStar) Name() string { return "EPEA*" }

// FullExpansions returns how many nodes had every band generated.
func (e *EPEAStar) FullExpansions() int { return e.fullExpansions }

func (e *EPEAStar) OutputStatistics(sink stats.Sink) {
	e.search.OutputStatistics(sink)
	sink.Counter("full_expansions", int64(e.fullExpansions))
}

func (e *EPEAStar) operators(parent *worldState) *partialExpansion {
	n := len(parent.agents)
	pe := &partialExpansion{
		options:   make([][]option, n),
		minSuffix: make([]int, n+1),
		maxSuffix: make([]int, n+1),
	}
	for i, a := range parent.agents {
		before := a.Cost(parent.makespan) + a.H
		for _, next := range e.agentMoves(a) {
			after := next.Cost(parent.makespan+1) + next.H
			pe.options[i] = append(pe.options[i], option{next: next, delta: after - before})
		}
		if len(pe.options[i]) == 0 {
			return nil
		}
		sort.SliceStable(pe.options[i], func(x, y int) bool {
			return pe.options[i][x].delta < pe.options[i][y].delta
		})
	}
	for i := n - 1; i >= 0; i-- {
		opts := pe.options[i]
		pe.minSuffix[i] = pe.minSuffix[i+1] + opts[0].delta
		pe.maxSuffix[i] = pe.maxSuffix[i+1] + opts[len(opts)-1].delta
	}

	sums := map[int]bool{0: true}
	for _, opts := range pe.options {
		next := make(map[int]bool, len(sums)*len(opts))
		for s := range sums {
			for _, o := range opts {
				next[s+o.delta] = true
			}
		}
		sums = next
	}
	for s := range sums {
		pe.targets = append(pe.targets, s)
	}
	sort.Ints(pe.targets)
	return pe
}

// expandBand generates the children in the parent's current band and re-inserts the
// parent with the next achievable band.
func (e *EPEAStar) expandBand(parent *worldState) {
	if parent.epea == nil {
		parent.epea = e.operators(parent)
		if parent.epea == nil {
			e.fullExpansions++
			return
		}
	}
	pe := parent.epea

	band := -1
	for _, t := range pe.targets {
		if t >= parent.targetDeltaF {
			band = t
			break
		}
	}
	if band < 0 {
		parent.epea = nil
		e.fullExpansions++
		return
	}
	e.generateBand(parent, pe, band)

	nextBand := -1
	for _, t := range pe.targets {
		if t > band {
			nextBand = t
			break
		}
	}
	if nextBand < 0 || (e.req.MaxCost >= 0 && parent.f()+nextBand > e.req.MaxCost) {
		parent.epea = nil
		e.fullExpansions++
		return
	}
	parent.targetDeltaF = nextBand
	e.open.Add(parent)
}

func (e *EPEAStar) generateBand(parent *worldState, pe *partialExpansion, band int) {
	n := len(parent.agents)
	chosen := make([]core.AgentState, 0, n)
	var rec func(i, remaining, external, internal int)
	rec = func(i, remaining, external, internal int) {
		if i == n {
			if remaining != 0 {
				return
			}
			agents := append([]core.AgentState(nil), chosen...)
			if child := e.generate(parent, agents, parent.makespan+1, 0, external, internal); child != nil {
				e.open.Add(child)
			}
			return
		}
		if remaining < pe.minSuffix[i] || remaining > pe.maxSuffix[i] {
			return
		}
		for _, o := range pe.options[i] {
			if o.delta > remaining {
				break
			}
			if e.collidesWithAny(o.next.Last.Move, chosen) {
				continue
			}
			ext, in := e.stepConflicts(o.next.Last)
			chosen = append(chosen, o.next)
			rec(i+1, remaining-o.delta, external+ext, internal+in)
			chosen = chosen[:i]
		}
	}
	rec(0, band, 0, 0)
}
