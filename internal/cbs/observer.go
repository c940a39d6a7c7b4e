package cbs

import (
	"log"
	"sync"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// NodeInfo is a snapshot of a constraint tree node.
type NodeInfo struct {
	ID          int
	ParentID    int
	Depth       int
	Cost        int
	H           int
	Constraints []Constraint // Added by this node only
	Conflict    *Conflict
}

// Observer receives search events. Every callback runs on the solving goroutine.
type Observer interface {
	// OnNodeExpanded is called when a node is popped for expansion.
	OnNodeExpanded(node NodeInfo)

	// OnConflictDetected is called with the conflict chosen for a node.
	OnConflictDetected(node NodeInfo, conflict Conflict)

	// OnConstraintAdded is called when a child node enters the open list.
	OnConstraintAdded(node NodeInfo, constraint Constraint)

	// OnMerge is called after two groups were merged and replanned.
	OnMerge(node NodeInfo, group []int)

	// OnSolutionFound is called once with the goal node's plan.
	OnSolutionFound(plan core.Plan, cost int)
}

func (s *Solver) info(n *Node) NodeInfo {
	return NodeInfo{
		ID:          n.id,
		ParentID:    n.parent,
		Depth:       n.depth,
		Cost:        n.totalCost,
		H:           n.h,
		Constraints: n.constraints,
		Conflict:    n.conflict,
	}
}

// Recorder is an Observer that keeps every event in memory.
type Recorder struct {
	mu        sync.Mutex
	Expanded  []NodeInfo
	Generated []NodeInfo
	Conflicts []Conflict
	Merges    [][]int
	Solutions []core.Plan
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) OnNodeExpanded(node NodeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Expanded = append(r.Expanded, node)
}

func (r *Recorder) OnConflictDetected(node NodeInfo, conflict Conflict) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Conflicts = append(r.Conflicts, conflict)
}

func (r *Recorder) OnConstraintAdded(node NodeInfo, constraint Constraint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Generated = append(r.Generated, node)
}

func (r *Recorder) OnMerge(node NodeInfo, group []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Merges = append(r.Merges, group)
}

func (r *Recorder) OnSolutionFound(plan core.Plan, cost int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Solutions = append(r.Solutions, plan)
}

// LogObserver writes one line per event.
type LogObserver struct {
	Logger *log.Logger
}

func (o LogObserver) OnNodeExpanded(node NodeInfo) {
	o.Logger.Printf("expand node %d (parent %d, depth %d) cost=%d h=%d", node.ID, node.ParentID, node.Depth, node.Cost, node.H)
}

func (o LogObserver) OnConflictDetected(node NodeInfo, conflict Conflict) {
	o.Logger.Printf("node %d: %v", node.ID, conflict)
}

func (o LogObserver) OnConstraintAdded(node NodeInfo, constraint Constraint) {
	o.Logger.Printf("node %d: %v, cost=%d", node.ID, constraint, node.Cost)
}

func (o LogObserver) OnMerge(node NodeInfo, group []int) {
	o.Logger.Printf("node %d: merged group %v, cost=%d", node.ID, group, node.Cost)
}

func (o LogObserver) OnSolutionFound(plan core.Plan, cost int) {
	o.Logger.Printf("solution found: cost=%d makespan=%d", cost, plan.Makespan())
}
