package cbs

import (
	"sort"
	"strconv"
	"strings"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
	"github.com/elektrokombinacija/mapf-cbs/internal/mdd"
)

// ExpansionState tracks one branch of a node.
type ExpansionState int

const (
	NotExpanded ExpansionState = iota
	Deferred                   // Cost raised by the forced delay, child not generated yet
	Expanded
)

func (e ExpansionState) String() string {
	return [...]string{"NotExpanded", "Deferred", "Expanded"}[e]
}

// Node is one node of the constraint tree. Constraints holds only the node's own
// addition; the full set is read by walking the parent chain through the arena.
type Node struct {
	id     int
	parent int // Arena index, -1 for the root
	depth  int

	constraints []Constraint
	plans       []*core.SinglePlan
	costs       []int
	groups      *DisjointSet

	totalCost int // Plan cost plus any deferred delay
	h         int
	mvc       int // Minimum vertex cover of the cardinal conflict graph, -1 if unknown
	parentMVC int // The parent's mvc when this node was generated

	conflict  *Conflict
	conflicts []Conflict // Every conflict, kept until the node is first popped
	external  int        // Collisions with the caller's plans
	internal  int        // Collisions between this node's plans

	expansion  [2]ExpansionState
	prepared   bool
	replanSize int
	mdds       map[int]*mdd.MDD

	index int
}

func (n *Node) Index() int     { return n.index }
func (n *Node) SetIndex(i int) { n.index = i }

// ID returns the node's arena index.
func (n *Node) ID() int { return n.id }

// F returns the node's priority: cost plus heuristic.
func (n *Node) F() int { return n.totalCost + n.h }

// Conflict returns the conflict the node branches on, or nil for a goal.
func (n *Node) Conflict() *Conflict { return n.conflict }

// PlanCost folds the agents' plan costs with cf.
func (n *Node) PlanCost(cf core.CostFunction) int {
	return cf.Combine(n.costs...)
}

// Plan returns the node's joint plan. It is nil once the node was cleared.
func (n *Node) Plan() core.Plan {
	if n.plans == nil {
		return nil
	}
	return append(core.Plan(nil), n.plans...)
}

// nodeLess orders by f, then fewer external conflicts, then goals first, then fewer
// internal conflicts, then deeper nodes.
func nodeLess(a, b *Node) bool {
	if a.F() != b.F() {
		return a.F() < b.F()
	}
	if a.external != b.external {
		return a.external < b.external
	}
	if (a.conflict == nil) != (b.conflict == nil) {
		return a.conflict == nil
	}
	if a.internal != b.internal {
		return a.internal < b.internal
	}
	return a.depth > b.depth
}

// newChild copies n's plans and groups and attaches c. The constrained agent's plan
// is replaced by the caller.
func (n *Node) newChild(c Constraint) *Node {
	child := &Node{
		parent:      n.id,
		depth:       n.depth + 1,
		constraints: []Constraint{c},
		plans:       append([]*core.SinglePlan(nil), n.plans...),
		costs:       append([]int(nil), n.costs...),
		groups:      n.groups.Clone(),
		mvc:         -1,
		parentMVC:   n.mvc,
		replanSize:  1,
		index:       -1,
		mdds:        make(map[int]*mdd.MDD, len(n.mdds)),
	}
	for a, m := range n.mdds {
		child.mdds[a] = m
	}
	return child
}

// bothExpanded reports whether no branch remains to be generated.
func (n *Node) bothExpanded() bool {
	return n.expansion[0] == Expanded && n.expansion[1] == Expanded
}

// clear drops the plans of a fully expanded node.
func (n *Node) clear() {
	n.plans = nil
	n.mdds = nil
	n.conflicts = nil
}

// closedKey identifies nodes with the same group partition and constraint set.
func closedKey(n *Node, all []Constraint) string {
	var b strings.Builder
	for _, g := range n.groups.Canonical() {
		b.WriteString(strconv.Itoa(g))
		b.WriteByte(',')
	}
	keys := make([]string, len(all))
	for i, c := range all {
		keys[i] = c.key()
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
	}
	return b.String()
}
