package main

import (
	"fmt"
	"strings"

	"github.com/elektrokombinacija/mapf-cbs/internal/cbs"
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
	"github.com/elektrokombinacija/mapf-cbs/internal/stats"
)

func printResult(inst *core.Instance, s *cbs.Solver, rec *stats.Record, showPlan bool) {
	fmt.Printf("\n%s (%d agents, %dx%d) with %s\n", inst.Name, len(inst.Agents), inst.Grid.Width, inst.Grid.Height, s.Name())
	fmt.Printf("  Status:    %s\n", rec.Status)
	if s.Status() == core.Solved {
		bounds := make([]int, len(inst.Agents))
		for i := range bounds {
			bounds[i] = inst.SingleAgentOptimalCost(i)
		}
		cf := s.CostFunction()
		fmt.Printf("  Cost:      %d %v (lower bound %d)\n", rec.Cost, cf, cf.Combine(bounds...))
		fmt.Printf("  Makespan:  %d\n", rec.Makespan)
	}
	fmt.Printf("  Expanded:  %d high level, %d low level\n", s.HighLevelExpanded(), s.LowLevelExpanded())
	fmt.Printf("  Generated: %d high level, %d low level\n", s.HighLevelGenerated(), s.LowLevelGenerated())
	if s.MaxGroupSize() > 1 {
		fmt.Printf("  Max group: %d agents\n", s.MaxGroupSize())
	}
	fmt.Printf("  Time:      %dms\n", rec.ElapsedMS)

	if showPlan && s.Status() == core.Solved {
		for _, sp := range s.Plan() {
			fmt.Printf("  agent %d: %s\n", sp.AgentID, formatPath(sp))
		}
	}
}

// formatPath renders a plan up to its cost as "(x,y) -> (x,y) ...".
func formatPath(sp *core.SinglePlan) string {
	cells := make([]string, 0, sp.Cost()+1)
	for t := 0; t <= sp.Cost(); t++ {
		c := sp.LocationAt(t).Cell()
		cells = append(cells, fmt.Sprintf("(%d,%d)", c.X, c.Y))
	}
	return strings.Join(cells, " -> ")
}
