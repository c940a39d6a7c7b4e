package core

import "fmt"

// CostFunction is the objective a solution minimises.
type CostFunction int

const (
	SumOfCosts CostFunction = iota // Sum of the agents' arrival times
	Makespan                       // Latest arrival time
)

func (c CostFunction) String() string {
	switch c {
	case SumOfCosts:
		return "sum-of-costs"
	case Makespan:
		return "makespan"
	default:
		return fmt.Sprintf("CostFunction(%d)", int(c))
	}
}

// ParseCostFunction maps a configuration name to a CostFunction.
func ParseCostFunction(name string) (CostFunction, error) {
	switch name {
	case "", "sum-of-costs":
		return SumOfCosts, nil
	case "makespan":
		return Makespan, nil
	default:
		return 0, fmt.Errorf("unknown cost function %q", name)
	}
}

// Combine folds per-agent costs into a solution cost.
func (c CostFunction) Combine(costs ...int) int {
	total := 0
	for _, v := range costs {
		if c == Makespan {
			total = max(total, v)
		} else {
			total += v
		}
	}
	return total
}
