package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/mapf-cbs/internal/config"
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
	"github.com/elektrokombinacija/mapf-cbs/internal/scenario"
	"github.com/elektrokombinacija/mapf-cbs/internal/stats"
)

// variant is a named adjustment of the base configuration.
type variant struct {
	name  string
	apply func(*config.Solver)
}

var variants = []variant{
	{"cbs", func(*config.Solver) {}},
	{"cbs-mvc", func(s *config.Solver) { s.Heuristic = "mvc" }},
	{"cbs-cardinal", func(s *config.Solver) { s.ConflictChoice = "cardinal" }},
	{"cbs-mdd", func(s *config.Solver) { s.Heuristic = "mdd-pruning"; s.ConflictChoice = "cardinal" }},
	{"ma-cbs-1", func(s *config.Solver) { s.MergeThreshold = 1 }},
	{"ma-cbs-10", func(s *config.Solver) { s.MergeThreshold = 10 }},
	{"ma-cbs-global-10", func(s *config.Solver) { s.MergeThreshold = 10; s.MergePolicy = "global" }},
	{"cbs-epea", func(s *config.Solver) { s.LowLevel = "epea" }},
}

type benchOptions struct {
	configPath string
	output     string
	variants   string
	minAgents  int
	maxAgents  int
	seeds      int
	params     scenario.RandomParams
	verbose    bool
}

func benchCmd() *cobra.Command {
	var opts benchOptions

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare solver variants on seeded random instances",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBench(opts)
		},
	}

	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.name
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "base solver configuration YAML")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "bench/results.csv", "CSV output file")
	cmd.Flags().StringVar(&opts.variants, "variants", "", "comma-separated subset of "+strings.Join(names, ","))
	cmd.Flags().IntVar(&opts.minAgents, "min-agents", 2, "smallest agent count")
	cmd.Flags().IntVar(&opts.maxAgents, "max-agents", 6, "largest agent count")
	cmd.Flags().IntVar(&opts.seeds, "seeds", 5, "instances per agent count")
	cmd.Flags().IntVar(&opts.params.Width, "width", 8, "grid width")
	cmd.Flags().IntVar(&opts.params.Height, "height", 8, "grid height")
	cmd.Flags().Float64Var(&opts.params.ObstacleDensity, "obstacles", 0.15, "obstacle density")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print every run")
	return cmd
}

func selectVariants(filter string) ([]variant, error) {
	if filter == "" {
		return variants, nil
	}
	var out []variant
	for _, name := range strings.Split(filter, ",") {
		name = strings.TrimSpace(name)
		found := false
		for _, v := range variants {
			if v.name == name {
				out = append(out, v)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown variant %q", name)
		}
	}
	return out, nil
}

// compatibleVariants drops variants the base configuration cannot run,
// such as EPEA* or admissible heuristics under makespan.
func compatibleVariants(base *config.Config, active []variant) []variant {
	var out []variant
	for _, v := range active {
		cfg := *base
		v.apply(&cfg.Solver)
		if _, err := cfg.NewSolver(); err != nil {
			fmt.Printf("Skipping %s: %v\n", v.name, err)
			continue
		}
		out = append(out, v)
	}
	return out
}

// benchResult is one variant run on one instance.
type benchResult struct {
	variant string
	rec     *stats.Record
}

func runBench(opts benchOptions) error {
	base, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	active, err := selectVariants(opts.variants)
	if err != nil {
		return err
	}
	active = compatibleVariants(base, active)
	if len(active) == 0 {
		return fmt.Errorf("no variant supports cost function %s", base.Solver.CostFunction)
	}
	if opts.minAgents < 1 || opts.maxAgents < opts.minAgents || opts.seeds < 1 {
		return fmt.Errorf("empty benchmark: agents %d..%d, %d seeds", opts.minAgents, opts.maxAgents, opts.seeds)
	}

	var insts []*core.Instance
	for agents := opts.minAgents; agents <= opts.maxAgents; agents++ {
		for seed := 1; seed <= opts.seeds; seed++ {
			p := opts.params
			p.Agents = agents
			p.Seed = int64(seed)
			inst, err := scenario.Random(p)
			if err != nil {
				return fmt.Errorf("generating %s: %w", p.Name(), err)
			}
			insts = append(insts, inst)
		}
	}

	total := len(insts) * len(active)
	fmt.Printf("Running benchmarks: %d instances x %d variants = %d runs\n", len(insts), len(active), total)
	fmt.Printf("Time budget per run: %dms\n\n", base.Solver.MaxTimeMs)

	metrics := stats.NewPrometheus()
	var results []benchResult
	run := 0
	for _, inst := range insts {
		for _, v := range active {
			run++
			cfg := *base
			v.apply(&cfg.Solver)
			s, err := cfg.NewSolver()
			if err != nil {
				return fmt.Errorf("variant %s: %w", v.name, err)
			}
			rec := solveOne(s, inst, metrics)
			results = append(results, benchResult{variant: v.name, rec: rec})
			if opts.verbose {
				fmt.Printf("[%d/%d] %s / %s: %s cost=%d %dms\n", run, total, inst.Name, v.name, rec.Status, rec.Cost, rec.ElapsedMS)
			} else {
				fmt.Printf("\r[%d/%d] Running...", run, total)
			}
		}
	}
	fmt.Println()

	if err := writeCSV(results, opts.output); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	fmt.Printf("Results written to: %s\n", opts.output)
	if base.Output.MetricsPath != "" {
		if err := metrics.WriteTextfile(base.Output.MetricsPath); err != nil {
			return err
		}
	}
	if err := checkCosts(results); err != nil {
		return err
	}
	printSummary(results)
	return nil
}

// checkCosts reports instances where two variants that both solved disagree on the cost.
func checkCosts(results []benchResult) error {
	optimal := make(map[string]benchResult)
	for _, r := range results {
		if r.rec.Status != core.Solved.String() {
			continue
		}
		prev, ok := optimal[r.rec.Instance]
		if !ok {
			optimal[r.rec.Instance] = r
			continue
		}
		if prev.rec.Cost != r.rec.Cost {
			return fmt.Errorf("%s: %s found cost %d but %s found %d",
				r.rec.Instance, prev.variant, prev.rec.Cost, r.variant, r.rec.Cost)
		}
	}
	return nil
}

func writeCSV(results []benchResult, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{
		"run_id", "instance", "variant", "solver", "agents", "status", "cost", "makespan",
		"elapsed_ms", "high_level_expanded", "low_level_expanded", "max_group_size",
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.rec.RunID.String(), r.rec.Instance, r.variant, r.rec.Solver,
			strconv.Itoa(r.rec.Agents), r.rec.Status,
			strconv.Itoa(r.rec.Cost), strconv.Itoa(r.rec.Makespan),
			strconv.FormatInt(r.rec.ElapsedMS, 10),
			strconv.FormatInt(r.rec.Counters["high_level_expanded"], 10),
			strconv.FormatInt(r.rec.Counters["low_level_expanded"], 10),
			strconv.FormatInt(r.rec.Counters["max_group_size"], 10),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

type variantSummary struct {
	runs, solved int
	elapsedMS    int64
	expanded     int64
}

func printSummary(results []benchResult) {
	summary := make(map[string]*variantSummary)
	for _, r := range results {
		m, ok := summary[r.variant]
		if !ok {
			m = &variantSummary{}
			summary[r.variant] = m
		}
		m.runs++
		if r.rec.Status == core.Solved.String() {
			m.solved++
			m.elapsedMS += r.rec.ElapsedMS
			m.expanded += r.rec.Counters["high_level_expanded"]
		}
	}

	fmt.Println("\n=== BENCHMARK SUMMARY ===")
	fmt.Printf("%-18s %6s %7s %13s %13s\n", "Variant", "Runs", "Solved", "Avg Time(ms)", "Avg Expanded")
	fmt.Println(strings.Repeat("-", 61))

	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := summary[name]
		avgTime, avgExpanded := 0.0, 0.0
		if m.solved > 0 {
			avgTime = float64(m.elapsedMS) / float64(m.solved)
			avgExpanded = float64(m.expanded) / float64(m.solved)
		}
		fmt.Printf("%-18s %6d %7d %13.2f %13.1f\n", name, m.runs, m.solved, avgTime, avgExpanded)
	}
}
