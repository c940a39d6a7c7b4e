package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/elektrokombinacija/mapf-cbs/internal/cbs"
	"github.com/elektrokombinacija/mapf-cbs/internal/config"
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
	"github.com/elektrokombinacija/mapf-cbs/internal/lowlevel"
	"github.com/elektrokombinacija/mapf-cbs/internal/scenario"
	"github.com/elektrokombinacija/mapf-cbs/internal/stats"
)

type solveOptions struct {
	configPath string
	random     bool
	params     scenario.RandomParams
	trace      bool
	showPlan   bool
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// job is an instance together with the outcome a correct solver reaches on it.
type job struct {
	inst    *core.Instance
	optimal int  // Sum-of-costs optimum, or core.NoSolutionCost when unsolvable
	known   bool // False for generated instances
}

// unexpected reports whether rec differs from the job's known outcome. Generated
// instances are expected to be solved at some cost.
func (j job) unexpected(rec *stats.Record, cf core.CostFunction) bool {
	switch {
	case !j.known:
		return rec.Status != core.Solved.String()
	case j.optimal == core.NoSolutionCost:
		return rec.Status != core.NoSolution.String()
	case rec.Status != core.Solved.String():
		return true
	default:
		return cf == core.SumOfCosts && rec.Cost != j.optimal
	}
}

// instances resolves the command arguments into named instances, in order.
func instances(opts solveOptions, names []string) ([]job, error) {
	if opts.random {
		inst, err := scenario.Random(opts.params)
		if err != nil {
			return nil, fmt.Errorf("generating instance: %w", err)
		}
		return []job{{inst: inst}}, nil
	}

	var list []scenario.Scenario
	if len(names) == 0 {
		list = scenario.All()
	}
	for _, name := range names {
		sc, ok := scenario.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q (see 'mapfcbs scenarios')", name)
		}
		list = append(list, sc)
	}

	out := make([]job, 0, len(list))
	for _, sc := range list {
		inst, err := sc.Instance()
		if err != nil {
			return nil, err
		}
		out = append(out, job{inst: inst, optimal: sc.Optimal, known: true})
	}
	return out, nil
}

func runSolve(opts solveOptions, names []string) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	jobs, err := instances(opts, names)
	if err != nil {
		return err
	}

	logger := log.New(os.Stdout, "[mapfcbs] ", log.LstdFlags|log.Lmicroseconds)
	trace := opts.trace || cfg.Output.Trace

	var records *stats.JSONLWriter
	if cfg.Output.StatsPath != "" {
		if records, err = stats.CreateJSONL(cfg.Output.StatsPath); err != nil {
			return err
		}
		defer records.Close()
	}
	metrics := stats.NewPrometheus()

	failed := 0
	for _, j := range jobs {
		s, err := cfg.NewSolver(func(o *cbs.Options) {
			if trace {
				o.Observer = cbs.LogObserver{Logger: logger}
				o.Logger = logger
			}
		})
		if err != nil {
			return err
		}

		rec := solveOne(s, j.inst, metrics)
		printResult(j.inst, s, rec, opts.showPlan)
		if j.unexpected(rec, s.CostFunction()) {
			logger.Printf("%s: unexpected outcome %s cost %d", j.inst.Name, rec.Status, rec.Cost)
			failed++
		}
		if records != nil {
			if err := records.Write(rec); err != nil {
				return err
			}
		}
	}

	if records != nil {
		if err := records.Close(); err != nil {
			return err
		}
		logger.Printf("appended %d records to %s", len(jobs), cfg.Output.StatsPath)
	}
	if cfg.Output.MetricsPath != "" {
		if err := metrics.WriteTextfile(cfg.Output.MetricsPath); err != nil {
			return err
		}
		logger.Printf("wrote metrics to %s", cfg.Output.MetricsPath)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d instances did not reach their expected outcome", failed, len(jobs))
	}
	return nil
}

// solveOne runs s on inst and collects a statistics record.
func solveOne(s *cbs.Solver, inst *core.Instance, metrics *stats.Prometheus) *stats.Record {
	rec := stats.NewRecord(inst.Name, s.Name())
	rec.Agents = len(inst.Agents)

	start := time.Now()
	runner := core.NewRunner()
	s.Setup(lowlevel.NewRequest(inst, inst.AllAgents(), runner))
	s.Solve()
	elapsed := time.Since(start)

	rec.Status = s.Status().String()
	rec.Cost = s.SolutionCost()
	if s.Status() == core.Solved {
		rec.Makespan = s.Plan().Makespan()
	}
	rec.ElapsedMS = runner.ElapsedMilliseconds()
	s.OutputStatistics(stats.Multi{rec, metrics.Sink(s.Name())})
	metrics.ObserveSolve(s.Name(), rec.Status, elapsed)
	s.Clear()
	return rec
}

func runValidate(path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	s, err := cfg.NewSolver()
	if err != nil {
		return err
	}
	fmt.Printf("%s: valid, solver %s\n", path, s.Name())
	return nil
}

func runScenarios() error {
	for _, sc := range scenario.All() {
		optimal := "-"
		if sc.Optimal >= 0 {
			optimal = fmt.Sprint(sc.Optimal)
		}
		fmt.Printf("  %-14s optimal %-3s %s\n", sc.Name, optimal, sc.Description)
	}
	return nil
}
