// Package config loads solver settings from YAML and turns them into CBS options.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/elektrokombinacija/mapf-cbs/internal/cbs"
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
	"github.com/elektrokombinacija/mapf-cbs/internal/lowlevel"
)

//go:embed schema.json
var schemaJSON string

// GroupCBS selects a nested plain CBS as the group solver.
const GroupCBS = "cbs"

// Config is a solver configuration file: what to run and where results go.
type Config struct {
	Solver Solver `yaml:"solver"`
	Output Output `yaml:"output"`
}

// Solver selects the CBS variant, its low-level searches and their budgets.
type Solver struct {
	LowLevel       string `yaml:"low_level"`
	GroupLowLevel  string `yaml:"group_low_level"`
	MergeThreshold int    `yaml:"merge_threshold"`
	MergePolicy    string `yaml:"merge_policy"`
	Heuristic      string `yaml:"heuristic"`
	ConflictChoice string `yaml:"conflict_choice"`
	CostFunction   string `yaml:"cost_function"`
	AllowHeadOn    bool   `yaml:"allow_head_on"`
	ODMirrorKeys   bool   `yaml:"od_mirror_keys"`
	MaxTimeMs      int64  `yaml:"max_time_ms"`
	MaxStates      int    `yaml:"max_states"` // Per low-level search; 0 is unlimited
	MaxNodes       int    `yaml:"max_nodes"`  // Constraint tree nodes; 0 is unlimited
}

// Output names the files a run writes besides its console report.
type Output struct {
	StatsPath   string `yaml:"stats_path"`   // zstd-compressed JSON lines, one record per solve
	MetricsPath string `yaml:"metrics_path"` // Prometheus text format
	Trace       bool   `yaml:"trace"`        // Log every constraint tree event
}

// Default returns plain CBS over A* with no output files.
func Default() *Config {
	return &Config{
		Solver: Solver{
			LowLevel:       string(lowlevel.KindAStar),
			GroupLowLevel:  string(lowlevel.KindOD),
			MergeThreshold: -1,
			MergePolicy:    "local",
			Heuristic:      "none",
			ConflictChoice: "first",
			CostFunction:   core.SumOfCosts.String(),
			MaxTimeMs:      300000,
		},
	}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates a YAML document against the embedded schema and decodes it over
// the defaults.
func Parse(data []byte) (*Config, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return cfg, nil
}

// Validate checks a YAML document against the embedded schema.
func Validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing config YAML: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	// The validator expects the value shapes encoding/json produces.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config is not a JSON-compatible document: %w", err)
	}
	var inst any
	if err := json.Unmarshal(raw, &inst); err != nil {
		return err
	}

	schema, err := jsonschema.CompileString("config.schema.json", schemaJSON)
	if err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

var (
	policies = map[string]cbs.MergePolicy{
		"local":  cbs.MergeLocal,
		"global": cbs.MergeGlobal,
	}
	heuristics = map[string]cbs.Heuristic{
		"none":        cbs.NoHeuristic,
		"mvc":         cbs.MVCHeuristic,
		"approx-mvc":  cbs.ApproxMVCHeuristic,
		"mdd-pruning": cbs.MDDPruningHeuristic,
	}
	choices = map[string]cbs.ConflictChoice{
		"first":    cbs.ChooseFirst,
		"cardinal": cbs.ChooseCardinal,
	}
)

// LowLevelConfig returns the settings shared by every low-level search.
func (c *Config) LowLevelConfig() (lowlevel.Config, error) {
	cf, err := core.ParseCostFunction(c.Solver.CostFunction)
	if err != nil {
		return lowlevel.Config{}, err
	}
	return lowlevel.Config{
		AllowHeadOn:  c.Solver.AllowHeadOn,
		MaxTime:      c.Solver.MaxTimeMs,
		ODMirrorKeys: c.Solver.ODMirrorKeys,
		MaxStates:    c.Solver.MaxStates,
		CostFunction: cf,
	}, nil
}

// CBSOptions translates the solver section. A nested group solver is not built here;
// see NewSolver.
func (c *Config) CBSOptions() (cbs.Options, error) {
	opts := cbs.DefaultOptions()
	opts.LowLevel = lowlevel.Kind(c.Solver.LowLevel)
	if c.Solver.GroupLowLevel != GroupCBS {
		opts.GroupLowLevel = lowlevel.Kind(c.Solver.GroupLowLevel)
	}
	opts.MergeThreshold = c.Solver.MergeThreshold
	opts.MaxNodes = c.Solver.MaxNodes

	var err error
	if opts.Config, err = c.LowLevelConfig(); err != nil {
		return opts, err
	}
	var ok bool
	if opts.MergePolicy, ok = policies[c.Solver.MergePolicy]; !ok {
		return opts, fmt.Errorf("unknown merge policy %q", c.Solver.MergePolicy)
	}
	if opts.Heuristic, ok = heuristics[c.Solver.Heuristic]; !ok {
		return opts, fmt.Errorf("unknown heuristic %q", c.Solver.Heuristic)
	}
	if opts.ConflictChoice, ok = choices[c.Solver.ConflictChoice]; !ok {
		return opts, fmt.Errorf("unknown conflict choice %q", c.Solver.ConflictChoice)
	}
	return opts, nil
}

// NewSolver builds the configured CBS solver. Each configure func may add an observer
// or logger before the solver is created.
func (c *Config) NewSolver(configure ...func(*cbs.Options)) (*cbs.Solver, error) {
	opts, err := c.CBSOptions()
	if err != nil {
		return nil, err
	}
	if c.Solver.GroupLowLevel == GroupCBS {
		inner := cbs.DefaultOptions()
		inner.LowLevel = opts.LowLevel
		inner.Config = opts.Config
		inner.Heuristic = opts.Heuristic
		inner.ConflictChoice = opts.ConflictChoice
		inner.MaxNodes = opts.MaxNodes
		if opts.GroupSolver, err = cbs.New(inner); err != nil {
			return nil, fmt.Errorf("nested group solver: %w", err)
		}
	}
	for _, f := range configure {
		f(&opts)
	}
	return cbs.New(opts)
}
