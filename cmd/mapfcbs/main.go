// Command mapfcbs solves multi-agent path finding instances with Conflict-Based Search.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mapfcbs",
		Short: "Optimal multi-agent path finding with CBS and MA-CBS",
	}

	rootCmd.AddCommand(solveCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(scenariosCmd())
	rootCmd.AddCommand(benchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func solveCmd() *cobra.Command {
	var opts solveOptions

	cmd := &cobra.Command{
		Use:   "solve [scenario...]",
		Short: "Solve built-in scenarios or a random instance",
		Long: "Solve each named built-in scenario (all of them when none is given), or a seeded\n" +
			"random instance when --random is set.",
		RunE: func(_ *cobra.Command, args []string) error {
			return runSolve(opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "solver configuration YAML")
	cmd.Flags().BoolVar(&opts.random, "random", false, "solve a generated instance instead of built-ins")
	cmd.Flags().Int64Var(&opts.params.Seed, "seed", 1, "random instance seed")
	cmd.Flags().IntVar(&opts.params.Width, "width", 8, "random grid width")
	cmd.Flags().IntVar(&opts.params.Height, "height", 8, "random grid height")
	cmd.Flags().IntVar(&opts.params.Agents, "agents", 4, "random instance agent count")
	cmd.Flags().Float64Var(&opts.params.ObstacleDensity, "obstacles", 0.1, "random obstacle density")
	cmd.Flags().BoolVar(&opts.params.AllowDiagonal, "diagonal", false, "allow diagonal moves in random instances")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "log constraint tree events (overrides output.trace)")
	cmd.Flags().BoolVar(&opts.showPlan, "plan", true, "print each agent's path")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config-path]",
		Short: "Validate a solver configuration without solving anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
}

func scenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runScenarios()
		},
	}
}
