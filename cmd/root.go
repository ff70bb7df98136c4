package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rollout-alloc/rollout-alloc/alloc"
	"github.com/rollout-alloc/rollout-alloc/alloc/trace"
	"github.com/rollout-alloc/rollout-alloc/alloc/workload"
)

var (
	// CLI flags for the closed-loop run
	seed         int64  // Seed for outcome sampling and drift
	rounds       int    // Number of allocation rounds
	numItems     int    // Synthetic item count when no workload spec is given
	logLevel     string // Log verbosity level
	configPath   string // Optional allocator config YAML
	workloadPath string // Optional workload spec YAML
	tracePath    string // Where to write the round trace JSON
	traceLevel   string // Trace verbosity (none, rounds, outcomes)
	snapshotPath string // Where to write the estimator snapshot

	// CLI flags overriding allocator config values
	nLow         int
	nUp          int
	emaDecay     float64
	alphaPrior   float64
	betaPrior    float64
	perKeyCount  int
	easyMinCover bool
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "rollout-alloc",
	Short: "Informativeness-weighted rollout budget allocation",
}

// buildConfig loads the optional config file and applies any explicitly-set
// CLI overrides on top.
func buildConfig(cmd *cobra.Command) (alloc.Config, error) {
	cfg := alloc.DefaultConfig()
	if configPath != "" {
		loaded, err := alloc.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("n-low") {
		cfg.NLow = nLow
	}
	if flags.Changed("n-up") {
		cfg.NUp = nUp
	}
	if flags.Changed("ema") {
		cfg.EMA = emaDecay
	}
	if flags.Changed("alpha") {
		cfg.Alpha = alphaPrior
	}
	if flags.Changed("beta") {
		cfg.Beta = betaPrior
	}
	if flags.Changed("per-key-count") {
		cfg.DefaultPerKeyCount = perKeyCount
	}
	if flags.Changed("easy-min-cover") {
		cfg.EasyMinCover = easyMinCover
	}
	return cfg, cfg.Validate()
}

// runCmd executes a closed-loop synthetic run using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the allocator against a synthetic workload",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if !trace.IsValidLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		var spec *workload.WorkloadSpec
		if workloadPath != "" {
			spec, err = workload.LoadWorkloadSpec(workloadPath)
			if err != nil {
				logrus.Fatalf("Unable to load workload spec: %v", err)
			}
		} else {
			spec = workload.UniformSpec(numItems, rounds, seed)
		}
		if cmd.Flags().Changed("seed") {
			spec.Seed = seed
		}
		if cmd.Flags().Changed("rounds") {
			spec.Rounds = rounds
		}

		logrus.Infof("Starting run: %d items, %d rounds, bounds [%d,%d], ema=%.2f",
			len(spec.Items), spec.Rounds, cfg.NLow, cfg.NUp, cfg.EMA)

		driver, err := workload.NewDriver(spec, cfg)
		if err != nil {
			logrus.Fatalf("Unable to build driver: %v", err)
		}

		startTime := time.Now()
		at := trace.NewAllocationTrace(trace.Level(traceLevel))
		if err := driver.Run(at); err != nil {
			logrus.Fatalf("Run failed: %v", err)
		}
		logrus.Infof("Run complete in %v.", time.Since(startTime))

		if tracePath != "" {
			if err := at.Save(tracePath); err != nil {
				logrus.Fatalf("Unable to save trace: %v", err)
			}
			logrus.Infof("Trace written to %s", tracePath)
		}
		if snapshotPath != "" {
			if err := driver.Controller().Estimator().SaveSnapshot(snapshotPath); err != nil {
				logrus.Fatalf("Unable to save estimator snapshot: %v", err)
			}
			logrus.Infof("Estimator snapshot written to %s", snapshotPath)
		}

		printSummary(trace.Summarize(at))
	},
}

// printSummary writes a human-readable trace summary to stdout.
func printSummary(s *trace.TraceSummary) {
	fmt.Printf("rounds:             %d\n", s.Rounds)
	fmt.Printf("degraded rounds:    %d\n", s.DegradedRounds)
	fmt.Printf("unique keys:        %d\n", s.UniqueKeys)
	fmt.Printf("total attempts:     %d\n", s.TotalAttempts)
	fmt.Printf("alloc mean/p50/p90: %.2f / %.0f / %.0f\n", s.MeanAlloc, s.P50Alloc, s.P90Alloc)
	if s.OutcomeCount > 0 {
		fmt.Printf("sampled outcomes:   %d (success rate %.3f)\n", s.OutcomeCount, s.SuccessRate)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for outcome sampling and drift")
	runCmd.Flags().IntVar(&rounds, "rounds", 50, "Number of allocation rounds")
	runCmd.Flags().IntVar(&numItems, "items", 16, "Synthetic item count (ignored with --workload)")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&configPath, "config", "", "Allocator config YAML path")
	runCmd.Flags().StringVar(&workloadPath, "workload", "", "Workload spec YAML path")
	runCmd.Flags().StringVar(&tracePath, "trace-out", "", "Write the round trace JSON to this path")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "rounds", "Trace verbosity (none, rounds, outcomes)")
	runCmd.Flags().StringVar(&snapshotPath, "snapshot-out", "", "Write the estimator snapshot YAML to this path")

	// Allocator config overrides
	runCmd.Flags().IntVar(&nLow, "n-low", 2, "Per-key attempt floor")
	runCmd.Flags().IntVar(&nUp, "n-up", 128, "Per-key attempt ceiling")
	runCmd.Flags().Float64Var(&emaDecay, "ema", 0.7, "EMA decay factor in (0,1)")
	runCmd.Flags().Float64Var(&alphaPrior, "alpha", 1.0, "Beta-prior success pseudo-count")
	runCmd.Flags().Float64Var(&betaPrior, "beta", 1.0, "Beta-prior failure pseudo-count")
	runCmd.Flags().IntVar(&perKeyCount, "per-key-count", 8, "Default attempts per key used to derive the round budget")
	runCmd.Flags().BoolVar(&easyMinCover, "easy-min-cover", true, "Grant near-certain keys the attempt floor")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
