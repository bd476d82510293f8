package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qestkit/qestkit/sim"
	"github.com/qestkit/qestkit/sim/loader"
	"github.com/qestkit/qestkit/sim/telemetry"
	"github.com/qestkit/qestkit/sim/trace"
)

var (
	// CLI flags for the run command
	circuitPath      string  // Circuit file (.yaml)
	mode             string  // Simulation mode
	shots            int     // Number of measurement shots
	seed             int64   // Seed for shot sampling
	workers          int     // Sampling goroutines
	maxQubits        int     // Register size limit
	memoryMiB        int64   // Per-gate memory budget in MiB
	tolerance        float64 // Normalization tolerance
	traceLevel       string  // Gate trace level
	outputFormat     string  // text, yaml or json
	metricsFile      string  // Prometheus textfile destination
	printMetrics     bool    // Print the metrics table after the run
	defaultsFilePath string  // Path to defaults.yaml
	logLevel         string  // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "qestkit",
	Short: "Dense state-vector and density-matrix quantum circuit simulator",
}

// runCmd loads a circuit, runs it and prints the measurement histogram.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a circuit and sample measurement outcomes",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		if circuitPath == "" {
			logrus.Fatalf("--circuit not provided. Exiting simulation.")
		}

		cfg := loadDefaultsConfig(defaultsFilePath)
		applyFlagOverrides(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		circuit, err := loader.Load(circuitPath)
		if err != nil {
			logrus.Fatalf("unable to load circuit %s: %v", circuitPath, err)
		}
		m, err := sim.ParseMode(cfg.Engine.Mode)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		basic := sim.NewBasicMetricsCollector()
		collectors := sim.MultiMetricsCollector{basic}
		var prom *telemetry.Collector
		if metricsFile != "" {
			prom, err = telemetry.NewCollector(telemetry.DefaultConfig())
			if err != nil {
				logrus.Fatalf("unable to create metrics collector: %v", err)
			}
			collectors = append(collectors, prom)
		}
		engineCfg := cfg.engineConfig()
		engineCfg.Metrics = collectors

		logrus.Infof("Starting %s simulation of %s on %d qubit(s), shots=%d, seed=%d, workers=%d",
			m, circuitPath, circuit.NumQubits(), cfg.Engine.Shots, engineCfg.Seed, engineCfg.Workers)

		engine, err := sim.NewSimulator(m, circuit.NumQubits(), sim.WithConfig(engineCfg))
		if err != nil {
			logrus.Fatalf("unable to create simulator: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		res, err := engine.RunContext(ctx, circuit, cfg.Engine.Shots)
		if err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}

		if err := writeReport(os.Stdout, newRunReport(circuitPath, res), cfg.Output.Format); err != nil {
			logrus.Fatalf("unable to write results: %v", err)
		}
		if engineCfg.Trace.Enabled() {
			printTraceSummary(trace.Summarize(engine.Trace()))
		}
		if printMetrics {
			basic.Print()
		}
		if prom != nil {
			if err := prom.WriteTextfile(metricsFile); err != nil {
				logrus.Fatalf("unable to write metrics file: %v", err)
			}
			logrus.Infof("Metrics written to %s", metricsFile)
		}

		logrus.Info("Simulation complete.")
	},
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// applyFlagOverrides copies only flags the user actually set, so values from
// defaults.yaml survive unless overridden on the command line.
func applyFlagOverrides(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Engine.Mode = mode
	}
	if flags.Changed("shots") {
		cfg.Engine.Shots = shots
	}
	if flags.Changed("seed") {
		cfg.Engine.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Engine.Workers = workers
	}
	if flags.Changed("max-qubits") {
		cfg.Engine.MaxQubits = maxQubits
	}
	if flags.Changed("memory-budget-mib") {
		cfg.Engine.MemoryMiB = memoryMiB
	}
	if flags.Changed("tolerance") {
		cfg.Engine.Tolerance = tolerance
	}
	if flags.Changed("trace") {
		cfg.Engine.Trace = traceLevel
	}
	if flags.Changed("output") {
		cfg.Output.Format = outputFormat
	}
}

func printTraceSummary(s *trace.TraceSummary) {
	fmt.Println("=== Gate Trace ===")
	fmt.Printf("Gates applied       : %d\n", s.TotalGates)
	fmt.Printf("Shots sampled       : %d\n", s.TotalShots)
	fmt.Printf("Gate time (us)      : %d\n", s.TotalMicros)
	fmt.Printf("Max norm deviation  : %.3e\n", s.MaxNormDeviation)
	fmt.Printf("Touched qubits      : %v\n", s.TouchedQubits)
	names := make([]string, 0, len(s.GateDistribution))
	for name := range s.GateDistribution {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-8s %d\n", name, s.GateDistribution[name])
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
	d := builtinDefaults()

	runCmd.Flags().StringVar(&circuitPath, "circuit", "", "Circuit file to run (.yaml)")
	runCmd.Flags().StringVar(&mode, "mode", d.Engine.Mode, "Simulation mode (statevector, density_matrix)")
	runCmd.Flags().IntVar(&shots, "shots", d.Engine.Shots, "Number of measurement shots")
	runCmd.Flags().Int64Var(&seed, "seed", d.Engine.Seed, "Seed for shot sampling")
	runCmd.Flags().IntVar(&workers, "workers", d.Engine.Workers, "Number of sampling goroutines")
	runCmd.Flags().IntVar(&maxQubits, "max-qubits", d.Engine.MaxQubits, fmt.Sprintf("Register size limit (at most %d)", sim.HardMaxQubits))
	runCmd.Flags().Int64Var(&memoryMiB, "memory-budget-mib", d.Engine.MemoryMiB, "Memory one gate application may use, in MiB")
	runCmd.Flags().Float64Var(&tolerance, "tolerance", d.Engine.Tolerance, "Absolute tolerance for normalization checks")
	runCmd.Flags().StringVar(&traceLevel, "trace", d.Engine.Trace, "Gate trace level (none, gates)")
	runCmd.Flags().StringVar(&outputFormat, "output", d.Output.Format, "Output format (text, yaml, json)")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	runCmd.Flags().BoolVar(&printMetrics, "print-metrics", false, "Print engine metrics after the run")

	rootCmd.PersistentFlags().StringVar(&defaultsFilePath, "defaults-filepath", "defaults.yaml", "Path to default constants")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(gatesCmd)
	rootCmd.AddCommand(validateCmd)
}
