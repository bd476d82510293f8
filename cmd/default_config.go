package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/qestkit/qestkit/sim"
	"github.com/qestkit/qestkit/sim/trace"
)

// EngineDefaults is the engine: section of defaults.yaml.
type EngineDefaults struct {
	Mode      string  `yaml:"mode"`
	Shots     int     `yaml:"shots"`
	Seed      int64   `yaml:"seed"`
	Workers   int     `yaml:"workers"`
	MaxQubits int     `yaml:"max_qubits"`
	MemoryMiB int64   `yaml:"memory_budget_mib"`
	Tolerance float64 `yaml:"tolerance"`
	Trace     string  `yaml:"trace"`
}

// OutputDefaults is the output: section of defaults.yaml.
type OutputDefaults struct {
	Format string `yaml:"format"`
}

// Config represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version string         `yaml:"version"`
	Engine  EngineDefaults `yaml:"engine"`
	Output  OutputDefaults `yaml:"output"`
}

// builtinDefaults mirrors the shipped defaults.yaml and is used when no file is found.
func builtinDefaults() Config {
	d := sim.DefaultEngineConfig()
	return Config{
		Version: "1",
		Engine: EngineDefaults{
			Mode:      string(sim.ModeStateVector),
			Shots:     1024,
			Seed:      d.Seed,
			Workers:   d.Workers,
			MaxQubits: d.MaxQubits,
			MemoryMiB: d.MemoryBudget >> 20,
			Tolerance: d.Tolerance,
			Trace:     string(trace.TraceLevelNone),
		},
		Output: OutputDefaults{Format: formatText},
	}
}

// Validate rejects values no run could use.
func (c Config) Validate() error {
	m, err := sim.ParseMode(c.Engine.Mode)
	if err != nil {
		return fmt.Errorf("engine.mode: %w", err)
	}
	if m == sim.ModeTensorNetwork {
		return fmt.Errorf("engine.mode %s: %w", m, sim.ErrNotImplemented)
	}
	if c.Engine.Shots <= 0 {
		return fmt.Errorf("engine.shots must be positive, got %d", c.Engine.Shots)
	}
	if !trace.IsValidTraceLevel(c.Engine.Trace) {
		return fmt.Errorf("engine.trace: unknown level %q", c.Engine.Trace)
	}
	if !validOutputFormats[c.Output.Format] {
		return fmt.Errorf("output.format: unknown format %q", c.Output.Format)
	}
	return c.engineConfig().Validate()
}

func (c Config) engineConfig() sim.EngineConfig {
	cfg := sim.DefaultEngineConfig()
	cfg.MaxQubits = c.Engine.MaxQubits
	cfg.MemoryBudget = c.Engine.MemoryMiB << 20
	cfg.Tolerance = c.Engine.Tolerance
	cfg.Workers = c.Engine.Workers
	cfg.Seed = c.Engine.Seed
	cfg.Trace = trace.TraceConfig{Level: trace.TraceLevel(c.Engine.Trace)}
	return cfg
}

// parseDefaultsConfig decodes defaults.yaml with strict field checking:
// a misspelled key is an error, not a silently ignored value.
func parseDefaultsConfig(data []byte) (Config, error) {
	cfg := builtinDefaults()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing defaults YAML: %w", err)
	}
	return cfg, nil
}

// loadDefaultsConfig reads path. A missing file yields the built-in defaults.
func loadDefaultsConfig(path string) Config {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logrus.Debugf("defaults file %s not found, using built-in defaults", path)
		return builtinDefaults()
	}
	if err != nil {
		logrus.Fatalf("Failed to read defaults file: %v", err)
	}
	cfg, err := parseDefaultsConfig(data)
	if err != nil {
		logrus.Fatalf("Failed to parse defaults YAML: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid defaults file %s: %v", path, err)
	}
	return cfg
}
