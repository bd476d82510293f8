package sim

import (
	"fmt"
	"math"

	"github.com/qestkit/qestkit/sim/trace"
)

const (
	// DefaultMaxQubits bounds the register size unless overridden.
	DefaultMaxQubits = 13
	// HardMaxQubits is the largest register any configuration may allow. One
	// full operator at 14 qubits is 4 GiB of complex128.
	HardMaxQubits = 14
	// DefaultTolerance is the absolute slack for norm, trace and
	// probability-sum checks.
	DefaultTolerance = 1e-9
	// DefaultMemoryBudget caps the estimated working set of one gate
	// application, in bytes.
	DefaultMemoryBudget int64 = 2 << 30
)

const complexBytes = 16

// EstimateGateBytes is the peak memory of one dense gate application on n
// qubits: the full operator and its permuted copy for a state vector, and
// rho, the operator, op·rho and op·rho·op† for a density matrix.
func EstimateGateBytes(mode Mode, n int) int64 {
	matrix := int64(complexBytes) << (2 * n)
	if mode == ModeDensityMatrix {
		return 4 * matrix
	}
	return 2 * matrix
}

// EngineConfig groups the engine's tunables. The zero value is not valid;
// start from DefaultEngineConfig.
type EngineConfig struct {
	MaxQubits    int     // register size limit (1..HardMaxQubits)
	MemoryBudget int64   // bytes one gate application may use (> 0)
	Tolerance    float64 // absolute tolerance for normalization checks (> 0)
	Workers      int     // sampling goroutines (>= 1)
	Seed         int64   // master seed for shot sampling
	Trace        trace.TraceConfig
	Metrics      MetricsCollector // nil = NoopMetricsCollector
}

// DefaultEngineConfig returns the configuration used when no options are given.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxQubits:    DefaultMaxQubits,
		MemoryBudget: DefaultMemoryBudget,
		Tolerance:    DefaultTolerance,
		Workers:      1,
		Seed:         42,
		Trace:        trace.TraceConfig{Level: trace.TraceLevelNone},
	}
}

// Validate checks field ranges.
func (c EngineConfig) Validate() error {
	if c.MaxQubits < 1 || c.MaxQubits > HardMaxQubits {
		return fmt.Errorf("max qubits %d outside [1, %d]: %w", c.MaxQubits, HardMaxQubits, ErrQubitLimitExceeded)
	}
	if c.MemoryBudget <= 0 {
		return fmt.Errorf("memory budget must be positive, got %d: %w", c.MemoryBudget, ErrInvalidParameter)
	}
	if c.Tolerance <= 0 || math.IsNaN(c.Tolerance) || math.IsInf(c.Tolerance, 0) {
		return fmt.Errorf("tolerance must be a finite positive number, got %v: %w", c.Tolerance, ErrInvalidParameter)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d: %w", c.Workers, ErrInvalidParameter)
	}
	if !trace.IsValidTraceLevel(string(c.Trace.Level)) {
		return fmt.Errorf("unknown trace level %q: %w", c.Trace.Level, ErrInvalidParameter)
	}
	return nil
}

// Option adjusts an EngineConfig.
type Option func(*EngineConfig)

// WithSeed sets the master sampling seed.
func WithSeed(seed int64) Option { return func(c *EngineConfig) { c.Seed = seed } }

// WithWorkers sets the number of sampling goroutines.
func WithWorkers(n int) Option { return func(c *EngineConfig) { c.Workers = n } }

// WithTolerance sets the normalization tolerance.
func WithTolerance(tol float64) Option { return func(c *EngineConfig) { c.Tolerance = tol } }

// WithMaxQubits raises or lowers the register size limit.
func WithMaxQubits(n int) Option { return func(c *EngineConfig) { c.MaxQubits = n } }

// WithMemoryBudget sets how many bytes a single gate application may use.
func WithMemoryBudget(bytes int64) Option { return func(c *EngineConfig) { c.MemoryBudget = bytes } }

// WithTrace enables gate tracing at the given level.
func WithTrace(level trace.TraceLevel) Option {
	return func(c *EngineConfig) { c.Trace = trace.TraceConfig{Level: level} }
}

// WithMetrics attaches a collector.
func WithMetrics(m MetricsCollector) Option { return func(c *EngineConfig) { c.Metrics = m } }

// WithConfig replaces the whole configuration. Later options still apply.
func WithConfig(cfg EngineConfig) Option { return func(c *EngineConfig) { *c = cfg } }
