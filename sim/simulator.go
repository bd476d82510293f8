package sim

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/qestkit/qestkit/sim/trace"
)

// Mode selects the state representation. It is fixed when the engine is
// built and never switches.
type Mode string

const (
	ModeStateVector   Mode = "statevector"
	ModeDensityMatrix Mode = "density_matrix"
	// ModeTensorNetwork is reserved; constructing it fails with
	// ErrNotImplemented.
	ModeTensorNetwork Mode = "tensor_network"
)

// modeAliases maps accepted spellings to modes.
var modeAliases = map[string]Mode{
	"statevector":    ModeStateVector,
	"state_vector":   ModeStateVector,
	"sv":             ModeStateVector,
	"density_matrix": ModeDensityMatrix,
	"densitymatrix":  ModeDensityMatrix,
	"density":        ModeDensityMatrix,
	"dm":             ModeDensityMatrix,
	"tensor_network": ModeTensorNetwork,
	"tensornetwork":  ModeTensorNetwork,
	"tn":             ModeTensorNetwork,
}

// ParseMode resolves a mode name (case-insensitive).
func ParseMode(s string) (Mode, error) {
	if m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%q (valid: %s, %s): %w", s, ModeStateVector, ModeDensityMatrix, ErrUnsupportedSimulatorMode)
}

// Simulator is the engine contract shared by the state-vector and
// density-matrix engines.
type Simulator interface {
	NumQubits() int
	Mode() Mode
	// Reset returns the state to |0...0>.
	Reset()
	// ApplyGate resolves a catalog gate and applies it. Non-empty controls
	// turn it into the controlled gate on controls ++ targets.
	ApplyGate(name string, targets []int, controls []int, params Params) error
	// ApplyCustomGate applies a caller-supplied local matrix.
	ApplyCustomGate(m Matrix, targets []int, controls []int) error
	ApplySpec(g GateSpec) error
	// Run resets, applies every gate of c in order and samples shots.
	Run(c *Circuit, shots int) (*Result, error)
	ExpectationValue(observable Matrix) (float64, error)
	// State returns a copy of the current state.
	State() State
}

// Result is the outcome of one Run.
type Result struct {
	RunID         string
	Mode          Mode
	NumQubits     int
	Shots         int
	Workers       int
	Seed          int64
	Counts        Counts
	Probabilities []float64
	GatesApplied  int // gates this run applied; 0 when sampling an existing state
	Duration      time.Duration
}

// Engine is the dense simulator. It owns exactly one State and mutates it in
// place. An Engine is not safe for concurrent use.
type Engine struct {
	mode      Mode
	numQubits int
	cfg       EngineConfig
	state     State
	rng       *PartitionedRNG
	trace     *trace.SimulationTrace
	metrics   MetricsCollector
	step      int // gates applied since the last Reset
}

var _ Simulator = (*Engine)(nil)

// NewSimulator builds an engine of the given mode on numQubits qubits,
// initialized to |0...0>.
func NewSimulator(mode Mode, numQubits int, opts ...Option) (*Engine, error) {
	switch mode {
	case ModeStateVector, ModeDensityMatrix:
	case ModeTensorNetwork:
		return nil, fmt.Errorf("mode %s: %w", mode, ErrNotImplemented)
	default:
		return nil, fmt.Errorf("mode %q: %w", mode, ErrUnsupportedSimulatorMode)
	}

	cfg := DefaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if numQubits < 1 {
		return nil, &QubitIndexError{NumQubits: numQubits, Reason: "register needs at least one qubit"}
	}
	if numQubits > cfg.MaxQubits {
		return nil, fmt.Errorf("%d qubits requested, limit is %d: %w", numQubits, cfg.MaxQubits, ErrQubitLimitExceeded)
	}
	if need := EstimateGateBytes(mode, numQubits); need > cfg.MemoryBudget {
		return nil, fmt.Errorf("%d-qubit %s gates need about %d MiB, budget is %d MiB: %w",
			numQubits, mode, need>>20, cfg.MemoryBudget>>20, ErrQubitLimitExceeded)
	}

	e := &Engine{
		mode:      mode,
		numQubits: numQubits,
		cfg:       cfg,
		metrics:   cfg.Metrics,
	}
	if e.metrics == nil {
		e.metrics = NoopMetricsCollector{}
	}
	if cfg.Trace.Enabled() {
		e.trace = trace.NewSimulationTrace(cfg.Trace)
	}
	if mode == ModeDensityMatrix {
		e.state = NewDensityMatrix(numQubits)
	} else {
		e.state = NewStateVector(numQubits)
	}
	e.rng = NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	logrus.Debugf("engine: %s, %d qubits, seed %d, %d sampling worker(s)", mode, numQubits, cfg.Seed, cfg.Workers)
	return e, nil
}

// NewStateVectorSimulator builds a pure-state engine.
func NewStateVectorSimulator(numQubits int, opts ...Option) (*Engine, error) {
	return NewSimulator(ModeStateVector, numQubits, opts...)
}

// NewDensityMatrixSimulator builds a mixed-state engine.
func NewDensityMatrixSimulator(numQubits int, opts ...Option) (*Engine, error) {
	return NewSimulator(ModeDensityMatrix, numQubits, opts...)
}

func (e *Engine) NumQubits() int       { return e.numQubits }
func (e *Engine) Mode() Mode           { return e.mode }
func (e *Engine) Config() EngineConfig { return e.cfg }
func (e *Engine) State() State         { return e.state.Clone() }

// Trace returns the gate trace, nil when tracing is off.
func (e *Engine) Trace() *trace.SimulationTrace { return e.trace }

// Reset reinitializes the state to |0...0>, clears the trace and reseeds the
// sampler so that a reset followed by the same gates and shots reproduces
// the same counts.
func (e *Engine) Reset() {
	e.state.Reset()
	e.step = 0
	e.rng = NewPartitionedRNG(NewSimulationKey(e.cfg.Seed))
	if e.trace != nil {
		e.trace.Reset()
	}
}

// ApplyGate applies a catalog gate. A single-qubit gate given several targets
// is applied to each target in turn; all targets are validated before the
// first one is applied.
func (e *Engine) ApplyGate(name string, targets []int, controls []int, params Params) error {
	kind, err := ParseGateKind(name)
	if err != nil {
		return err
	}
	if kind.Arity() == 1 && len(targets) > 1 {
		if err := ValidateTargets(targets, e.numQubits); err != nil {
			return fmt.Errorf("gate %s: %w", kind, err)
		}
		specs := make([]GateSpec, 0, len(targets))
		for _, q := range targets {
			g, err := e.controlledSpec(name, []int{q}, controls, params)
			if err != nil {
				return err
			}
			specs = append(specs, g)
		}
		for _, g := range specs {
			if err := e.ApplySpec(g); err != nil {
				return err
			}
		}
		return nil
	}
	g, err := e.controlledSpec(name, targets, controls, params)
	if err != nil {
		return err
	}
	return e.ApplySpec(g)
}

func (e *Engine) controlledSpec(name string, targets, controls []int, params Params) (GateSpec, error) {
	g, err := NewGateSpec(name, targets, params)
	if err != nil {
		return GateSpec{}, err
	}
	return g.WithControls(controls)
}

// ApplyCustomGate applies m to targets. m must be 2^k x 2^k; unitarity is the
// caller's obligation.
func (e *Engine) ApplyCustomGate(m Matrix, targets []int, controls []int) error {
	g, err := NewCustomGateSpec("", m, targets)
	if err != nil {
		return err
	}
	if g, err = g.WithControls(controls); err != nil {
		return err
	}
	return e.ApplySpec(g)
}

// ApplySpec embeds g into the full operator and applies it. On error the
// state is left untouched.
func (e *Engine) ApplySpec(g GateSpec) error {
	start := time.Now()
	op, err := BuildOperatorFor(e.mode, g.matrix, g.targets, e.numQubits)
	if err != nil {
		return fmt.Errorf("gate %s: %w", g, err)
	}
	if err := e.state.Apply(op); err != nil {
		return fmt.Errorf("gate %s: %w", g, err)
	}
	elapsed := time.Since(start)
	e.step++

	e.metrics.RecordGate(g.name, len(g.targets), elapsed)
	if e.trace != nil {
		e.trace.RecordGate(trace.GateRecord{
			Step:    e.step,
			Gate:    g.name,
			Targets: g.targets,
			Norm:    e.state.Norm(),
			Micros:  elapsed.Microseconds(),
		})
	}
	logrus.Debugf("[gate %04d] %s in %v", e.step, g, elapsed)
	return nil
}

// Run executes c from |0...0> and samples shots outcomes. A nil circuit
// samples the current state without resetting it.
func (e *Engine) Run(c *Circuit, shots int) (*Result, error) {
	return e.RunContext(context.Background(), c, shots)
}

// RunContext is Run with cancellation of the sampling phase.
func (e *Engine) RunContext(ctx context.Context, c *Circuit, shots int) (*Result, error) {
	if shots <= 0 {
		return nil, fmt.Errorf("got %d: %w", shots, ErrInvalidShots)
	}
	start := time.Now()
	runID := uuid.NewString()

	applied := 0
	if c != nil {
		if n := c.NumQubits(); n > e.numQubits {
			return nil, fmt.Errorf("circuit uses %d qubits, engine has %d: %w", n, e.numQubits, ErrInvalidQubitIndex)
		}
		if err := c.Validate(e.numQubits); err != nil {
			return nil, err
		}
		e.Reset()
		logrus.Infof("run %s: %d gate(s) on %d qubit(s), %s", runID, c.Len(), e.numQubits, e.mode)
		for i, g := range c.gates {
			if err := e.ApplySpec(g); err != nil {
				return nil, fmt.Errorf("run aborted at gate %d: %w", i, err)
			}
		}
		applied = e.step
	}

	counts, probs, err := e.sample(ctx, shots)
	if err != nil {
		return nil, err
	}
	res := &Result{
		RunID:         runID,
		Mode:          e.mode,
		NumQubits:     e.numQubits,
		Shots:         shots,
		Workers:       e.cfg.Workers,
		Seed:          e.cfg.Seed,
		Counts:        counts,
		Probabilities: probs,
		GatesApplied:  applied,
		Duration:      time.Since(start),
	}
	logrus.Infof("run %s: %d shot(s) in %v", runID, shots, res.Duration)
	return res, nil
}

// Measure samples shots outcomes from the current state. The state is not
// collapsed.
func (e *Engine) Measure(shots int) (Counts, error) {
	counts, _, err := e.sample(context.Background(), shots)
	return counts, err
}

func (e *Engine) sample(ctx context.Context, shots int) (Counts, []float64, error) {
	s := &Sampler{
		Tolerance: e.cfg.Tolerance,
		Workers:   e.cfg.Workers,
		RNG:       e.rng,
		Metrics:   e.metrics,
	}
	counts, probs, err := s.Run(ctx, e.state, shots)
	if err != nil {
		return nil, nil, err
	}
	if e.trace != nil {
		observed := 0
		for _, v := range counts {
			if v > 0 {
				observed++
			}
		}
		e.trace.RecordSample(trace.SampleRecord{Shots: shots, Workers: e.cfg.Workers, Outcome: observed})
	}
	return counts, probs, nil
}

// Probabilities returns the basis-state distribution of the current state.
func (e *Engine) Probabilities() []float64 { return e.state.Probabilities() }

// ExpectationValue returns Re tr(rho·O) for the current state.
func (e *Engine) ExpectationValue(observable Matrix) (float64, error) {
	return Expectation(e.state, observable)
}

// SetStateVector loads amps as the current state. On a density-matrix engine
// the state becomes |psi><psi|. The norm must be 1 within tolerance.
func (e *Engine) SetStateVector(amps []complex128) error {
	if len(amps) != 1<<e.numQubits {
		return &DimensionMismatchError{Expected: 1 << e.numQubits, Rows: len(amps), Cols: 1}
	}
	sv, err := NewStateVectorFrom(amps)
	if err != nil {
		return err
	}
	if norm := sv.Norm(); math.Abs(norm-1) > e.cfg.Tolerance {
		return &NotNormalizedError{Sum: norm * norm, Tolerance: e.cfg.Tolerance}
	}
	if e.mode == ModeDensityMatrix {
		e.state = DensityFromStateVector(sv)
	} else {
		e.state = sv
	}
	e.step = 0
	return nil
}

// SetDensityMatrix loads rho as the current state of a density-matrix engine.
// rho must be 2^n x 2^n, Hermitian and of unit trace within tolerance.
func (e *Engine) SetDensityMatrix(rho Matrix) error {
	if e.mode != ModeDensityMatrix {
		return fmt.Errorf("cannot load a density matrix into a %s engine: %w", e.mode, ErrUnsupportedSimulatorMode)
	}
	if rho.Dim != 1<<e.numQubits || len(rho.Data) != rho.Dim*rho.Dim {
		return &DimensionMismatchError{Expected: 1 << e.numQubits, Rows: rho.Dim, Cols: rho.Dim}
	}
	if !IsHermitian(rho, e.cfg.Tolerance) {
		return fmt.Errorf("density matrix is not Hermitian: %w", ErrInvalidParameter)
	}
	if tr := real(rho.Trace()); math.Abs(tr-1) > e.cfg.Tolerance {
		return &NotNormalizedError{Sum: tr, Tolerance: e.cfg.Tolerance}
	}
	dm, err := NewDensityMatrixFrom(rho)
	if err != nil {
		return err
	}
	for i, p := range dm.Probabilities() {
		if p < 0 {
			logrus.Warnf("density matrix diagonal entry %d is negative (%g)", i, p)
		}
	}
	e.state = dm
	e.step = 0
	return nil
}
