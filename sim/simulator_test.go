package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qestkit/qestkit/sim/trace"
)

func amplitudes(t *testing.T, e *Engine) []complex128 {
	t.Helper()
	sv, ok := e.State().(*StateVector)
	require.True(t, ok, "expected a state-vector engine")
	return sv.Amplitudes()
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"statevector", ModeStateVector},
		{"State_Vector", ModeStateVector},
		{"dm", ModeDensityMatrix},
		{"density_matrix", ModeDensityMatrix},
		{"tensor_network", ModeTensorNetwork},
	}
	for _, tc := range tests {
		got, err := ParseMode(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseMode("stabilizer")
	assert.True(t, errors.Is(err, ErrUnsupportedSimulatorMode))
}

func TestNewSimulator_ModeErrors(t *testing.T) {
	_, err := NewSimulator(ModeTensorNetwork, 2)
	assert.True(t, errors.Is(err, ErrNotImplemented))

	_, err = NewSimulator(Mode("stabilizer"), 2)
	assert.True(t, errors.Is(err, ErrUnsupportedSimulatorMode))
}

func TestNewSimulator_QubitLimits(t *testing.T) {
	_, err := NewStateVectorSimulator(0)
	assert.True(t, errors.Is(err, ErrInvalidQubitIndex))

	_, err = NewStateVectorSimulator(DefaultMaxQubits + 1)
	assert.True(t, errors.Is(err, ErrQubitLimitExceeded))

	_, err = NewStateVectorSimulator(3, WithMaxQubits(2))
	assert.True(t, errors.Is(err, ErrQubitLimitExceeded))

	_, err = NewStateVectorSimulator(2, WithMaxQubits(HardMaxQubits+1))
	assert.True(t, errors.Is(err, ErrQubitLimitExceeded))
}

func TestNewSimulator_MemoryBudgetDependsOnMode(t *testing.T) {
	// GIVEN the default 2 GiB budget
	// WHEN a 13-qubit engine is requested in each mode
	sv, err := NewStateVectorSimulator(13)

	// THEN the state vector fits (two 1 GiB operators)
	require.NoError(t, err)
	assert.Equal(t, 13, sv.NumQubits())

	// AND the density matrix does not (four 1 GiB matrices per gate)
	_, err = NewDensityMatrixSimulator(13)
	assert.True(t, errors.Is(err, ErrQubitLimitExceeded))
	assert.Contains(t, err.Error(), "budget")
}

func TestNewSimulator_RejectsOversizedRegisterBeforeAllocating(t *testing.T) {
	// A 64 GiB density matrix would abort the process if allocated.
	_, err := NewDensityMatrixSimulator(16, WithMaxQubits(16))
	assert.True(t, errors.Is(err, ErrQubitLimitExceeded))

	// A raised cap still has to fit the budget.
	_, err = NewDensityMatrixSimulator(HardMaxQubits, WithMaxQubits(HardMaxQubits))
	assert.True(t, errors.Is(err, ErrQubitLimitExceeded))

	_, err = NewDensityMatrixSimulator(2, WithMemoryBudget(EstimateGateBytes(ModeDensityMatrix, 2)-1))
	assert.True(t, errors.Is(err, ErrQubitLimitExceeded))

	_, err = NewDensityMatrixSimulator(2, WithMemoryBudget(EstimateGateBytes(ModeDensityMatrix, 2)))
	assert.NoError(t, err)
}

func TestNewSimulator_InvalidConfig(t *testing.T) {
	_, err := NewStateVectorSimulator(1, WithWorkers(0))
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	_, err = NewStateVectorSimulator(1, WithTolerance(-1))
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	_, err = NewStateVectorSimulator(1, WithTrace("verbose"))
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestEngine_Hadamard_EqualSuperpositionAndFiftyFiftySplit(t *testing.T) {
	// GIVEN a single qubit in |0>
	e, err := NewStateVectorSimulator(1)
	require.NoError(t, err)

	// WHEN Hadamard is applied
	require.NoError(t, e.ApplyGate("h", []int{0}, nil, nil))

	// THEN the state is [1/√2, 1/√2]
	amps := amplitudes(t, e)
	s := 1 / math.Sqrt2
	assert.InDelta(t, s, real(amps[0]), 1e-12)
	assert.InDelta(t, s, real(amps[1]), 1e-12)

	// AND 10,000 shots split roughly evenly
	res, err := e.Run(nil, 10000)
	require.NoError(t, err)
	assert.Equal(t, 10000, res.Counts.Total())
	assert.InDelta(t, 0.5, res.Counts.Frequency("0"), 0.03)
	assert.InDelta(t, 0.5, res.Counts.Frequency("1"), 0.03)
}

func TestEngine_BellState(t *testing.T) {
	// GIVEN |00>
	e, err := NewStateVectorSimulator(2)
	require.NoError(t, err)

	// WHEN H(0) then CNOT(control=0, target=1)
	require.NoError(t, e.ApplyGate("h", []int{0}, nil, nil))
	require.NoError(t, e.ApplyGate("cnot", []int{0, 1}, nil, nil))

	// THEN the state is [1/√2, 0, 0, 1/√2]
	s := complex(1/math.Sqrt2, 0)
	want := []complex128{s, 0, 0, s}
	got := amplitudes(t, e)
	for i := range want {
		assert.InDelta(t, 0, cmplxAbs(got[i]-want[i]), 1e-12, "amplitude %d", i)
	}

	// AND only "00" and "11" are ever observed
	counts, err := e.Measure(5000)
	require.NoError(t, err)
	assert.Zero(t, counts["01"])
	assert.Zero(t, counts["10"])
	assert.Equal(t, 5000, counts["00"]+counts["11"])
	assert.Positive(t, counts["00"])
	assert.Positive(t, counts["11"])
}

func TestEngine_CNOTTargetOrderSensitivity(t *testing.T) {
	// GIVEN |10> (qubit 0 set)
	prepare := func() *Engine {
		e, err := NewStateVectorSimulator(2)
		require.NoError(t, err)
		require.NoError(t, e.ApplyGate("x", []int{0}, nil, nil))
		return e
	}

	// WHEN control=0, target=1 THEN |11>
	e := prepare()
	require.NoError(t, e.ApplyGate("cnot", []int{0, 1}, nil, nil))
	assert.InDelta(t, 1, e.Probabilities()[3], 1e-12)

	// WHEN control=1, target=0 THEN |10> unchanged
	e = prepare()
	require.NoError(t, e.ApplyGate("cnot", []int{1, 0}, nil, nil))
	assert.InDelta(t, 1, e.Probabilities()[2], 1e-12)
}

func TestEngine_DisjointSingleQubitGatesCommute(t *testing.T) {
	// GIVEN a non-trivial initial state
	prepare := func() *Engine {
		e, err := NewStateVectorSimulator(2)
		require.NoError(t, err)
		require.NoError(t, e.ApplyGate("ry", []int{0}, nil, Params{"theta": 0.3}))
		require.NoError(t, e.ApplyGate("rx", []int{1}, nil, Params{"theta": 1.1}))
		require.NoError(t, e.ApplyGate("cz", []int{0, 1}, nil, nil))
		return e
	}

	a := prepare()
	require.NoError(t, a.ApplyGate("x", []int{0}, nil, nil))
	require.NoError(t, a.ApplyGate("x", []int{1}, nil, nil))

	b := prepare()
	require.NoError(t, b.ApplyGate("x", []int{1}, nil, nil))
	require.NoError(t, b.ApplyGate("x", []int{0}, nil, nil))

	ampsA, ampsB := amplitudes(t, a), amplitudes(t, b)
	for i := range ampsA {
		assert.InDelta(t, 0, cmplxAbs(ampsA[i]-ampsB[i]), 1e-12, "amplitude %d", i)
	}
}

func TestEngine_MaximallyMixedDensityMatrixSampling(t *testing.T) {
	// GIVEN the 2-qubit maximally mixed state
	e, err := NewDensityMatrixSimulator(2, WithWorkers(4), WithSeed(2024))
	require.NoError(t, err)
	require.NoError(t, e.SetDensityMatrix(Diagonal(0.25, 0.25, 0.25, 0.25)))

	// WHEN 100,000 shots are drawn
	res, err := e.Run(nil, 100000)
	require.NoError(t, err)

	// THEN every label appears with frequency ≈ 0.25
	require.Len(t, res.Counts, 4)
	for _, label := range []string{"00", "01", "10", "11"} {
		assert.InDelta(t, 0.25, res.Counts.Frequency(label), 0.01, label)
	}
}

func TestEngine_InvalidQubitIndex(t *testing.T) {
	e, err := NewStateVectorSimulator(2)
	require.NoError(t, err)

	err = e.ApplyGate("x", []int{2}, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidQubitIndex), "got %v", err)
	assert.Equal(t, 1.0, e.Probabilities()[0], "failed gate must not touch the state")
}

func TestEngine_UnsupportedGateListsValidNames(t *testing.T) {
	e, err := NewStateVectorSimulator(1)
	require.NoError(t, err)

	err = e.ApplyGate("frobnicate", []int{0}, nil, nil)
	assert.True(t, errors.Is(err, ErrUnsupportedGate))
	for _, name := range SupportedGates() {
		assert.Contains(t, err.Error(), name)
	}
}

func TestEngine_SingleQubitGateBroadcastsOverTargets(t *testing.T) {
	e, err := NewStateVectorSimulator(3)
	require.NoError(t, err)

	require.NoError(t, e.ApplyGate("x", []int{0, 2}, nil, nil))
	assert.InDelta(t, 1, e.Probabilities()[5], 1e-12) // |101>

	// Validation covers every target before anything is applied.
	err = e.ApplyGate("x", []int{1, 3}, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidQubitIndex))
	assert.InDelta(t, 1, e.Probabilities()[5], 1e-12)
}

func TestEngine_ApplyGate_WithControls(t *testing.T) {
	e, err := NewStateVectorSimulator(3)
	require.NoError(t, err)
	require.NoError(t, e.ApplyGate("x", []int{0, 1}, nil, nil))

	// Toffoli through the controls argument
	require.NoError(t, e.ApplyGate("x", []int{2}, []int{0, 1}, nil))
	assert.InDelta(t, 1, e.Probabilities()[7], 1e-12)

	err = e.ApplyGate("x", []int{2}, []int{2}, nil)
	assert.True(t, errors.Is(err, ErrInvalidQubitIndex))
}

func TestEngine_ApplyCustomGate(t *testing.T) {
	e, err := NewStateVectorSimulator(2)
	require.NoError(t, err)

	iswap := MustMatrix([][]complex128{
		{1, 0, 0, 0},
		{0, 0, 1i, 0},
		{0, 1i, 0, 0},
		{0, 0, 0, 1},
	})
	require.NoError(t, e.ApplyGate("x", []int{1}, nil, nil))
	require.NoError(t, e.ApplyCustomGate(iswap, []int{0, 1}, nil))
	assert.InDelta(t, 1, e.Probabilities()[2], 1e-12)

	err = e.ApplyCustomGate(Identity(2), []int{0, 1}, nil)
	assert.True(t, errors.Is(err, ErrMatrixDimensionMismatch))
}

func TestEngine_Run_ResetsAndIsReproducible(t *testing.T) {
	c := NewCircuit(2)
	require.NoError(t, c.AddGate("h", []int{0}, nil))
	require.NoError(t, c.AddGate("h", []int{1}, nil))

	e, err := NewStateVectorSimulator(2, WithSeed(99), WithWorkers(3))
	require.NoError(t, err)

	first, err := e.Run(c, 2000)
	require.NoError(t, err)
	second, err := e.Run(c, 2000)
	require.NoError(t, err)

	assert.Equal(t, first.Counts, second.Counts)
	assert.Equal(t, 2, first.GatesApplied, "run starts from a reset state")
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, ModeStateVector, first.Mode)
	assert.Len(t, first.Probabilities, 4)
}

func TestEngine_Run_NilCircuitCountsNoGates(t *testing.T) {
	// GIVEN gates applied directly before the run
	e, err := NewStateVectorSimulator(1)
	require.NoError(t, err)
	require.NoError(t, e.ApplyGate("x", []int{0}, nil, nil))
	require.NoError(t, e.ApplyGate("h", []int{0}, nil, nil))

	// WHEN the current state is sampled without a circuit
	res, err := e.Run(nil, 100)
	require.NoError(t, err)

	// THEN the run reports no gates of its own
	assert.Equal(t, 0, res.GatesApplied)
	assert.Equal(t, 100, res.Counts.Total())
}

func TestEngine_Run_Errors(t *testing.T) {
	e, err := NewStateVectorSimulator(2)
	require.NoError(t, err)

	_, err = e.Run(nil, 0)
	assert.True(t, errors.Is(err, ErrInvalidShots))

	wide := NewCircuit(0)
	require.NoError(t, wide.AddGate("x", []int{2}, nil))
	_, err = e.Run(wide, 10)
	assert.True(t, errors.Is(err, ErrInvalidQubitIndex))
}

func TestEngine_Run_NonUnitaryCustomGateIsNotRenormalized(t *testing.T) {
	c := NewCircuit(1)
	require.NoError(t, c.AddCustomGate("leaky", Diagonal(0.5, 1), []int{0}))

	e, err := NewStateVectorSimulator(1)
	require.NoError(t, err)

	_, err = e.Run(c, 10)
	assert.True(t, errors.Is(err, ErrNotNormalized))
}

func TestEngine_SetStateVector(t *testing.T) {
	s := complex(1/math.Sqrt2, 0)
	e, err := NewStateVectorSimulator(1)
	require.NoError(t, err)
	require.NoError(t, e.SetStateVector([]complex128{s, s}))
	assert.InDelta(t, 0.5, e.Probabilities()[1], 1e-12)

	err = e.SetStateVector([]complex128{1, 1})
	assert.True(t, errors.Is(err, ErrNotNormalized))

	err = e.SetStateVector([]complex128{1, 0, 0, 0})
	assert.True(t, errors.Is(err, ErrMatrixDimensionMismatch))

	// Density-matrix engines take |psi><psi|.
	d, err := NewDensityMatrixSimulator(1)
	require.NoError(t, err)
	require.NoError(t, d.SetStateVector([]complex128{s, s}))
	dm := d.State().(*DensityMatrix)
	assert.InDelta(t, 0.5, real(dm.Matrix().At(0, 1)), 1e-12)
}

func TestEngine_SetDensityMatrix_Validation(t *testing.T) {
	e, err := NewStateVectorSimulator(1)
	require.NoError(t, err)
	err = e.SetDensityMatrix(Diagonal(0.5, 0.5))
	assert.True(t, errors.Is(err, ErrUnsupportedSimulatorMode))

	d, err := NewDensityMatrixSimulator(1)
	require.NoError(t, err)
	assert.True(t, errors.Is(d.SetDensityMatrix(Diagonal(0.5, 0.6)), ErrNotNormalized))
	assert.True(t, errors.Is(d.SetDensityMatrix(Identity(4)), ErrMatrixDimensionMismatch))
	notHermitian := MustMatrix([][]complex128{{0.5, 0.3}, {0, 0.5}})
	assert.True(t, errors.Is(d.SetDensityMatrix(notHermitian), ErrInvalidParameter))
}

func TestEngine_DensityMatrix_PreservesTraceThroughCircuit(t *testing.T) {
	e, err := NewDensityMatrixSimulator(3)
	require.NoError(t, err)

	for _, step := range []struct {
		name    string
		targets []int
		params  Params
	}{
		{"h", []int{0}, nil},
		{"cx", []int{0, 2}, nil},
		{"ry", []int{1}, Params{"theta": 0.4}},
		{"swap", []int{2, 1}, nil},
		{"t", []int{0}, nil},
	} {
		require.NoError(t, e.ApplyGate(step.name, step.targets, nil, step.params))
		dm := e.State().(*DensityMatrix)
		assert.InDelta(t, 1, dm.Norm(), 1e-10, step.name)
	}
}

func TestEngine_Reset(t *testing.T) {
	e, err := NewStateVectorSimulator(2)
	require.NoError(t, err)
	require.NoError(t, e.ApplyGate("x", []int{1}, nil, nil))

	e.Reset()

	assert.Equal(t, []float64{1, 0, 0, 0}, e.Probabilities())
}

func TestEngine_State_ReturnsCopy(t *testing.T) {
	e, err := NewStateVectorSimulator(1)
	require.NoError(t, err)

	st := e.State()
	x, _, _ := Resolve("x", nil)
	require.NoError(t, st.Apply(x))

	assert.Equal(t, []float64{1, 0}, e.Probabilities())
}

func TestEngine_TraceAndMetrics(t *testing.T) {
	m := NewBasicMetricsCollector()
	e, err := NewStateVectorSimulator(2, WithTrace(trace.TraceLevelGates), WithMetrics(m))
	require.NoError(t, err)

	c := NewCircuit(2)
	require.NoError(t, c.AddGate("h", []int{0}, nil))
	require.NoError(t, c.AddGate("cx", []int{0, 1}, nil))
	_, err = e.Run(c, 100)
	require.NoError(t, err)

	st := e.Trace()
	require.NotNil(t, st)
	require.Len(t, st.Gates, 2)
	assert.Equal(t, "h", st.Gates[0].Gate)
	assert.Equal(t, []int{0, 1}, st.Gates[1].Targets)
	assert.InDelta(t, 1, st.Gates[1].Norm, 1e-12)
	require.Len(t, st.Samples, 1)
	assert.Equal(t, 2, st.Samples[0].Outcome)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.GatesApplied)
	assert.Equal(t, int64(100), snap.ShotsDrawn)
	assert.Equal(t, 2, snap.WidestGate)
}

func TestEngine_TraceOffByDefault(t *testing.T) {
	e, err := NewStateVectorSimulator(1)
	require.NoError(t, err)
	assert.Nil(t, e.Trace())
}
