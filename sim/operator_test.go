package sim

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceOperator computes the embedding entry by entry: O[r][c] is
// m[local(r)][local(c)] when r and c agree on every non-target qubit, else 0.
func referenceOperator(m Matrix, targets []int, n int) Matrix {
	dim := 1 << n
	isTarget := make([]bool, n)
	for _, q := range targets {
		isTarget[q] = true
	}
	bit := func(i, q int) int { return (i >> (n - 1 - q)) & 1 }
	local := func(i int) int {
		l := 0
		for _, q := range targets {
			l = l<<1 | bit(i, q)
		}
		return l
	}
	out := NewMatrix(dim)
	for r := 0; r < dim; r++ {
		for c := 0; c < dim; c++ {
			same := true
			for q := 0; q < n; q++ {
				if !isTarget[q] && bit(r, q) != bit(c, q) {
					same = false
					break
				}
			}
			if same {
				out.Data[r*dim+c] = m.At(local(r), local(c))
			}
		}
	}
	return out
}

func randomMatrix(rng *rand.Rand, dim int) Matrix {
	m := NewMatrix(dim)
	for i := range m.Data {
		m.Data[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	return m
}

func TestBuildOperator_SingleQubit_Placement(t *testing.T) {
	x := MustMatrix([][]complex128{{0, 1}, {1, 0}})

	// Qubit 0 is the most significant factor.
	op0, err := BuildOperator(x, []int{0}, 2)
	require.NoError(t, err)
	assert.True(t, op0.ApproxEqual(Kron(x, Identity(2)), testTol))

	op1, err := BuildOperator(x, []int{1}, 2)
	require.NoError(t, err)
	assert.True(t, op1.ApproxEqual(Kron(Identity(2), x), testTol))
}

func TestBuildOperator_FullSpan_AscendingIsClone(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := randomMatrix(rng, 8)

	op, err := BuildOperator(m, []int{0, 1, 2}, 3)
	require.NoError(t, err)
	assert.True(t, op.ApproxEqual(m, 0))

	op.Set(0, 0, 42)
	assert.NotEqual(t, complex128(42), m.At(0, 0), "operator must not alias the local matrix")
}

func TestBuildOperator_FullSpan_PermutedOrderMatchesReference(t *testing.T) {
	// GIVEN a gate spanning every qubit in non-ascending order
	rng := rand.New(rand.NewSource(2))
	for _, targets := range [][]int{{1, 0}, {2, 0, 1}, {1, 2, 0}, {2, 1, 0}} {
		n := len(targets)
		m := randomMatrix(rng, 1<<n)

		// WHEN embedded
		op, err := BuildOperator(m, targets, n)
		require.NoError(t, err)

		// THEN only the axis permutation is applied
		assert.True(t, op.ApproxEqual(referenceOperator(m, targets, n), testTol), "targets %v", targets)
	}
}

func TestBuildOperator_FullSpan_ReversedCNOTIsSwappedControl(t *testing.T) {
	cnot, _, err := Resolve("cnot", nil)
	require.NoError(t, err)

	op, err := BuildOperator(cnot, []int{1, 0}, 2)
	require.NoError(t, err)

	// control on qubit 1 (LSB), target qubit 0 (MSB): |01> <-> |11>
	want := MustMatrix([][]complex128{
		{1, 0, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
	})
	assert.True(t, op.ApproxEqual(want, testTol), "got %v", op.Rows())
}

func TestBuildOperator_RandomSubsets_MatchReference(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 40; trial++ {
		n := 1 + rng.Intn(4)
		k := 1 + rng.Intn(n)
		targets := rng.Perm(n)[:k]
		m := randomMatrix(rng, 1<<k)

		op, err := BuildOperator(m, targets, n)
		require.NoError(t, err)
		assert.True(t, op.ApproxEqual(referenceOperator(m, targets, n), 1e-10), "n=%d targets=%v", n, targets)
	}
}

func TestBuildOperator_NonAdjacentTargets(t *testing.T) {
	swap, _, err := Resolve("swap", nil)
	require.NoError(t, err)

	op, err := BuildOperator(swap, []int{0, 2}, 3)
	require.NoError(t, err)

	// |100> (4) <-> |001> (1), qubit 1 untouched
	assert.Equal(t, complex128(1), op.At(1, 4))
	assert.Equal(t, complex128(1), op.At(4, 1))
	assert.Equal(t, complex128(1), op.At(3, 6))
	assert.Equal(t, complex128(1), op.At(2, 2))
}

func TestBuildOperator_UnitaryInUnitaryOut(t *testing.T) {
	h, _, _ := Resolve("h", nil)
	cz, _, _ := Resolve("cz", nil)

	op, err := BuildOperator(h, []int{2}, 4)
	require.NoError(t, err)
	assert.True(t, IsUnitary(op, 1e-12))

	op, err = BuildOperator(cz, []int{3, 1}, 4)
	require.NoError(t, err)
	assert.True(t, IsUnitary(op, 1e-12))
}

func TestBuildOperator_Errors(t *testing.T) {
	x := MustMatrix([][]complex128{{0, 1}, {1, 0}})

	_, err := BuildOperator(x, []int{2}, 2)
	assert.True(t, errors.Is(err, ErrInvalidQubitIndex))

	_, err = BuildOperator(x, []int{0, 1}, 2)
	assert.True(t, errors.Is(err, ErrMatrixDimensionMismatch))

	_, err = BuildOperator(x, nil, 2)
	assert.True(t, errors.Is(err, ErrInvalidQubitIndex))
}

func TestBuildOperatorFor_Modes(t *testing.T) {
	x := MustMatrix([][]complex128{{0, 1}, {1, 0}})

	for _, mode := range []Mode{ModeStateVector, ModeDensityMatrix} {
		_, err := BuildOperatorFor(mode, x, []int{0}, 1)
		assert.NoError(t, err, mode)
	}

	_, err := BuildOperatorFor(ModeTensorNetwork, x, []int{0}, 1)
	assert.True(t, errors.Is(err, ErrNotImplemented))

	_, err = BuildOperatorFor(Mode("qudit"), x, []int{0}, 1)
	assert.True(t, errors.Is(err, ErrUnsupportedSimulatorMode))
}

func TestAxisIndexMap_IdentityLayout(t *testing.T) {
	idx := axisIndexMap([]int{0, 1, 2})
	for g, r := range idx {
		assert.Equal(t, g, r)
	}
	assert.True(t, isIdentityLayout([]int{0, 1, 2}))
	assert.False(t, isIdentityLayout([]int{1, 0}))
}

func TestNaiveLayout(t *testing.T) {
	assert.Equal(t, []int{1, 3, 2, 0}, naiveLayout([]int{2, 0}, 4))
	assert.Equal(t, []int{0, 1}, naiveLayout([]int{1}, 2))
}
