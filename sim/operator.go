package sim

import (
	"fmt"
)

var identity2 = Identity(2)

// BuildOperator embeds the local matrix m, acting on targets in the given
// order, into the full 2^n x 2^n operator. The result acts as m on the
// subsystem spanned by targets (factor j of m on qubit targets[j]) and as the
// identity on every other qubit.
//
// Unitarity of m is not checked.
func BuildOperator(m Matrix, targets []int, n int) (Matrix, error) {
	if err := ValidateTargets(targets, n); err != nil {
		return Matrix{}, err
	}
	if err := ValidateMatrixShape(m, targets); err != nil {
		return Matrix{}, err
	}

	k := len(targets)
	if k == n {
		// Gate spans the whole register: no identity padding, but a
		// non-ascending target order still moves the matrix's own axes.
		if isIdentityLayout(targets) {
			return m.Clone(), nil
		}
		return permuteOperatorAxes(m, targets), nil
	}

	// Naive embedding: unaffected qubits on the leading axes, targets on the
	// trailing k axes in caller order.
	op := m
	for i := 0; i < n-k; i++ {
		op = Kron(identity2, op)
	}

	layout := naiveLayout(targets, n)
	if isIdentityLayout(layout) {
		return op, nil
	}
	return permuteOperatorAxes(op, layout), nil
}

// BuildOperatorFor builds the operator in the representation a mode uses.
// Only the dense representation exists; tensor networks are an extension
// point.
func BuildOperatorFor(mode Mode, m Matrix, targets []int, n int) (Matrix, error) {
	switch mode {
	case ModeStateVector, ModeDensityMatrix:
		return BuildOperator(m, targets, n)
	case ModeTensorNetwork:
		return Matrix{}, fmt.Errorf("tensor network operator: %w", ErrNotImplemented)
	default:
		return Matrix{}, fmt.Errorf("%q: %w", mode, ErrUnsupportedSimulatorMode)
	}
}

// naiveLayout lists which qubit each tensor axis of the Kronecker-padded
// operator carries: unaffected qubits ascending, then the targets.
func naiveLayout(targets []int, n int) []int {
	affected := make([]bool, n)
	for _, q := range targets {
		affected[q] = true
	}
	layout := make([]int, 0, n)
	for q := 0; q < n; q++ {
		if !affected[q] {
			layout = append(layout, q)
		}
	}
	return append(layout, targets...)
}
