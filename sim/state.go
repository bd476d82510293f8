package sim

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/blas/cblas128"
)

// State is the system state a simulator evolves. Exactly one representation
// is used per run; it is mutated in place by every gate and never copied
// implicitly.
type State interface {
	NumQubits() int
	// Apply replaces the state with the image of a full 2^n operator.
	Apply(op Matrix) error
	// Probabilities returns the basis-state distribution without
	// renormalizing it.
	Probabilities() []float64
	// Norm is ||psi|| for a vector and Re(tr rho) for a density matrix.
	Norm() float64
	Reset()
	Clone() State
}

// StateVector is a pure state of n qubits: 2^n amplitudes.
type StateVector struct {
	numQubits int
	amps      []complex128
}

// NewStateVector returns |0...0>.
func NewStateVector(numQubits int) *StateVector {
	s := &StateVector{numQubits: numQubits, amps: make([]complex128, 1<<numQubits)}
	s.amps[0] = 1
	return s
}

// NewStateVectorFrom copies amps into a state. The length must be a power of
// two; normalization is left to the caller.
func NewStateVectorFrom(amps []complex128) (*StateVector, error) {
	n, ok := Matrix{Dim: len(amps)}.NumQubits()
	if !ok || n == 0 {
		return nil, fmt.Errorf("state vector length %d is not 2^n with n >= 1: %w", len(amps), ErrMatrixDimensionMismatch)
	}
	return &StateVector{numQubits: n, amps: append([]complex128(nil), amps...)}, nil
}

func (s *StateVector) NumQubits() int { return s.numQubits }

// Amplitudes returns a copy of the amplitudes.
func (s *StateVector) Amplitudes() []complex128 { return append([]complex128(nil), s.amps...) }

func (s *StateVector) vector() cblas128.Vector {
	return cblas128.Vector{N: len(s.amps), Inc: 1, Data: s.amps}
}

func (s *StateVector) Apply(op Matrix) error {
	if op.Dim != len(s.amps) {
		return &DimensionMismatchError{Expected: len(s.amps), Rows: op.Dim, Cols: op.Dim}
	}
	s.amps = op.MulVec(s.amps)
	return nil
}

func (s *StateVector) Probabilities() []float64 {
	p := make([]float64, len(s.amps))
	for i, a := range s.amps {
		p[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return p
}

func (s *StateVector) Norm() float64 { return cblas128.Nrm2(s.vector()) }

func (s *StateVector) Reset() {
	clear(s.amps)
	s.amps[0] = 1
}

func (s *StateVector) Clone() State {
	return &StateVector{numQubits: s.numQubits, amps: append([]complex128(nil), s.amps...)}
}

// DensityMatrix is a (possibly mixed) state of n qubits: a 2^n x 2^n
// Hermitian, unit-trace, positive semi-definite matrix.
type DensityMatrix struct {
	numQubits int
	rho       Matrix
}

// NewDensityMatrix returns |0...0><0...0|.
func NewDensityMatrix(numQubits int) *DensityMatrix {
	d := &DensityMatrix{numQubits: numQubits, rho: NewMatrix(1 << numQubits)}
	d.rho.Data[0] = 1
	return d
}

// NewDensityMatrixFrom copies rho into a state. Only the shape is checked
// here; trace and Hermiticity are the caller's responsibility (the engine
// checks them when loading an initial state).
func NewDensityMatrixFrom(rho Matrix) (*DensityMatrix, error) {
	n, ok := rho.NumQubits()
	if !ok || n == 0 || len(rho.Data) != rho.Dim*rho.Dim {
		return nil, fmt.Errorf("density matrix of dimension %d is not 2^n with n >= 1: %w", rho.Dim, ErrMatrixDimensionMismatch)
	}
	return &DensityMatrix{numQubits: n, rho: rho.Clone()}, nil
}

// DensityFromStateVector returns |psi><psi|.
func DensityFromStateVector(s *StateVector) *DensityMatrix {
	dim := len(s.amps)
	rho := NewMatrix(dim)
	for i, a := range s.amps {
		for j, b := range s.amps {
			rho.Data[i*dim+j] = a * cmplx.Conj(b)
		}
	}
	return &DensityMatrix{numQubits: s.numQubits, rho: rho}
}

func (d *DensityMatrix) NumQubits() int { return d.numQubits }

// Matrix returns a copy of rho.
func (d *DensityMatrix) Matrix() Matrix { return d.rho.Clone() }

// Apply conjugates rho by op: rho <- op·rho·op†. Trace and positivity are
// preserved only when op is unitary.
func (d *DensityMatrix) Apply(op Matrix) error {
	if op.Dim != d.rho.Dim {
		return &DimensionMismatchError{Expected: d.rho.Dim, Rows: op.Dim, Cols: op.Dim}
	}
	d.rho = op.Mul(d.rho).MulConjTranspose(op)
	return nil
}

func (d *DensityMatrix) Probabilities() []float64 {
	p := make([]float64, d.rho.Dim)
	for i := range p {
		p[i] = real(d.rho.Data[i*d.rho.Dim+i])
	}
	return p
}

func (d *DensityMatrix) Norm() float64 { return real(d.rho.Trace()) }

// Purity is tr(rho^2): 1 for pure states, 1/2^n for the maximally mixed one.
func (d *DensityMatrix) Purity() float64 {
	var p float64
	dim := d.rho.Dim
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			p += real(d.rho.Data[i*dim+j] * d.rho.Data[j*dim+i])
		}
	}
	return p
}

func (d *DensityMatrix) Reset() {
	clear(d.rho.Data)
	d.rho.Data[0] = 1
}

func (d *DensityMatrix) Clone() State {
	return &DensityMatrix{numQubits: d.numQubits, rho: d.rho.Clone()}
}
