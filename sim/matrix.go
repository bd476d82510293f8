package sim

import (
	"fmt"
	"math/bits"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
)

// Matrix is a dense square complex matrix stored row-major.
// Products go through gonum's complex BLAS (cblas128).
type Matrix struct {
	Dim  int
	Data []complex128
}

// NewMatrix returns a zero matrix of the given dimension.
func NewMatrix(dim int) Matrix {
	return Matrix{Dim: dim, Data: make([]complex128, dim*dim)}
}

// NewMatrixFromRows builds a Matrix from nested rows. Non-square input is
// rejected with a DimensionMismatchError.
func NewMatrixFromRows(rows [][]complex128) (Matrix, error) {
	dim := len(rows)
	m := NewMatrix(dim)
	for i, row := range rows {
		if len(row) != dim {
			return Matrix{}, &DimensionMismatchError{Expected: dim, Rows: dim, Cols: len(row)}
		}
		copy(m.Data[i*dim:(i+1)*dim], row)
	}
	return m, nil
}

// MustMatrix is NewMatrixFromRows for literal tables known to be square.
func MustMatrix(rows [][]complex128) Matrix {
	m, err := NewMatrixFromRows(rows)
	if err != nil {
		panic(fmt.Sprintf("MustMatrix: %v", err))
	}
	return m
}

// Identity returns the dim x dim identity.
func Identity(dim int) Matrix {
	m := NewMatrix(dim)
	for i := 0; i < dim; i++ {
		m.Data[i*dim+i] = 1
	}
	return m
}

// Diagonal returns a matrix with d on its diagonal.
func Diagonal(d ...complex128) Matrix {
	m := NewMatrix(len(d))
	for i, v := range d {
		m.Data[i*len(d)+i] = v
	}
	return m
}

func (m Matrix) At(i, j int) complex128 { return m.Data[i*m.Dim+j] }

func (m Matrix) Set(i, j int, v complex128) { m.Data[i*m.Dim+j] = v }

// Rows returns a nested copy of the matrix.
func (m Matrix) Rows() [][]complex128 {
	out := make([][]complex128, m.Dim)
	for i := range out {
		out[i] = append([]complex128(nil), m.Data[i*m.Dim:(i+1)*m.Dim]...)
	}
	return out
}

func (m Matrix) IsEmpty() bool { return m.Dim == 0 }

func (m Matrix) Clone() Matrix {
	return Matrix{Dim: m.Dim, Data: append([]complex128(nil), m.Data...)}
}

// NumQubits returns k when Dim == 2^k.
func (m Matrix) NumQubits() (int, bool) {
	if m.Dim <= 0 || m.Dim&(m.Dim-1) != 0 {
		return 0, false
	}
	return bits.TrailingZeros(uint(m.Dim)), true
}

func (m Matrix) general() cblas128.General {
	return cblas128.General{Rows: m.Dim, Cols: m.Dim, Stride: m.Dim, Data: m.Data}
}

// Mul returns m·o.
func (m Matrix) Mul(o Matrix) Matrix {
	out := NewMatrix(m.Dim)
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, m.general(), o.general(), 0, out.general())
	return out
}

// MulConjTranspose returns m·o†.
func (m Matrix) MulConjTranspose(o Matrix) Matrix {
	out := NewMatrix(m.Dim)
	cblas128.Gemm(blas.NoTrans, blas.ConjTrans, 1, m.general(), o.general(), 0, out.general())
	return out
}

// MulVec returns m·v.
func (m Matrix) MulVec(v []complex128) []complex128 {
	out := make([]complex128, m.Dim)
	cblas128.Gemv(blas.NoTrans, 1, m.general(),
		cblas128.Vector{N: len(v), Inc: 1, Data: v},
		0, cblas128.Vector{N: m.Dim, Inc: 1, Data: out})
	return out
}

// ConjTranspose returns m†.
func (m Matrix) ConjTranspose() Matrix {
	out := NewMatrix(m.Dim)
	for i := 0; i < m.Dim; i++ {
		for j := 0; j < m.Dim; j++ {
			out.Data[j*m.Dim+i] = cmplx.Conj(m.Data[i*m.Dim+j])
		}
	}
	return out
}

func (m Matrix) Trace() complex128 {
	var t complex128
	for i := 0; i < m.Dim; i++ {
		t += m.Data[i*m.Dim+i]
	}
	return t
}

// ApproxEqual reports whether every entry of m and o differs by at most tol.
func (m Matrix) ApproxEqual(o Matrix, tol float64) bool {
	if m.Dim != o.Dim || len(m.Data) != len(o.Data) {
		return false
	}
	for i := range m.Data {
		if cmplx.Abs(m.Data[i]-o.Data[i]) > tol {
			return false
		}
	}
	return true
}

// Kron returns the Kronecker product a ⊗ b.
func Kron(a, b Matrix) Matrix {
	dim := a.Dim * b.Dim
	out := NewMatrix(dim)
	for i1 := 0; i1 < a.Dim; i1++ {
		for j1 := 0; j1 < a.Dim; j1++ {
			av := a.Data[i1*a.Dim+j1]
			if av == 0 {
				continue
			}
			for i2 := 0; i2 < b.Dim; i2++ {
				row := (i1*b.Dim + i2) * dim
				for j2 := 0; j2 < b.Dim; j2++ {
					out.Data[row+j1*b.Dim+j2] = av * b.Data[i2*b.Dim+j2]
				}
			}
		}
	}
	return out
}

// IsUnitary reports whether m·m† is the identity within tol. The engine never
// calls this on the hot path; it is offered to callers that build custom
// gates.
func IsUnitary(m Matrix, tol float64) bool {
	if m.IsEmpty() {
		return false
	}
	return m.MulConjTranspose(m).ApproxEqual(Identity(m.Dim), tol)
}

// IsHermitian reports whether m equals m† within tol.
func IsHermitian(m Matrix, tol float64) bool {
	return m.ApproxEqual(m.ConjTranspose(), tol)
}

// Controlled returns the controlled-U of u with numControls leading control
// qubits: identity everywhere except the block where every control is |1>.
func Controlled(u Matrix, numControls int) Matrix {
	if numControls <= 0 {
		return u.Clone()
	}
	dim := u.Dim << numControls
	out := Identity(dim)
	offset := dim - u.Dim
	for i := 0; i < u.Dim; i++ {
		for j := 0; j < u.Dim; j++ {
			out.Data[(offset+i)*dim+offset+j] = u.Data[i*u.Dim+j]
		}
	}
	return out
}
