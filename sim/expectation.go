package sim

import (
	"fmt"

	"gonum.org/v1/gonum/blas/cblas128"
)

// Expectation returns Re tr(rho·O) for the given state. For a state vector
// this is Re <psi|O|psi>. O must be 2^n x 2^n; Hermiticity is not checked.
func Expectation(state State, observable Matrix) (float64, error) {
	switch s := state.(type) {
	case *StateVector:
		if observable.Dim != len(s.amps) || len(observable.Data) != observable.Dim*observable.Dim {
			return 0, &DimensionMismatchError{Expected: len(s.amps), Rows: observable.Dim, Cols: observable.Dim}
		}
		ov := observable.MulVec(s.amps)
		return real(cblas128.Dotc(s.vector(), cblas128.Vector{N: len(ov), Inc: 1, Data: ov})), nil
	case *DensityMatrix:
		dim := s.rho.Dim
		if observable.Dim != dim || len(observable.Data) != dim*dim {
			return 0, &DimensionMismatchError{Expected: dim, Rows: observable.Dim, Cols: observable.Dim}
		}
		var sum float64
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				sum += real(s.rho.Data[i*dim+j] * observable.Data[j*dim+i])
			}
		}
		return sum, nil
	default:
		return 0, fmt.Errorf("expectation over %T: %w", state, ErrUnsupportedSimulatorMode)
	}
}
