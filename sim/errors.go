package sim

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the engine. Match them with errors.Is; the
// concrete value is usually wrapped with context or carried by one of the
// typed errors below.
var (
	// ErrInvalidQubitIndex: a target is negative, out of range, or repeated.
	ErrInvalidQubitIndex = errors.New("sim: invalid qubit index")

	// ErrMatrixDimensionMismatch: a matrix is not 2^k x 2^k for k targets,
	// or an observable does not match the system size.
	ErrMatrixDimensionMismatch = errors.New("sim: matrix dimension mismatch")

	// ErrUnsupportedGate: the gate name is not in the catalog.
	ErrUnsupportedGate = errors.New("sim: unsupported gate")

	// ErrUnsupportedSimulatorMode: the requested mode string is unknown.
	ErrUnsupportedSimulatorMode = errors.New("sim: unsupported simulator mode")

	// ErrNotImplemented marks documented extension points (tensor-network
	// representation, QASM3/IR ingestion).
	ErrNotImplemented = errors.New("sim: not implemented")

	// ErrInvalidParameter: a required gate parameter is missing or not finite.
	ErrInvalidParameter = errors.New("sim: invalid gate parameter")

	// ErrArityMismatch: a fixed-arity gate got the wrong number of targets.
	ErrArityMismatch = errors.New("sim: gate arity mismatch")

	// ErrQubitLimitExceeded: the requested system exceeds the configured
	// dense-representation limit.
	ErrQubitLimitExceeded = errors.New("sim: qubit limit exceeded")

	// ErrNotNormalized: the final distribution does not sum to 1. This is an
	// upstream defect (non-unitary custom gate, bad initial state) and is
	// never corrected silently.
	ErrNotNormalized = errors.New("sim: probabilities not normalized")

	// ErrInvalidShots: shot count must be positive.
	ErrInvalidShots = errors.New("sim: shots must be positive")
)

// QubitIndexError describes a rejected target list.
type QubitIndexError struct {
	Targets   []int
	NumQubits int
	Reason    string
}

func (e *QubitIndexError) Error() string {
	if e.NumQubits > 0 {
		return fmt.Sprintf("sim: invalid qubit index: %s (targets %v, system of %d qubits)", e.Reason, e.Targets, e.NumQubits)
	}
	return fmt.Sprintf("sim: invalid qubit index: %s (targets %v)", e.Reason, e.Targets)
}

func (e *QubitIndexError) Unwrap() error { return ErrInvalidQubitIndex }

// DimensionMismatchError reports a matrix whose shape does not match what the
// operation requires.
type DimensionMismatchError struct {
	Expected int
	Rows     int
	Cols     int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("sim: matrix dimension mismatch: expected %dx%d, got %dx%d", e.Expected, e.Expected, e.Rows, e.Cols)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrMatrixDimensionMismatch }

// UnsupportedGateError names the rejected gate and lists every name the
// catalog accepts.
type UnsupportedGateError struct {
	Name      string
	Supported []string
}

func (e *UnsupportedGateError) Error() string {
	return fmt.Sprintf("sim: unsupported gate %q; supported gates: %s", e.Name, strings.Join(e.Supported, ", "))
}

func (e *UnsupportedGateError) Unwrap() error { return ErrUnsupportedGate }

// NotNormalizedError carries the observed probability mass.
type NotNormalizedError struct {
	Sum       float64
	Tolerance float64
}

func (e *NotNormalizedError) Error() string {
	return fmt.Sprintf("sim: probabilities not normalized: sum=%.12g (tolerance %g)", e.Sum, e.Tolerance)
}

func (e *NotNormalizedError) Unwrap() error { return ErrNotNormalized }
