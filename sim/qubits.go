package sim

// ValidateTargets checks a target list against a system of n qubits.
// Every index must lie in [0, n) and appear once; the list must be non-empty.
func ValidateTargets(targets []int, n int) error {
	if len(targets) == 0 {
		return &QubitIndexError{Targets: targets, NumQubits: n, Reason: "no target qubits"}
	}
	seen := make(map[int]bool, len(targets))
	for _, q := range targets {
		if q < 0 || q >= n {
			return &QubitIndexError{Targets: targets, NumQubits: n, Reason: "index out of range"}
		}
		if seen[q] {
			return &QubitIndexError{Targets: targets, NumQubits: n, Reason: "duplicate index"}
		}
		seen[q] = true
	}
	return nil
}

// validateTargetsLocal applies the checks that do not need the system size.
// Used when a gate is recorded before any engine exists.
func validateTargetsLocal(targets []int) error {
	if len(targets) == 0 {
		return &QubitIndexError{Targets: targets, Reason: "no target qubits"}
	}
	seen := make(map[int]bool, len(targets))
	for _, q := range targets {
		if q < 0 {
			return &QubitIndexError{Targets: targets, Reason: "negative index"}
		}
		if seen[q] {
			return &QubitIndexError{Targets: targets, Reason: "duplicate index"}
		}
		seen[q] = true
	}
	return nil
}

// ValidateMatrixShape checks that m is 2^k x 2^k for k = len(targets).
func ValidateMatrixShape(m Matrix, targets []int) error {
	expected := 1 << len(targets)
	if m.Dim != expected || len(m.Data) != m.Dim*m.Dim {
		cols := 0
		if m.Dim > 0 {
			cols = len(m.Data) / m.Dim
		}
		return &DimensionMismatchError{Expected: expected, Rows: m.Dim, Cols: cols}
	}
	return nil
}

// maxIndex returns the largest entry of qs, or -1 when empty.
func maxIndex(qs []int) int {
	hi := -1
	for _, q := range qs {
		hi = max(hi, q)
	}
	return hi
}
