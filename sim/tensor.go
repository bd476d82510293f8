package sim

// Basis-index convention used everywhere in the engine: for n qubits, qubit q
// is bit (n-1-q) of the basis index, so qubit 0 is the most significant bit
// and the leftmost character of a basis label.

// axisIndexMap returns, for every basis index g in the global layout (tensor
// axis i carries qubit i), the index of the same basis state in a layout
// where axis a carries qubit layout[a]. layout must be a permutation of
// [0, len(layout)).
func axisIndexMap(layout []int) []int {
	n := len(layout)
	dim := 1 << n
	idx := make([]int, dim)
	for g := 0; g < dim; g++ {
		r := 0
		for a, q := range layout {
			bit := (g >> (n - 1 - q)) & 1
			r |= bit << (n - 1 - a)
		}
		idx[g] = r
	}
	return idx
}

// permuteOperatorAxes views m as a rank-2n tensor of shape (2,...,2), n row
// axes followed by n column axes, where row axis a and column axis a carry
// qubit layout[a]. It moves every axis to the position of its qubit (the
// same permutation on rows and columns) and flattens back to 2^n x 2^n.
func permuteOperatorAxes(m Matrix, layout []int) Matrix {
	idx := axisIndexMap(layout)
	dim := m.Dim
	out := NewMatrix(dim)
	for r := 0; r < dim; r++ {
		src := idx[r] * dim
		row := r * dim
		for c := 0; c < dim; c++ {
			out.Data[row+c] = m.Data[src+idx[c]]
		}
	}
	return out
}

func isIdentityLayout(layout []int) bool {
	for a, q := range layout {
		if a != q {
			return false
		}
	}
	return true
}
