package sim

import (
	"fmt"
	"sort"
)

// Circuit is an ordered list of resolved gates plus the set of qubits they
// reference. Gate names are resolved to a GateKind when added; nothing is
// re-matched when the circuit runs.
type Circuit struct {
	numQubits int // declared register size, 0 = derive from indices
	qubits    []int
	seen      map[int]bool
	gates     []GateSpec
}

// NewCircuit creates an empty circuit. numQubits may be 0, in which case the
// register size is derived from the highest referenced index.
func NewCircuit(numQubits int) *Circuit {
	return &Circuit{
		numQubits: max(numQubits, 0),
		seen:      make(map[int]bool),
	}
}

// AddQubit registers a qubit index. Adding the same index twice is a no-op.
func (c *Circuit) AddQubit(index int) error {
	if index < 0 {
		return &QubitIndexError{Targets: []int{index}, Reason: "negative index"}
	}
	if !c.seen[index] {
		c.seen[index] = true
		c.qubits = append(c.qubits, index)
	}
	return nil
}

// AddGate resolves name against the catalog and appends the gate. Unknown
// names, wrong target counts and bad indices are rejected here.
func (c *Circuit) AddGate(name string, targets []int, params Params) error {
	g, err := NewGateSpec(name, targets, params)
	if err != nil {
		return fmt.Errorf("gate %d (%s): %w", len(c.gates), name, err)
	}
	c.gates = append(c.gates, g)
	return nil
}

// AddControlledGate appends a catalog gate conditioned on controls.
func (c *Circuit) AddControlledGate(name string, targets, controls []int, params Params) error {
	g, err := NewGateSpec(name, targets, params)
	if err == nil {
		g, err = g.WithControls(controls)
	}
	if err != nil {
		return fmt.Errorf("gate %d (%s): %w", len(c.gates), name, err)
	}
	c.gates = append(c.gates, g)
	return nil
}

// AddCustomGate appends a gate with an explicit local matrix.
func (c *Circuit) AddCustomGate(name string, m Matrix, targets []int) error {
	g, err := NewCustomGateSpec(name, m, targets)
	if err != nil {
		return fmt.Errorf("gate %d (%s): %w", len(c.gates), name, err)
	}
	c.gates = append(c.gates, g)
	return nil
}

// AddSpec appends an already resolved gate.
func (c *Circuit) AddSpec(g GateSpec) error {
	if len(g.targets) == 0 {
		return fmt.Errorf("gate %d (%s): %w", len(c.gates), g.name, ErrInvalidQubitIndex)
	}
	c.gates = append(c.gates, g)
	return nil
}

// Gates returns the gates in insertion order.
func (c *Circuit) Gates() []GateSpec {
	return append([]GateSpec(nil), c.gates...)
}

// Len is the number of gates.
func (c *Circuit) Len() int { return len(c.gates) }

// Qubits returns the registered qubit indices in the order they were added.
func (c *Circuit) Qubits() []int {
	return append([]int(nil), c.qubits...)
}

// SortedQubits returns every index referenced by AddQubit or a gate,
// ascending.
func (c *Circuit) SortedQubits() []int {
	all := make(map[int]bool, len(c.seen))
	for q := range c.seen {
		all[q] = true
	}
	for _, g := range c.gates {
		for _, q := range g.targets {
			all[q] = true
		}
	}
	out := make([]int, 0, len(all))
	for q := range all {
		out = append(out, q)
	}
	sort.Ints(out)
	return out
}

// NumQubits is the declared size, or one past the highest index referenced
// by a qubit or gate, whichever is larger.
func (c *Circuit) NumQubits() int {
	hi := maxIndex(c.qubits)
	for _, g := range c.gates {
		hi = max(hi, maxIndex(g.targets))
	}
	return max(c.numQubits, hi+1)
}

// Validate checks every gate against a register of n qubits.
func (c *Circuit) Validate(n int) error {
	for i, g := range c.gates {
		if err := ValidateTargets(g.targets, n); err != nil {
			return fmt.Errorf("gate %d (%s): %w", i, g.name, err)
		}
	}
	return nil
}

// Summary counts gates by name.
func (c *Circuit) Summary() map[string]int {
	out := make(map[string]int)
	for _, g := range c.gates {
		out[g.name]++
	}
	return out
}

func (c *Circuit) String() string {
	return fmt.Sprintf("Circuit(qubits=%v, gates=%d)", c.SortedQubits(), len(c.gates))
}
