// Package sim provides the dense quantum circuit simulation engine for qestkit.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - operator.go: lifting a k-qubit gate onto the full 2^n register
//     (identity padding, then an axis permutation onto the target qubits)
//   - state.go: the two state representations (StateVector, DensityMatrix)
//     and how each evolves under a full operator
//   - simulator.go: the Engine, which validates, applies gates in order and
//     samples measurement shots
//
// # Basis Convention
//
// Qubit 0 is the most significant bit of a basis index. For three qubits the
// label "100" means qubit 0 is |1> and qubits 1 and 2 are |0>.
//
// # Architecture
//
// The sim package defines the engine and its small interfaces; supporting
// packages live alongside:
//   - sim/loader/: YAML circuit files into *Circuit
//   - sim/telemetry/: Prometheus implementation of MetricsCollector
//   - sim/trace/: per-gate trace recording and summaries
//
// # Key Interfaces
//
//   - Simulator: gate application, runs, expectation values
//   - State: a representation the engine evolves in place
//   - MetricsCollector: gate and sampling timings
package sim
