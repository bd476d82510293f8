// Package trace provides per-gate trace recording for simulation runs.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// GateRecord captures one gate application and the state health after it.
type GateRecord struct {
	Step    int
	Gate    string
	Targets []int
	Norm    float64 // ||psi|| or Re(tr rho) after the gate
	Micros  int64   // wall time spent building and applying the operator
}

// SampleRecord captures the final measurement step of a run.
type SampleRecord struct {
	Shots   int
	Workers int
	Outcome int // number of distinct basis labels observed
}
