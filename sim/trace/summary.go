package trace

import (
	"math"
	"sort"
)

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalGates       int
	TotalShots       int
	MaxNormDeviation float64        // max |norm - 1| over all gate records
	TotalMicros      int64          // summed gate wall time
	GateDistribution map[string]int // gate name → count of applications
	TouchedQubits    []int          // ascending, every qubit any gate targeted
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		GateDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	touched := make(map[int]bool)
	summary.TotalGates = len(st.Gates)
	for _, g := range st.Gates {
		summary.GateDistribution[g.Gate]++
		summary.TotalMicros += g.Micros
		if d := math.Abs(g.Norm - 1); d > summary.MaxNormDeviation {
			summary.MaxNormDeviation = d
		}
		for _, q := range g.Targets {
			touched[q] = true
		}
	}
	for _, s := range st.Samples {
		summary.TotalShots += s.Shots
	}

	summary.TouchedQubits = make([]int, 0, len(touched))
	for q := range touched {
		summary.TouchedQubits = append(summary.TouchedQubits, q)
	}
	sort.Ints(summary.TouchedQubits)

	return summary
}
