// Tracks engine-wide counters such as gates applied, shots drawn and time
// spent in each phase.

package sim

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector receives engine events. Implementations must be safe for
// concurrent use: sampling workers may report in parallel.
type MetricsCollector interface {
	// RecordGate is called once per applied gate with the gate name, the
	// number of qubits it touched and the time spent building and applying
	// the full operator.
	RecordGate(gate string, qubits int, d time.Duration)
	// RecordSample is called once per measurement with the shot count.
	RecordSample(shots int, d time.Duration)
}

// NoopMetricsCollector discards everything.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordGate(string, int, time.Duration) {}
func (NoopMetricsCollector) RecordSample(int, time.Duration)       {}

// BasicMetricsCollector aggregates statistics about the engine
// for final reporting. The zero value is ready to use.
type BasicMetricsCollector struct {
	gates       atomic.Int64
	gateNanos   atomic.Int64
	samples     atomic.Int64
	shots       atomic.Int64
	sampleNanos atomic.Int64
	maxQubits   atomic.Int64 // widest gate seen

	mu      sync.Mutex
	perGate map[string]int64
}

// NewBasicMetricsCollector returns an empty collector.
func NewBasicMetricsCollector() *BasicMetricsCollector {
	return &BasicMetricsCollector{perGate: make(map[string]int64)}
}

func (m *BasicMetricsCollector) RecordGate(gate string, qubits int, d time.Duration) {
	m.gates.Add(1)
	m.gateNanos.Add(int64(d))
	for {
		cur := m.maxQubits.Load()
		if int64(qubits) <= cur || m.maxQubits.CompareAndSwap(cur, int64(qubits)) {
			break
		}
	}
	m.mu.Lock()
	if m.perGate == nil {
		m.perGate = make(map[string]int64)
	}
	m.perGate[gate]++
	m.mu.Unlock()
}

func (m *BasicMetricsCollector) RecordSample(shots int, d time.Duration) {
	m.samples.Add(1)
	m.shots.Add(int64(shots))
	m.sampleNanos.Add(int64(d))
}

// MetricsSnapshot is a point-in-time copy of a BasicMetricsCollector.
type MetricsSnapshot struct {
	GatesApplied int64
	GateTime     time.Duration
	Measurements int64
	ShotsDrawn   int64
	SampleTime   time.Duration
	WidestGate   int
	GatesByName  map[string]int64
}

// Snapshot copies the current counters.
func (m *BasicMetricsCollector) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	perGate := make(map[string]int64, len(m.perGate))
	for k, v := range m.perGate {
		perGate[k] = v
	}
	m.mu.Unlock()
	return MetricsSnapshot{
		GatesApplied: m.gates.Load(),
		GateTime:     time.Duration(m.gateNanos.Load()),
		Measurements: m.samples.Load(),
		ShotsDrawn:   m.shots.Load(),
		SampleTime:   time.Duration(m.sampleNanos.Load()),
		WidestGate:   int(m.maxQubits.Load()),
		GatesByName:  perGate,
	}
}

// Print displays aggregated metrics at the end of the simulation.
func (m *BasicMetricsCollector) Print() {
	s := m.Snapshot()
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Gates Applied        : %d\n", s.GatesApplied)
	if s.GatesApplied > 0 {
		fmt.Printf("Average Gate Time    : %v\n", s.GateTime/time.Duration(s.GatesApplied))
		fmt.Printf("Widest Gate          : %d qubit(s)\n", s.WidestGate)
		names := make([]string, 0, len(s.GatesByName))
		for name := range s.GatesByName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-18s : %d\n", name, s.GatesByName[name])
		}
	}
	fmt.Printf("Shots Drawn          : %d\n", s.ShotsDrawn)
	if s.Measurements > 0 {
		fmt.Printf("Sampling Time        : %v\n", s.SampleTime)
	}
}

// MultiMetricsCollector forwards every event to each of its collectors.
type MultiMetricsCollector []MetricsCollector

func (m MultiMetricsCollector) RecordGate(gate string, qubits int, d time.Duration) {
	for _, c := range m {
		c.RecordGate(gate, qubits, d)
	}
}

func (m MultiMetricsCollector) RecordSample(shots int, d time.Duration) {
	for _, c := range m {
		c.RecordSample(shots, d)
	}
}
