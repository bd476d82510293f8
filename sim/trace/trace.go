package trace

// TraceLevel controls the verbosity of gate tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelGates captures every applied gate and the final sampling step.
	TraceLevelGates TraceLevel = "gates"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:  true,
	TraceLevelGates: true,
	"":              true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether anything should be recorded.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelGates
}

// SimulationTrace collects gate records during a run.
type SimulationTrace struct {
	Config  TraceConfig
	Gates   []GateRecord
	Samples []SampleRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:  config,
		Gates:   make([]GateRecord, 0),
		Samples: make([]SampleRecord, 0),
	}
}

// RecordGate appends a gate record. Targets are copied.
func (st *SimulationTrace) RecordGate(record GateRecord) {
	record.Targets = append([]int(nil), record.Targets...)
	st.Gates = append(st.Gates, record)
}

// RecordSample appends a sampling record.
func (st *SimulationTrace) RecordSample(record SampleRecord) {
	st.Samples = append(st.Samples, record)
}

// Reset drops all records but keeps the config.
func (st *SimulationTrace) Reset() {
	st.Gates = st.Gates[:0]
	st.Samples = st.Samples[:0]
}
