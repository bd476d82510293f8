package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qestkit/qestkit/sim"
)

const (
	formatText = "text"
	formatYAML = "yaml"
	formatJSON = "json"
)

var validOutputFormats = map[string]bool{
	formatText: true,
	formatYAML: true,
	formatJSON: true,
}

// RunReport is the serialized form of a sim.Result.
type RunReport struct {
	RunID         string             `yaml:"run_id" json:"run_id"`
	Circuit       string             `yaml:"circuit,omitempty" json:"circuit,omitempty"`
	Mode          string             `yaml:"mode" json:"mode"`
	NumQubits     int                `yaml:"num_qubits" json:"num_qubits"`
	Shots         int                `yaml:"shots" json:"shots"`
	Seed          int64              `yaml:"seed" json:"seed"`
	Workers       int                `yaml:"workers" json:"workers"`
	GatesApplied  int                `yaml:"gates_applied" json:"gates_applied"`
	DurationMs    float64            `yaml:"duration_ms" json:"duration_ms"`
	Counts        map[string]int     `yaml:"counts" json:"counts"`
	Probabilities map[string]float64 `yaml:"probabilities" json:"probabilities"`
}

// newRunReport keeps every count but only the non-zero probabilities.
func newRunReport(name string, res *sim.Result) RunReport {
	probs := make(map[string]float64)
	for i, p := range res.Probabilities {
		if p > 0 {
			probs[sim.BasisLabel(i, res.NumQubits)] = p
		}
	}
	return RunReport{
		RunID:         res.RunID,
		Circuit:       name,
		Mode:          string(res.Mode),
		NumQubits:     res.NumQubits,
		Shots:         res.Shots,
		Seed:          res.Seed,
		Workers:       res.Workers,
		GatesApplied:  res.GatesApplied,
		DurationMs:    float64(res.Duration.Microseconds()) / 1000,
		Counts:        res.Counts,
		Probabilities: probs,
	}
}

// writeReport renders r in the requested format.
func writeReport(w io.Writer, r RunReport, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case formatText:
		return writeText(w, r)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

const histogramWidth = 40

func writeText(w io.Writer, r RunReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Run %s ===\n", r.RunID)
	if r.Circuit != "" {
		fmt.Fprintf(&b, "Circuit       : %s\n", r.Circuit)
	}
	fmt.Fprintf(&b, "Mode          : %s\n", r.Mode)
	fmt.Fprintf(&b, "Qubits        : %d\n", r.NumQubits)
	fmt.Fprintf(&b, "Gates applied : %d\n", r.GatesApplied)
	fmt.Fprintf(&b, "Shots         : %d (seed %d, %d worker(s))\n", r.Shots, r.Seed, r.Workers)
	fmt.Fprintf(&b, "Duration      : %.3f ms\n", r.DurationMs)
	b.WriteString("Counts:\n")
	for _, label := range sim.Counts(r.Counts).Labels() {
		c := r.Counts[label]
		if c == 0 {
			continue
		}
		bar := 0
		if r.Shots > 0 {
			bar = c * histogramWidth / r.Shots
		}
		fmt.Fprintf(&b, "  %s  %8d  %6.4f  %s\n", label, c, float64(c)/float64(r.Shots), strings.Repeat("#", bar))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
