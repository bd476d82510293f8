// Package testutil provides shared test infrastructure for the qestkit engine.
// It holds the golden circuit dataset types and numeric assertion helpers
// used across sim/ and its sub-package tests.
package testutil

import (
	"encoding/json"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldencircuits.json.
type GoldenDataset struct {
	Tests []GoldenCircuit `json:"tests"`
}

// GoldenGate is one instruction of a golden circuit.
type GoldenGate struct {
	Name     string             `json:"name"`
	Targets  []int              `json:"targets"`
	Controls []int              `json:"controls,omitempty"`
	Params   map[string]float64 `json:"params,omitempty"`
}

// GoldenCircuit is a circuit with its exact final distribution, computed by
// hand for small registers.
type GoldenCircuit struct {
	Name          string       `json:"name"`
	NumQubits     int          `json:"num_qubits"`
	Gates         []GoldenGate `json:"gates"`
	Probabilities []float64    `json:"probabilities"`
	// Expectation of Z on qubit 0, when given.
	ExpectZ0 *float64 `json:"expect_z0,omitempty"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldencircuits.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertFloatsNear compares two slices element-wise with absolute tolerance.
func AssertFloatsNear(t *testing.T, name string, want, got []float64, absTol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: length %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > absTol {
			t.Errorf("%s[%d]: got %v, want %v", name, i, got[i], want[i])
		}
	}
}

// AssertComplexNear compares two complex slices element-wise with absolute
// tolerance on |want - got|.
func AssertComplexNear(t *testing.T, name string, want, got []complex128, absTol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: length %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		if cmplx.Abs(want[i]-got[i]) > absTol {
			t.Errorf("%s[%d]: got %v, want %v", name, i, got[i], want[i])
		}
	}
}
