// Package loader reads circuit description files into sim.Circuit values.
// YAML is the only format parsed here; QASM and IR inputs are recognized by
// extension and rejected with sim.ErrNotImplemented.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/qestkit/qestkit/sim"
)

// ErrUnsupportedFormat is returned for file extensions no loader handles.
var ErrUnsupportedFormat = errors.New("loader: unsupported circuit format")

// CircuitFile is the on-disk YAML circuit description.
type CircuitFile struct {
	Name         string        `yaml:"name"`
	NumQubits    int           `yaml:"num_qubits" validate:"gte=0"`
	Instructions []Instruction `yaml:"instructions" validate:"required,min=1,dive"`
}

// Instruction is one gate, or a measure/barrier marker that is skipped.
type Instruction struct {
	Gate     string             `yaml:"gate" validate:"required"`
	Name     string             `yaml:"name"` // label for custom gates
	Targets  []int              `yaml:"targets" validate:"required,min=1,dive,gte=0"`
	Controls []int              `yaml:"controls" validate:"omitempty,dive,gte=0"`
	Params   map[string]float64 `yaml:"params"`
	// Matrix is the local matrix of a custom gate: rows of [re, im] pairs.
	Matrix [][][]float64 `yaml:"matrix" validate:"omitempty,dive,dive,len=2"`
}

// skippedGates never reach the engine: classical measurement collection
// happens after the final state is sampled.
var skippedGates = map[string]bool{
	"measure": true,
	"barrier": true,
}

// customGate is the instruction name that carries an explicit matrix.
const customGate = "custom"

var validate = validator.New()

// Load reads path, choosing the format from its extension.
func Load(path string) (*sim.Circuit, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".qasm", ".qasm2":
		return nil, fmt.Errorf("QASM 2 circuit %s: %w", path, sim.ErrNotImplemented)
	case ".qasm3":
		return nil, fmt.Errorf("QASM 3 circuit %s: %w", path, sim.ErrNotImplemented)
	case ".ir":
		return nil, fmt.Errorf("IR circuit %s: %w", path, sim.ErrNotImplemented)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// LoadYAML reads and builds a YAML circuit file.
func LoadYAML(path string) (*sim.Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading circuit: %w", err)
	}
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c, err := f.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logrus.Debugf("loaded circuit %q from %s: %d gate(s) on %d qubit(s)", f.Name, path, c.Len(), c.NumQubits())
	return c, nil
}

// Decode parses a YAML circuit strictly: unknown keys are errors.
func Decode(r io.Reader) (*CircuitFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f CircuitFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing circuit: %w", err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid circuit: %w", err)
	}
	return &f, nil
}

// Build turns the description into a circuit. Every target is registered with
// AddQubit before its gate is added; measure and barrier are skipped.
func (f *CircuitFile) Build() (*sim.Circuit, error) {
	c := sim.NewCircuit(f.NumQubits)
	for i, ins := range f.Instructions {
		name := strings.ToLower(ins.Gate)
		if skippedGates[name] {
			logrus.Debugf("instruction %d: skipping %s", i, name)
			continue
		}
		for _, q := range ins.Targets {
			if err := c.AddQubit(q); err != nil {
				return nil, fmt.Errorf("instruction %d: %w", i, err)
			}
		}
		for _, q := range ins.Controls {
			if err := c.AddQubit(q); err != nil {
				return nil, fmt.Errorf("instruction %d: %w", i, err)
			}
		}

		var err error
		switch {
		case name == customGate:
			err = addCustom(c, ins)
		case len(ins.Controls) > 0:
			err = c.AddControlledGate(ins.Gate, ins.Targets, ins.Controls, ins.Params)
		default:
			err = c.AddGate(ins.Gate, ins.Targets, ins.Params)
		}
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	if f.NumQubits > 0 {
		if err := c.Validate(f.NumQubits); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func addCustom(c *sim.Circuit, ins Instruction) error {
	m, err := ins.matrix()
	if err != nil {
		return err
	}
	name := ins.Name
	if name == "" {
		name = customGate
	}
	if len(ins.Controls) == 0 {
		return c.AddCustomGate(name, m, ins.Targets)
	}
	g, err := sim.NewCustomGateSpec(name, m, ins.Targets)
	if err != nil {
		return err
	}
	if g, err = g.WithControls(ins.Controls); err != nil {
		return err
	}
	return c.AddSpec(g)
}

func (ins Instruction) matrix() (sim.Matrix, error) {
	if len(ins.Matrix) == 0 {
		return sim.Matrix{}, fmt.Errorf("custom gate needs a matrix: %w", sim.ErrMatrixDimensionMismatch)
	}
	rows := make([][]complex128, len(ins.Matrix))
	for i, row := range ins.Matrix {
		rows[i] = make([]complex128, len(row))
		for j, v := range row {
			rows[i][j] = complex(v[0], v[1])
		}
	}
	return sim.NewMatrixFromRows(rows)
}
