package sim

import (
	"fmt"
)

// GateSpec is an immutable, fully resolved gate: its kind, ordered targets,
// local matrix and the parameters it was built from. Target order fixes which
// tensor factor of the matrix acts on which qubit (first target = most
// significant factor).
type GateSpec struct {
	kind    GateKind
	name    string
	targets []int
	matrix  Matrix
	params  Params
}

// NewGateSpec resolves a catalog gate. The name is matched once here; the
// resulting kind and matrix are what the engine applies.
func NewGateSpec(name string, targets []int, params Params) (GateSpec, error) {
	kind, err := ParseGateKind(name)
	if err != nil {
		return GateSpec{}, err
	}
	if len(targets) != kind.Arity() {
		return GateSpec{}, fmt.Errorf("gate %s takes %d target(s), got %d %v: %w", kind, kind.Arity(), len(targets), targets, ErrArityMismatch)
	}
	if err := validateTargetsLocal(targets); err != nil {
		return GateSpec{}, err
	}
	m, err := kind.Matrix(params)
	if err != nil {
		return GateSpec{}, err
	}
	return GateSpec{
		kind:    kind,
		name:    kind.String(),
		targets: append([]int(nil), targets...),
		matrix:  m,
		params:  params.Clone(),
	}, nil
}

// NewCustomGateSpec wraps a caller-supplied matrix. Unitarity is the
// caller's obligation and is not checked.
func NewCustomGateSpec(name string, m Matrix, targets []int) (GateSpec, error) {
	if err := validateTargetsLocal(targets); err != nil {
		return GateSpec{}, err
	}
	if err := ValidateMatrixShape(m, targets); err != nil {
		return GateSpec{}, err
	}
	if name == "" {
		name = KindCustom.String()
	}
	return GateSpec{
		kind:    KindCustom,
		name:    name,
		targets: append([]int(nil), targets...),
		matrix:  m.Clone(),
	}, nil
}

func (g GateSpec) Kind() GateKind { return g.kind }
func (g GateSpec) Name() string   { return g.name }
func (g GateSpec) Arity() int     { return len(g.targets) }

func (g GateSpec) Targets() []int { return append([]int(nil), g.targets...) }

func (g GateSpec) Matrix() Matrix { return g.matrix.Clone() }

func (g GateSpec) Params() Params { return g.params.Clone() }

// WithControls returns the controlled version of g. Controls are prepended to
// the target list and must not overlap it.
func (g GateSpec) WithControls(controls []int) (GateSpec, error) {
	if len(controls) == 0 {
		return g, nil
	}
	all := make([]int, 0, len(controls)+len(g.targets))
	all = append(all, controls...)
	all = append(all, g.targets...)
	if err := validateTargetsLocal(all); err != nil {
		return GateSpec{}, fmt.Errorf("controls %v with targets %v: %w", controls, g.targets, err)
	}
	return GateSpec{
		kind:    KindCustom,
		name:    fmt.Sprintf("c%d-%s", len(controls), g.name),
		targets: all,
		matrix:  Controlled(g.matrix, len(controls)),
		params:  g.params.Clone(),
	}, nil
}

func (g GateSpec) String() string {
	if len(g.params) > 0 {
		return fmt.Sprintf("%s%v %v", g.name, map[string]float64(g.params), g.targets)
	}
	return fmt.Sprintf("%s %v", g.name, g.targets)
}
