package sim

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"strings"
)

// GateKind is the closed set of gates the catalog knows. Names are resolved
// to a kind once, when a gate is recorded, and never re-matched on apply.
type GateKind int

const (
	KindCustom GateKind = iota
	KindIdentity
	KindX
	KindY
	KindZ
	KindH
	KindS
	KindSdg
	KindT
	KindTdg
	KindPhase
	KindRx
	KindRy
	KindRz
	KindCNOT
	KindCZ
	KindSwap
)

// Params holds named continuous gate parameters (angles in radians).
type Params map[string]float64

// Clone returns an independent copy; nil stays nil.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// lookup returns the first of names present in p. When none is present and
// p holds exactly one value, that value is used: loaders name angles
// inconsistently (theta, lambda, phi, "0").
func (p Params) lookup(names ...string) (float64, bool) {
	for _, n := range names {
		if v, ok := p[n]; ok {
			return v, true
		}
	}
	if len(p) == 1 {
		for _, v := range p {
			return v, true
		}
	}
	return 0, false
}

// gateDef is one row of the dispatch table.
type gateDef struct {
	name   string
	arity  int
	params []string // accepted parameter names, first is canonical
	matrix func(angle float64) Matrix
}

func fixed(m Matrix) func(float64) Matrix {
	return func(float64) Matrix { return m.Clone() }
}

var invSqrt2 = complex(1/math.Sqrt2, 0)

var gateTable = map[GateKind]gateDef{
	KindIdentity: {name: "id", arity: 1, matrix: fixed(Identity(2))},
	KindX: {name: "x", arity: 1, matrix: fixed(MustMatrix([][]complex128{
		{0, 1},
		{1, 0},
	}))},
	KindY: {name: "y", arity: 1, matrix: fixed(MustMatrix([][]complex128{
		{0, -1i},
		{1i, 0},
	}))},
	KindZ: {name: "z", arity: 1, matrix: fixed(Diagonal(1, -1))},
	KindH: {name: "h", arity: 1, matrix: fixed(MustMatrix([][]complex128{
		{invSqrt2, invSqrt2},
		{invSqrt2, -invSqrt2},
	}))},
	KindS:   {name: "s", arity: 1, matrix: fixed(Diagonal(1, 1i))},
	KindSdg: {name: "sdg", arity: 1, matrix: fixed(Diagonal(1, -1i))},
	KindT:   {name: "t", arity: 1, matrix: fixed(Diagonal(1, cmplx.Exp(complex(0, math.Pi/4))))},
	KindTdg: {name: "tdg", arity: 1, matrix: fixed(Diagonal(1, cmplx.Exp(complex(0, -math.Pi/4))))},
	KindPhase: {name: "p", arity: 1, params: []string{"lambda", "delta", "phi", "theta"}, matrix: func(lambda float64) Matrix {
		return Diagonal(1, cmplx.Exp(complex(0, lambda)))
	}},
	KindRx: {name: "rx", arity: 1, params: []string{"theta"}, matrix: func(theta float64) Matrix {
		c, s := complex(math.Cos(theta/2), 0), complex(0, -math.Sin(theta/2))
		return MustMatrix([][]complex128{
			{c, s},
			{s, c},
		})
	}},
	KindRy: {name: "ry", arity: 1, params: []string{"theta"}, matrix: func(theta float64) Matrix {
		c, s := complex(math.Cos(theta/2), 0), complex(math.Sin(theta/2), 0)
		return MustMatrix([][]complex128{
			{c, -s},
			{s, c},
		})
	}},
	KindRz: {name: "rz", arity: 1, params: []string{"theta", "phi"}, matrix: func(theta float64) Matrix {
		return Diagonal(cmplx.Exp(complex(0, -theta/2)), cmplx.Exp(complex(0, theta/2)))
	}},
	// Two-qubit gates: the first listed qubit is the control and the most
	// significant factor.
	KindCNOT: {name: "cx", arity: 2, matrix: fixed(MustMatrix([][]complex128{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 1, 0},
	}))},
	KindCZ: {name: "cz", arity: 2, matrix: fixed(Diagonal(1, 1, 1, -1))},
	KindSwap: {name: "swap", arity: 2, matrix: fixed(MustMatrix([][]complex128{
		{1, 0, 0, 0},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
	}))},
}

// gateAliases maps every accepted (lower-case) name to its kind.
var gateAliases = map[string]GateKind{
	"id": KindIdentity, "i": KindIdentity, "identity": KindIdentity,
	"x": KindX, "y": KindY, "z": KindZ,
	"h": KindH, "hadamard": KindH,
	"s": KindS, "sdg": KindSdg,
	"t": KindT, "tdg": KindTdg,
	"p": KindPhase, "phase": KindPhase, "ph": KindPhase, "u1": KindPhase,
	"rx": KindRx, "ry": KindRy, "rz": KindRz,
	"cx": KindCNOT, "cnot": KindCNOT,
	"cz": KindCZ,
	"swap": KindSwap,
}

// SupportedGates returns every accepted gate name, sorted.
func SupportedGates() []string {
	names := make([]string, 0, len(gateAliases))
	for n := range gateAliases {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Kinds returns every catalog kind in declaration order (KindCustom excluded).
func Kinds() []GateKind {
	kinds := make([]GateKind, 0, len(gateTable))
	for k := KindIdentity; k <= KindSwap; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseGateKind resolves a gate name, case-insensitively.
func ParseGateKind(name string) (GateKind, error) {
	k, ok := gateAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return KindCustom, &UnsupportedGateError{Name: name, Supported: SupportedGates()}
	}
	return k, nil
}

func (k GateKind) String() string {
	if k == KindCustom {
		return "custom"
	}
	if d, ok := gateTable[k]; ok {
		return d.name
	}
	return fmt.Sprintf("GateKind(%d)", int(k))
}

// Arity is the number of target qubits; 0 for KindCustom (any).
func (k GateKind) Arity() int { return gateTable[k].arity }

// ParamName is the canonical parameter name, or "" for fixed gates.
func (k GateKind) ParamName() string {
	if p := gateTable[k].params; len(p) > 0 {
		return p[0]
	}
	return ""
}

// Matrix generates the local matrix. Parametric gates compute it from the
// angle on every call.
func (k GateKind) Matrix(params Params) (Matrix, error) {
	d, ok := gateTable[k]
	if !ok {
		return Matrix{}, fmt.Errorf("gate kind %v has no catalog matrix: %w", k, ErrUnsupportedGate)
	}
	var angle float64
	if len(d.params) > 0 {
		v, ok := params.lookup(d.params...)
		if !ok {
			return Matrix{}, fmt.Errorf("gate %s requires parameter %q: %w", d.name, d.params[0], ErrInvalidParameter)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Matrix{}, fmt.Errorf("gate %s parameter %q must be finite, got %f: %w", d.name, d.params[0], v, ErrInvalidParameter)
		}
		angle = v
	}
	return d.matrix(angle), nil
}

// Resolve returns the local matrix and arity for a gate name.
func Resolve(name string, params Params) (Matrix, int, error) {
	k, err := ParseGateKind(name)
	if err != nil {
		return Matrix{}, 0, err
	}
	m, err := k.Matrix(params)
	if err != nil {
		return Matrix{}, 0, err
	}
	return m, k.Arity(), nil
}
