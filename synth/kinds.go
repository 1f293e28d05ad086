package synth

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is the closed set of node computations. The engine dispatches on the
// concrete type with one switch; there are no other implementations.
type Kind interface {
	// NumInputs is the exact number of input nodes.
	NumInputs() int
	// NumState is the number of persistent slots before the output slot.
	NumState() int
	String() string
	kind()
}

type Operator byte

const (
	Add Operator = '+'
	Sub Operator = '-'
	Mul Operator = '*'
	Div Operator = '/'
	Mod Operator = '%'
)

// ParseOperator maps an operator symbol to its Operator.
func ParseOperator(s string) (Operator, bool) {
	if len(s) != 1 {
		return 0, false
	}
	switch op := Operator(s[0]); op {
	case Add, Sub, Mul, Div, Mod:
		return op, true
	}
	return 0, false
}

func (op Operator) String() string { return string(op) }

type (
	Constant   struct{ Value float64 }
	BinaryOp   struct{ Op Operator }
	Oscillator struct{}
	Square     struct{}
	// Linear ramps up by its input per second and wraps at Max.
	Linear   struct{ Max float64 }
	Sequence struct{ Values []float64 }
	Clamp    struct{ Min, Max float64 }
	// Delay reads Probe, at most Max seconds back.
	Delay struct {
		Max   float64
		Probe ProbeID
	}
)

func (Constant) kind()   {}
func (BinaryOp) kind()   {}
func (Oscillator) kind() {}
func (Square) kind()     {}
func (Linear) kind()     {}
func (Sequence) kind()   {}
func (Clamp) kind()      {}
func (Delay) kind()      {}

func (Constant) NumInputs() int   { return 0 }
func (BinaryOp) NumInputs() int   { return 2 }
func (Oscillator) NumInputs() int { return 1 }
func (Square) NumInputs() int     { return 1 }
func (Linear) NumInputs() int     { return 1 }
func (Sequence) NumInputs() int   { return 1 }
func (Clamp) NumInputs() int      { return 1 }
func (Delay) NumInputs() int      { return 1 }

func (Constant) NumState() int   { return 0 }
func (BinaryOp) NumState() int   { return 0 }
func (Oscillator) NumState() int { return 1 } // phase
func (Square) NumState() int     { return 1 } // phase
func (Linear) NumState() int     { return 1 } // current value
func (Sequence) NumState() int   { return 0 }
func (Clamp) NumState() int      { return 0 }
func (Delay) NumState() int      { return 0 }

func (k Constant) String() string { return fmt.Sprintf("const(%g)", k.Value) }
func (k BinaryOp) String() string { return "op(" + k.Op.String() + ")" }
func (Oscillator) String() string { return "osc" }
func (Square) String() string     { return "square" }
func (k Linear) String() string   { return fmt.Sprintf("ramp(max=%g)", k.Max) }
func (k Clamp) String() string    { return fmt.Sprintf("clamp(%g, %g)", k.Min, k.Max) }
func (k Delay) String() string    { return fmt.Sprintf("delay(max=%g, probe=%d)", k.Max, k.Probe) }
func (k Sequence) String() string {
	vals := make([]string, 0, len(k.Values))
	for _, v := range k.Values {
		vals = append(vals, fmt.Sprintf("%g", v))
	}
	return "seq(" + strings.Join(vals, ", ") + ")"
}

// sameKind is structural equality over kinds. Sequence holds a slice and
// cannot be compared with ==.
func sameKind(a, b Kind) bool {
	sa, aSeq := a.(Sequence)
	sb, bSeq := b.(Sequence)
	if aSeq || bSeq {
		return aSeq && bSeq && slices.Equal(sa.Values, sb.Values)
	}
	return a == b
}
