package compiler

import (
	"fmt"

	"github.com/thiremani/synthgraph/ast"
	"github.com/thiremani/synthgraph/synth"
	"github.com/thiremani/synthgraph/token"
)

// Default constant arguments
const (
	DefaultDelayMax = 5.0
	DefaultClampMin = -1.0
	DefaultClampMax = 1.0
	DefaultRampMax  = 1.0
)

// Arity is an inclusive range of positional argument counts. Max < 0 means
// no upper bound.
type Arity struct {
	Min int
	Max int
}

func exactly(n int) Arity { return Arity{Min: n, Max: n} }

func (a Arity) accepts(n int) bool {
	return n >= a.Min && (a.Max < 0 || n <= a.Max)
}

func (a Arity) String() string {
	switch {
	case a.Min == a.Max && a.Min == 1:
		return "1 argument"
	case a.Min == a.Max:
		return fmt.Sprintf("%d arguments", a.Min)
	case a.Max < 0:
		return fmt.Sprintf("at least %d arguments", a.Min)
	}
	return fmt.Sprintf("%d to %d arguments", a.Min, a.Max)
}

// BuiltinFunc describes a function callable from program text. Compile is
// only called once the positional argument count satisfies Arity.
type BuiltinFunc struct {
	Arity   Arity
	Compile func(c *Compiler, call *ast.FunctionCall) (synth.NodeID, error)
}

// Builtins maps function names to their compilers
var Builtins map[string]*BuiltinFunc

func init() {
	Builtins = map[string]*BuiltinFunc{
		"osc":    {Arity: exactly(1), Compile: compileOscillator(synth.Oscillator{})},
		"square": {Arity: exactly(1), Compile: compileOscillator(synth.Square{})},
		"clamp":  {Arity: exactly(1), Compile: compileClamp},
		"delay":  {Arity: exactly(2), Compile: compileDelay},
		"ramp":   {Arity: exactly(1), Compile: compileRamp},
		"seq":    {Arity: Arity{Min: 2, Max: -1}, Compile: compileSequence},
	}
}

// osc[off: f](freq), square[off: f](freq)
func compileOscillator(kind synth.Kind) func(*Compiler, *ast.FunctionCall) (synth.NodeID, error) {
	return func(c *Compiler, call *ast.FunctionCall) (synth.NodeID, error) {
		freq, err := c.compileExpression(call.Args[0])
		if err != nil {
			return 0, err
		}
		offset := call.ConstOr("off", 0)
		return c.addNode(kind, []synth.NodeID{freq}, []float64{offset}), nil
	}
}

// clamp[min: f, max: f](x)
func compileClamp(c *Compiler, call *ast.FunctionCall) (synth.NodeID, error) {
	x, err := c.compileExpression(call.Args[0])
	if err != nil {
		return 0, err
	}
	kind := synth.Clamp{
		Min: call.ConstOr("min", DefaultClampMin),
		Max: call.ConstOr("max", DefaultClampMax),
	}
	return c.addNode(kind, []synth.NodeID{x}, nil), nil
}

// delay[max: f](time, body)
//
// Only time is compiled now. body is recorded by a probe bound in the
// deferred pass.
func compileDelay(c *Compiler, call *ast.FunctionCall) (synth.NodeID, error) {
	time, err := c.compileExpression(call.Args[0])
	if err != nil {
		return 0, err
	}
	maxTime := call.ConstOr("max", DefaultDelayMax)
	if arg, ok := call.Const["max"]; ok && (maxTime < synth.MinDelay || maxTime > synth.MaxDelay) {
		return 0, token.NewError(token.StageCompile, token.ConstantRange, token.At(arg.Token.Pos),
			"delay max must be between %g and %g seconds, got %g", synth.MinDelay, synth.MaxDelay, maxTime)
	}
	probe := c.deferProbe(maxTime, call.Args[1])
	return c.addNode(synth.Delay{Max: maxTime, Probe: probe}, []synth.NodeID{time}, nil), nil
}

// ramp[max: f](rate)
func compileRamp(c *Compiler, call *ast.FunctionCall) (synth.NodeID, error) {
	rate, err := c.compileExpression(call.Args[0])
	if err != nil {
		return 0, err
	}
	kind := synth.Linear{Max: call.ConstOr("max", DefaultRampMax)}
	return c.addNode(kind, []synth.NodeID{rate}, []float64{0}), nil
}

// seq(index, v0, v1, ...) where every value is a number literal
func compileSequence(c *Compiler, call *ast.FunctionCall) (synth.NodeID, error) {
	values := make([]float64, 0, len(call.Args)-1)
	for _, arg := range call.Args[1:] {
		lit, ok := arg.(*ast.FloatLiteral)
		if !ok {
			return 0, token.NewError(token.StageCompile, token.ExpectedConstant, ast.Position(arg),
				"seq values must be numbers, got %s", arg)
		}
		values = append(values, lit.Value)
	}

	index, err := c.compileExpression(call.Args[0])
	if err != nil {
		return 0, err
	}
	return c.addNode(synth.Sequence{Values: values}, []synth.NodeID{index}, nil), nil
}
