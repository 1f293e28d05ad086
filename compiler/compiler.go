package compiler

import (
	"log/slog"

	"github.com/thiremani/synthgraph/ast"
	"github.com/thiremani/synthgraph/synth"
	"github.com/thiremani/synthgraph/token"
)

// Output variable names
const (
	MonoOut  = "out"
	LeftOut  = "left"
	RightOut = "right"
)

// Result is a compiled program: the graph plus the nodes feeding each channel.
type Result struct {
	Synth *synth.Synth
	Left  synth.NodeID
	Right synth.NodeID
	Vars  map[string]synth.NodeID
}

// Mono reports whether both channels come from the same node.
func (r *Result) Mono() bool {
	return r.Left == r.Right
}

// pendingProbe is a delay body waiting for the deferred pass.
type pendingProbe struct {
	id      synth.ProbeID
	maxTime float64
	body    ast.Expression
}

type Compiler struct {
	Synth   *synth.Synth
	Vars    map[string]synth.NodeID
	pending []pendingProbe
	logger  *slog.Logger
}

type Option func(*Compiler)

// WithLogger sets the logger used for compile diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		Synth:   synth.New(),
		Vars:    make(map[string]synth.NodeID),
		pending: []pendingProbe{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds a graph from program in two passes. Assignments are
// compiled in order against the names bound so far. Delay bodies are queued
// instead, and compiled last against the complete variable table, so a
// delay may tap a signal defined later or one that depends on the delay.
func Compile(program *ast.Program, opts ...Option) (*Result, error) {
	return NewCompiler(opts...).Compile(program)
}

func (c *Compiler) Compile(program *ast.Program) (*Result, error) {
	for _, stmt := range program.Statements {
		id, err := c.compileExpression(stmt.Value)
		if err != nil {
			return nil, err
		}
		c.Vars[stmt.Name] = id
	}

	if err := c.drainProbes(); err != nil {
		return nil, err
	}

	left, right, err := c.outputs()
	if err != nil {
		return nil, err
	}

	return &Result{
		Synth: c.Synth,
		Left:  left,
		Right: right,
		Vars:  c.Vars,
	}, nil
}

// drainProbes compiles queued delay bodies, newest first. Bodies may queue
// further delays; the loop runs until none are left.
func (c *Compiler) drainProbes() error {
	for len(c.pending) > 0 {
		last := len(c.pending) - 1
		p := c.pending[last]
		c.pending = c.pending[:last]

		watched, err := c.compileExpression(p.body)
		if err != nil {
			return err
		}
		c.Synth.AddProbe(p.id, p.maxTime, watched)
		c.logger.Debug("probe bound", "probe", p.id, "watches", watched, "max", p.maxTime)
	}
	return nil
}

func (c *Compiler) outputs() (left, right synth.NodeID, err error) {
	if id, ok := c.Vars[MonoOut]; ok {
		c.logger.Debug("output bound", "mode", "mono", "node", id)
		return id, id, nil
	}

	left, hasLeft := c.Vars[LeftOut]
	right, hasRight := c.Vars[RightOut]
	if !hasLeft || !hasRight {
		return 0, 0, token.NewError(token.StageCompile, token.NoOutput, nil,
			"bind %q, or both %q and %q", MonoOut, LeftOut, RightOut)
	}
	c.logger.Debug("output bound", "mode", "stereo", "left", left, "right", right)
	return left, right, nil
}

func (c *Compiler) compileExpression(expr ast.Expression) (synth.NodeID, error) {
	switch e := expr.(type) {
	case *ast.FloatLiteral:
		return c.addNode(synth.Constant{Value: e.Value}, nil, nil), nil

	case *ast.Variable:
		id, ok := c.Vars[e.Name]
		if !ok {
			return 0, token.NewError(token.StageCompile, token.InvalidVariable, ast.Position(e),
				"variable %q is not defined", e.Name)
		}
		return id, nil

	case *ast.OperatorCall:
		return c.compileOperator(e)

	case *ast.FunctionCall:
		builtin, ok := Builtins[e.Name]
		if !ok {
			return 0, token.NewError(token.StageCompile, token.UnknownFunction, ast.Position(e),
				"unknown function %q", e.Name)
		}
		if !builtin.Arity.accepts(len(e.Args)) {
			return 0, token.NewError(token.StageCompile, token.ArgCount, ast.Position(e),
				"%s takes %s, got %d", e.Name, builtin.Arity, len(e.Args))
		}
		return builtin.Compile(c, e)
	}
	panic("compiler: unsupported expression type")
}

func (c *Compiler) compileOperator(e *ast.OperatorCall) (synth.NodeID, error) {
	op, ok := synth.ParseOperator(e.Operator)
	if !ok {
		return 0, token.NewError(token.StageCompile, token.UnknownFunction, ast.Position(e),
			"unknown operator %q", e.Operator)
	}
	if len(e.Args) != 2 {
		return 0, token.NewError(token.StageCompile, token.OperatorArity, ast.Position(e),
			"operator %s takes 2 arguments, got %d", e.Operator, len(e.Args))
	}
	inputs, err := c.compileArgs(e.Args)
	if err != nil {
		return 0, err
	}
	return c.addNode(synth.BinaryOp{Op: op}, inputs, nil), nil
}

func (c *Compiler) compileArgs(args []ast.Expression) ([]synth.NodeID, error) {
	ids := make([]synth.NodeID, 0, len(args))
	for _, arg := range args {
		id, err := c.compileExpression(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// addNode wraps Synth.AddNode to log reuse of an identical node.
func (c *Compiler) addNode(kind synth.Kind, inputs []synth.NodeID, data []float64) synth.NodeID {
	before := c.Synth.Len()
	id := c.Synth.AddNode(kind, inputs, data)
	if c.Synth.Len() == before {
		c.logger.Debug("node reused", "kind", kind.String(), "node", id)
	}
	return id
}

// deferProbe queues body to be compiled in the deferred pass and returns
// the probe that will record it.
func (c *Compiler) deferProbe(maxTime float64, body ast.Expression) synth.ProbeID {
	id := c.Synth.AllocateProbeID()
	c.pending = append(c.pending, pendingProbe{id: id, maxTime: maxTime, body: body})
	c.logger.Debug("delay queued", "probe", id, "max", maxTime)
	return id
}
