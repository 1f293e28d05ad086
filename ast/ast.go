package ast

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/thiremani/synthgraph/token"
)

// The base Node interface
type Node interface {
	Tok() token.Token
	String() string
}

// All expression nodes implement this
type Expression interface {
	Node
	expressionNode()
}

// Position returns the source position of n, or nil for nodes that were
// built without a token.
func Position(n Node) *token.Pos {
	tok := n.Tok()
	if tok.Kind == token.ILLEGAL {
		return nil
	}
	return token.At(tok.Pos)
}

type Program struct {
	Statements []*Assignment
}

func (p *Program) Tok() token.Token {
	if len(p.Statements) > 0 {
		return p.Statements[0].Tok()
	}
	return token.Token{}
}

func (p *Program) String() string {
	lines := make([]string, 0, len(p.Statements))
	for _, s := range p.Statements {
		lines = append(lines, s.String())
	}
	return strings.Join(lines, "\n")
}

// Statements
type Assignment struct {
	Token token.Token // the token.IDENT being assigned
	Name  string
	Value Expression
}

func (a *Assignment) Tok() token.Token { return a.Token }
func (a *Assignment) String() string {
	return a.Name + ": " + a.Value.String() + ";"
}

// Expressions
type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()  {}
func (fl *FloatLiteral) Tok() token.Token { return fl.Token }
func (fl *FloatLiteral) String() string   { return formatFloat(fl.Value) }

type Variable struct {
	Token token.Token // the token.IDENT after '$'
	Name  string
}

func (v *Variable) expressionNode()  {}
func (v *Variable) Tok() token.Token { return v.Token }
func (v *Variable) String() string   { return "$" + v.Name }

// OperatorCall is a prefix operator application such as +(a, b).
type OperatorCall struct {
	Token    token.Token // the token.OPERATOR
	Operator string
	Args     []Expression
}

func (oc *OperatorCall) expressionNode()  {}
func (oc *OperatorCall) Tok() token.Token { return oc.Token }
func (oc *OperatorCall) String() string {
	return oc.Operator + "(" + printVec(oc.Args) + ")"
}

// ConstArg is one name: value pair inside a function's brackets.
type ConstArg struct {
	Token token.Token // the token.FLOAT
	Value float64
}

type FunctionCall struct {
	Token token.Token // the function name token.IDENT
	Name  string
	Const map[string]*ConstArg
	Args  []Expression
}

func (fc *FunctionCall) expressionNode()  {}
func (fc *FunctionCall) Tok() token.Token { return fc.Token }
func (fc *FunctionCall) String() string {
	var out bytes.Buffer

	out.WriteString(fc.Name)
	if len(fc.Const) > 0 {
		keys := make([]string, 0, len(fc.Const))
		for k := range fc.Const {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+": "+formatFloat(fc.Const[k].Value))
		}
		out.WriteString("[")
		out.WriteString(strings.Join(pairs, ", "))
		out.WriteString("]")
	}
	out.WriteString("(")
	out.WriteString(printVec(fc.Args))
	out.WriteString(")")

	return out.String()
}

// ConstOr returns the named constant argument, or def when it is absent.
func (fc *FunctionCall) ConstOr(name string, def float64) float64 {
	if c, ok := fc.Const[name]; ok {
		return c.Value
	}
	return def
}

func printVec(a []Expression) string {
	parts := make([]string, 0, len(a))
	for _, e := range a {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
