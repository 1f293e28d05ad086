package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thiremani/synthgraph/ast"
	"github.com/thiremani/synthgraph/lexer"
	"github.com/thiremani/synthgraph/token"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	tokens, err := lexer.Tokenize(src)
	require.NoError(t, err)
	program, err := Parse(tokens)
	require.NoError(t, err)
	return program
}

func parseError(t *testing.T, src string) *token.CompileError {
	t.Helper()
	tokens, err := lexer.Tokenize(src)
	require.NoError(t, err)
	_, err = Parse(tokens)
	require.Error(t, err)
	var ce *token.CompileError
	require.True(t, errors.As(err, &ce), "expected *token.CompileError, got %T", err)
	require.Equal(t, token.StageParse, ce.Stage)
	return ce
}

func testFloatLiteral(t *testing.T, exp ast.Expression, expected float64) bool {
	fl, ok := exp.(*ast.FloatLiteral)
	if !ok {
		t.Errorf("expected *ast.FloatLiteral, got %T", exp)
		return false
	}
	if fl.Value != expected {
		t.Errorf("expected float %f, got %f", expected, fl.Value)
		return false
	}
	return true
}

func testVariable(t *testing.T, exp ast.Expression, name string) bool {
	v, ok := exp.(*ast.Variable)
	if !ok {
		t.Errorf("expected *ast.Variable, got %T", exp)
		return false
	}
	if v.Name != name {
		t.Errorf("variable name not %s. got=%s", name, v.Name)
		return false
	}
	return true
}

func TestParseAssignments(t *testing.T) {
	program := parseProgram(t, `freq: 440; out: $freq;`)
	require.Len(t, program.Statements, 2)

	require.Equal(t, "freq", program.Statements[0].Name)
	testFloatLiteral(t, program.Statements[0].Value, 440)

	require.Equal(t, "out", program.Statements[1].Name)
	testVariable(t, program.Statements[1].Value, "freq")
}

func TestParseOperatorCall(t *testing.T) {
	program := parseProgram(t, `x: +(1, $y);`)
	op, ok := program.Statements[0].Value.(*ast.OperatorCall)
	require.True(t, ok, "expected *ast.OperatorCall, got %T", program.Statements[0].Value)
	require.Equal(t, "+", op.Operator)
	require.Len(t, op.Args, 2)
	testFloatLiteral(t, op.Args[0], 1)
	testVariable(t, op.Args[1], "y")
}

func TestParseUnparenthesizedArgs(t *testing.T) {
	// without parentheses, args is exactly one expression
	program := parseProgram(t, `x: * 2; y: osc 440; z: - osc 1;`)

	op := program.Statements[0].Value.(*ast.OperatorCall)
	require.Len(t, op.Args, 1)
	testFloatLiteral(t, op.Args[0], 2)

	call := program.Statements[1].Value.(*ast.FunctionCall)
	require.Equal(t, "osc", call.Name)
	require.Len(t, call.Args, 1)
	testFloatLiteral(t, call.Args[0], 440)

	nested := program.Statements[2].Value.(*ast.OperatorCall)
	require.Len(t, nested.Args, 1)
	require.Equal(t, "osc(1)", nested.Args[0].String())
}

func TestParseFunctionCallConstArgs(t *testing.T) {
	program := parseProgram(t, `c: clamp[min: -0.5, max: 0.75](osc(3));`)
	call, ok := program.Statements[0].Value.(*ast.FunctionCall)
	require.True(t, ok)
	require.Equal(t, "clamp", call.Name)
	require.Len(t, call.Const, 2)
	require.Equal(t, -0.5, call.Const["min"].Value)
	require.Equal(t, 0.75, call.Const["max"].Value)
	require.Equal(t, 1.0, call.ConstOr("other", 1))
	require.Len(t, call.Args, 1)
}

func TestParseEmptyLists(t *testing.T) {
	program := parseProgram(t, `a: f[](); b: g();`)
	call := program.Statements[0].Value.(*ast.FunctionCall)
	require.Empty(t, call.Const)
	require.Empty(t, call.Args)
	require.Empty(t, program.Statements[1].Value.(*ast.FunctionCall).Args)
}

func TestVariablePositionIsIdentifier(t *testing.T) {
	program := parseProgram(t, "out :\n  $missing;")
	pos := ast.Position(program.Statements[0].Value)
	require.NotNil(t, pos)
	require.Equal(t, token.Pos{Line: 1, Col: 3}, *pos)
}

func TestProgramString(t *testing.T) {
	src := `a:osc[off:.5](440);b:%(+ $a,2);c:delay[max:2](0.1,$b);`
	program := parseProgram(t, src)
	expected := "a: osc[off: 0.5](440);\n" +
		"b: %(+($a), 2);\n" +
		"c: delay[max: 2](0.1, $b);"
	require.Equal(t, expected, program.String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  token.ErrorKind
		pos   *token.Pos
	}{
		{`1: 2;`, token.UnexpectedToken, &token.Pos{Line: 0, Col: 0}},
		{`a 2;`, token.ExpectedAssignment, &token.Pos{Line: 0, Col: 2}},
		{`a: 2 3;`, token.ExpectedTerminator, &token.Pos{Line: 0, Col: 5}},
		{`a: 2`, token.UnexpectedEOF, nil},
		{`a:`, token.UnexpectedEOF, nil},
		{`a: $ 2;`, token.ExpectedIdentifier, &token.Pos{Line: 0, Col: 5}},
		{`a: ;`, token.UnexpectedToken, &token.Pos{Line: 0, Col: 3}},
		{`a: f[x 1](2);`, token.ExpectedAssignment, &token.Pos{Line: 0, Col: 7}},
		{`a: f[1: 1](2);`, token.ExpectedIdentifier, &token.Pos{Line: 0, Col: 5}},
		{`a: f[x: y](2);`, token.ExpectedFloat, &token.Pos{Line: 0, Col: 8}},
		{`a: f[x: 1 y: 2](2);`, token.ExpectedSeparator, &token.Pos{Line: 0, Col: 10}},
		{`a: f[x: 1, x: 2](2);`, token.UnexpectedToken, &token.Pos{Line: 0, Col: 11}},
		{`a: f(1 2);`, token.ExpectedSeparator, &token.Pos{Line: 0, Col: 7}},
		{`a: f(1,);`, token.UnexpectedEOF, nil},
		{`a: f[x: 1][y: 2];`, token.ExpectedArgList, &token.Pos{Line: 0, Col: 10}},
		{`a: + [x: 1];`, token.ExpectedArgList, &token.Pos{Line: 0, Col: 5}},
		{`a: (1);`, token.UnexpectedToken, &token.Pos{Line: 0, Col: 3}},
	}

	for _, tt := range tests {
		ce := parseError(t, tt.input)
		require.Equal(t, tt.kind, ce.Kind, tt.input)
		require.Equal(t, tt.pos, ce.Pos, tt.input)
	}
}
