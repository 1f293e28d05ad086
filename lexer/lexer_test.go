package lexer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thiremani/synthgraph/token"
)

type Test struct {
	expectedKind    token.Kind
	expectedLiteral string
}

func checkInput(t *testing.T, tokens []token.Token, tests []Test) {
	t.Helper()
	require.Len(t, tokens, len(tests))
	for i, tt := range tests {
		tok := tokens[i]
		if tok.Kind != tt.expectedKind {
			t.Fatalf("tests[%d] - kind wrong. expected=%q, got=%q",
				i, tt.expectedKind, tok.Kind)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func kinds(tokens []token.Token) []token.Kind {
	var out []token.Kind
	for _, tok := range tokens {
		out = append(out, tok.Kind)
		if tok.Kind == token.BLOCK {
			out = append(out, kinds(tok.Block)...)
			out = append(out, token.ILLEGAL) // block end marker
		}
	}
	return out
}

func tokenizeError(t *testing.T, input string) *token.CompileError {
	t.Helper()
	_, err := Tokenize(input)
	require.Error(t, err)
	var ce *token.CompileError
	require.True(t, errors.As(err, &ce), "expected *token.CompileError, got %T", err)
	require.Equal(t, token.StageTokenize, ce.Stage)
	return ce
}

func TestTokenizeStatement(t *testing.T) {
	input := `freq : 440;
# a comment line
out : osc[off: 0.25]($freq); # trailing
mix: *(0.5, +(1, 2));`

	tokens, err := Tokenize(input)
	require.NoError(t, err)

	checkInput(t, tokens, []Test{
		{token.IDENT, "freq"},
		{token.ASSIGN, ":"},
		{token.FLOAT, "440"},
		{token.TERMINATOR, ";"},
		{token.IDENT, "out"},
		{token.ASSIGN, ":"},
		{token.IDENT, "osc"},
		{token.BLOCK, "["},
		{token.BLOCK, "("},
		{token.TERMINATOR, ";"},
		{token.IDENT, "mix"},
		{token.ASSIGN, ":"},
		{token.OPERATOR, "*"},
		{token.BLOCK, "("},
		{token.TERMINATOR, ";"},
	})

	checkInput(t, tokens[7].Block, []Test{
		{token.IDENT, "off"},
		{token.ASSIGN, ":"},
		{token.FLOAT, "0.25"},
	})
	checkInput(t, tokens[8].Block, []Test{
		{token.VARIABLE, "$"},
		{token.IDENT, "freq"},
	})

	inner := tokens[13].Block
	checkInput(t, inner, []Test{
		{token.FLOAT, "0.5"},
		{token.SEPARATOR, ","},
		{token.OPERATOR, "+"},
		{token.BLOCK, "("},
	})
	checkInput(t, inner[3].Block, []Test{
		{token.FLOAT, "1"},
		{token.SEPARATOR, ","},
		{token.FLOAT, "2"},
	})
}

func TestTokenizePositions(t *testing.T) {
	input := "a : 1;\n  b:osc( $a );"
	tokens, err := Tokenize(input)
	require.NoError(t, err)

	require.Equal(t, token.Pos{Line: 0, Col: 0}, tokens[0].Pos)
	require.Equal(t, token.Pos{Line: 0, Col: 2}, tokens[1].Pos)
	require.Equal(t, token.Pos{Line: 0, Col: 4}, tokens[2].Pos)
	require.Equal(t, token.Pos{Line: 1, Col: 2}, tokens[4].Pos)
	require.Equal(t, token.Pos{Line: 1, Col: 4}, tokens[6].Pos)

	block := tokens[7]
	require.Equal(t, token.Pos{Line: 1, Col: 7}, block.Pos)
	require.Equal(t, token.Pos{Line: 1, Col: 9}, block.Block[0].Pos)
	require.Equal(t, token.Pos{Line: 1, Col: 10}, block.Block[1].Pos)
}

func TestTokenizeFloats(t *testing.T) {
	tests := []struct {
		input string
		value float64
	}{
		{"0", 0},
		{"440", 440},
		{"0.5", 0.5},
		{".25", 0.25},
		{"3.", 3},
	}

	for _, tt := range tests {
		tokens, err := Tokenize(tt.input)
		require.NoError(t, err, tt.input)
		require.Len(t, tokens, 1)
		require.Equal(t, token.FLOAT, tokens[0].Kind)
		require.Equal(t, tt.value, tokens[0].Value, tt.input)
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  token.ErrorKind
		pos   token.Pos
	}{
		{"a : osc(1;", token.UnterminatedBlock, token.Pos{Line: 0, Col: 7}},
		{"a : f[x: 1", token.UnterminatedBlock, token.Pos{Line: 0, Col: 5}},
		{"a : (1]", token.UnexpectedChar, token.Pos{Line: 0, Col: 6}},
		{"a : 1;\n)", token.UnexpectedChar, token.Pos{Line: 1, Col: 0}},
		{"a : \"x\";", token.UnexpectedChar, token.Pos{Line: 0, Col: 4}},
		{"a : 1.2.3;", token.InvalidFloat, token.Pos{Line: 0, Col: 4}},
		{"a : .;", token.InvalidFloat, token.Pos{Line: 0, Col: 4}},
		{"a : <(1, 2);", token.InvalidOperator, token.Pos{Line: 0, Col: 4}},
		{"  a = 1;", token.InvalidOperator, token.Pos{Line: 0, Col: 4}},
		{"a : $2;", token.EmptyIdentifier, token.Pos{Line: 0, Col: 4}},
		{"a : +($a, $);", token.EmptyIdentifier, token.Pos{Line: 0, Col: 10}},
		{"a : $", token.EmptyIdentifier, token.Pos{Line: 0, Col: 4}},
	}

	for _, tt := range tests {
		ce := tokenizeError(t, tt.input)
		require.Equal(t, tt.kind, ce.Kind, tt.input)
		require.NotNil(t, ce.Pos, tt.input)
		require.Equal(t, tt.pos, *ce.Pos, tt.input)
	}
}

func TestUnterminatedBlockNamesCloser(t *testing.T) {
	ce := tokenizeError(t, "out : osc[off: 1(440);")
	require.Equal(t, token.UnterminatedBlock, ce.Kind)
	require.Contains(t, ce.Msg, "']'")
}

func TestFormatRoundTrip(t *testing.T) {
	inputs := []string{
		`out : osc(440);`,
		`left: clamp[min: 0, max: 0.5](*(osc(2), 3));
		 right :   delay[max: 2](0.25, $left); # echo`,
		`a:+ 1 2;b:%($a,.5);c:seq(ramp[max: 4](2),1,2,3);`,
		`x : delay(0.02, +($x, osc(1)));`,
	}

	for _, input := range inputs {
		first, err := Tokenize(input)
		require.NoError(t, err, input)

		formatted := token.Format(first)
		second, err := Tokenize(formatted)
		require.NoError(t, err, formatted)

		require.Equal(t, kinds(first), kinds(second), formatted)
	}
}

func TestCommentsAndEmptyInput(t *testing.T) {
	tokens, err := Tokenize("")
	require.NoError(t, err)
	require.Empty(t, tokens)

	tokens, err = Tokenize("# only a comment\n\t  \n# another")
	require.NoError(t, err)
	require.Empty(t, tokens)
}
