package token

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	ILLEGAL Kind = iota

	OPERATOR   // + - * / %
	ASSIGN     // :
	SEPARATOR  // ,
	TERMINATOR // ;
	VARIABLE   // $

	IDENT // osc, freq, left, ...
	FLOAT // 440, 0.5, .25

	BLOCK // ( ... ) or [ ... ]
)

var kinds = [...]string{
	ILLEGAL:    "ILLEGAL",
	OPERATOR:   "OPERATOR",
	ASSIGN:     ":",
	SEPARATOR:  ",",
	TERMINATOR: ";",
	VARIABLE:   "$",
	IDENT:      "IDENT",
	FLOAT:      "FLOAT",
	BLOCK:      "BLOCK",
}

func (k Kind) String() string {
	s := ""
	if 0 <= k && k < Kind(len(kinds)) {
		s = kinds[k]
	}
	if s == "" {
		s = "token(" + strconv.Itoa(int(k)) + ")"
	}
	return s
}

// Block delimiters
const (
	LPAREN = '('
	RPAREN = ')'
	LBRACK = '['
	RBRACK = ']'
)

// Closing returns the delimiter that ends a block opened by open.
func Closing(open rune) rune {
	switch open {
	case LPAREN:
		return RPAREN
	case LBRACK:
		return RBRACK
	}
	return 0
}

// Pos is a 0-based line and column. String() displays it 1-based.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Col+1)
}

type Token struct {
	Kind    Kind
	Pos     Pos
	Literal string  // source text; the opening delimiter for a BLOCK
	Value   float64 // FLOAT only
	Block   []Token // BLOCK only, the already grouped contents
}

// IsBlock reports whether t is a block opened by open.
func (t Token) IsBlock(open rune) bool {
	return t.Kind == BLOCK && t.Literal == string(open)
}

func (t Token) String() string {
	switch t.Kind {
	case OPERATOR, IDENT:
		return t.Literal
	case FLOAT:
		return strconv.FormatFloat(t.Value, 'f', -1, 64)
	case BLOCK:
		open := []rune(t.Literal)[0]
		return t.Literal + Format(t.Block) + string(Closing(open))
	}
	return t.Kind.String()
}

// Format displays a token tree canonically, one space between tokens.
// Tokenizing the result yields the same kinds in the same order.
func Format(tokens []Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, " ")
}
