package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/thiremani/synthgraph/token"
)

// operator-looking characters the language does not support
const invalidOperators = "<>=!&|^~"

type Lexer struct {
	input        []rune
	position     int  // current position in input (points to current rune)
	readPosition int  // current reading position in input (after current rune)
	curr         rune // current rune under examination
	line         int
	col          int
}

func New(input string) *Lexer {
	l := &Lexer{input: []rune(input), col: -1}
	l.readRune()
	return l
}

// Tokenize turns program text into a token tree. Bracket and parenthesis
// contents are grouped into BLOCK tokens, recursively.
func Tokenize(input string) ([]token.Token, error) {
	return New(input).Tokenize()
}

func (l *Lexer) Tokenize() ([]token.Token, error) {
	return l.tokenizeUntil(nil)
}

// tokenizeUntil scans until the closing delimiter of open, or until the end
// of input when open is nil.
func (l *Lexer) tokenizeUntil(open *token.Token) ([]token.Token, error) {
	tokens := []token.Token{}
	var closing rune
	if open != nil {
		closing = token.Closing([]rune(open.Literal)[0])
	}

	for {
		l.skipWhitespaceAndComments()
		pos := l.pos()

		if l.atEnd() {
			if open != nil {
				return nil, token.NewError(token.StageTokenize, token.UnterminatedBlock, token.At(open.Pos),
					"expected %q to close %q", closing, open.Literal)
			}
			return tokens, nil
		}

		switch c := l.curr; {
		case open != nil && c == closing:
			l.readRune()
			return tokens, nil
		case c == token.LPAREN || c == token.LBRACK:
			block := token.Token{Kind: token.BLOCK, Pos: pos, Literal: string(c)}
			l.readRune()
			inner, err := l.tokenizeUntil(&block)
			if err != nil {
				return nil, err
			}
			block.Block = inner
			tokens = append(tokens, block)
		case c == '$':
			tokens = append(tokens, l.single(token.VARIABLE))
			// the sigil must be followed by a name, possibly after whitespace
			if next := l.curr; !isLetter(next) && !unicode.IsSpace(next) {
				return nil, token.NewError(token.StageTokenize, token.EmptyIdentifier, token.At(pos),
					"variable sigil without a name")
			}
		case c == ':':
			tokens = append(tokens, l.single(token.ASSIGN))
		case c == ',':
			tokens = append(tokens, l.single(token.SEPARATOR))
		case c == ';':
			tokens = append(tokens, l.single(token.TERMINATOR))
		case c == '+' || c == '-' || c == '*' || c == '/' || c == '%':
			tokens = append(tokens, l.single(token.OPERATOR))
		case isDigit(c) || c == '.':
			tok, err := l.readFloat()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case isLetter(c):
			tokens = append(tokens, l.readIdentifier())
		case strings.ContainsRune(invalidOperators, c):
			return nil, token.NewError(token.StageTokenize, token.InvalidOperator, token.At(pos),
				"invalid operator %q", c)
		default:
			return nil, token.NewError(token.StageTokenize, token.UnexpectedChar, token.At(pos),
				"unexpected character %q", c)
		}
	}
}

func (l *Lexer) single(kind token.Kind) token.Token {
	tok := token.Token{Kind: kind, Pos: l.pos(), Literal: string(l.curr)}
	l.readRune()
	return tok
}

func (l *Lexer) readFloat() (token.Token, error) {
	pos := l.pos()
	start := l.position
	seenDot := false
	for isDigit(l.curr) || (l.curr == '.' && !seenDot) {
		if l.curr == '.' {
			seenDot = true
		}
		l.readRune()
	}
	literal := string(l.input[start:l.position])

	// a second '.' directly after the numeral
	if l.curr == '.' {
		return token.Token{}, token.NewError(token.StageTokenize, token.InvalidFloat, token.At(pos),
			"invalid number %q", literal+".")
	}
	value, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return token.Token{}, token.NewError(token.StageTokenize, token.InvalidFloat, token.At(pos),
			"invalid number %q", literal)
	}
	return token.Token{Kind: token.FLOAT, Pos: pos, Literal: literal, Value: value}, nil
}

// readIdentifier is entered on a letter, so the name is never empty.
func (l *Lexer) readIdentifier() token.Token {
	pos := l.pos()
	start := l.position
	for isLetter(l.curr) || isDigit(l.curr) {
		l.readRune()
	}
	return token.Token{Kind: token.IDENT, Pos: pos, Literal: string(l.input[start:l.position])}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		switch {
		case unicode.IsSpace(l.curr):
			l.readRune()
		case l.curr == '#':
			for !l.atEnd() && l.curr != '\n' {
				l.readRune()
			}
		default:
			return
		}
	}
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

func (l *Lexer) pos() token.Pos {
	return token.Pos{Line: l.line, Col: l.col}
}

func (l *Lexer) readRune() {
	if l.curr == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}

	if l.readPosition >= len(l.input) {
		l.curr = 0
	} else {
		l.curr = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
