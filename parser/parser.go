package parser

import (
	"github.com/thiremani/synthgraph/ast"
	"github.com/thiremani/synthgraph/token"
)

// Parser consumes one already grouped token list. Blocks are parsed by a
// fresh Parser over the block's own tokens, so no delimiter matching ever
// happens here.
type Parser struct {
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse returns the assignments of a program in source order.
func Parse(tokens []token.Token) (*ast.Program, error) {
	return New(tokens).ParseProgram()
}

func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{Statements: []*ast.Assignment{}}
	for !p.done() {
		stmt, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
	}
	return program, nil
}

func (p *Parser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *Parser) peek() (token.Token, bool) {
	if p.done() {
		return token.Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *Parser) next() (token.Token, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func errorAt(kind token.ErrorKind, tok token.Token, format string, args ...any) error {
	return token.NewError(token.StageParse, kind, token.At(tok.Pos), format, args...)
}

func errEOF() error {
	return token.NewError(token.StageParse, token.UnexpectedEOF, nil, "unexpected end of input")
}

// expect consumes the next token, failing with kind unless it has kind want.
func (p *Parser) expect(want token.Kind, kind token.ErrorKind) (token.Token, error) {
	tok, ok := p.next()
	if !ok {
		return tok, errEOF()
	}
	if tok.Kind != want {
		return tok, errorAt(kind, tok, "expected %s, got %s", want, tok)
	}
	return tok, nil
}

// statement := IDENT ':' expr ';'
func (p *Parser) parseAssignment() (*ast.Assignment, error) {
	name, err := p.expect(token.IDENT, token.UnexpectedToken)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN, token.ExpectedAssignment); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.TERMINATOR, token.ExpectedTerminator); err != nil {
		return nil, err
	}
	return &ast.Assignment{Token: name, Name: name.Literal, Value: value}, nil
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	tok, ok := p.next()
	if !ok {
		return nil, errEOF()
	}

	switch tok.Kind {
	case token.FLOAT:
		return &ast.FloatLiteral{Token: tok, Value: tok.Value}, nil
	case token.VARIABLE:
		name, err := p.expect(token.IDENT, token.ExpectedIdentifier)
		if err != nil {
			return nil, err
		}
		return &ast.Variable{Token: name, Name: name.Literal}, nil
	case token.OPERATOR:
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &ast.OperatorCall{Token: tok, Operator: tok.Literal, Args: args}, nil
	case token.IDENT:
		return p.parseFunctionCall(tok)
	}
	return nil, errorAt(token.UnexpectedToken, tok, "unexpected %s", tok)
}

// IDENT ( '[' constArgs ']' )? args
func (p *Parser) parseFunctionCall(name token.Token) (ast.Expression, error) {
	call := &ast.FunctionCall{Token: name, Name: name.Literal, Const: map[string]*ast.ConstArg{}}

	if tok, ok := p.peek(); ok && tok.IsBlock(token.LBRACK) {
		p.pos++
		consts, err := New(tok.Block).parseConstArgs()
		if err != nil {
			return nil, err
		}
		call.Const = consts
	}

	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	call.Args = args
	return call, nil
}

// args := '(' exprList ')' | expr
func (p *Parser) parseArgs() ([]ast.Expression, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, errEOF()
	}
	if tok.IsBlock(token.LPAREN) {
		p.pos++
		return New(tok.Block).parseExpressionList()
	}
	if tok.IsBlock(token.LBRACK) {
		return nil, errorAt(token.ExpectedArgList, tok, "expected argument list, got %q block", tok.Literal)
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return []ast.Expression{expr}, nil
}

// exprList := ( expr (',' expr)* )?
func (p *Parser) parseExpressionList() ([]ast.Expression, error) {
	exprs := []ast.Expression{}
	if p.done() {
		return exprs, nil
	}

	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		if !p.skipSeparator() {
			break
		}
	}

	if tok, ok := p.peek(); ok {
		return nil, errorAt(token.ExpectedSeparator, tok, "expected ',', got %s", tok)
	}
	return exprs, nil
}

// constArgs := ( IDENT ':' FLOAT (',' IDENT ':' FLOAT)* )?
// A '-' directly before the number negates it.
func (p *Parser) parseConstArgs() (map[string]*ast.ConstArg, error) {
	consts := map[string]*ast.ConstArg{}
	if p.done() {
		return consts, nil
	}

	for {
		name, err := p.expect(token.IDENT, token.ExpectedIdentifier)
		if err != nil {
			return nil, err
		}
		if _, dup := consts[name.Literal]; dup {
			return nil, errorAt(token.UnexpectedToken, name, "duplicate constant argument %q", name.Literal)
		}
		if _, err := p.expect(token.ASSIGN, token.ExpectedAssignment); err != nil {
			return nil, err
		}

		sign := 1.0
		if tok, ok := p.peek(); ok && tok.Kind == token.OPERATOR && tok.Literal == "-" {
			p.pos++
			sign = -1
		}
		value, err := p.expect(token.FLOAT, token.ExpectedFloat)
		if err != nil {
			return nil, err
		}
		consts[name.Literal] = &ast.ConstArg{Token: value, Value: sign * value.Value}

		if !p.skipSeparator() {
			break
		}
	}

	if tok, ok := p.peek(); ok {
		return nil, errorAt(token.ExpectedSeparator, tok, "expected ',', got %s", tok)
	}
	return consts, nil
}

func (p *Parser) skipSeparator() bool {
	if tok, ok := p.peek(); ok && tok.Kind == token.SEPARATOR {
		p.pos++
		return true
	}
	return false
}
