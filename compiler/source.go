package compiler

import (
	"os"

	"github.com/thiremani/synthgraph/lexer"
	"github.com/thiremani/synthgraph/parser"
	"github.com/thiremani/synthgraph/token"
)

// CompileSource runs the whole pipeline on program text. Every failure is a
// *token.CompileError tagged with the stage that produced it.
func CompileSource(text string, opts ...Option) (*Result, error) {
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		return nil, err
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		return nil, err
	}
	return Compile(program, opts...)
}

// ReadSource reads program text from path. Failures are IO stage
// *token.CompileError values wrapping the underlying error.
func ReadSource(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", &token.CompileError{
			Stage: token.StageIO,
			Kind:  token.ReadFailed,
			Msg:   "reading " + path,
			Err:   err,
		}
	}
	return string(source), nil
}

// CompileFile reads path and compiles its contents.
func CompileFile(path string, opts ...Option) (*Result, error) {
	source, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	return CompileSource(source, opts...)
}
