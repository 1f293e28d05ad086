package token

import "fmt"

// Stage names the pipeline step an error came from.
type Stage int

const (
	StageIO Stage = iota
	StageTokenize
	StageParse
	StageCompile
)

var stages = [...]string{
	StageIO:       "io",
	StageTokenize: "tokenize",
	StageParse:    "parse",
	StageCompile:  "compile",
}

func (s Stage) String() string {
	if 0 <= s && s < Stage(len(stages)) {
		return stages[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

type ErrorKind int

const (
	UnknownError ErrorKind = iota

	// io
	ReadFailed

	// tokenize
	UnterminatedBlock
	UnexpectedChar
	InvalidFloat
	EmptyIdentifier
	InvalidOperator

	// parse
	UnexpectedToken
	UnexpectedEOF
	ExpectedFloat
	ExpectedArgList
	ExpectedTerminator
	ExpectedAssignment
	ExpectedSeparator
	ExpectedIdentifier

	// compile
	UnknownFunction
	InvalidVariable
	OperatorArity
	ArgCount
	NoOutput
	ExpectedConstant
	ConstantRange
)

var errorKinds = [...]string{
	UnknownError:       "unknown error",
	ReadFailed:         "read failed",
	UnterminatedBlock:  "unterminated block",
	UnexpectedChar:     "unexpected character",
	InvalidFloat:       "invalid number",
	EmptyIdentifier:    "empty identifier",
	InvalidOperator:    "invalid operator",
	UnexpectedToken:    "unexpected token",
	UnexpectedEOF:      "unexpected end of input",
	ExpectedFloat:      "expected number",
	ExpectedArgList:    "expected argument list",
	ExpectedTerminator: "expected ';'",
	ExpectedAssignment: "expected ':'",
	ExpectedSeparator:  "expected ','",
	ExpectedIdentifier: "expected identifier",
	UnknownFunction:    "unknown function",
	InvalidVariable:    "invalid variable",
	OperatorArity:      "operator arity",
	ArgCount:           "wrong number of arguments",
	NoOutput:           "no output variables",
	ExpectedConstant:   "expected constant",
	ConstantRange:      "constant out of range",
}

func (k ErrorKind) String() string {
	if 0 <= k && k < ErrorKind(len(errorKinds)) {
		return errorKinds[k]
	}
	return fmt.Sprintf("error(%d)", int(k))
}

// CompileError is returned for every failure that originates from program
// text or from reading it. Pos is nil when there is no position to report,
// e.g. at end of input or for a missing output binding.
type CompileError struct {
	Stage Stage
	Kind  ErrorKind
	Pos   *Pos
	Msg   string
	Err   error // underlying cause, IO stage only
}

// NewError builds a CompileError at pos. A nil pos means no position.
func NewError(stage Stage, kind ErrorKind, pos *Pos, format string, args ...any) *CompileError {
	return &CompileError{
		Stage: stage,
		Kind:  kind,
		Pos:   pos,
		Msg:   fmt.Sprintf(format, args...),
	}
}

// At returns a pointer to a copy of p, for use as a CompileError position.
func At(p Pos) *Pos {
	return &p
}

func (e *CompileError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Pos == nil {
		return fmt.Sprintf("%s error: %s", e.Stage, msg)
	}
	return fmt.Sprintf("%s error at %s: %s", e.Stage, e.Pos, msg)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
