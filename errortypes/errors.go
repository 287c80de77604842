// Package errortypes defines the errors produced while compiling and rendering
// templates.
package errortypes

import (
	"errors"
	"fmt"
)

// Kind classifies a template failure.
type Kind int

const (
	KindUnknown Kind = iota
	ScanFailure
	UnterminatedTag
	UnterminatedExpression
	UnexpectedBranchToken
	MissingExpectedToken
	MalformedLoopHeader
	ExpressionEvaluationError
)

func (k Kind) String() string {
	switch k {
	case ScanFailure:
		return "scan failure"
	case UnterminatedTag:
		return "unterminated tag"
	case UnterminatedExpression:
		return "unterminated expression"
	case UnexpectedBranchToken:
		return "unexpected branch token"
	case MissingExpectedToken:
		return "missing expected token"
	case MalformedLoopHeader:
		return "malformed loop header"
	case ExpressionEvaluationError:
		return "expression evaluation error"
	}
	return "unknown"
}

// SyntaxError is returned when a template can not be compiled.  Offset is the
// byte offset into the template source where the problem was detected.
type SyntaxError struct {
	Kind   Kind
	Msg    string
	Offset int
	Name   string // name of the input, if any
	line   int
	col    int
}

// NewSyntaxError creates a SyntaxError, computing its line and column from the
// given template source.
func NewSyntaxError(kind Kind, name, input string, offset int, format string, args ...interface{}) *SyntaxError {
	var line, col = LineCol(input, offset)
	return &SyntaxError{
		Kind:   kind,
		Msg:    fmt.Sprintf(format, args...),
		Offset: offset,
		Name:   name,
		line:   line,
		col:    col,
	}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template %s:%d:%d: %s", e.Name, e.line, e.col, e.Msg)
}

func (e *SyntaxError) File() string { return e.Name }
func (e *SyntaxError) Line() int    { return e.line }
func (e *SyntaxError) Col() int     { return e.col }

var _ ErrFilePos = &SyntaxError{}

// EvalError is returned when a template fails while rendering, e.g. due to an
// undefined identifier or a malformed value.
type EvalError struct {
	Kind       Kind
	Expression string // source of the expression being evaluated, if known
	Offset     int
	Err        error
}

func (e *EvalError) Error() string {
	if e.Expression == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("evaluating %q: %v", e.Expression, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the given error, or KindUnknown if it is not a
// template error.
func KindOf(err error) Kind {
	var syntaxErr *SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Kind
	}
	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		return evalErr.Kind
	}
	return KindUnknown
}

// Offset returns the template offset attached to the given error, and whether
// one was found.
func Offset(err error) (int, bool) {
	var syntaxErr *SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Offset, true
	}
	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		return evalErr.Offset, true
	}
	return 0, false
}
