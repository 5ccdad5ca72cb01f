package dynamic

import (
	"errors"
	"fmt"
	"strings"
)

// Position is a source location inside a script. The zero Position is "none".
type Position struct {
	Line   int
	Column int
}

// NoPosition marks a failure that has not been located yet.
var NoPosition = Position{}

// NewPosition creates a position.
func NewPosition(line, column int) Position {
	return Position{Line: line, Column: column}
}

// IsNone reports whether the position is unset.
func (p Position) IsNone() bool { return p.Line == 0 }

func (p Position) String() string {
	if p.IsNone() {
		return "none"
	}
	return fmt.Sprintf("line %d, position %d", p.Line, p.Column)
}

// ErrorKind classifies an EvalError.
type ErrorKind int

const (
	ErrRuntime ErrorKind = iota
	ErrArithmetic
	ErrFunctionNotFound
	ErrMismatchDataType
)

func (k ErrorKind) String() string {
	switch k {
	case ErrArithmetic:
		return "arithmetic error"
	case ErrFunctionNotFound:
		return "function not found"
	case ErrMismatchDataType:
		return "data type mismatch"
	default:
		return "runtime error"
	}
}

// EvalError is the recoverable failure a script can catch.
type EvalError struct {
	Kind    ErrorKind
	Message string
	Pos     Position
	Err     error // underlying host error, optional
}

func (e *EvalError) Error() string {
	if e.Pos.IsNone() {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Pos)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// NewArithmeticError creates an arithmetic failure.
func NewArithmeticError(msg string, pos Position) *EvalError {
	return &EvalError{Kind: ErrArithmetic, Message: msg, Pos: pos}
}

// NewRuntimeError creates a generic runtime failure.
func NewRuntimeError(msg string, pos Position) *EvalError {
	return &EvalError{Kind: ErrRuntime, Message: msg, Pos: pos}
}

// Propagate turns a host error into an EvalError tagged with pos. An
// EvalError that already carries a position is returned unchanged. A
// positionless EvalError wrapped by the host keeps its kind and the
// wrapping chain.
func Propagate(err error, pos Position) error {
	if err == nil {
		return nil
	}
	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		if !evalErr.Pos.IsNone() {
			return err
		}
		if err == evalErr {
			located := *evalErr
			located.Pos = pos
			return &located
		}
		// Keep the host's wrapping and report it in place of the inner error.
		return &EvalError{
			Kind:    evalErr.Kind,
			Message: strings.Replace(err.Error(), evalErr.Error(), evalErr.Message, 1),
			Pos:     pos,
			Err:     err,
		}
	}
	return &EvalError{Kind: ErrRuntime, Message: err.Error(), Pos: pos, Err: err}
}

// AssertArgCount panics when a dispatcher receives the wrong number of
// arguments. Signature matching upstream makes this unreachable.
func AssertArgCount(args []*Value, want int) {
	if len(args) != want {
		panic(fmt.Sprintf("wrong arg count: %d != %d", len(args), want))
	}
}
