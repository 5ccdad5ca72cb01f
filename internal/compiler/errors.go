package compiler

import (
	"fmt"
	"go/token"
)

// CompileError represents a generation failure with source position.
// The first CompileError aborts the whole block.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Position
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename, e.Pos.Line, e.Pos.Column,
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func errorAt(pos token.Position, field, format string, args ...any) *CompileError {
	return &CompileError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	}
}
