// Package diagnostics defines the compile-time error channel.
package diagnostics

import (
	"errors"
	"fmt"

	"github.com/funvibe/floyd/internal/token"
)

type ErrorCode string

const (
	// Structural
	ErrS001 ErrorCode = "S001" // malformed tree

	// Resolution
	ErrR001 ErrorCode = "R001" // undefined name
	ErrR002 ErrorCode = "R002" // unknown member
	ErrR003 ErrorCode = "R003" // duplicate declaration
	ErrR004 ErrorCode = "R004" // unknown type
	ErrR005 ErrorCode = "R005" // captured local

	// Types
	ErrT001 ErrorCode = "T001" // type mismatch
	ErrT002 ErrorCode = "T002" // assignment to immutable
	ErrT003 ErrorCode = "T003" // bad operand
	ErrT004 ErrorCode = "T004" // argument count
	ErrT005 ErrorCode = "T005" // not callable
	ErrT006 ErrorCode = "T006" // control flow
	ErrT007 ErrorCode = "T007" // unresolved type
	ErrT008 ErrorCode = "T008" // purity

	// Compiler defects
	ErrC001 ErrorCode = "C001"
)

var messages = map[ErrorCode]string{
	ErrS001: "malformed tree: %s",
	ErrR001: "undefined name: %s",
	ErrR002: "unknown member %s in %s",
	ErrR003: "%s is already declared in this scope",
	ErrR004: "unknown type: %s",
	ErrR005: "function cannot capture local %s",
	ErrT001: "type mismatch: expected %s, got %s",
	ErrT002: "cannot assign to immutable %s",
	ErrT003: "operator %s not defined for %s",
	ErrT004: "%s expects %d arguments, got %d",
	ErrT005: "cannot call value of type %s",
	ErrT006: "%s",
	ErrT007: "unresolved type %s",
	ErrT008: "pure function %s cannot call impure %s",
	ErrC001: "internal compiler error: %s",
}

// Category groups codes by the stage that reports them.
type Category int

const (
	CategoryStructural Category = iota
	CategoryResolution
	CategoryType
	CategoryInternal
)

func (c Category) String() string {
	switch c {
	case CategoryStructural:
		return "structural"
	case CategoryResolution:
		return "resolution"
	case CategoryType:
		return "type"
	default:
		return "internal"
	}
}

// DiagnosticError is a fatal compile-time error tied to a source offset.
type DiagnosticError struct {
	Code     ErrorCode
	Location token.Location
	File     string
	Message  string
}

// NewError formats the message registered for code with args.
func NewError(code ErrorCode, loc token.Location, args ...any) *DiagnosticError {
	format, ok := messages[code]
	if !ok {
		format = string(code)
	}
	return &DiagnosticError{
		Code:     code,
		Location: loc,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (e *DiagnosticError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Code, e.Location, e.Message)
}

func (e *DiagnosticError) Loc() token.Location {
	return e.Location
}

func (e *DiagnosticError) Category() Category {
	switch e.Code[0] {
	case 'S':
		return CategoryStructural
	case 'R':
		return CategoryResolution
	case 'T':
		return CategoryType
	default:
		return CategoryInternal
	}
}

// Located is implemented by every error that knows where it happened,
// compile-time and runtime alike.
type Located interface {
	error
	Loc() token.Location
}

// CodeOf returns the diagnostic code carried by err, or "" when err is not a
// diagnostic.
func CodeOf(err error) ErrorCode {
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
