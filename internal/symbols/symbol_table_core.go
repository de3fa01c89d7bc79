// Package symbols implements lexical scopes and name resolution.
//
// A SymbolTable is one scope: an ordered list of symbols whose positions are
// the slot indices the compiler and interpreter use. Tables chain outward to
// the global scope.
package symbols

import (
	"fmt"

	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

type SymbolKind int

type ScopeType int

const (
	ScopeGlobal ScopeType = iota
	ScopeFunction
	ScopeBlock
	ScopeLoop
)

func (s ScopeType) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeLoop:
		return "loop"
	}
	return "unknown"
}

const (
	ImmutableBinding SymbolKind = iota
	ImmutableParameter
	PrecomputedConstant
	MutableBinding
	TypeAlias
)

func (k SymbolKind) String() string {
	switch k {
	case ImmutableBinding:
		return "immutable binding"
	case ImmutableParameter:
		return "parameter"
	case PrecomputedConstant:
		return "constant"
	case MutableBinding:
		return "mutable binding"
	case TypeAlias:
		return "type alias"
	}
	return "unknown"
}

type Symbol struct {
	Name     string
	Kind     SymbolKind
	Type     typesystem.TypeID
	Value    value.Value // set for constants and type aliases
	Location token.Location
}

// IsMutable reports whether the symbol may be assigned after its binding.
func (s Symbol) IsMutable() bool {
	return s.Kind == MutableBinding
}

// HasValue reports whether the symbol's value is known before execution.
func (s Symbol) HasValue() bool {
	return (s.Kind == PrecomputedConstant || s.Kind == TypeAlias) && s.Value.IsValid()
}

// DenotedType returns the type a type alias or struct constant names.
func (s Symbol) DenotedType() (typesystem.TypeID, bool) {
	if !s.HasValue() || s.Value.Kind() != typesystem.KindTypeID {
		return typesystem.Undefined, false
	}
	return s.Value.AsTypeID(), true
}

// GlobalDistance addresses the global scope from any depth.
const GlobalDistance = -1

// Address is a resolved storage location: a scope distance and a slot index.
type Address struct {
	Distance int
	Slot     int
}

func (a Address) IsGlobal() bool { return a.Distance == GlobalDistance }

func (a Address) String() string {
	if a.IsGlobal() {
		return fmt.Sprintf("global:%d", a.Slot)
	}
	return fmt.Sprintf("%d:%d", a.Distance, a.Slot)
}

// DuplicateDeclarationError is returned when a scope already has the name.
type DuplicateDeclarationError struct {
	Name     string
	Previous token.Location
}

func (e *DuplicateDeclarationError) Error() string {
	return fmt.Sprintf("%q is already declared in this scope (at %s)", e.Name, e.Previous)
}
