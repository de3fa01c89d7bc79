// Package typed defines the resolved tree.
//
// Every expression is built with its type, and every name is replaced by an
// address. Declarations do not appear as statements: they are the symbols of
// the scope that owns them.
package typed

import (
	"github.com/funvibe/floyd/internal/symbols"
	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/typesystem"
)

type Node interface {
	Loc() token.Location
}

type Expression interface {
	Node
	Type() typesystem.TypeID
	expressionNode()
}

type Statement interface {
	Node
	statementNode()
}

// Base carries the location and type shared by all expressions.
type Base struct {
	loc token.Location
	typ typesystem.TypeID
}

// At builds the Base of an expression of type typ.
func At(loc token.Location, typ typesystem.TypeID) Base {
	return Base{loc: loc, typ: typ}
}

func (b Base) Loc() token.Location     { return b.loc }
func (b Base) Type() typesystem.TypeID { return b.typ }

// Scope is the frozen layout of one lexical scope. Slot i holds Symbols[i].
type Scope struct {
	Kind    symbols.ScopeType
	Symbols []symbols.Symbol
}

// NewScope freezes a symbol table.
func NewScope(st *symbols.SymbolTable) *Scope {
	return &Scope{Kind: st.ScopeType(), Symbols: st.Symbols()}
}

func (s *Scope) Len() int { return len(s.Symbols) }

// FunctionDef is a user function with a body or a host function with a
// linkage name.
type FunctionDef struct {
	Location token.Location
	Name     string
	Type     typesystem.TypeID
	// ParamCount leading slots of Body.Scope are the parameters.
	ParamCount int
	Body       *Block
	Linkage    string
}

func (f *FunctionDef) IsHost() bool { return f.Body == nil }

// Params returns the parameter symbols.
func (f *FunctionDef) Params() []symbols.Symbol {
	if f.Body == nil {
		return nil
	}
	return f.Body.Scope.Symbols[:f.ParamCount]
}

// EntryKind says how the exit value of a run is produced.
type EntryKind int

const (
	EntryNone EntryKind = iota
	// EntryMain calls Functions[Entry.Function].
	EntryMain
	// EntryResult reads global slot Entry.Slot.
	EntryResult
)

type Entry struct {
	Kind     EntryKind
	Function int
	Slot     int
	// TakesArgs is set when main accepts the run arguments as [string].
	TakesArgs bool
}

type Program struct {
	File      string
	Types     *typesystem.Registry
	Globals   *Scope
	Body      []Statement
	Functions []*FunctionDef
	Entry     Entry
}
