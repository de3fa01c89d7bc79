// Package analyzer turns the unresolved tree into the resolved tree.
//
// Analysis runs scope by scope in declaration order. Struct and function
// declarations of a scope are registered before its first statement. Every
// expression gets its type when it is built and every name becomes an
// address. The first error stops the analysis.
package analyzer

import (
	"errors"

	"github.com/funvibe/floyd/internal/ast"
	"github.com/funvibe/floyd/internal/builtins"
	"github.com/funvibe/floyd/internal/config"
	"github.com/funvibe/floyd/internal/diagnostics"
	"github.com/funvibe/floyd/internal/symbols"
	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/typed"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

// Analyzer holds the state of one analysis. It is not reusable.
type Analyzer struct {
	reg       *typesystem.Registry
	global    *symbols.SymbolTable
	scope     *symbols.SymbolTable
	functions []*typed.FunctionDef

	// fn is the function whose body is being analyzed, nil at top level.
	fn *function

	structs      map[slotKey]*pendingStruct
	placeholders int
}

// function is the analysis context of one function body.
type function struct {
	def  *typed.FunctionDef
	ret  typesystem.TypeID
	pure bool
}

type slotKey struct {
	scope *symbols.SymbolTable
	slot  int
}

func New() *Analyzer {
	return &Analyzer{
		reg:     typesystem.NewRegistry(),
		global:  symbols.NewGlobalSymbolTable(),
		structs: make(map[slotKey]*pendingStruct),
	}
}

// Analyze resolves prog with a fresh Analyzer.
func Analyze(prog *ast.Program) (*typed.Program, error) {
	return New().Analyze(prog)
}

// Analyze resolves prog. Errors are *diagnostics.DiagnosticError values
// carrying prog.File.
func (a *Analyzer) Analyze(prog *ast.Program) (*typed.Program, error) {
	out, err := a.analyze(prog)
	if err != nil {
		var de *diagnostics.DiagnosticError
		if errors.As(err, &de) && de.File == "" {
			de.File = prog.File
		}
		return nil, err
	}
	return out, nil
}

func (a *Analyzer) analyze(prog *ast.Program) (*typed.Program, error) {
	if prog == nil {
		return nil, diagnostics.NewError(diagnostics.ErrS001, token.Synthetic(), "missing program")
	}
	a.scope = a.global
	a.declareHostFunctions()

	body, err := a.statements(prog.Statements)
	if err != nil {
		return nil, err
	}

	out := &typed.Program{
		File:      prog.File,
		Types:     a.reg,
		Globals:   typed.NewScope(a.global),
		Body:      body,
		Functions: a.functions,
	}
	if out.Entry, err = a.entry(); err != nil {
		return nil, err
	}
	if err := a.checkResolved(out); err != nil {
		return nil, err
	}
	return out, nil
}

// declareHostFunctions binds every host function as a global constant.
func (a *Analyzer) declareHostFunctions() {
	for _, h := range builtins.HostFunctions() {
		t := h.Type(a.reg)
		index := a.addFunction(&typed.FunctionDef{
			Location: token.Synthetic(),
			Name:     h.Name,
			Type:     t,
			Linkage:  h.Linkage,
		})
		// The global table holds only the builtin type names at this point.
		_, _ = a.global.Declare(h.Name, symbols.Symbol{
			Kind:     symbols.PrecomputedConstant,
			Type:     t,
			Value:    value.Function(t, value.FunctionRef{Index: index, Name: h.Name}),
			Location: token.Synthetic(),
		})
	}
}

func (a *Analyzer) addFunction(def *typed.FunctionDef) int {
	a.functions = append(a.functions, def)
	return len(a.functions) - 1
}

// Scopes

func (a *Analyzer) pushScope(kind symbols.ScopeType) {
	a.scope = symbols.NewEnclosedSymbolTable(a.scope, kind)
}

// popScope freezes the current scope and returns to its parent.
func (a *Analyzer) popScope() *typed.Scope {
	frozen := typed.NewScope(a.scope)
	a.scope = a.scope.Outer()
	return frozen
}

// localAddress addresses a slot of the current scope.
func (a *Analyzer) localAddress(slot int) symbols.Address {
	if a.scope.IsGlobalScope() {
		return symbols.Address{Distance: symbols.GlobalDistance, Slot: slot}
	}
	return symbols.Address{Distance: 0, Slot: slot}
}

// declare adds sym to the current scope, reporting R003 on duplicates.
func (a *Analyzer) declare(name string, sym symbols.Symbol) (int, error) {
	slot, err := a.scope.Declare(name, sym)
	if err != nil {
		return -1, diagnostics.NewError(diagnostics.ErrR003, sym.Location, name)
	}
	return slot, nil
}

// Errors

func (a *Analyzer) mismatch(loc token.Location, want, got typesystem.TypeID) error {
	return diagnostics.NewError(diagnostics.ErrT001, loc, a.reg.String(want), a.reg.String(got))
}

func (a *Analyzer) mismatchf(loc token.Location, want string, got typesystem.TypeID) error {
	return diagnostics.NewError(diagnostics.ErrT001, loc, want, a.reg.String(got))
}

func (a *Analyzer) badOperand(loc token.Location, op string, t typesystem.TypeID) error {
	return diagnostics.NewError(diagnostics.ErrT003, loc, op, a.reg.String(t))
}

// functionName describes the current function for purity errors.
func (a *Analyzer) functionName() string {
	if a.fn == nil {
		return "top level"
	}
	if a.fn.def.Name == "" {
		return "literal"
	}
	return a.fn.def.Name
}

// requireImpureAllowed reports T008 when the current function is pure.
func (a *Analyzer) requireImpureAllowed(loc token.Location, callee string) error {
	if a.fn != nil && a.fn.pure {
		return diagnostics.NewError(diagnostics.ErrT008, loc, a.functionName(), callee)
	}
	return nil
}

// Program entry

var (
	mainNoArgs = func(reg *typesystem.Registry) typesystem.TypeID {
		return reg.Function(typesystem.Int, nil, false)
	}
	mainArgs = func(reg *typesystem.Registry) typesystem.TypeID {
		return reg.Function(typesystem.Int, []typesystem.TypeID{reg.Vector(typesystem.String)}, false)
	}
)

// entry picks main, then a global named result, then nothing.
func (a *Analyzer) entry() (typed.Entry, error) {
	if sym, _, ok := a.global.Local(config.MainFuncName); ok && sym.Kind == symbols.PrecomputedConstant && sym.Value.Kind() == typesystem.KindFunction {
		d := a.reg.Get(sym.Type)
		impure := a.reg.Function(d.Return, d.Params, false)
		switch {
		case a.reg.Equal(impure, mainNoArgs(a.reg)):
			return typed.Entry{Kind: typed.EntryMain, Function: sym.Value.AsFunction().Index}, nil
		case a.reg.Equal(impure, mainArgs(a.reg)):
			return typed.Entry{Kind: typed.EntryMain, Function: sym.Value.AsFunction().Index, TakesArgs: true}, nil
		}
		return typed.Entry{}, a.mismatchf(sym.Location, "func int() or func int([string])", sym.Type)
	}
	if sym, slot, ok := a.global.Local(config.ResultBindName); ok && sym.Kind != symbols.TypeAlias {
		return typed.Entry{Kind: typed.EntryResult, Slot: slot}, nil
	}
	return typed.Entry{Kind: typed.EntryNone}, nil
}

// checkResolved rejects any type that still names an unbound placeholder.
func (a *Analyzer) checkResolved(p *typed.Program) error {
	var err error
	checkScope := func(s *typed.Scope) {
		for _, sym := range s.Symbols {
			if err == nil && sym.Kind != symbols.TypeAlias && !a.reg.IsResolved(sym.Type) {
				err = diagnostics.NewError(diagnostics.ErrT007, sym.Location, a.reg.String(sym.Type))
			}
		}
	}
	checkScope(p.Globals)
	typed.InspectProgram(p, func(n typed.Node) bool {
		if err != nil {
			return false
		}
		switch n := n.(type) {
		case typed.Expression:
			if !a.reg.IsResolved(n.Type()) {
				err = diagnostics.NewError(diagnostics.ErrT007, n.Loc(), a.reg.String(n.Type()))
			}
		case *typed.Block:
			checkScope(n.Scope)
		}
		return true
	})
	if err != nil {
		return err
	}
	for _, fn := range p.Functions {
		if !a.reg.IsResolved(fn.Type) {
			return diagnostics.NewError(diagnostics.ErrT007, fn.Location, a.reg.String(fn.Type))
		}
	}
	return nil
}
