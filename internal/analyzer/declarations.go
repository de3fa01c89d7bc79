package analyzer

import (
	"fmt"

	"github.com/funvibe/floyd/internal/ast"
	"github.com/funvibe/floyd/internal/diagnostics"
	"github.com/funvibe/floyd/internal/symbols"
	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/typed"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

type structState int

const (
	structPending structState = iota
	structResolving
	structDone
)

// pendingStruct is a struct declaration whose members are not resolved yet.
// A reference that arrives while the struct is resolving gets a placeholder
// that is bound once the members are known.
type pendingStruct struct {
	decl        *ast.StructDeclaration
	slot        int
	state       structState
	id          typesystem.TypeID
	placeholder string
}

// predeclare registers the structs and functions declared directly in stmts
// as constants of the current scope. Struct members and function signatures
// are resolved here; function bodies are analyzed at their statement.
func (a *Analyzer) predeclare(stmts []ast.Statement) error {
	var pending []*pendingStruct
	var funcs []*ast.FunctionDeclaration
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.StructDeclaration:
			slot, err := a.declare(s.Name, symbols.Symbol{
				Kind:     symbols.PrecomputedConstant,
				Type:     typesystem.Typeid,
				Location: s.Location,
			})
			if err != nil {
				return err
			}
			ps := &pendingStruct{decl: s, slot: slot}
			a.structs[slotKey{a.scope, slot}] = ps
			pending = append(pending, ps)
		case *ast.FunctionDeclaration:
			if _, err := a.declare(s.Name, symbols.Symbol{
				Kind:     symbols.PrecomputedConstant,
				Location: s.Location,
			}); err != nil {
				return err
			}
			funcs = append(funcs, s)
		}
	}

	for _, ps := range pending {
		if _, err := a.resolveStruct(ps); err != nil {
			return err
		}
	}
	for _, ps := range pending {
		if a.containsItself(ps.id) {
			return diagnostics.NewError(diagnostics.ErrT007, ps.decl.Location,
				fmt.Sprintf("%s (struct contains itself)", ps.decl.Name))
		}
	}

	for _, fd := range funcs {
		if fd.Function == nil {
			return diagnostics.NewError(diagnostics.ErrS001, fd.Location, "function declaration without a function")
		}
		t, err := a.signature(fd.Function)
		if err != nil {
			return err
		}
		index := a.addFunction(&typed.FunctionDef{Location: fd.Location, Name: fd.Name, Type: t})
		_, slot, _ := a.scope.Local(fd.Name)
		a.scope.Update(slot, symbols.Symbol{
			Kind:     symbols.PrecomputedConstant,
			Type:     t,
			Value:    value.Function(t, value.FunctionRef{Index: index, Name: fd.Name}),
			Location: fd.Location,
		})
	}
	return nil
}

// resolveStruct interns the struct type of ps. Members are resolved in the
// scope of the declaration.
func (a *Analyzer) resolveStruct(ps *pendingStruct) (typesystem.TypeID, error) {
	switch ps.state {
	case structDone:
		return ps.id, nil
	case structResolving:
		if ps.placeholder == "" {
			a.placeholders++
			ps.placeholder = fmt.Sprintf("%s#%d", ps.decl.Name, a.placeholders)
		}
		return a.reg.Unresolved(ps.placeholder), nil
	}

	ps.state = structResolving
	members, err := a.members(ps.decl.Members)
	if err != nil {
		return typesystem.Undefined, err
	}
	ps.id = a.reg.Struct(members)
	if ps.placeholder != "" {
		a.reg.BindName(ps.placeholder, ps.id)
	}
	ps.state = structDone

	sym := a.scope.Get(ps.slot)
	sym.Value = value.TypeValue(ps.id)
	a.scope.Update(ps.slot, sym)
	return ps.id, nil
}

func (a *Analyzer) members(list []ast.StructMember) ([]typesystem.Member, error) {
	seen := make(map[string]bool, len(list))
	members := make([]typesystem.Member, len(list))
	for i, m := range list {
		if seen[m.Name] {
			return nil, diagnostics.NewError(diagnostics.ErrR003, m.Location, m.Name)
		}
		seen[m.Name] = true
		t, err := a.valueType(m.Type, m.Location)
		if err != nil {
			return nil, err
		}
		members[i] = typesystem.Member{Name: m.Name, Type: t}
	}
	return members, nil
}

// containsItself reports a struct that reaches itself through struct
// members alone. Such a struct has no finite default value.
func (a *Analyzer) containsItself(id typesystem.TypeID) bool {
	visiting := make(map[typesystem.TypeID]bool)
	var walk func(t typesystem.TypeID) bool
	walk = func(t typesystem.TypeID) bool {
		t = a.reg.Canonical(t)
		d := a.reg.Get(t)
		if d.Kind != typesystem.KindStruct {
			return false
		}
		if t == id && len(visiting) > 0 {
			return true
		}
		if visiting[t] {
			return false
		}
		visiting[t] = true
		for _, m := range d.Members {
			if walk(m.Type) {
				return true
			}
		}
		return false
	}
	return walk(id)
}

// resolveType turns a source type into a TypeID. A nil type is Undefined.
func (a *Analyzer) resolveType(t ast.TypeExpr) (typesystem.TypeID, error) {
	switch t := t.(type) {
	case nil:
		return typesystem.Undefined, nil
	case *ast.NamedType:
		res, ok := a.scope.Lookup(t.Name)
		if !ok {
			return typesystem.Undefined, diagnostics.NewError(diagnostics.ErrR004, t.Location, t.Name)
		}
		if ps, ok := a.structs[slotKey{res.Scope, res.Address.Slot}]; ok && ps.state != structDone {
			return a.resolveStruct(ps)
		}
		if denoted, ok := res.Symbol.DenotedType(); ok {
			return denoted, nil
		}
		return typesystem.Undefined, diagnostics.NewError(diagnostics.ErrR004, t.Location, t.Name)
	case *ast.VectorType:
		elem, err := a.valueType(t.Elem, t.Location)
		if err != nil {
			return typesystem.Undefined, err
		}
		return a.reg.Vector(elem), nil
	case *ast.DictType:
		elem, err := a.valueType(t.Elem, t.Location)
		if err != nil {
			return typesystem.Undefined, err
		}
		return a.reg.Dict(elem), nil
	case *ast.FunctionType:
		ret, err := a.resolveType(t.Return)
		if err != nil {
			return typesystem.Undefined, err
		}
		if ret == typesystem.Undefined {
			return typesystem.Undefined, diagnostics.NewError(diagnostics.ErrS001, t.Location, "function type without a return type")
		}
		params := make([]typesystem.TypeID, len(t.Params))
		for i, p := range t.Params {
			if params[i], err = a.valueType(p, t.Location); err != nil {
				return typesystem.Undefined, err
			}
		}
		return a.reg.Function(ret, params, t.Pure), nil
	}
	return typesystem.Undefined, diagnostics.NewError(diagnostics.ErrS001, t.Loc(), fmt.Sprintf("unknown type expression %T", t))
}

// valueType resolves a type that must be present and not void.
func (a *Analyzer) valueType(t ast.TypeExpr, loc token.Location) (typesystem.TypeID, error) {
	if t == nil {
		return typesystem.Undefined, diagnostics.NewError(diagnostics.ErrS001, loc, "missing type")
	}
	id, err := a.resolveType(t)
	if err != nil {
		return typesystem.Undefined, err
	}
	if id == typesystem.Void {
		return typesystem.Undefined, a.mismatchf(t.Loc(), "a value type", id)
	}
	return id, nil
}

// signature interns the function type of lit.
func (a *Analyzer) signature(lit *ast.FunctionLiteral) (typesystem.TypeID, error) {
	ret, err := a.resolveType(lit.Return)
	if err != nil {
		return typesystem.Undefined, err
	}
	if ret == typesystem.Undefined {
		return typesystem.Undefined, diagnostics.NewError(diagnostics.ErrS001, lit.Location, "function without a return type")
	}
	params := make([]typesystem.TypeID, len(lit.Params))
	for i, p := range lit.Params {
		if params[i], err = a.valueType(p.Type, p.Location); err != nil {
			return typesystem.Undefined, err
		}
	}
	return a.reg.Function(ret, params, lit.Pure), nil
}

// functionBody analyzes the body of def in a fresh function scope that
// encloses the current one. Loads from that chain are limited to constants.
func (a *Analyzer) functionBody(def *typed.FunctionDef, lit *ast.FunctionLiteral) error {
	if lit.Body == nil {
		return diagnostics.NewError(diagnostics.ErrS001, lit.Location, "function without a body")
	}
	d := a.reg.Get(def.Type)

	savedScope, savedFn := a.scope, a.fn
	defer func() {
		a.scope, a.fn = savedScope, savedFn
	}()
	a.pushScope(symbols.ScopeFunction)
	a.fn = &function{def: def, ret: d.Return, pure: d.Pure}

	for i, p := range lit.Params {
		if _, err := a.declare(p.Name, symbols.Symbol{
			Kind:     symbols.ImmutableParameter,
			Type:     d.Params[i],
			Location: p.Location,
		}); err != nil {
			return err
		}
	}
	body, err := a.statements(lit.Body.Statements)
	if err != nil {
		return err
	}
	scope := typed.NewScope(a.scope)

	if d.Return != typesystem.Void && !returns(body) {
		name := def.Name
		if name == "" {
			name = "function literal"
		}
		return diagnostics.NewError(diagnostics.ErrT006, lit.Location,
			fmt.Sprintf("%s does not return a value on every path", name))
	}
	def.ParamCount = len(lit.Params)
	def.Body = &typed.Block{Location: lit.Body.Location, Scope: scope, Body: body}
	return nil
}

// functionLiteral analyzes an anonymous function and returns its value.
func (a *Analyzer) functionLiteral(lit *ast.FunctionLiteral) (typed.Expression, error) {
	t, err := a.signature(lit)
	if err != nil {
		return nil, err
	}
	def := &typed.FunctionDef{Location: lit.Location, Type: t}
	index := a.addFunction(def)
	if err := a.functionBody(def, lit); err != nil {
		return nil, err
	}
	return &typed.FunctionValue{Base: typed.At(lit.Location, t), Function: index}, nil
}

// structType analyzes a struct type used as a value.
func (a *Analyzer) structType(e *ast.StructTypeExpression) (typed.Expression, error) {
	members, err := a.members(e.Members)
	if err != nil {
		return nil, err
	}
	id := a.reg.Struct(members)
	return &typed.TypeValue{Base: typed.At(e.Location, typesystem.Typeid), Denoted: id}, nil
}

// returns reports whether every path through body ends in a return.
func returns(body []typed.Statement) bool {
	for _, s := range body {
		switch s := s.(type) {
		case *typed.Return:
			return true
		case *typed.Block:
			if returns(s.Body) {
				return true
			}
		case *typed.If:
			if s.Else != nil && returns(s.Then.Body) && returns(s.Else.Body) {
				return true
			}
		}
	}
	return false
}
