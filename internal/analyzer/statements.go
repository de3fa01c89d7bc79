package analyzer

import (
	"fmt"

	"github.com/funvibe/floyd/internal/ast"
	"github.com/funvibe/floyd/internal/diagnostics"
	"github.com/funvibe/floyd/internal/symbols"
	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/typed"
	"github.com/funvibe/floyd/internal/typesystem"
)

// statements analyzes stmts in the current scope. Declarations are
// registered first and produce no statement of their own.
func (a *Analyzer) statements(stmts []ast.Statement) ([]typed.Statement, error) {
	if err := a.predeclare(stmts); err != nil {
		return nil, err
	}
	out := make([]typed.Statement, 0, len(stmts))
	for _, s := range stmts {
		ts, err := a.statement(s)
		if err != nil {
			return nil, err
		}
		if ts != nil {
			out = append(out, ts)
		}
	}
	return out, nil
}

func (a *Analyzer) statement(s ast.Statement) (typed.Statement, error) {
	switch s := s.(type) {
	case *ast.ReturnStatement:
		return a.returnStatement(s)
	case *ast.BindStatement:
		return a.bind(s)
	case *ast.AssignStatement:
		return a.assign(s)
	case *ast.BlockStatement:
		return a.block(s, symbols.ScopeBlock)
	case *ast.IfStatement:
		return a.ifStatement(s)
	case *ast.ForStatement:
		return a.forStatement(s)
	case *ast.WhileStatement:
		return a.whileStatement(s)
	case *ast.ExpressionStatement:
		e, err := a.expr(s.Expression, typesystem.Undefined)
		if err != nil {
			return nil, err
		}
		return &typed.ExprStmt{Location: s.Location, Expr: e}, nil
	case *ast.StructDeclaration:
		return nil, nil
	case *ast.FunctionDeclaration:
		_, slot, _ := a.scope.Local(s.Name)
		ref := a.scope.Get(slot).Value.AsFunction()
		return nil, a.functionBody(a.functions[ref.Index], s.Function)
	case nil:
		return nil, diagnostics.NewError(diagnostics.ErrS001, token.Synthetic(), "missing statement")
	}
	return nil, diagnostics.NewError(diagnostics.ErrS001, s.Loc(), fmt.Sprintf("unknown statement %T", s))
}

func (a *Analyzer) returnStatement(s *ast.ReturnStatement) (typed.Statement, error) {
	if a.fn == nil {
		return nil, diagnostics.NewError(diagnostics.ErrT006, s.Location, "return outside of a function")
	}
	if s.Value == nil {
		if a.fn.ret != typesystem.Void {
			return nil, a.mismatch(s.Location, a.fn.ret, typesystem.Void)
		}
		return &typed.Return{Location: s.Location}, nil
	}
	if a.fn.ret == typesystem.Void {
		return nil, diagnostics.NewError(diagnostics.ErrT006, s.Location, "void function cannot return a value")
	}
	e, err := a.typedExpr(s.Value, a.fn.ret)
	if err != nil {
		return nil, err
	}
	return &typed.Return{Location: s.Location, Value: e}, nil
}

// bind declares a local after its initializer is analyzed, so the
// initializer sees an outer binding of the same name.
func (a *Analyzer) bind(s *ast.BindStatement) (typed.Statement, error) {
	declared, err := a.resolveType(s.Type)
	if err != nil {
		return nil, err
	}

	var init typed.Expression
	switch {
	case s.Value != nil && declared != typesystem.Undefined:
		if init, err = a.typedExpr(s.Value, declared); err != nil {
			return nil, err
		}
	case s.Value != nil:
		if init, err = a.expr(s.Value, typesystem.Undefined); err != nil {
			return nil, err
		}
		declared = init.Type()
	case declared != typesystem.Undefined:
		if init, err = a.defaultValue(declared, s); err != nil {
			return nil, err
		}
	default:
		return nil, diagnostics.NewError(diagnostics.ErrS001, s.Location, "binding needs a type or a value")
	}
	if declared == typesystem.Void {
		return nil, a.mismatchf(s.Location, "a value", declared)
	}

	kind := symbols.ImmutableBinding
	if s.Mutable {
		kind = symbols.MutableBinding
	}
	slot, err := a.declare(s.Name, symbols.Symbol{Kind: kind, Type: declared, Location: s.Location})
	if err != nil {
		return nil, err
	}
	return &typed.Store{
		Location: s.Location,
		Name:     s.Name,
		Addr:     a.localAddress(slot),
		Value:    init,
		Init:     true,
	}, nil
}

// assign stores to a mutable binding. A name that resolves to nothing
// becomes an implicit immutable binding of the current scope.
func (a *Analyzer) assign(s *ast.AssignStatement) (typed.Statement, error) {
	res, ok := a.scope.Lookup(s.Name)
	if !ok {
		return a.bind(&ast.BindStatement{Location: s.Location, Name: s.Name, Value: s.Value})
	}
	if !res.Symbol.IsMutable() {
		return nil, diagnostics.NewError(diagnostics.ErrT002, s.Location, s.Name)
	}
	if res.CrossesFunction {
		return nil, diagnostics.NewError(diagnostics.ErrR005, s.Location, s.Name)
	}
	e, err := a.typedExpr(s.Value, res.Symbol.Type)
	if err != nil {
		return nil, err
	}
	return &typed.Store{Location: s.Location, Name: s.Name, Addr: res.Address, Value: e}, nil
}

// block analyzes b in a new scope of the given kind.
func (a *Analyzer) block(b *ast.BlockStatement, kind symbols.ScopeType) (*typed.Block, error) {
	if b == nil {
		return nil, diagnostics.NewError(diagnostics.ErrS001, token.Synthetic(), "missing block")
	}
	a.pushScope(kind)
	body, err := a.statements(b.Statements)
	scope := a.popScope()
	if err != nil {
		return nil, err
	}
	return &typed.Block{Location: b.Location, Scope: scope, Body: body}, nil
}

func (a *Analyzer) condition(e ast.Expression) (typed.Expression, error) {
	return a.typedExpr(e, typesystem.Bool)
}

func (a *Analyzer) ifStatement(s *ast.IfStatement) (typed.Statement, error) {
	cond, err := a.condition(s.Cond)
	if err != nil {
		return nil, err
	}
	then, err := a.block(s.Then, symbols.ScopeBlock)
	if err != nil {
		return nil, err
	}
	out := &typed.If{Location: s.Location, Cond: cond, Then: then}
	if s.Else != nil {
		if out.Else, err = a.block(s.Else, symbols.ScopeBlock); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// forStatement declares the iterator in slot 0 of the loop scope, ahead of
// the body's own declarations.
func (a *Analyzer) forStatement(s *ast.ForStatement) (typed.Statement, error) {
	start, err := a.typedExpr(s.Start, typesystem.Int)
	if err != nil {
		return nil, err
	}
	end, err := a.typedExpr(s.End, typesystem.Int)
	if err != nil {
		return nil, err
	}
	if s.Body == nil {
		return nil, diagnostics.NewError(diagnostics.ErrS001, s.Location, "for without a body")
	}

	a.pushScope(symbols.ScopeLoop)
	if _, err := a.declare(s.Iterator, symbols.Symbol{
		Kind:     symbols.ImmutableBinding,
		Type:     typesystem.Int,
		Location: s.Location,
	}); err != nil {
		a.popScope()
		return nil, err
	}
	body, err := a.statements(s.Body.Statements)
	scope := a.popScope()
	if err != nil {
		return nil, err
	}
	return &typed.For{
		Location: s.Location,
		Start:    start,
		End:      end,
		Closed:   s.Closed,
		Body:     &typed.Block{Location: s.Body.Location, Scope: scope, Body: body},
	}, nil
}

func (a *Analyzer) whileStatement(s *ast.WhileStatement) (typed.Statement, error) {
	cond, err := a.condition(s.Cond)
	if err != nil {
		return nil, err
	}
	body, err := a.block(s.Body, symbols.ScopeLoop)
	if err != nil {
		return nil, err
	}
	return &typed.While{Location: s.Location, Cond: cond, Body: body}, nil
}
