package analyzer

import (
	"fmt"

	"github.com/funvibe/floyd/internal/ast"
	"github.com/funvibe/floyd/internal/config"
	"github.com/funvibe/floyd/internal/diagnostics"
	"github.com/funvibe/floyd/internal/symbols"
	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/typed"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

// expr analyzes e. expected is Undefined or the type the context wants; it
// only guides element types of constructors and is not enforced here.
func (a *Analyzer) expr(e ast.Expression, expected typesystem.TypeID) (typed.Expression, error) {
	switch e := e.(type) {
	case *ast.BoolLiteral:
		return literal(e.Location, value.Bool(e.Value)), nil
	case *ast.IntegerLiteral:
		return literal(e.Location, value.Int(e.Value)), nil
	case *ast.DoubleLiteral:
		return literal(e.Location, value.Double(e.Value)), nil
	case *ast.StringLiteral:
		return literal(e.Location, value.String(e.Value)), nil
	case *ast.ArithmeticExpression:
		return a.arithmetic(e, expected)
	case *ast.ComparisonExpression:
		return a.comparison(e)
	case *ast.UnaryExpression:
		return a.unary(e)
	case *ast.ConditionalExpression:
		return a.conditional(e, expected)
	case *ast.CallExpression:
		return a.call(e, expected)
	case *ast.StructTypeExpression:
		return a.structType(e)
	case *ast.FunctionLiteral:
		return a.functionLiteral(e)
	case *ast.Identifier:
		return a.identifier(e)
	case *ast.MemberExpression:
		return a.member(e)
	case *ast.IndexExpression:
		return a.index(e)
	case *ast.VectorLiteral:
		return a.vector(e, expected)
	case *ast.DictLiteral:
		return a.dict(e, expected)
	case nil:
		return nil, diagnostics.NewError(diagnostics.ErrS001, token.Synthetic(), "missing expression")
	}
	return nil, diagnostics.NewError(diagnostics.ErrS001, e.Loc(), fmt.Sprintf("unknown expression %T", e))
}

// typedExpr analyzes e and converts it to want.
func (a *Analyzer) typedExpr(e ast.Expression, want typesystem.TypeID) (typed.Expression, error) {
	te, err := a.expr(e, want)
	if err != nil {
		return nil, err
	}
	return a.coerce(te, want)
}

// coerce returns e when it has type want. A json-compatible value where
// json is wanted is wrapped in an explicit to_json call.
func (a *Analyzer) coerce(e typed.Expression, want typesystem.TypeID) (typed.Expression, error) {
	if a.reg.Equal(e.Type(), want) {
		return e, nil
	}
	if converted, ok := a.toJSON(e, want); ok {
		return converted, nil
	}
	return nil, a.mismatch(e.Loc(), want, e.Type())
}

// toJSON wraps e when want is json and e converts to it.
func (a *Analyzer) toJSON(e typed.Expression, want typesystem.TypeID) (typed.Expression, bool) {
	if want != typesystem.JSON || !value.IsJSONCompatible(a.reg, e.Type()) {
		return e, false
	}
	return &typed.IntrinsicCall{
		Base: typed.At(e.Loc(), typesystem.JSON),
		Name: config.ToJSONFuncName,
		Args: []typed.Expression{e},
	}, true
}

func literal(loc token.Location, v value.Value) *typed.Literal {
	return &typed.Literal{Base: typed.At(loc, v.Type()), Value: v}
}

// defaultValue builds the explicit initializer of a binding without one.
func (a *Analyzer) defaultValue(t typesystem.TypeID, n ast.Node) (typed.Expression, error) {
	loc := n.Loc()
	t = a.reg.Canonical(t)
	d := a.reg.Get(t)
	switch d.Kind {
	case typesystem.KindTypeID:
		return &typed.TypeValue{Base: typed.At(loc, t), Denoted: typesystem.Void}, nil
	case typesystem.KindVector:
		return &typed.Construct{Base: typed.At(loc, t), Kind: typed.ConstructVector}, nil
	case typesystem.KindDict:
		return &typed.Construct{Base: typed.At(loc, t), Kind: typed.ConstructDict}, nil
	case typesystem.KindStruct:
		elems := make([]typed.Expression, len(d.Members))
		for i, m := range d.Members {
			e, err := a.defaultValue(m.Type, n)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return &typed.Construct{Base: typed.At(loc, t), Kind: typed.ConstructStruct, Elements: elems}, nil
	case typesystem.KindBool, typesystem.KindInt, typesystem.KindDouble, typesystem.KindString, typesystem.KindJSON:
		return literal(loc, value.Default(a.reg, t)), nil
	}
	return nil, a.mismatchf(loc, "an initializer for", t)
}

func (a *Analyzer) arithmetic(e *ast.ArithmeticExpression, expected typesystem.TypeID) (typed.Expression, error) {
	if e.Operator == ast.OpAnd || e.Operator == ast.OpOr {
		l, err := a.typedExpr(e.Left, typesystem.Bool)
		if err != nil {
			return nil, err
		}
		r, err := a.typedExpr(e.Right, typesystem.Bool)
		if err != nil {
			return nil, err
		}
		return &typed.Arithmetic{Base: typed.At(e.Location, typesystem.Bool), Operator: e.Operator, Left: l, Right: r}, nil
	}
	if !e.Operator.IsArithmetic() {
		return nil, diagnostics.NewError(diagnostics.ErrS001, e.Location, fmt.Sprintf("unknown arithmetic operator %q", e.Operator))
	}

	hint := expected
	if hint == typesystem.JSON {
		hint = typesystem.Undefined
	}
	l, err := a.expr(e.Left, hint)
	if err != nil {
		return nil, err
	}
	t := l.Type()
	if !a.arithmeticDefined(e.Operator, t) {
		return nil, a.badOperand(e.Location, string(e.Operator), t)
	}
	r, err := a.typedExpr(e.Right, t)
	if err != nil {
		return nil, err
	}
	return &typed.Arithmetic{Base: typed.At(e.Location, t), Operator: e.Operator, Left: l, Right: r}, nil
}

// arithmeticDefined reports whether op applies to operands of type t.
func (a *Analyzer) arithmeticDefined(op ast.Operator, t typesystem.TypeID) bool {
	switch a.reg.Kind(t) {
	case typesystem.KindInt, typesystem.KindDouble:
		return true
	case typesystem.KindString, typesystem.KindVector:
		return op == ast.OpAdd
	}
	return false
}

func (a *Analyzer) comparison(e *ast.ComparisonExpression) (typed.Expression, error) {
	if !e.Operator.IsComparison() {
		return nil, diagnostics.NewError(diagnostics.ErrS001, e.Location, fmt.Sprintf("unknown comparison operator %q", e.Operator))
	}
	l, err := a.expr(e.Left, typesystem.Undefined)
	if err != nil {
		return nil, err
	}
	t := l.Type()
	switch a.reg.Kind(t) {
	case typesystem.KindVoid:
		return nil, a.badOperand(e.Location, string(e.Operator), t)
	case typesystem.KindFunction:
		if e.Operator != ast.OpEq && e.Operator != ast.OpNe {
			return nil, a.badOperand(e.Location, string(e.Operator), t)
		}
	}
	r, err := a.typedExpr(e.Right, t)
	if err != nil {
		return nil, err
	}
	return &typed.Comparison{Base: typed.At(e.Location, typesystem.Bool), Operator: e.Operator, Left: l, Right: r}, nil
}

func (a *Analyzer) unary(e *ast.UnaryExpression) (typed.Expression, error) {
	operand, err := a.expr(e.Operand, typesystem.Undefined)
	if err != nil {
		return nil, err
	}
	t := operand.Type()
	switch e.Operator {
	case ast.OpNeg:
		if k := a.reg.Kind(t); k != typesystem.KindInt && k != typesystem.KindDouble {
			return nil, a.badOperand(e.Location, string(e.Operator), t)
		}
	case ast.OpNot:
		if t != typesystem.Bool {
			return nil, a.badOperand(e.Location, string(e.Operator), t)
		}
	default:
		return nil, diagnostics.NewError(diagnostics.ErrS001, e.Location, fmt.Sprintf("unknown unary operator %q", e.Operator))
	}
	return &typed.Unary{Base: typed.At(e.Location, t), Operator: e.Operator, Operand: operand}, nil
}

func (a *Analyzer) conditional(e *ast.ConditionalExpression, expected typesystem.TypeID) (typed.Expression, error) {
	cond, err := a.condition(e.Cond)
	if err != nil {
		return nil, err
	}
	then, err := a.expr(e.Then, expected)
	if err != nil {
		return nil, err
	}
	if converted, ok := a.toJSON(then, expected); ok {
		then = converted
	}
	t := then.Type()
	if t == typesystem.Void {
		return nil, a.mismatchf(e.Location, "a value", t)
	}
	els, err := a.typedExpr(e.Else, t)
	if err != nil {
		return nil, err
	}
	return &typed.Conditional{Base: typed.At(e.Location, t), Cond: cond, Then: then, Else: els}, nil
}

// identifier resolves a load. Constants are inlined; any other symbol of
// an enclosing function is out of reach.
func (a *Analyzer) identifier(e *ast.Identifier) (typed.Expression, error) {
	res, ok := a.scope.Lookup(e.Name)
	if !ok {
		return nil, diagnostics.NewError(diagnostics.ErrR001, e.Location, e.Name)
	}
	sym := res.Symbol
	if sym.HasValue() {
		return constant(e.Location, sym), nil
	}
	if res.CrossesFunction {
		return nil, diagnostics.NewError(diagnostics.ErrR005, e.Location, e.Name)
	}
	if sym.Kind == symbols.PrecomputedConstant {
		// Declared in this scope but not computed yet.
		return nil, diagnostics.NewError(diagnostics.ErrR001, e.Location, e.Name)
	}
	return &typed.Load{Base: typed.At(e.Location, sym.Type), Name: e.Name, Addr: res.Address}, nil
}

// constant turns a precomputed symbol into an expression.
func constant(loc token.Location, sym symbols.Symbol) typed.Expression {
	v := sym.Value
	switch v.Kind() {
	case typesystem.KindTypeID:
		return &typed.TypeValue{Base: typed.At(loc, typesystem.Typeid), Denoted: v.AsTypeID()}
	case typesystem.KindFunction:
		return &typed.FunctionValue{Base: typed.At(loc, sym.Type), Function: v.AsFunction().Index}
	}
	return literal(loc, v)
}

func (a *Analyzer) member(e *ast.MemberExpression) (typed.Expression, error) {
	parent, err := a.expr(e.Parent, typesystem.Undefined)
	if err != nil {
		return nil, err
	}
	index, t, err := a.memberOf(parent, e.Member, e.Location)
	if err != nil {
		return nil, err
	}
	return &typed.Member{Base: typed.At(e.Location, t), Parent: parent, Name: e.Member, Index: index}, nil
}

// memberOf finds member name of parent's struct type.
func (a *Analyzer) memberOf(parent typed.Expression, name string, loc token.Location) (int, typesystem.TypeID, error) {
	pt := parent.Type()
	d := a.reg.Get(a.reg.Canonical(pt))
	if d.Kind != typesystem.KindStruct {
		return -1, typesystem.Undefined, a.badOperand(loc, ".", pt)
	}
	index, ok := a.reg.MemberIndex(pt, name)
	if !ok {
		return -1, typesystem.Undefined, diagnostics.NewError(diagnostics.ErrR002, loc, name, a.reg.String(pt))
	}
	return index, a.reg.Canonical(d.Members[index].Type), nil
}

func (a *Analyzer) index(e *ast.IndexExpression) (typed.Expression, error) {
	parent, err := a.expr(e.Parent, typesystem.Undefined)
	if err != nil {
		return nil, err
	}
	pt := parent.Type()
	d := a.reg.Get(pt)

	var key typed.Expression
	var result typesystem.TypeID
	switch d.Kind {
	case typesystem.KindVector:
		key, err = a.typedExpr(e.Key, typesystem.Int)
		result = a.reg.Canonical(d.Elem)
	case typesystem.KindDict:
		key, err = a.typedExpr(e.Key, typesystem.String)
		result = a.reg.Canonical(d.Elem)
	case typesystem.KindString:
		key, err = a.typedExpr(e.Key, typesystem.Int)
		result = typesystem.Int
	case typesystem.KindJSON:
		if key, err = a.expr(e.Key, typesystem.Undefined); err == nil {
			if kt := key.Type(); kt != typesystem.Int && kt != typesystem.String {
				err = a.mismatchf(key.Loc(), "int or string", kt)
			}
		}
		result = typesystem.JSON
	default:
		return nil, a.badOperand(e.Location, "[]", pt)
	}
	if err != nil {
		return nil, err
	}
	return &typed.Index{Base: typed.At(e.Location, result), Parent: parent, Key: key}, nil
}

// elementType picks the element type of a constructor: the explicit one,
// then the one the context expects, then the type of the first element.
func (a *Analyzer) elementType(explicit ast.TypeExpr, expected typesystem.TypeID, kind typesystem.Kind, first ast.Expression, loc token.Location) (typesystem.TypeID, typed.Expression, error) {
	if explicit != nil {
		t, err := a.valueType(explicit, loc)
		return t, nil, err
	}
	if expected == typesystem.JSON {
		return typesystem.JSON, nil, nil
	}
	if d := a.reg.Get(expected); d.Kind == kind {
		return a.reg.Canonical(d.Elem), nil, nil
	}
	if first == nil {
		return typesystem.Undefined, nil, a.mismatchf(loc, "an element type for the empty "+kind.String(), expected)
	}
	e, err := a.expr(first, typesystem.Undefined)
	if err != nil {
		return typesystem.Undefined, nil, err
	}
	if e.Type() == typesystem.Void {
		return typesystem.Undefined, nil, a.mismatchf(e.Loc(), "a value", e.Type())
	}
	return e.Type(), e, nil
}

func (a *Analyzer) vector(e *ast.VectorLiteral, expected typesystem.TypeID) (typed.Expression, error) {
	var first ast.Expression
	if len(e.Elements) > 0 {
		first = e.Elements[0]
	}
	elem, done, err := a.elementType(e.ElemType, expected, typesystem.KindVector, first, e.Location)
	if err != nil {
		return nil, err
	}
	elems := make([]typed.Expression, len(e.Elements))
	for i, x := range e.Elements {
		if i == 0 && done != nil {
			elems[0] = done
			continue
		}
		if elems[i], err = a.typedExpr(x, elem); err != nil {
			return nil, err
		}
	}
	return &typed.Construct{Base: typed.At(e.Location, a.reg.Vector(elem)), Kind: typed.ConstructVector, Elements: elems}, nil
}

func (a *Analyzer) dict(e *ast.DictLiteral, expected typesystem.TypeID) (typed.Expression, error) {
	var first ast.Expression
	if len(e.Entries) > 0 {
		first = e.Entries[0].Value
	}
	elem, done, err := a.elementType(e.ElemType, expected, typesystem.KindDict, first, e.Location)
	if err != nil {
		return nil, err
	}
	keys := make([]typed.Expression, len(e.Entries))
	elems := make([]typed.Expression, len(e.Entries))
	for i, entry := range e.Entries {
		if keys[i], err = a.typedExpr(entry.Key, typesystem.String); err != nil {
			return nil, err
		}
		if i == 0 && done != nil {
			elems[0] = done
			continue
		}
		if elems[i], err = a.typedExpr(entry.Value, elem); err != nil {
			return nil, err
		}
	}
	return &typed.Construct{Base: typed.At(e.Location, a.reg.Dict(elem)), Kind: typed.ConstructDict, Keys: keys, Elements: elems}, nil
}
