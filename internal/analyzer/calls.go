package analyzer

import (
	"errors"

	"github.com/funvibe/floyd/internal/ast"
	"github.com/funvibe/floyd/internal/builtins"
	"github.com/funvibe/floyd/internal/config"
	"github.com/funvibe/floyd/internal/diagnostics"
	"github.com/funvibe/floyd/internal/typed"
	"github.com/funvibe/floyd/internal/typesystem"
)

// call analyzes a call. A bare name that resolves to no symbol may name an
// intrinsic; a type value with a struct type constructs the struct.
func (a *Analyzer) call(e *ast.CallExpression, expected typesystem.TypeID) (typed.Expression, error) {
	calleeName := "function"
	if id, ok := e.Callee.(*ast.Identifier); ok {
		calleeName = id.Name
		if _, found := a.scope.Lookup(id.Name); !found {
			if in, ok := builtins.LookupIntrinsic(id.Name); ok {
				return a.intrinsic(in, e, expected)
			}
		}
	}

	callee, err := a.expr(e.Callee, typesystem.Undefined)
	if err != nil {
		return nil, err
	}
	if tv, ok := callee.(*typed.TypeValue); ok {
		return a.construct(e, tv, calleeName)
	}

	ct := callee.Type()
	d := a.reg.Get(a.reg.Canonical(ct))
	if d.Kind != typesystem.KindFunction {
		return nil, diagnostics.NewError(diagnostics.ErrT005, e.Location, a.reg.String(ct))
	}
	if len(e.Args) != len(d.Params) {
		return nil, diagnostics.NewError(diagnostics.ErrT004, e.Location, calleeName, len(d.Params), len(e.Args))
	}
	if !d.Pure {
		if err := a.requireImpureAllowed(e.Location, calleeName); err != nil {
			return nil, err
		}
	}
	args := make([]typed.Expression, len(e.Args))
	for i, arg := range e.Args {
		if args[i], err = a.typedExpr(arg, a.reg.Canonical(d.Params[i])); err != nil {
			return nil, err
		}
	}
	return &typed.Call{Base: typed.At(e.Location, a.reg.Canonical(d.Return)), Callee: callee, Args: args}, nil
}

// construct builds a struct from one argument per member.
func (a *Analyzer) construct(e *ast.CallExpression, tv *typed.TypeValue, name string) (typed.Expression, error) {
	t := a.reg.Canonical(tv.Denoted)
	d := a.reg.Get(t)
	if d.Kind != typesystem.KindStruct {
		return nil, diagnostics.NewError(diagnostics.ErrT005, e.Location, a.reg.String(t))
	}
	if len(e.Args) != len(d.Members) {
		return nil, diagnostics.NewError(diagnostics.ErrT004, e.Location, name, len(d.Members), len(e.Args))
	}
	elems := make([]typed.Expression, len(e.Args))
	for i, arg := range e.Args {
		var err error
		if elems[i], err = a.typedExpr(arg, a.reg.Canonical(d.Members[i].Type)); err != nil {
			return nil, err
		}
	}
	return &typed.Construct{Base: typed.At(e.Location, t), Kind: typed.ConstructStruct, Elements: elems}, nil
}

// intrinsic checks a call to a generic builtin against its type rule.
func (a *Analyzer) intrinsic(in *builtins.Intrinsic, e *ast.CallExpression, expected typesystem.TypeID) (typed.Expression, error) {
	if len(e.Args) != in.Arity {
		return nil, diagnostics.NewError(diagnostics.ErrT004, e.Location, in.Name, in.Arity, len(e.Args))
	}
	if !in.Pure {
		if err := a.requireImpureAllowed(e.Location, in.Name); err != nil {
			return nil, err
		}
	}

	args := make([]typed.Expression, len(e.Args))
	types := make([]typesystem.TypeID, len(e.Args))
	for i, arg := range e.Args {
		var err error
		if fixed := in.ParamType(i); fixed != typesystem.Undefined {
			args[i], err = a.typedExpr(arg, fixed)
		} else {
			hint := a.argumentHint(in, i, args, expected)
			if args[i], err = a.expr(arg, hint); err == nil {
				if converted, ok := a.toJSON(args[i], hint); ok {
					args[i] = converted
				}
			}
		}
		if err != nil {
			return nil, err
		}
		types[i] = args[i].Type()

		if i == 0 && in.Name == config.UpdateFuncName && a.reg.Kind(types[0]) == typesystem.KindStruct {
			return a.memberUpdate(e, args[0])
		}
	}

	result, err := in.Check(a.reg, types)
	if err != nil {
		var ce *builtins.CheckError
		if errors.As(err, &ce) {
			return nil, a.mismatchf(args[ce.Arg].Loc(), ce.Expected, ce.Got)
		}
		return nil, diagnostics.NewError(diagnostics.ErrT001, e.Location, in.Name, err.Error())
	}
	if i, ok := in.CallbackArg(); ok && !a.reg.Get(types[i]).Pure {
		if err := a.requireImpureAllowed(e.Location, "function passed to "+in.Name); err != nil {
			return nil, err
		}
	}
	return &typed.IntrinsicCall{Base: typed.At(e.Location, result), Name: in.Name, Args: args}, nil
}

// argumentHint is the type a generic argument is expected to have, given
// the arguments before it.
func (a *Analyzer) argumentHint(in *builtins.Intrinsic, i int, args []typed.Expression, expected typesystem.TypeID) typesystem.TypeID {
	if i == 0 {
		switch in.Name {
		case config.UpdateFuncName, config.EraseFuncName, config.PushBackFuncName,
			config.SubsetFuncName, config.ReplaceFuncName, config.FilterFuncName:
			return expected
		}
		return typesystem.Undefined
	}
	c := args[0].Type()
	d := a.reg.Get(c)
	elem := typesystem.Undefined
	switch d.Kind {
	case typesystem.KindVector, typesystem.KindDict:
		elem = a.reg.Canonical(d.Elem)
	case typesystem.KindString:
		elem = typesystem.Int
	}
	switch {
	case in.Name == config.UpdateFuncName && i == 2,
		in.Name == config.PushBackFuncName && i == 1:
		return elem
	case in.Name == config.FindFuncName && i == 1:
		if d.Kind == typesystem.KindString {
			return typesystem.String
		}
		return elem
	case in.Name == config.ReplaceFuncName && i == 3:
		return c
	}
	return typesystem.Undefined
}

// memberUpdate rewrites update(s, "member", v) on a struct.
func (a *Analyzer) memberUpdate(e *ast.CallExpression, parent typed.Expression) (typed.Expression, error) {
	name, ok := e.Args[1].(*ast.StringLiteral)
	if !ok {
		return nil, diagnostics.NewError(diagnostics.ErrT001, e.Args[1].Loc(), "a string literal member name", "an expression")
	}
	index, mt, err := a.memberOf(parent, name.Value, name.Location)
	if err != nil {
		return nil, err
	}
	v, err := a.typedExpr(e.Args[2], mt)
	if err != nil {
		return nil, err
	}
	return &typed.MemberUpdate{
		Base:   typed.At(e.Location, a.reg.Canonical(parent.Type())),
		Parent: parent,
		Name:   name.Value,
		Index:  index,
		Value:  v,
	}, nil
}
