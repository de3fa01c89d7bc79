package astjson

import (
	"github.com/funvibe/floyd/internal/ast"
)

func decodeLiteralNodes(n node, typ string) (ast.Node, bool, error) {
	loc := location(n)
	switch typ {
	case "BoolLiteral":
		return &ast.BoolLiteral{Location: loc, Value: flag(n, "value")}, true, nil
	case "IntegerLiteral":
		v, err := integer(n, "value")
		if err != nil {
			return nil, true, err
		}
		return &ast.IntegerLiteral{Location: loc, Value: v}, true, nil
	case "DoubleLiteral":
		v, err := double(n, "value")
		if err != nil {
			return nil, true, err
		}
		return &ast.DoubleLiteral{Location: loc, Value: v}, true, nil
	case "StringLiteral":
		v, err := str(n, "value")
		if err != nil {
			return nil, true, err
		}
		return &ast.StringLiteral{Location: loc, Value: v}, true, nil
	case "VectorLiteral":
		elemType, err := optionalType(n, "elementType")
		if err != nil {
			return nil, true, err
		}
		elems, err := expressionList(n, "elements")
		if err != nil {
			return nil, true, err
		}
		return &ast.VectorLiteral{Location: loc, ElemType: elemType, Elements: elems}, true, nil
	case "DictLiteral":
		elemType, err := optionalType(n, "elementType")
		if err != nil {
			return nil, true, err
		}
		raw, _ := n["entries"].([]any)
		d := &ast.DictLiteral{Location: loc, ElemType: elemType}
		for _, r := range raw {
			entry, ok := r.(node)
			if !ok {
				return nil, true, malformed(n, "invalid dict entry %T", r)
			}
			k, err := expression(entry, "key")
			if err != nil {
				return nil, true, err
			}
			v, err := expression(entry, "value")
			if err != nil {
				return nil, true, err
			}
			d.Entries = append(d.Entries, ast.DictEntry{Key: k, Value: v})
		}
		return d, true, nil
	case "StructType":
		members, err := structMembers(n)
		if err != nil {
			return nil, true, err
		}
		return &ast.StructTypeExpression{Location: loc, Members: members}, true, nil
	case "FunctionLiteral":
		fn, err := functionLiteral(n)
		return fn, true, err
	}
	return nil, false, nil
}

func decodeExpressionNodes(n node, typ string) (ast.Node, bool, error) {
	loc := location(n)
	switch typ {
	case "Arithmetic", "Comparison":
		op, err := str(n, "operator")
		if err != nil {
			return nil, true, err
		}
		l, err := expression(n, "left")
		if err != nil {
			return nil, true, err
		}
		r, err := expression(n, "right")
		if err != nil {
			return nil, true, err
		}
		o := ast.Operator(op)
		if typ == "Comparison" {
			if !o.IsComparison() {
				return nil, true, malformed(n, "%q is not a comparison operator", op)
			}
			return &ast.ComparisonExpression{Location: loc, Operator: o, Left: l, Right: r}, true, nil
		}
		if !o.IsArithmetic() {
			return nil, true, malformed(n, "%q is not an arithmetic operator", op)
		}
		return &ast.ArithmeticExpression{Location: loc, Operator: o, Left: l, Right: r}, true, nil
	case "Unary":
		op, err := str(n, "operator")
		if err != nil {
			return nil, true, err
		}
		if o := ast.Operator(op); o != ast.OpNeg && o != ast.OpNot {
			return nil, true, malformed(n, "%q is not a unary operator", op)
		}
		operand, err := expression(n, "operand")
		if err != nil {
			return nil, true, err
		}
		return &ast.UnaryExpression{Location: loc, Operator: ast.Operator(op), Operand: operand}, true, nil
	case "Conditional":
		c, err := expression(n, "condition")
		if err != nil {
			return nil, true, err
		}
		a, err := expression(n, "then")
		if err != nil {
			return nil, true, err
		}
		b, err := expression(n, "else")
		if err != nil {
			return nil, true, err
		}
		return &ast.ConditionalExpression{Location: loc, Cond: c, Then: a, Else: b}, true, nil
	case "Call":
		callee, err := expression(n, "callee")
		if err != nil {
			return nil, true, err
		}
		args, err := expressionList(n, "arguments")
		if err != nil {
			return nil, true, err
		}
		return &ast.CallExpression{Location: loc, Callee: callee, Args: args}, true, nil
	case "Identifier":
		name, err := str(n, "name")
		if err != nil {
			return nil, true, err
		}
		return &ast.Identifier{Location: loc, Name: name}, true, nil
	case "Member":
		parent, err := expression(n, "object")
		if err != nil {
			return nil, true, err
		}
		member, err := str(n, "member")
		if err != nil {
			return nil, true, err
		}
		return &ast.MemberExpression{Location: loc, Parent: parent, Member: member}, true, nil
	case "Index":
		parent, err := expression(n, "object")
		if err != nil {
			return nil, true, err
		}
		key, err := expression(n, "index")
		if err != nil {
			return nil, true, err
		}
		return &ast.IndexExpression{Location: loc, Parent: parent, Key: key}, true, nil
	}
	return nil, false, nil
}

func decodeStatementNodes(n node, typ string) (ast.Node, bool, error) {
	loc := location(n)
	switch typ {
	case "Return":
		v, err := optionalExpression(n, "value")
		if err != nil {
			return nil, true, err
		}
		return &ast.ReturnStatement{Location: loc, Value: v}, true, nil
	case "Bind":
		name, err := str(n, "name")
		if err != nil {
			return nil, true, err
		}
		t, err := optionalType(n, "declaredType")
		if err != nil {
			return nil, true, err
		}
		v, err := optionalExpression(n, "value")
		if err != nil {
			return nil, true, err
		}
		if t == nil && v == nil {
			return nil, true, malformed(n, "binding %s has neither a type nor a value", name)
		}
		return &ast.BindStatement{Location: loc, Name: name, Type: t, Mutable: flag(n, "mutable"), Value: v}, true, nil
	case "Assign":
		name, err := str(n, "name")
		if err != nil {
			return nil, true, err
		}
		v, err := expression(n, "value")
		if err != nil {
			return nil, true, err
		}
		return &ast.AssignStatement{Location: loc, Name: name, Value: v}, true, nil
	case "Block":
		stmts, err := statementList(n, "body")
		if err != nil {
			return nil, true, err
		}
		return &ast.BlockStatement{Location: loc, Statements: stmts}, true, nil
	case "If":
		c, err := expression(n, "condition")
		if err != nil {
			return nil, true, err
		}
		then, err := block(n, "then")
		if err != nil {
			return nil, true, err
		}
		els, err := optionalBlock(n, "else")
		if err != nil {
			return nil, true, err
		}
		return &ast.IfStatement{Location: loc, Cond: c, Then: then, Else: els}, true, nil
	case "For":
		it, err := str(n, "iterator")
		if err != nil {
			return nil, true, err
		}
		start, err := expression(n, "start")
		if err != nil {
			return nil, true, err
		}
		end, err := expression(n, "end")
		if err != nil {
			return nil, true, err
		}
		body, err := block(n, "body")
		if err != nil {
			return nil, true, err
		}
		return &ast.ForStatement{Location: loc, Iterator: it, Start: start, End: end, Closed: flag(n, "closed"), Body: body}, true, nil
	case "While":
		c, err := expression(n, "condition")
		if err != nil {
			return nil, true, err
		}
		body, err := block(n, "body")
		if err != nil {
			return nil, true, err
		}
		return &ast.WhileStatement{Location: loc, Cond: c, Body: body}, true, nil
	case "ExpressionStatement":
		e, err := expression(n, "expression")
		if err != nil {
			return nil, true, err
		}
		return &ast.ExpressionStatement{Location: loc, Expression: e}, true, nil
	case "StructDeclaration":
		name, err := str(n, "name")
		if err != nil {
			return nil, true, err
		}
		members, err := structMembers(n)
		if err != nil {
			return nil, true, err
		}
		return &ast.StructDeclaration{Location: loc, Name: name, Members: members}, true, nil
	case "FunctionDeclaration":
		name, err := str(n, "name")
		if err != nil {
			return nil, true, err
		}
		c, ok := child(n, "function")
		if !ok {
			return nil, true, malformed(n, "function declaration %s has no function", name)
		}
		fn, err := functionLiteral(c)
		if err != nil {
			return nil, true, err
		}
		return &ast.FunctionDeclaration{Location: loc, Name: name, Function: fn}, true, nil
	}
	return nil, false, nil
}

func structMembers(n node) ([]ast.StructMember, error) {
	raw, _ := n["members"].([]any)
	out := make([]ast.StructMember, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(node)
		if !ok {
			return nil, malformed(n, "invalid struct member %T", r)
		}
		name, err := str(m, "name")
		if err != nil {
			return nil, err
		}
		t, err := typeExpr(m, "memberType")
		if err != nil {
			return nil, err
		}
		out = append(out, ast.StructMember{Location: location(m), Name: name, Type: t})
	}
	return out, nil
}

func functionLiteral(n node) (*ast.FunctionLiteral, error) {
	ret, err := typeExpr(n, "returnType")
	if err != nil {
		return nil, err
	}
	raw, _ := n["parameters"].([]any)
	fn := &ast.FunctionLiteral{Location: location(n), Return: ret, Pure: flag(n, "pure")}
	for _, r := range raw {
		p, ok := r.(node)
		if !ok {
			return nil, malformed(n, "invalid parameter %T", r)
		}
		name, err := str(p, "name")
		if err != nil {
			return nil, err
		}
		t, err := typeExpr(p, "paramType")
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, ast.Parameter{Location: location(p), Name: name, Type: t})
	}
	body, err := block(n, "body")
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, nil
}
