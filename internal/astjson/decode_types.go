package astjson

import "github.com/funvibe/floyd/internal/ast"

// A type is written either as a bare string naming a builtin or struct type,
// or as a type node object.
func typeExpr(n node, key string) (ast.TypeExpr, error) {
	switch v := n[key].(type) {
	case string:
		return &ast.NamedType{Location: location(n), Name: v}, nil
	case node:
		return decodeType(v)
	}
	return nil, malformed(n, "missing type %q", key)
}

func optionalType(n node, key string) (ast.TypeExpr, error) {
	if n[key] == nil {
		return nil, nil
	}
	return typeExpr(n, key)
}

func decodeType(n node) (ast.TypeExpr, error) {
	loc := location(n)
	typ, _ := n["type"].(string)
	switch typ {
	case "NamedType":
		name, err := str(n, "name")
		if err != nil {
			return nil, err
		}
		return &ast.NamedType{Location: loc, Name: name}, nil
	case "VectorType":
		elem, err := typeExpr(n, "element")
		if err != nil {
			return nil, err
		}
		return &ast.VectorType{Location: loc, Elem: elem}, nil
	case "DictType":
		elem, err := typeExpr(n, "element")
		if err != nil {
			return nil, err
		}
		return &ast.DictType{Location: loc, Elem: elem}, nil
	case "FunctionType":
		ret, err := typeExpr(n, "returnType")
		if err != nil {
			return nil, err
		}
		ft := &ast.FunctionType{Location: loc, Return: ret, Pure: flag(n, "pure")}
		raw, _ := n["parameters"].([]any)
		for i := range raw {
			p, err := typeExpr(node{"t": raw[i], "offset": n["offset"]}, "t")
			if err != nil {
				return nil, err
			}
			ft.Params = append(ft.Params, p)
		}
		return ft, nil
	}
	return nil, malformed(n, "unknown type node %q", typ)
}
