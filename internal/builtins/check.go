package builtins

import (
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

func kindOf(reg *typesystem.Registry, t typesystem.TypeID) typesystem.Kind {
	return reg.Kind(t)
}

func elemOf(reg *typesystem.Registry, t typesystem.TypeID) typesystem.TypeID {
	return reg.Get(t).Elem
}

func expect(reg *typesystem.Registry, args []typesystem.TypeID, i int, want typesystem.TypeID) error {
	if !reg.Equal(args[i], want) {
		return argError(i, reg.String(want), args)
	}
	return nil
}

func checkAssert(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	return typesystem.Void, expect(reg, args, 0, typesystem.Bool)
}

func checkPrint(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	if kindOf(reg, args[0]) == typesystem.KindVoid {
		return typesystem.Undefined, argError(0, "a value", args)
	}
	return typesystem.Void, nil
}

func checkToString(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	if kindOf(reg, args[0]) == typesystem.KindVoid {
		return typesystem.Undefined, argError(0, "a value", args)
	}
	return typesystem.String, nil
}

func checkTypeOf(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	return typesystem.Typeid, nil
}

// checkUpdate covers vectors, dicts and strings. Struct updates with a
// literal member name are rewritten by the analyzer before this runs.
func checkUpdate(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	c := args[0]
	switch kindOf(reg, c) {
	case typesystem.KindVector:
		if err := expect(reg, args, 1, typesystem.Int); err != nil {
			return typesystem.Undefined, err
		}
		return c, expect(reg, args, 2, elemOf(reg, c))
	case typesystem.KindDict:
		if err := expect(reg, args, 1, typesystem.String); err != nil {
			return typesystem.Undefined, err
		}
		return c, expect(reg, args, 2, elemOf(reg, c))
	case typesystem.KindString:
		if err := expect(reg, args, 1, typesystem.Int); err != nil {
			return typesystem.Undefined, err
		}
		return c, expect(reg, args, 2, typesystem.Int)
	}
	return typesystem.Undefined, argError(0, "a vector, dict, string or struct", args)
}

func checkSize(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	switch kindOf(reg, args[0]) {
	case typesystem.KindVector, typesystem.KindDict, typesystem.KindString, typesystem.KindJSON:
		return typesystem.Int, nil
	}
	return typesystem.Undefined, argError(0, "a vector, dict, string or json", args)
}

func checkFind(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	switch kindOf(reg, args[0]) {
	case typesystem.KindVector:
		return typesystem.Int, expect(reg, args, 1, elemOf(reg, args[0]))
	case typesystem.KindString:
		return typesystem.Int, expect(reg, args, 1, typesystem.String)
	}
	return typesystem.Undefined, argError(0, "a vector or string", args)
}

func expectDict(reg *typesystem.Registry, args []typesystem.TypeID) error {
	if kindOf(reg, args[0]) != typesystem.KindDict {
		return argError(0, "a dict", args)
	}
	return nil
}

func checkExists(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	if err := expectDict(reg, args); err != nil {
		return typesystem.Undefined, err
	}
	return typesystem.Bool, expect(reg, args, 1, typesystem.String)
}

func checkErase(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	if err := expectDict(reg, args); err != nil {
		return typesystem.Undefined, err
	}
	return args[0], expect(reg, args, 1, typesystem.String)
}

func checkGetKeys(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	if err := expectDict(reg, args); err != nil {
		return typesystem.Undefined, err
	}
	return reg.Vector(typesystem.String), nil
}

func checkPushBack(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	switch kindOf(reg, args[0]) {
	case typesystem.KindVector:
		return args[0], expect(reg, args, 1, elemOf(reg, args[0]))
	case typesystem.KindString:
		return args[0], expect(reg, args, 1, typesystem.Int)
	}
	return typesystem.Undefined, argError(0, "a vector or string", args)
}

func expectSequence(reg *typesystem.Registry, args []typesystem.TypeID) error {
	switch kindOf(reg, args[0]) {
	case typesystem.KindVector, typesystem.KindString:
		return nil
	}
	return argError(0, "a vector or string", args)
}

func checkSubset(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	if err := expectSequence(reg, args); err != nil {
		return typesystem.Undefined, err
	}
	for i := 1; i <= 2; i++ {
		if err := expect(reg, args, i, typesystem.Int); err != nil {
			return typesystem.Undefined, err
		}
	}
	return args[0], nil
}

func checkReplace(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	if _, err := checkSubset(reg, args); err != nil {
		return typesystem.Undefined, err
	}
	return args[0], expect(reg, args, 3, args[0])
}

func checkParseJSON(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	return typesystem.JSON, expect(reg, args, 0, typesystem.String)
}

func checkGenerateJSON(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	return typesystem.String, expect(reg, args, 0, typesystem.JSON)
}

func checkToJSON(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	if !value.IsJSONCompatible(reg, args[0]) {
		return typesystem.Undefined, argError(0, "a json-compatible value", args)
	}
	return typesystem.JSON, nil
}

func checkGetJSONType(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	return typesystem.Int, expect(reg, args, 0, typesystem.JSON)
}

// callback checks that args[i] is a function taking params and returns its
// return type.
func callback(reg *typesystem.Registry, args []typesystem.TypeID, i int, expected string, params ...typesystem.TypeID) (typesystem.TypeID, error) {
	d := reg.Get(args[i])
	if d.Kind != typesystem.KindFunction || len(d.Params) != len(params) {
		return typesystem.Undefined, argError(i, expected, args)
	}
	for j, p := range params {
		if !reg.Equal(d.Params[j], p) {
			return typesystem.Undefined, argError(i, expected, args)
		}
	}
	return d.Return, nil
}

func expectVector(reg *typesystem.Registry, args []typesystem.TypeID) error {
	if kindOf(reg, args[0]) != typesystem.KindVector {
		return argError(0, "a vector", args)
	}
	return nil
}

func checkMap(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	if err := expectVector(reg, args); err != nil {
		return typesystem.Undefined, err
	}
	elem := elemOf(reg, args[0])
	ret, err := callback(reg, args, 1, "func R("+reg.String(elem)+")", elem)
	if err != nil {
		return typesystem.Undefined, err
	}
	if kindOf(reg, ret) == typesystem.KindVoid {
		return typesystem.Undefined, argError(1, "a function returning a value", args)
	}
	return reg.Vector(ret), nil
}

func checkFilter(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	if err := expectVector(reg, args); err != nil {
		return typesystem.Undefined, err
	}
	elem := elemOf(reg, args[0])
	expected := "func bool(" + reg.String(elem) + ")"
	ret, err := callback(reg, args, 1, expected, elem)
	if err != nil {
		return typesystem.Undefined, err
	}
	if ret != typesystem.Bool {
		return typesystem.Undefined, argError(1, expected, args)
	}
	return args[0], nil
}

func checkReduce(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error) {
	if err := expectVector(reg, args); err != nil {
		return typesystem.Undefined, err
	}
	acc := args[1]
	elem := elemOf(reg, args[0])
	expected := "func " + reg.String(acc) + "(" + reg.String(acc) + ", " + reg.String(elem) + ")"
	ret, err := callback(reg, args, 2, expected, acc, elem)
	if err != nil {
		return typesystem.Undefined, err
	}
	if !reg.Equal(ret, acc) {
		return typesystem.Undefined, argError(2, expected, args)
	}
	return acc, nil
}
