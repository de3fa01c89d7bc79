// Package builtins holds the intrinsics and host functions.
//
// Intrinsics are generic: each has a type rule checked by the analyzer and
// an implementation run by the interpreter. They are reachable only by
// calling a bare name that resolves to no symbol. Host functions have
// ordinary function types and are declared as global constants.
package builtins

import (
	"fmt"

	"github.com/funvibe/floyd/internal/config"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

// Context is what an intrinsic may ask of the running interpreter.
type Context interface {
	Types() *typesystem.Registry
	Print(line string)
	// Call runs a function value to completion.
	Call(fn value.Value, args ...value.Value) (value.Value, error)
}

// CheckFunc returns the result type for the given argument types.
type CheckFunc func(reg *typesystem.Registry, args []typesystem.TypeID) (typesystem.TypeID, error)

type ExecFunc func(ctx Context, args []value.Value) (value.Value, error)

type Intrinsic struct {
	ID    int
	Name  string
	Arity int
	Pure  bool
	// Params holds fixed parameter types; Undefined entries are generic.
	// The analyzer uses fixed types as the expected type of the argument.
	Params []typesystem.TypeID
	// Callback is the 1-based position of a function argument whose purity
	// the call inherits, zero when there is none.
	Callback int
	Check    CheckFunc
	Exec     ExecFunc
}

// CallbackArg returns the index of the function argument, if any.
func (in *Intrinsic) CallbackArg() (int, bool) {
	return in.Callback - 1, in.Callback > 0
}

// ParamType returns the fixed type of parameter i, or Undefined.
func (in *Intrinsic) ParamType(i int) typesystem.TypeID {
	if i < len(in.Params) {
		return in.Params[i]
	}
	return typesystem.Undefined
}

// CheckError reports a badly typed argument.
type CheckError struct {
	Arg      int
	Expected string
	Got      typesystem.TypeID
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("argument %d: expected %s, got type #%d", e.Arg+1, e.Expected, e.Got)
}

func argError(i int, expected string, args []typesystem.TypeID) error {
	return &CheckError{Arg: i, Expected: expected, Got: args[i]}
}

// g marks a generic parameter.
const g = typesystem.Undefined

// intrinsicTable fixes intrinsic ids; compiled programs refer to them.
var intrinsicTable = []*Intrinsic{
	{Name: config.AssertFuncName, Arity: 1, Pure: true, Params: []typesystem.TypeID{typesystem.Bool}, Check: checkAssert, Exec: execAssert},
	{Name: config.PrintFuncName, Arity: 1, Check: checkPrint, Exec: execPrint},
	{Name: config.ToStringFuncName, Arity: 1, Pure: true, Check: checkToString, Exec: execToString},
	{Name: config.TypeOfFuncName, Arity: 1, Pure: true, Check: checkTypeOf, Exec: execTypeOf},
	{Name: config.UpdateFuncName, Arity: 3, Pure: true, Check: checkUpdate, Exec: execUpdate},
	{Name: config.SizeFuncName, Arity: 1, Pure: true, Check: checkSize, Exec: execSize},
	{Name: config.FindFuncName, Arity: 2, Pure: true, Check: checkFind, Exec: execFind},
	{Name: config.ExistsFuncName, Arity: 2, Pure: true, Params: []typesystem.TypeID{g, typesystem.String}, Check: checkExists, Exec: execExists},
	{Name: config.EraseFuncName, Arity: 2, Pure: true, Params: []typesystem.TypeID{g, typesystem.String}, Check: checkErase, Exec: execErase},
	{Name: config.GetKeysFuncName, Arity: 1, Pure: true, Check: checkGetKeys, Exec: execGetKeys},
	{Name: config.PushBackFuncName, Arity: 2, Pure: true, Check: checkPushBack, Exec: execPushBack},
	{Name: config.SubsetFuncName, Arity: 3, Pure: true, Params: []typesystem.TypeID{g, typesystem.Int, typesystem.Int}, Check: checkSubset, Exec: execSubset},
	{Name: config.ReplaceFuncName, Arity: 4, Pure: true, Params: []typesystem.TypeID{g, typesystem.Int, typesystem.Int}, Check: checkReplace, Exec: execReplace},
	{Name: config.ParseJSONFuncName, Arity: 1, Pure: true, Params: []typesystem.TypeID{typesystem.String}, Check: checkParseJSON, Exec: execParseJSON},
	{Name: config.GenerateJSONFuncName, Arity: 1, Pure: true, Params: []typesystem.TypeID{typesystem.JSON}, Check: checkGenerateJSON, Exec: execGenerateJSON},
	{Name: config.ToJSONFuncName, Arity: 1, Pure: true, Check: checkToJSON, Exec: execToJSON},
	{Name: config.GetJSONTypeFuncName, Arity: 1, Pure: true, Params: []typesystem.TypeID{typesystem.JSON}, Check: checkGetJSONType, Exec: execGetJSONType},
	{Name: config.MapFuncName, Arity: 2, Pure: true, Callback: 2, Check: checkMap, Exec: execMap},
	{Name: config.FilterFuncName, Arity: 2, Pure: true, Callback: 2, Check: checkFilter, Exec: execFilter},
	{Name: config.ReduceFuncName, Arity: 3, Pure: true, Callback: 3, Check: checkReduce, Exec: execReduce},
}

var intrinsics = make(map[string]*Intrinsic)

func init() {
	for id, in := range intrinsicTable {
		if in.Check == nil || in.Exec == nil {
			panic(fmt.Sprintf("intrinsic %q is missing its type rule or implementation", in.Name))
		}
		in.ID = id
		intrinsics[in.Name] = in
	}
}

// LookupIntrinsic finds an intrinsic by name.
func LookupIntrinsic(name string) (*Intrinsic, bool) {
	in, ok := intrinsics[name]
	return in, ok
}

// IntrinsicByID returns nil for unknown ids.
func IntrinsicByID(id int) *Intrinsic {
	if id < 0 || id >= len(intrinsicTable) {
		return nil
	}
	return intrinsicTable[id]
}

// IntrinsicNames lists intrinsic names in id order.
func IntrinsicNames() []string {
	names := make([]string, len(intrinsicTable))
	for i, in := range intrinsicTable {
		names[i] = in.Name
	}
	return names
}
