// Package value implements runtime values.
//
// A Value pairs a payload with its exact type. Values are immutable; every
// operation that looks like a mutation returns a new Value. Vectors and dicts
// are persistent collections, so an update shares all untouched structure
// with the original instead of copying it.
package value

import (
	"hash/fnv"
	"math"
	"sort"

	"src.elv.sh/pkg/persistent/hashmap"
	"src.elv.sh/pkg/persistent/vector"

	"github.com/funvibe/floyd/internal/typesystem"
)

// Value is a tagged union. Scalars live in bits; strings, aggregates, json
// and function references live in obj.
type Value struct {
	typ  typesystem.TypeID
	kind typesystem.Kind
	bits uint64
	obj  any
}

// FunctionRef identifies an entry of the program's function table.
type FunctionRef struct {
	Index int
	Name  string
}

type structPayload struct {
	fields []Value
}

// Constructors

func Void() Value {
	return Value{typ: typesystem.Void, kind: typesystem.KindVoid}
}

func Bool(b bool) Value {
	var bits uint64
	if b {
		bits = 1
	}
	return Value{typ: typesystem.Bool, kind: typesystem.KindBool, bits: bits}
}

func Int(i int64) Value {
	return Value{typ: typesystem.Int, kind: typesystem.KindInt, bits: uint64(i)}
}

func Double(f float64) Value {
	return Value{typ: typesystem.Double, kind: typesystem.KindDouble, bits: math.Float64bits(f)}
}

func String(s string) Value {
	return Value{typ: typesystem.String, kind: typesystem.KindString, obj: s}
}

// TypeValue is a value of type typeid naming t.
func TypeValue(t typesystem.TypeID) Value {
	return Value{typ: typesystem.Typeid, kind: typesystem.KindTypeID, bits: uint64(t)}
}

func JSONValue(j JSON) Value {
	return Value{typ: typesystem.JSON, kind: typesystem.KindJSON, obj: j}
}

// Struct builds a struct value. fields is owned by the value afterwards.
func Struct(t typesystem.TypeID, fields []Value) Value {
	return Value{typ: t, kind: typesystem.KindStruct, obj: &structPayload{fields: fields}}
}

// Vector builds a vector value of type t from elems.
func Vector(t typesystem.TypeID, elems []Value) Value {
	vec := vector.Empty
	for _, e := range elems {
		vec = vec.Conj(e)
	}
	return Value{typ: t, kind: typesystem.KindVector, obj: vec}
}

func emptyDict() hashmap.Map {
	return hashmap.New(func(a, b any) bool { return a.(string) == b.(string) }, hashKey)
}

func hashKey(k any) uint32 {
	h := fnv.New32a()
	h.Write([]byte(k.(string)))
	return h.Sum32()
}

// Dict builds a dict value of type t from entries.
func Dict(t typesystem.TypeID, entries map[string]Value) Value {
	m := emptyDict()
	for k, v := range entries {
		m = m.Assoc(k, v)
	}
	return Value{typ: t, kind: typesystem.KindDict, obj: m}
}

// Function builds a function value of function type t.
func Function(t typesystem.TypeID, ref FunctionRef) Value {
	return Value{typ: t, kind: typesystem.KindFunction, obj: ref}
}

// Accessors

func (v Value) Type() typesystem.TypeID { return v.typ }
func (v Value) Kind() typesystem.Kind   { return v.kind }

func (v Value) IsVoid() bool { return v.kind == typesystem.KindVoid }

// IsValid is false for the zero Value, which no constructor returns.
func (v Value) IsValid() bool { return v.kind != typesystem.KindUndefined }

func (v Value) AsBool() bool      { return v.bits == 1 }
func (v Value) AsInt() int64      { return int64(v.bits) }
func (v Value) AsDouble() float64 { return math.Float64frombits(v.bits) }

func (v Value) AsString() string {
	s, _ := v.obj.(string)
	return s
}

func (v Value) AsTypeID() typesystem.TypeID { return typesystem.TypeID(v.bits) }

func (v Value) AsJSON() JSON {
	j, _ := v.obj.(JSON)
	return j
}

func (v Value) AsFunction() FunctionRef {
	f, _ := v.obj.(FunctionRef)
	return f
}

// Struct operations

func (v Value) fields() []Value {
	if p, ok := v.obj.(*structPayload); ok {
		return p.fields
	}
	return nil
}

func (v Value) FieldCount() int { return len(v.fields()) }

func (v Value) Field(i int) Value { return v.fields()[i] }

// WithField returns a copy of the struct with member i replaced.
func (v Value) WithField(i int, f Value) Value {
	old := v.fields()
	fields := make([]Value, len(old))
	copy(fields, old)
	fields[i] = f
	return Struct(v.typ, fields)
}

// Vector operations

func (v Value) vec() vector.Vector {
	if vec, ok := v.obj.(vector.Vector); ok {
		return vec
	}
	return vector.Empty
}

func (v Value) withVec(vec vector.Vector) Value {
	return Value{typ: v.typ, kind: typesystem.KindVector, obj: vec}
}

func (v Value) Len() int {
	switch v.kind {
	case typesystem.KindVector:
		return v.vec().Len()
	case typesystem.KindDict:
		return v.dict().Len()
	case typesystem.KindString:
		return len(v.AsString())
	case typesystem.KindStruct:
		return v.FieldCount()
	}
	return 0
}

// Index returns element i of a vector.
func (v Value) Index(i int) (Value, bool) {
	e, ok := v.vec().Index(i)
	if !ok {
		return Value{}, false
	}
	return e.(Value), true
}

// Elements copies a vector's elements into a slice.
func (v Value) Elements() []Value {
	vec := v.vec()
	out := make([]Value, 0, vec.Len())
	for it := vec.Iterator(); it.HasElem(); it.Next() {
		out = append(out, it.Elem().(Value))
	}
	return out
}

// Assoc returns a vector with element i replaced; i must be in range.
func (v Value) Assoc(i int, e Value) Value {
	return v.withVec(v.vec().Assoc(i, e))
}

// Append returns a vector with e added at the end.
func (v Value) Append(e Value) Value {
	return v.withVec(v.vec().Conj(e))
}

// SubVector returns elements [i, j).
func (v Value) SubVector(i, j int) Value {
	return v.withVec(v.vec().SubVector(i, j))
}

// Dict operations

func (v Value) dict() hashmap.Map {
	if m, ok := v.obj.(hashmap.Map); ok {
		return m
	}
	return emptyDict()
}

func (v Value) withDict(m hashmap.Map) Value {
	return Value{typ: v.typ, kind: typesystem.KindDict, obj: m}
}

func (v Value) Lookup(key string) (Value, bool) {
	e, ok := v.dict().Index(key)
	if !ok {
		return Value{}, false
	}
	return e.(Value), true
}

func (v Value) Put(key string, e Value) Value {
	return v.withDict(v.dict().Assoc(key, e))
}

func (v Value) Delete(key string) Value {
	return v.withDict(v.dict().Dissoc(key))
}

// Keys returns a dict's keys in ascending order.
func (v Value) Keys() []string {
	m := v.dict()
	keys := make([]string, 0, m.Len())
	for it := m.Iterator(); it.HasElem(); it.Next() {
		k, _ := it.Elem()
		keys = append(keys, k.(string))
	}
	sort.Strings(keys)
	return keys
}

// Default returns the zero value of t: false, 0, 0.0, "", empty collections,
// json null, a struct of member defaults.
func Default(reg *typesystem.Registry, t typesystem.TypeID) Value {
	d := reg.Get(t)
	switch d.Kind {
	case typesystem.KindBool:
		return Bool(false)
	case typesystem.KindInt:
		return Int(0)
	case typesystem.KindDouble:
		return Double(0)
	case typesystem.KindString:
		return String("")
	case typesystem.KindJSON:
		return JSONValue(JSONNullValue())
	case typesystem.KindTypeID:
		return TypeValue(typesystem.Void)
	case typesystem.KindVector:
		return Vector(t, nil)
	case typesystem.KindDict:
		return Dict(t, nil)
	case typesystem.KindStruct:
		fields := make([]Value, len(d.Members))
		for i, m := range d.Members {
			fields[i] = Default(reg, m.Type)
		}
		return Struct(t, fields)
	}
	return Void()
}
