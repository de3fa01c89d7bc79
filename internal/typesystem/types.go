// Package typesystem implements the structural type registry.
//
// Every type is described by a Descriptor and identified by a TypeID. The
// Registry interns descriptors, so structurally equal types share one TypeID
// and equality checks are integer comparisons.
package typesystem

import (
	"strconv"
	"strings"

	"github.com/funvibe/floyd/internal/config"
)

// Kind tags a type descriptor.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindVoid
	KindBool
	KindInt
	KindDouble
	KindString
	KindJSON
	KindTypeID
	KindStruct
	KindVector
	KindDict
	KindFunction
	KindUnresolved
)

var kindNames = [...]string{
	KindUndefined:  "undefined",
	KindVoid:       config.VoidTypeName,
	KindBool:       config.BoolTypeName,
	KindInt:        config.IntTypeName,
	KindDouble:     config.DoubleTypeName,
	KindString:     config.StringTypeName,
	KindJSON:       config.JSONTypeName,
	KindTypeID:     config.TypeIDTypeName,
	KindStruct:     "struct",
	KindVector:     "vector",
	KindDict:       "dict",
	KindFunction:   "func",
	KindUnresolved: "unresolved",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsScalar reports kinds whose values are stored inline.
func (k Kind) IsScalar() bool {
	switch k {
	case KindVoid, KindBool, KindInt, KindDouble, KindTypeID:
		return true
	}
	return false
}

// IsAggregate reports struct, vector and dict kinds.
func (k Kind) IsAggregate() bool {
	return k == KindStruct || k == KindVector || k == KindDict
}

// TypeID is the interned identity of a type. The zero value is Undefined and
// never denotes a real type.
type TypeID int32

// Primitive types are interned first, in this order, by every Registry.
const (
	Undefined TypeID = iota
	Void
	Bool
	Int
	Double
	String
	JSON
	Typeid
)

// Member is one named struct field.
type Member struct {
	Name string
	Type TypeID
}

// Descriptor describes one type. Only the fields relevant to Kind are set:
// Members for structs, Elem for vectors and dicts, Return/Params/Pure for
// functions and Name for unresolved names.
type Descriptor struct {
	Kind    Kind
	Members []Member
	Elem    TypeID
	Return  TypeID
	Params  []TypeID
	Pure    bool
	Name    string
}

// PrimitiveByName maps builtin type names to their ids.
var PrimitiveByName = map[string]TypeID{
	config.VoidTypeName:   Void,
	config.BoolTypeName:   Bool,
	config.IntTypeName:    Int,
	config.DoubleTypeName: Double,
	config.StringTypeName: String,
	config.JSONTypeName:   JSON,
	config.TypeIDTypeName: Typeid,
}

// key builds the interning key. Children are referenced by id, which is
// sound because children are interned before their parents.
func (d Descriptor) key() string {
	var sb strings.Builder
	sb.WriteString(d.Kind.String())
	switch d.Kind {
	case KindStruct:
		sb.WriteByte('{')
		for i, m := range d.Members {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(m.Name)
			sb.WriteByte(':')
			writeID(&sb, m.Type)
		}
		sb.WriteByte('}')
	case KindVector, KindDict:
		sb.WriteByte('<')
		writeID(&sb, d.Elem)
		sb.WriteByte('>')
	case KindFunction:
		sb.WriteByte('(')
		for i, p := range d.Params {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeID(&sb, p)
		}
		sb.WriteString(")->")
		writeID(&sb, d.Return)
		if d.Pure {
			sb.WriteString(" pure")
		}
	case KindUnresolved:
		sb.WriteByte(' ')
		sb.WriteString(d.Name)
	}
	return sb.String()
}

func writeID(sb *strings.Builder, id TypeID) {
	sb.WriteString(strconv.Itoa(int(id)))
}
