package value

import (
	"math"
	"strconv"
	"strings"

	"github.com/funvibe/floyd/internal/typesystem"
)

// Format renders v the way to_string and print do. A top-level string is
// written as is; strings nested in aggregates are quoted.
func Format(reg *typesystem.Registry, v Value) string {
	if v.kind == typesystem.KindString {
		return v.AsString()
	}
	var sb strings.Builder
	writeValue(&sb, reg, v)
	return sb.String()
}

func writeValue(sb *strings.Builder, reg *typesystem.Registry, v Value) {
	switch v.kind {
	case typesystem.KindVoid:
		sb.WriteString("void")
	case typesystem.KindBool:
		sb.WriteString(strconv.FormatBool(v.AsBool()))
	case typesystem.KindInt:
		sb.WriteString(strconv.FormatInt(v.AsInt(), 10))
	case typesystem.KindDouble:
		sb.WriteString(formatDouble(v.AsDouble()))
	case typesystem.KindString:
		sb.WriteString(strconv.Quote(v.AsString()))
	case typesystem.KindTypeID:
		sb.WriteString(reg.String(v.AsTypeID()))
	case typesystem.KindJSON:
		sb.WriteString(v.AsJSON().String())
	case typesystem.KindFunction:
		sb.WriteString("<func ")
		sb.WriteString(v.AsFunction().Name)
		sb.WriteByte('>')
	case typesystem.KindVector:
		sb.WriteByte('[')
		for i, e := range v.Elements() {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, reg, e)
		}
		sb.WriteByte(']')
	case typesystem.KindDict:
		sb.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			e, _ := v.Lookup(k)
			sb.WriteString(strconv.Quote(k))
			sb.WriteString(": ")
			writeValue(sb, reg, e)
		}
		sb.WriteByte('}')
	case typesystem.KindStruct:
		members := reg.Get(v.typ).Members
		sb.WriteByte('{')
		for i, f := range v.fields() {
			if i > 0 {
				sb.WriteString(", ")
			}
			if i < len(members) {
				sb.WriteString(members[i].Name)
				sb.WriteByte('=')
			}
			writeValue(sb, reg, f)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString("<invalid>")
	}
}

func formatDouble(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	format := byte('f')
	if a := math.Abs(f); a != 0 && (a < 1e-4 || a >= 1e21) {
		format = 'g'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
