package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/floyd/internal/typesystem"
)

type JSONKind uint8

// get_json_type reports these codes.
const (
	JSONObjectKind JSONKind = iota + 1
	JSONArrayKind
	JSONStringKind
	JSONNumberKind
	JSONTrueKind
	JSONFalseKind
	JSONNullKind
)

// JSON is an immutable json tree.
type JSON struct {
	kind   JSONKind
	number float64
	str    string
	array  []JSON
	object map[string]JSON
}

func JSONNullValue() JSON            { return JSON{kind: JSONNullKind} }
func JSONNumberValue(n float64) JSON { return JSON{kind: JSONNumberKind, number: n} }
func JSONStringValue(s string) JSON  { return JSON{kind: JSONStringKind, str: s} }

func JSONBoolValue(b bool) JSON {
	if b {
		return JSON{kind: JSONTrueKind}
	}
	return JSON{kind: JSONFalseKind}
}

// JSONArrayValue takes ownership of elems.
func JSONArrayValue(elems []JSON) JSON {
	return JSON{kind: JSONArrayKind, array: elems}
}

// JSONObjectValue takes ownership of entries.
func JSONObjectValue(entries map[string]JSON) JSON {
	return JSON{kind: JSONObjectKind, object: entries}
}

func (j JSON) Kind() JSONKind {
	if j.kind == 0 {
		return JSONNullKind
	}
	return j.kind
}

func (j JSON) Number() float64 { return j.number }
func (j JSON) Str() string     { return j.str }

func (j JSON) Len() int {
	switch j.Kind() {
	case JSONArrayKind:
		return len(j.array)
	case JSONObjectKind:
		return len(j.object)
	case JSONStringKind:
		return len(j.str)
	}
	return 0
}

// At indexes an array.
func (j JSON) At(i int) (JSON, bool) {
	if j.Kind() != JSONArrayKind || i < 0 || i >= len(j.array) {
		return JSON{}, false
	}
	return j.array[i], true
}

// Member indexes an object.
func (j JSON) Member(key string) (JSON, bool) {
	if j.Kind() != JSONObjectKind {
		return JSON{}, false
	}
	m, ok := j.object[key]
	return m, ok
}

func (j JSON) sortedKeys() []string {
	keys := make([]string, 0, len(j.object))
	for k := range j.object {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseJSON parses json text.
func ParseJSON(text string) (JSON, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return JSON{}, fmt.Errorf("parse_json: %w", err)
	}
	if dec.More() {
		return JSON{}, fmt.Errorf("parse_json: trailing data after value")
	}
	return fromRaw(raw)
}

func fromRaw(raw any) (JSON, error) {
	switch r := raw.(type) {
	case nil:
		return JSONNullValue(), nil
	case bool:
		return JSONBoolValue(r), nil
	case json.Number:
		f, err := r.Float64()
		if err != nil {
			return JSON{}, fmt.Errorf("parse_json: %w", err)
		}
		return JSONNumberValue(f), nil
	case string:
		return JSONStringValue(r), nil
	case []any:
		elems := make([]JSON, len(r))
		for i, e := range r {
			j, err := fromRaw(e)
			if err != nil {
				return JSON{}, err
			}
			elems[i] = j
		}
		return JSONArrayValue(elems), nil
	case map[string]any:
		entries := make(map[string]JSON, len(r))
		for k, e := range r {
			j, err := fromRaw(e)
			if err != nil {
				return JSON{}, err
			}
			entries[k] = j
		}
		return JSONObjectValue(entries), nil
	}
	return JSON{}, fmt.Errorf("parse_json: unexpected %T", raw)
}

func (j JSON) toRaw() any {
	switch j.Kind() {
	case JSONObjectKind:
		m := make(map[string]any, len(j.object))
		for k, e := range j.object {
			m[k] = e.toRaw()
		}
		return m
	case JSONArrayKind:
		a := make([]any, len(j.array))
		for i, e := range j.array {
			a[i] = e.toRaw()
		}
		return a
	case JSONStringKind:
		return j.str
	case JSONNumberKind:
		return j.number
	case JSONTrueKind:
		return true
	case JSONFalseKind:
		return false
	}
	return nil
}

// Generate renders compact json with object keys sorted.
func (j JSON) Generate() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(j.toRaw()); err != nil {
		return "", fmt.Errorf("generate_json: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (j JSON) String() string {
	s, err := j.Generate()
	if err != nil {
		return "<invalid json>"
	}
	return s
}

// compareJSON orders by kind code first, then by content.
func compareJSON(a, b JSON, cmpDouble func(x, y float64) int) int {
	if a.Kind() != b.Kind() {
		return cmpInt(int64(a.Kind()), int64(b.Kind()))
	}
	switch a.Kind() {
	case JSONNumberKind:
		return cmpDouble(a.number, b.number)
	case JSONStringKind:
		return strings.Compare(a.str, b.str)
	case JSONArrayKind:
		n := min(len(a.array), len(b.array))
		for i := 0; i < n; i++ {
			if c := compareJSON(a.array[i], b.array[i], cmpDouble); c != 0 {
				return c
			}
		}
		return lengthTieBreak(len(a.array), len(b.array))
	case JSONObjectKind:
		ak, bk := a.sortedKeys(), b.sortedKeys()
		n := min(len(ak), len(bk))
		for i := 0; i < n; i++ {
			if c := strings.Compare(ak[i], bk[i]); c != 0 {
				return c
			}
			if c := compareJSON(a.object[ak[i]], b.object[bk[i]], cmpDouble); c != 0 {
				return c
			}
		}
		return lengthTieBreak(len(ak), len(bk))
	}
	return 0
}

// ToJSON converts a json-compatible value.
func ToJSON(reg *typesystem.Registry, v Value) (JSON, error) {
	switch v.kind {
	case typesystem.KindJSON:
		return v.AsJSON(), nil
	case typesystem.KindBool:
		return JSONBoolValue(v.AsBool()), nil
	case typesystem.KindInt:
		return JSONNumberValue(float64(v.AsInt())), nil
	case typesystem.KindDouble:
		return JSONNumberValue(v.AsDouble()), nil
	case typesystem.KindString:
		return JSONStringValue(v.AsString()), nil
	case typesystem.KindVector:
		elems := v.Elements()
		out := make([]JSON, len(elems))
		for i, e := range elems {
			j, err := ToJSON(reg, e)
			if err != nil {
				return JSON{}, err
			}
			out[i] = j
		}
		return JSONArrayValue(out), nil
	case typesystem.KindDict:
		out := make(map[string]JSON, v.Len())
		for _, k := range v.Keys() {
			e, _ := v.Lookup(k)
			j, err := ToJSON(reg, e)
			if err != nil {
				return JSON{}, err
			}
			out[k] = j
		}
		return JSONObjectValue(out), nil
	}
	return JSON{}, fmt.Errorf("to_json: cannot convert %s", reg.String(v.typ))
}

// IsJSONCompatible reports whether values of t convert to json.
func IsJSONCompatible(reg *typesystem.Registry, t typesystem.TypeID) bool {
	d := reg.Get(t)
	switch d.Kind {
	case typesystem.KindJSON, typesystem.KindBool, typesystem.KindInt, typesystem.KindDouble, typesystem.KindString:
		return true
	case typesystem.KindVector, typesystem.KindDict:
		return IsJSONCompatible(reg, d.Elem)
	}
	return false
}
