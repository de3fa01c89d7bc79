package value

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/funvibe/floyd/internal/typesystem"
)

// snapshot is the gob form of a Value.
type snapshot struct {
	Type     typesystem.TypeID
	Kind     typesystem.Kind
	Bits     uint64
	Str      string
	Func     FunctionRef
	Keys     []string
	Children []snapshot
}

func (v Value) snapshot() (snapshot, error) {
	s := snapshot{Type: v.typ, Kind: v.kind, Bits: v.bits}
	switch v.kind {
	case typesystem.KindString:
		s.Str = v.AsString()
	case typesystem.KindJSON:
		text, err := v.AsJSON().Generate()
		if err != nil {
			return s, err
		}
		s.Str = text
	case typesystem.KindFunction:
		s.Func = v.AsFunction()
	case typesystem.KindStruct, typesystem.KindVector:
		var elems []Value
		if v.kind == typesystem.KindStruct {
			elems = v.fields()
		} else {
			elems = v.Elements()
		}
		for _, e := range elems {
			c, err := e.snapshot()
			if err != nil {
				return s, err
			}
			s.Children = append(s.Children, c)
		}
	case typesystem.KindDict:
		for _, k := range v.Keys() {
			e, _ := v.Lookup(k)
			c, err := e.snapshot()
			if err != nil {
				return s, err
			}
			s.Keys = append(s.Keys, k)
			s.Children = append(s.Children, c)
		}
	}
	return s, nil
}

func (s snapshot) restore() (Value, error) {
	v := Value{typ: s.Type, kind: s.Kind, bits: s.Bits}
	switch s.Kind {
	case typesystem.KindString:
		v.obj = s.Str
	case typesystem.KindJSON:
		j, err := ParseJSON(s.Str)
		if err != nil {
			return Value{}, err
		}
		v.obj = j
	case typesystem.KindFunction:
		v.obj = s.Func
	case typesystem.KindStruct, typesystem.KindVector:
		elems := make([]Value, len(s.Children))
		for i, c := range s.Children {
			e, err := c.restore()
			if err != nil {
				return Value{}, err
			}
			elems[i] = e
		}
		if s.Kind == typesystem.KindStruct {
			return Struct(s.Type, elems), nil
		}
		return Vector(s.Type, elems), nil
	case typesystem.KindDict:
		if len(s.Keys) != len(s.Children) {
			return Value{}, fmt.Errorf("corrupt dict snapshot: %d keys, %d values", len(s.Keys), len(s.Children))
		}
		m := emptyDict()
		for i, c := range s.Children {
			e, err := c.restore()
			if err != nil {
				return Value{}, err
			}
			m = m.Assoc(s.Keys[i], e)
		}
		v.obj = m
	}
	return v, nil
}

func (v Value) GobEncode() ([]byte, error) {
	s, err := v.snapshot()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) GobDecode(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	restored, err := s.restore()
	if err != nil {
		return err
	}
	*v = restored
	return nil
}
