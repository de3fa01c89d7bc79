package builtins

import (
	"errors"
	"fmt"
	"strings"

	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

var ErrAssertion = errors.New("assertion failed")

func execAssert(ctx Context, args []value.Value) (value.Value, error) {
	if !args[0].AsBool() {
		return value.Value{}, ErrAssertion
	}
	return value.Void(), nil
}

func execPrint(ctx Context, args []value.Value) (value.Value, error) {
	ctx.Print(value.Format(ctx.Types(), args[0]))
	return value.Void(), nil
}

func execToString(ctx Context, args []value.Value) (value.Value, error) {
	return value.String(value.Format(ctx.Types(), args[0])), nil
}

func execTypeOf(ctx Context, args []value.Value) (value.Value, error) {
	return value.TypeValue(args[0].Type()), nil
}

func indexError(i int64, size int, what string) error {
	return fmt.Errorf("index %d out of bounds for %s of size %d", i, what, size)
}

func toByte(v value.Value) (byte, error) {
	b := v.AsInt()
	if b < 0 || b > 255 {
		return 0, fmt.Errorf("%d is not a byte value", b)
	}
	return byte(b), nil
}

func execUpdate(ctx Context, args []value.Value) (value.Value, error) {
	c, k, v := args[0], args[1], args[2]
	switch c.Kind() {
	case typesystem.KindVector:
		i := k.AsInt()
		if i < 0 || i >= int64(c.Len()) {
			return value.Value{}, indexError(i, c.Len(), "vector")
		}
		return c.Assoc(int(i), v), nil
	case typesystem.KindDict:
		return c.Put(k.AsString(), v), nil
	case typesystem.KindString:
		s := c.AsString()
		i := k.AsInt()
		if i < 0 || i >= int64(len(s)) {
			return value.Value{}, indexError(i, len(s), "string")
		}
		b, err := toByte(v)
		if err != nil {
			return value.Value{}, err
		}
		buf := []byte(s)
		buf[i] = b
		return value.String(string(buf)), nil
	}
	return value.Value{}, fmt.Errorf("update: unsupported %s", c.Kind())
}

func execSize(ctx Context, args []value.Value) (value.Value, error) {
	c := args[0]
	if c.Kind() == typesystem.KindJSON {
		j := c.AsJSON()
		switch j.Kind() {
		case value.JSONArrayKind, value.JSONObjectKind, value.JSONStringKind:
			return value.Int(int64(j.Len())), nil
		}
		return value.Value{}, fmt.Errorf("size: json %s has no size", j)
	}
	return value.Int(int64(c.Len())), nil
}

func execFind(ctx Context, args []value.Value) (value.Value, error) {
	c, e := args[0], args[1]
	if c.Kind() == typesystem.KindString {
		return value.Int(int64(strings.Index(c.AsString(), e.AsString()))), nil
	}
	for i, x := range c.Elements() {
		eq, err := value.Equals(x, e)
		if err != nil {
			return value.Value{}, err
		}
		if eq {
			return value.Int(int64(i)), nil
		}
	}
	return value.Int(-1), nil
}

func execExists(ctx Context, args []value.Value) (value.Value, error) {
	_, ok := args[0].Lookup(args[1].AsString())
	return value.Bool(ok), nil
}

func execErase(ctx Context, args []value.Value) (value.Value, error) {
	return args[0].Delete(args[1].AsString()), nil
}

func execGetKeys(ctx Context, args []value.Value) (value.Value, error) {
	keys := args[0].Keys()
	elems := make([]value.Value, len(keys))
	for i, k := range keys {
		elems[i] = value.String(k)
	}
	return value.Vector(ctx.Types().Vector(typesystem.String), elems), nil
}

func execPushBack(ctx Context, args []value.Value) (value.Value, error) {
	c, e := args[0], args[1]
	if c.Kind() == typesystem.KindString {
		b, err := toByte(e)
		if err != nil {
			return value.Value{}, err
		}
		return value.String(c.AsString() + string([]byte{b})), nil
	}
	return c.Append(e), nil
}

// clamp limits [a, b) to [0, n] with a <= b.
func clamp(a, b int64, n int) (int, int) {
	size := int64(n)
	a = max(0, min(a, size))
	b = max(a, min(b, size))
	return int(a), int(b)
}

func execSubset(ctx Context, args []value.Value) (value.Value, error) {
	c := args[0]
	a, b := clamp(args[1].AsInt(), args[2].AsInt(), c.Len())
	if c.Kind() == typesystem.KindString {
		return value.String(c.AsString()[a:b]), nil
	}
	return c.SubVector(a, b), nil
}

func execReplace(ctx Context, args []value.Value) (value.Value, error) {
	c, r := args[0], args[3]
	a, b := clamp(args[1].AsInt(), args[2].AsInt(), c.Len())
	if c.Kind() == typesystem.KindString {
		s := c.AsString()
		return value.String(s[:a] + r.AsString() + s[b:]), nil
	}
	out := c.SubVector(0, a)
	for _, e := range r.Elements() {
		out = out.Append(e)
	}
	for i := b; i < c.Len(); i++ {
		e, _ := c.Index(i)
		out = out.Append(e)
	}
	return out, nil
}

func execParseJSON(ctx Context, args []value.Value) (value.Value, error) {
	j, err := value.ParseJSON(args[0].AsString())
	if err != nil {
		return value.Value{}, err
	}
	return value.JSONValue(j), nil
}

func execGenerateJSON(ctx Context, args []value.Value) (value.Value, error) {
	s, err := args[0].AsJSON().Generate()
	if err != nil {
		return value.Value{}, err
	}
	return value.String(s), nil
}

func execToJSON(ctx Context, args []value.Value) (value.Value, error) {
	j, err := value.ToJSON(ctx.Types(), args[0])
	if err != nil {
		return value.Value{}, err
	}
	return value.JSONValue(j), nil
}

func execGetJSONType(ctx Context, args []value.Value) (value.Value, error) {
	return value.Int(int64(args[0].AsJSON().Kind())), nil
}

func execMap(ctx Context, args []value.Value) (value.Value, error) {
	v, f := args[0], args[1]
	reg := ctx.Types()
	ret := reg.Get(f.Type()).Return
	elems := v.Elements()
	out := make([]value.Value, len(elems))
	for i, e := range elems {
		r, err := ctx.Call(f, e)
		if err != nil {
			return value.Value{}, err
		}
		out[i] = r
	}
	return value.Vector(reg.Vector(ret), out), nil
}

func execFilter(ctx Context, args []value.Value) (value.Value, error) {
	v, f := args[0], args[1]
	var kept []value.Value
	for _, e := range v.Elements() {
		r, err := ctx.Call(f, e)
		if err != nil {
			return value.Value{}, err
		}
		if r.AsBool() {
			kept = append(kept, e)
		}
	}
	return value.Vector(v.Type(), kept), nil
}

func execReduce(ctx Context, args []value.Value) (value.Value, error) {
	v, acc, f := args[0], args[1], args[2]
	for _, e := range v.Elements() {
		r, err := ctx.Call(f, acc, e)
		if err != nil {
			return value.Value{}, err
		}
		acc = r
	}
	return acc, nil
}
