package typed

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/funvibe/floyd/internal/symbols"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

type object = map[string]any

// Marshal encodes the whole program as JSON for an independent backend.
// Every expression carries its type id and every load and store its
// address, so nothing has to be resolved again.
func Marshal(p *Program) ([]byte, error) {
	m := marshaler{reg: p.Types}
	doc := object{
		"file":      p.File,
		"types":     m.types(),
		"globals":   m.scope(p.Globals),
		"body":      m.stmts(p.Body),
		"functions": m.functions(p.Functions),
		"entry": object{
			"kind":      entryNames[p.Entry.Kind],
			"function":  p.Entry.Function,
			"slot":      p.Entry.Slot,
			"takesArgs": p.Entry.TakesArgs,
		},
	}
	if m.err != nil {
		return nil, m.err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var entryNames = map[EntryKind]string{
	EntryNone:   "none",
	EntryMain:   "main",
	EntryResult: "result",
}

type marshaler struct {
	reg *typesystem.Registry
	err error
}

func (m *marshaler) types() []object {
	out := make([]object, 0, m.reg.Len())
	for id := 0; id < m.reg.Len(); id++ {
		d := m.reg.Get(typesystem.TypeID(id))
		t := object{"id": id, "kind": d.Kind.String(), "name": m.reg.String(typesystem.TypeID(id))}
		switch d.Kind {
		case typesystem.KindStruct:
			members := make([]object, len(d.Members))
			for i, mem := range d.Members {
				members[i] = object{"name": mem.Name, "type": mem.Type}
			}
			t["members"] = members
		case typesystem.KindVector, typesystem.KindDict:
			t["element"] = d.Elem
		case typesystem.KindFunction:
			t["return"] = d.Return
			t["params"] = d.Params
			t["pure"] = d.Pure
		}
		out = append(out, t)
	}
	return out
}

func (m *marshaler) scope(s *Scope) object {
	if s == nil {
		return nil
	}
	syms := make([]object, len(s.Symbols))
	for i, sym := range s.Symbols {
		o := object{"slot": i, "name": sym.Name, "kind": sym.Kind.String(), "type": sym.Type}
		if sym.HasValue() {
			o["value"] = m.value(sym.Value)
		}
		syms[i] = o
	}
	return object{"kind": s.Kind.String(), "symbols": syms}
}

func (m *marshaler) functions(fns []*FunctionDef) []object {
	out := make([]object, len(fns))
	for i, fn := range fns {
		o := object{"index": i, "name": fn.Name, "type": fn.Type, "offset": fn.Location.Offset}
		if fn.IsHost() {
			o["linkage"] = fn.Linkage
		} else {
			o["paramCount"] = fn.ParamCount
			o["body"] = m.stmt(fn.Body)
		}
		out[i] = o
	}
	return out
}

func address(a symbols.Address) object {
	return object{"distance": a.Distance, "slot": a.Slot}
}

func (m *marshaler) value(v value.Value) any {
	switch v.Kind() {
	case typesystem.KindVoid:
		return object{"type": v.Type()}
	case typesystem.KindBool:
		return object{"type": v.Type(), "bool": v.AsBool()}
	case typesystem.KindInt:
		return object{"type": v.Type(), "int": v.AsInt()}
	case typesystem.KindDouble:
		return object{"type": v.Type(), "double": v.AsDouble()}
	case typesystem.KindString:
		return object{"type": v.Type(), "string": v.AsString()}
	case typesystem.KindTypeID:
		return object{"type": v.Type(), "typeid": v.AsTypeID()}
	case typesystem.KindFunction:
		return object{"type": v.Type(), "function": v.AsFunction().Index}
	case typesystem.KindJSON:
		return object{"type": v.Type(), "json": v.AsJSON().String()}
	}
	m.fail(fmt.Errorf("cannot encode constant of kind %s", v.Kind()))
	return nil
}

func (m *marshaler) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

func (m *marshaler) exprs(es []Expression) []any {
	out := make([]any, len(es))
	for i, e := range es {
		out[i] = m.expr(e)
	}
	return out
}

func (m *marshaler) expr(e Expression) object {
	o := object{"type": e.Type(), "offset": e.Loc().Offset}
	switch e := e.(type) {
	case *Literal:
		o["node"] = "Literal"
		o["value"] = m.value(e.Value)
	case *Arithmetic:
		o["node"] = "Arithmetic"
		o["operator"] = string(e.Operator)
		o["left"] = m.expr(e.Left)
		o["right"] = m.expr(e.Right)
	case *Comparison:
		o["node"] = "Comparison"
		o["operator"] = string(e.Operator)
		o["left"] = m.expr(e.Left)
		o["right"] = m.expr(e.Right)
	case *Unary:
		o["node"] = "Unary"
		o["operator"] = string(e.Operator)
		o["operand"] = m.expr(e.Operand)
	case *Conditional:
		o["node"] = "Conditional"
		o["condition"] = m.expr(e.Cond)
		o["then"] = m.expr(e.Then)
		o["else"] = m.expr(e.Else)
	case *Call:
		o["node"] = "Call"
		o["callee"] = m.expr(e.Callee)
		o["arguments"] = m.exprs(e.Args)
	case *IntrinsicCall:
		o["node"] = "IntrinsicCall"
		o["name"] = e.Name
		o["arguments"] = m.exprs(e.Args)
	case *TypeValue:
		o["node"] = "TypeValue"
		o["denoted"] = e.Denoted
	case *FunctionValue:
		o["node"] = "FunctionValue"
		o["function"] = e.Function
	case *Load:
		o["node"] = "Load"
		o["name"] = e.Name
		o["address"] = address(e.Addr)
	case *Member:
		o["node"] = "Member"
		o["object"] = m.expr(e.Parent)
		o["member"] = e.Name
		o["index"] = e.Index
	case *MemberUpdate:
		o["node"] = "MemberUpdate"
		o["object"] = m.expr(e.Parent)
		o["member"] = e.Name
		o["index"] = e.Index
		o["value"] = m.expr(e.Value)
	case *Index:
		o["node"] = "Index"
		o["object"] = m.expr(e.Parent)
		o["index"] = m.expr(e.Key)
	case *Construct:
		o["node"] = "Construct"
		o["kind"] = e.Kind.String()
		o["elements"] = m.exprs(e.Elements)
		if e.Kind == ConstructDict {
			o["keys"] = m.exprs(e.Keys)
		}
	default:
		m.fail(fmt.Errorf("cannot encode expression %T", e))
	}
	return o
}

func (m *marshaler) stmts(ss []Statement) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = m.stmt(s)
	}
	return out
}

func (m *marshaler) block(b *Block) any {
	if b == nil {
		return nil
	}
	return m.stmt(b)
}

func (m *marshaler) stmt(s Statement) object {
	o := object{"offset": s.Loc().Offset}
	switch s := s.(type) {
	case *Return:
		o["node"] = "Return"
		if s.Value != nil {
			o["value"] = m.expr(s.Value)
		}
	case *Store:
		o["node"] = "Store"
		o["name"] = s.Name
		o["address"] = address(s.Addr)
		o["value"] = m.expr(s.Value)
		o["init"] = s.Init
	case *Block:
		o["node"] = "Block"
		o["scope"] = m.scope(s.Scope)
		o["body"] = m.stmts(s.Body)
	case *If:
		o["node"] = "If"
		o["condition"] = m.expr(s.Cond)
		o["then"] = m.block(s.Then)
		o["else"] = m.block(s.Else)
	case *For:
		o["node"] = "For"
		o["start"] = m.expr(s.Start)
		o["end"] = m.expr(s.End)
		o["closed"] = s.Closed
		o["body"] = m.block(s.Body)
	case *While:
		o["node"] = "While"
		o["condition"] = m.expr(s.Cond)
		o["body"] = m.block(s.Body)
	case *ExprStmt:
		o["node"] = "ExpressionStatement"
		o["expression"] = m.expr(s.Expr)
	default:
		m.fail(fmt.Errorf("cannot encode statement %T", s))
	}
	return o
}
