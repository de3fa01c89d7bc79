package vm

import (
	"math"

	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

var operatorSymbols = map[Opcode]string{
	OP_ADD: "+", OP_SUB: "-", OP_MUL: "*", OP_DIV: "/", OP_MOD: "%",
	OP_EQ: "==", OP_NE: "!=", OP_LT: "<", OP_LE: "<=", OP_GT: ">", OP_GE: ">=",
}

func (vm *VM) typeName(v value.Value) string {
	if !v.IsValid() {
		return "an uninitialized value"
	}
	return vm.prog.Types.String(v.Type())
}

// binaryOp handles arithmetic on two operands of one type: ints and doubles
// for every operator, strings and vectors for + only.
func (vm *VM) binaryOp(op Opcode) error {
	b := vm.pop()
	a := vm.pop()
	if a.Kind() != b.Kind() {
		return vm.runtimeError("operator %s applied to %s and %s", operatorSymbols[op], vm.typeName(a), vm.typeName(b))
	}

	switch a.Kind() {
	case typesystem.KindInt:
		x, y := a.AsInt(), b.AsInt()
		switch op {
		case OP_ADD:
			vm.push(value.Int(x + y))
		case OP_SUB:
			vm.push(value.Int(x - y))
		case OP_MUL:
			vm.push(value.Int(x * y))
		case OP_DIV:
			if y == 0 {
				return vm.runtimeError("division by zero")
			}
			vm.push(value.Int(x / y))
		case OP_MOD:
			if y == 0 {
				return vm.runtimeError("remainder by zero")
			}
			vm.push(value.Int(x % y))
		}
		return nil

	case typesystem.KindDouble:
		x, y := a.AsDouble(), b.AsDouble()
		switch op {
		case OP_ADD:
			vm.push(value.Double(x + y))
		case OP_SUB:
			vm.push(value.Double(x - y))
		case OP_MUL:
			vm.push(value.Double(x * y))
		case OP_DIV:
			if y == 0 {
				return vm.runtimeError("division by zero")
			}
			vm.push(value.Double(x / y))
		case OP_MOD:
			if y == 0 {
				return vm.runtimeError("remainder by zero")
			}
			vm.push(value.Double(math.Mod(x, y)))
		}
		return nil

	case typesystem.KindString:
		if op == OP_ADD {
			vm.push(value.String(a.AsString() + b.AsString()))
			return nil
		}

	case typesystem.KindVector:
		if op == OP_ADD {
			out := a
			for _, e := range b.Elements() {
				out = out.Append(e)
			}
			vm.push(out)
			return nil
		}
	}
	return vm.runtimeError("operator %s not defined for %s", operatorSymbols[op], vm.typeName(a))
}

func (vm *VM) comparisonOp(op Opcode) error {
	b := vm.pop()
	a := vm.pop()

	if op == OP_EQ || op == OP_NE {
		eq, err := value.Equals(a, b)
		if err != nil {
			return vm.runtimeError("%v", err)
		}
		vm.push(value.Bool(eq == (op == OP_EQ)))
		return nil
	}

	c, err := value.Compare(a, b)
	if err != nil {
		return vm.runtimeError("%v", err)
	}
	var result bool
	switch op {
	case OP_LT:
		result = c < 0
	case OP_LE:
		result = c <= 0
	case OP_GT:
		result = c > 0
	case OP_GE:
		result = c >= 0
	}
	vm.push(value.Bool(result))
	return nil
}

// getIndex reads parent[key]. Missing elements are runtime errors.
func (vm *VM) getIndex(parent, key value.Value) (value.Value, error) {
	switch parent.Kind() {
	case typesystem.KindVector:
		i := key.AsInt()
		if i < 0 || i >= int64(parent.Len()) {
			return value.Value{}, vm.runtimeError("index %d out of bounds for vector of size %d", i, parent.Len())
		}
		e, _ := parent.Index(int(i))
		return e, nil

	case typesystem.KindDict:
		k := key.AsString()
		e, ok := parent.Lookup(k)
		if !ok {
			return value.Value{}, vm.runtimeError("key %q not found", k)
		}
		return e, nil

	case typesystem.KindString:
		s := parent.AsString()
		i := key.AsInt()
		if i < 0 || i >= int64(len(s)) {
			return value.Value{}, vm.runtimeError("index %d out of bounds for string of size %d", i, len(s))
		}
		return value.Int(int64(s[i])), nil

	case typesystem.KindJSON:
		j := parent.AsJSON()
		if key.Kind() == typesystem.KindString {
			m, ok := j.Member(key.AsString())
			if !ok {
				return value.Value{}, vm.runtimeError("json has no member %q", key.AsString())
			}
			return value.JSONValue(m), nil
		}
		i := key.AsInt()
		if i < 0 || i >= int64(j.Len()) {
			return value.Value{}, vm.runtimeError("index %d out of bounds for json of size %d", i, j.Len())
		}
		e, ok := j.At(int(i))
		if !ok {
			return value.Value{}, vm.runtimeError("json value is not an array")
		}
		return value.JSONValue(e), nil
	}
	return value.Value{}, vm.runtimeError("cannot index %s", vm.typeName(parent))
}
