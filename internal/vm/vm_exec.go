package vm

import (
	"math"

	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

// executeOneOp executes a single opcode (except RETURN and HALT)
func (vm *VM) executeOneOp(op Opcode) error {
	switch op {
	case OP_CONST:
		vm.push(vm.readConstant())

	case OP_POP:
		vm.pop()

	case OP_DUP:
		vm.push(vm.peek(0))

	case OP_PICK:
		vm.push(vm.peek(int(vm.readByte())))

	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOD:
		return vm.binaryOp(op)

	case OP_NEG:
		v := vm.pop()
		switch v.Kind() {
		case typesystem.KindInt:
			vm.push(value.Int(-v.AsInt()))
		case typesystem.KindDouble:
			vm.push(value.Double(-v.AsDouble()))
		default:
			return vm.runtimeError("operator - not defined for %s", vm.typeName(v))
		}

	case OP_EQ, OP_NE, OP_LT, OP_LE, OP_GT, OP_GE:
		return vm.comparisonOp(op)

	case OP_NOT:
		v := vm.pop()
		if v.Kind() != typesystem.KindBool {
			return vm.runtimeError("operator ! not defined for %s", vm.typeName(v))
		}
		vm.push(value.Bool(!v.AsBool()))

	case OP_LOAD, OP_STORE:
		dist := int(vm.readByte())
		slot := vm.readUint16()
		f, err := vm.frameAt(dist, slot)
		if err != nil {
			return err
		}
		if op == OP_LOAD {
			return vm.load(f, slot)
		}
		f.slots[slot] = vm.pop()

	case OP_LOAD_GLOBAL, OP_STORE_GLOBAL:
		slot := vm.readUint16()
		if slot >= len(vm.global.slots) {
			return vm.runtimeError("global slot %d out of range", slot)
		}
		if op == OP_LOAD_GLOBAL {
			return vm.load(vm.global, slot)
		}
		vm.global.slots[slot] = vm.pop()

	case OP_JUMP:
		offset := vm.readUint16()
		vm.ip += offset

	case OP_JUMP_IF_FALSE:
		offset := vm.readUint16()
		cond := vm.peek(0)
		if cond.Kind() != typesystem.KindBool {
			return vm.runtimeError("condition is %s, not bool", vm.typeName(cond))
		}
		if !cond.AsBool() {
			vm.ip += offset
		}

	case OP_LOOP:
		offset := vm.readUint16()
		vm.ip -= offset

	case OP_ENTER_SCOPE:
		layout := vm.readUint16()
		if layout >= len(vm.prog.Layouts) {
			return vm.runtimeError("layout %d out of range", layout)
		}
		vm.frame = vm.newFrame(layout, vm.frame)

	case OP_EXIT_SCOPE:
		if vm.frame.parent == nil {
			return vm.runtimeError("scope exit without a matching entry")
		}
		vm.frame = vm.frame.parent

	case OP_FOR_TEST:
		closed := vm.readByte() == 1
		offset := vm.readUint16()
		i, end := vm.peek(1).AsInt(), vm.peek(0).AsInt()
		if i > end || !closed && i == end {
			vm.ip += offset
		}

	case OP_FOR_NEXT:
		if vm.sp < 2 {
			panic(errStackUnderflow)
		}
		it := vm.sp - 2
		i := vm.stack[it].AsInt()
		if i == math.MaxInt64 {
			// Moving the bound below any iterator ends a closed range that
			// reaches the largest int.
			vm.stack[it+1] = value.Int(math.MinInt64)
		} else {
			vm.stack[it] = value.Int(i + 1)
		}

	case OP_CALL:
		argc := int(vm.readByte())
		return vm.callValue(argc)

	case OP_CALL_INTRINSIC:
		id := int(vm.readByte())
		argc := int(vm.readByte())
		return vm.callIntrinsic(id, argc)

	case OP_MAKE_VECTOR:
		t := vm.readType()
		n := vm.readUint16()
		vm.push(value.Vector(t, vm.popN(n)))

	case OP_MAKE_DICT:
		t := vm.readType()
		n := vm.readUint16()
		parts := vm.popN(2 * n)
		entries := make(map[string]value.Value, n)
		for i := 0; i < len(parts); i += 2 {
			entries[parts[i].AsString()] = parts[i+1]
		}
		vm.push(value.Dict(t, entries))

	case OP_MAKE_STRUCT:
		t := vm.readType()
		n := vm.readUint16()
		vm.push(value.Struct(t, vm.popN(n)))

	case OP_GET_MEMBER:
		idx := vm.readUint16()
		s := vm.pop()
		if err := vm.checkMember(s, idx); err != nil {
			return err
		}
		vm.push(s.Field(idx))

	case OP_UPDATE_MEMBER:
		idx := vm.readUint16()
		v := vm.pop()
		s := vm.pop()
		if err := vm.checkMember(s, idx); err != nil {
			return err
		}
		vm.push(s.WithField(idx, v))

	case OP_GET_INDEX:
		key := vm.pop()
		parent := vm.pop()
		v, err := vm.getIndex(parent, key)
		if err != nil {
			return err
		}
		vm.push(v)

	default:
		return vm.runtimeError("unknown opcode %s", op)
	}
	return nil
}

// frameAt walks dist static links out and checks that slot exists there.
func (vm *VM) frameAt(dist, slot int) (*frame, error) {
	f := vm.frame
	for i := 0; i < dist && f != nil; i++ {
		f = f.parent
	}
	if f == nil {
		return nil, vm.runtimeError("no frame %d scopes out", dist)
	}
	if slot >= len(f.slots) {
		return nil, vm.runtimeError("slot %d out of range in frame of %d", slot, len(f.slots))
	}
	return f, nil
}

func (vm *VM) checkMember(s value.Value, idx int) error {
	if s.Kind() != typesystem.KindStruct {
		return vm.runtimeError("member access on %s", vm.typeName(s))
	}
	if idx >= s.FieldCount() {
		return vm.runtimeError("member %d out of range for %s", idx, vm.typeName(s))
	}
	return nil
}
