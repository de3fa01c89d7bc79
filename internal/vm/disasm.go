package vm

import (
	"fmt"
	"strings"

	"github.com/funvibe/floyd/internal/builtins"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

// Disassemble returns a human-readable listing of every chunk in p.
func Disassemble(p *Program) string {
	var sb strings.Builder
	sb.WriteString(DisassembleChunk(p.Script.Chunk, p.Script.Name, p.Types))
	for i, fn := range p.Functions {
		if fn.IsHost() {
			continue
		}
		sb.WriteByte('\n')
		name := fmt.Sprintf("%s #%d %s", fn.displayName(), i, p.Types.String(fn.Type))
		sb.WriteString(DisassembleChunk(fn.Chunk, name, p.Types))
	}
	return sb.String()
}

// DisassembleChunk returns a human-readable representation of the bytecode
func DisassembleChunk(chunk *Chunk, name string, reg *typesystem.Registry) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	offset := 0
	for offset < len(chunk.Code) {
		offset = disassembleInstruction(&sb, chunk, reg, offset)
	}

	return sb.String()
}

// disassembleInstruction disassembles a single instruction
func disassembleInstruction(sb *strings.Builder, chunk *Chunk, reg *typesystem.Registry, offset int) int {
	sb.WriteString(fmt.Sprintf("%04d ", offset))

	// Source offset, shown once per run of equal offsets
	if offset > 0 && chunk.Offsets[offset] == chunk.Offsets[offset-1] {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", chunk.Offsets[offset]))
	}

	op := Opcode(chunk.Code[offset])
	if offset+operandWidth(op) >= len(chunk.Code) && operandWidth(op) > 0 {
		sb.WriteString(fmt.Sprintf("%s (truncated)\n", op))
		return len(chunk.Code)
	}

	switch op {
	case OP_CONST:
		return constantInstruction(sb, chunk, reg, offset)

	case OP_PICK, OP_CALL:
		return byteInstruction(sb, op, chunk, offset)

	case OP_LOAD_GLOBAL, OP_STORE_GLOBAL, OP_ENTER_SCOPE, OP_GET_MEMBER, OP_UPDATE_MEMBER:
		sb.WriteString(fmt.Sprintf("%-16s %4d\n", op, chunk.ReadUint16(offset+1)))
		return offset + 3

	case OP_LOAD, OP_STORE:
		sb.WriteString(fmt.Sprintf("%-16s %4d %4d\n", op, chunk.Code[offset+1], chunk.ReadUint16(offset+2)))
		return offset + 4

	case OP_JUMP, OP_JUMP_IF_FALSE:
		return jumpInstruction(sb, op, 1, chunk, offset)
	case OP_LOOP:
		return jumpInstruction(sb, op, -1, chunk, offset)

	case OP_FOR_TEST:
		kind := "open"
		if chunk.Code[offset+1] == 1 {
			kind = "closed"
		}
		jump := chunk.ReadUint16(offset + 2)
		sb.WriteString(fmt.Sprintf("%-16s %s -> %d\n", op, kind, offset+4+jump))
		return offset + 4

	case OP_CALL_INTRINSIC:
		name := "?"
		if in := builtins.IntrinsicByID(int(chunk.Code[offset+1])); in != nil {
			name = in.Name
		}
		sb.WriteString(fmt.Sprintf("%-16s %4d '%s'\n", op, chunk.Code[offset+2], name))
		return offset + 3

	case OP_MAKE_VECTOR, OP_MAKE_DICT, OP_MAKE_STRUCT:
		idx := chunk.ReadUint16(offset + 1)
		count := chunk.ReadUint16(offset + 3)
		t := "(invalid)"
		if idx < len(chunk.Constants) {
			t = reg.String(chunk.Constants[idx].AsTypeID())
		}
		sb.WriteString(fmt.Sprintf("%-16s %4d %s\n", op, count, t))
		return offset + 5
	}

	if _, ok := opcodeNames[op]; !ok {
		sb.WriteString(fmt.Sprintf("Unknown opcode %d\n", op))
		return offset + 1
	}
	return simpleInstruction(sb, op, offset)
}

func simpleInstruction(sb *strings.Builder, op Opcode, offset int) int {
	sb.WriteString(fmt.Sprintf("%s\n", op))
	return offset + 1
}

func constantInstruction(sb *strings.Builder, chunk *Chunk, reg *typesystem.Registry, offset int) int {
	idx := chunk.ReadUint16(offset + 1)

	if idx < len(chunk.Constants) {
		sb.WriteString(fmt.Sprintf("%-16s %4d '%s'\n", OP_CONST, idx, constantString(reg, chunk.Constants[idx])))
	} else {
		sb.WriteString(fmt.Sprintf("%-16s %4d (invalid)\n", OP_CONST, idx))
	}

	return offset + 3
}

func constantString(reg *typesystem.Registry, v value.Value) string {
	switch v.Kind() {
	case typesystem.KindFunction:
		return "func " + v.AsFunction().Name
	case typesystem.KindTypeID:
		return reg.String(v.AsTypeID())
	}
	return value.Format(reg, v)
}

func byteInstruction(sb *strings.Builder, op Opcode, chunk *Chunk, offset int) int {
	slot := chunk.Code[offset+1]
	sb.WriteString(fmt.Sprintf("%-16s %4d\n", op, slot))
	return offset + 2
}

func jumpInstruction(sb *strings.Builder, op Opcode, sign int, chunk *Chunk, offset int) int {
	jump := chunk.ReadUint16(offset + 1)
	target := offset + 3 + sign*jump
	sb.WriteString(fmt.Sprintf("%-16s %4d -> %d\n", op, jump, target))
	return offset + 3
}
