package vm

import (
	"github.com/funvibe/floyd/internal/symbols"
	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/typed"
	"github.com/funvibe/floyd/internal/value"
)

const maxOperand = 0xffff

// layout returns the index of the slot table for s, creating it once.
func (c *Compiler) layout(s *typed.Scope, loc token.Location) (int, error) {
	if s == nil {
		return 0, c.defect(loc, "block without a scope")
	}
	if i, ok := c.layouts[s]; ok {
		return i, nil
	}
	if len(c.out.Layouts) > maxOperand || s.Len() > maxOperand+1 {
		return 0, c.defect(loc, "too many scopes or slots")
	}
	l := &Layout{Kind: s.Kind, Names: make([]string, s.Len())}
	for i, sym := range s.Symbols {
		l.Names[i] = sym.Name
		if sym.HasValue() {
			if l.Constants == nil {
				l.Constants = make(map[int]value.Value)
			}
			l.Constants[i] = sym.Value
		}
	}
	c.out.Layouts = append(c.out.Layouts, l)
	c.layouts[s] = len(c.out.Layouts) - 1
	return c.layouts[s], nil
}

func (c *Compiler) emit(op Opcode, loc token.Location) {
	c.currentChunk().WriteOp(op, loc)
}

func (c *Compiler) emitByte(b int, loc token.Location) {
	c.currentChunk().Write(byte(b), loc)
}

func (c *Compiler) emitUint16(v int, loc token.Location) {
	c.currentChunk().WriteUint16(v, loc)
}

func (c *Compiler) emitConstant(v value.Value, loc token.Location) error {
	idx, err := c.constant(v, loc)
	if err != nil {
		return err
	}
	c.emit(OP_CONST, loc)
	c.emitUint16(idx, loc)
	return nil
}

func (c *Compiler) constant(v value.Value, loc token.Location) (int, error) {
	if len(c.currentChunk().Constants) > maxOperand {
		return 0, c.defect(loc, "too many constants in %s", c.function.displayName())
	}
	return c.currentChunk().AddConstant(v), nil
}

func (c *Compiler) emitJump(op Opcode, loc token.Location) int {
	c.emit(op, loc)
	c.emitUint16(maxOperand, loc)
	return c.currentChunk().Len() - 2
}

// emitForTest writes FOR_TEST with a placeholder exit offset.
func (c *Compiler) emitForTest(closed bool, loc token.Location) int {
	c.emit(OP_FOR_TEST, loc)
	flag := 0
	if closed {
		flag = 1
	}
	c.emitByte(flag, loc)
	c.emitUint16(maxOperand, loc)
	return c.currentChunk().Len() - 2
}

func (c *Compiler) patchJump(offset int, loc token.Location) error {
	jump := c.currentChunk().Len() - offset - 2
	if jump > maxOperand {
		return c.defect(loc, "jump too far")
	}
	c.currentChunk().Code[offset] = byte(jump >> 8)
	c.currentChunk().Code[offset+1] = byte(jump)
	return nil
}

func (c *Compiler) emitLoop(loopStart int, loc token.Location) error {
	c.emit(OP_LOOP, loc)
	offset := c.currentChunk().Len() - loopStart + 2
	if offset > maxOperand {
		return c.defect(loc, "loop body too large")
	}
	c.emitUint16(offset, loc)
	return nil
}

// emitAddress writes the load or store of a resolved address.
func (c *Compiler) emitAddress(load bool, addr symbols.Address, loc token.Location) error {
	if addr.Slot < 0 || addr.Slot > maxOperand {
		return c.defect(loc, "slot %d out of range", addr.Slot)
	}
	if addr.IsGlobal() {
		op := OP_STORE_GLOBAL
		if load {
			op = OP_LOAD_GLOBAL
		}
		c.emit(op, loc)
		c.emitUint16(addr.Slot, loc)
		return nil
	}
	if addr.Distance < 0 || addr.Distance > maxDistance {
		return c.defect(loc, "scope distance %d out of range", addr.Distance)
	}
	op := OP_STORE
	if load {
		op = OP_LOAD
	}
	c.emit(op, loc)
	c.emitByte(addr.Distance, loc)
	c.emitUint16(addr.Slot, loc)
	return nil
}

// enterScope opens a frame laid out by the scope of b.
func (c *Compiler) enterScope(b *typed.Block) error {
	layout, err := c.layout(b.Scope, b.Location)
	if err != nil {
		return err
	}
	c.emit(OP_ENTER_SCOPE, b.Location)
	c.emitUint16(layout, b.Location)
	return nil
}

func (c *Compiler) exitScope(b *typed.Block) {
	c.emit(OP_EXIT_SCOPE, b.Location)
}
