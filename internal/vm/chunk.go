package vm

import (
	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/value"
)

// Chunk represents a sequence of bytecode instructions
type Chunk struct {
	// Code is the bytecode instructions
	Code []byte

	// Constants pool - literals, type values, function values
	Constants []value.Value

	// Offsets maps every byte of Code to the source offset it was compiled from
	Offsets []int
}

// NewChunk creates a new empty chunk
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 256),
		Constants: make([]value.Value, 0, 16),
		Offsets:   make([]int, 0, 256),
	}
}

// Write adds a byte to the chunk with its source location
func (c *Chunk) Write(b byte, loc token.Location) {
	c.Code = append(c.Code, b)
	c.Offsets = append(c.Offsets, loc.Offset)
}

// WriteOp writes an opcode to the chunk
func (c *Chunk) WriteOp(op Opcode, loc token.Location) {
	c.Write(byte(op), loc)
}

// WriteUint16 writes a big-endian 16-bit operand
func (c *Chunk) WriteUint16(v int, loc token.Location) {
	c.Write(byte(v>>8), loc)
	c.Write(byte(v), loc)
}

// AddConstant adds a constant to the pool and returns its index
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// ReadUint16 reads a 2-byte operand at offset
func (c *Chunk) ReadUint16(offset int) int {
	return int(c.Code[offset])<<8 | int(c.Code[offset+1])
}

// OffsetAt returns the source offset of the instruction byte at ip
func (c *Chunk) OffsetAt(ip int) int {
	if ip < 0 || ip >= len(c.Offsets) {
		return token.NoOffset
	}
	return c.Offsets[ip]
}

// Len returns the number of bytes in the chunk
func (c *Chunk) Len() int {
	return len(c.Code)
}
