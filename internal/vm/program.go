package vm

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/google/uuid"

	"github.com/funvibe/floyd/internal/symbols"
	"github.com/funvibe/floyd/internal/typed"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

// FormatVersion is the serialized program format written by Serialize.
const FormatVersion = 0x01

var bytecodeMagic = []byte{0x46, 0x4c, 0x59, 0x42} // "FLYB"

// Layout is the slot table of one scope. Constants holds the precomputed
// value of every constant slot; a fresh frame starts from it.
type Layout struct {
	Kind      symbols.ScopeType
	Names     []string
	Constants map[int]value.Value
}

// Size is the number of slots in a frame with this layout.
func (l *Layout) Size() int { return len(l.Names) }

// CompiledFunction is one function of the program. Host functions have a
// Linkage and no Chunk.
type CompiledFunction struct {
	Name    string
	Type    typesystem.TypeID
	Arity   int
	Layout  int
	Chunk   *Chunk
	Linkage string
}

func (f *CompiledFunction) IsHost() bool { return f.Linkage != "" }

func (f *CompiledFunction) displayName() string {
	if f.Name == "" {
		return "<function>"
	}
	return f.Name
}

// Program is a compiled compilation unit.
type Program struct {
	ID        uuid.UUID
	File      string
	Types     *typesystem.Registry
	Script    *CompiledFunction
	Functions []*CompiledFunction
	Layouts   []*Layout
	Entry     typed.Entry
}

// Serialize converts a Program to binary format.
// Format:
// - Magic number (4 bytes): "FLYB"
// - Version (1 byte)
// - Gob-encoded Program data
func (p *Program) Serialize() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(bytecodeMagic)
	buf.WriteByte(FormatVersion)

	if err := gob.NewEncoder(buf).Encode(p); err != nil {
		return nil, fmt.Errorf("program gob encoding failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Deserialize reads data written by Serialize.
func Deserialize(data []byte) (*Program, error) {
	if len(data) < len(bytecodeMagic)+1 {
		return nil, fmt.Errorf("bytecode data too short")
	}
	if !bytes.Equal(data[:len(bytecodeMagic)], bytecodeMagic) {
		return nil, fmt.Errorf("invalid magic number, expected FLYB")
	}
	if version := data[len(bytecodeMagic)]; version != FormatVersion {
		return nil, fmt.Errorf("unsupported bytecode version: %d (this binary supports version %d)", version, FormatVersion)
	}

	var p Program
	if err := gob.NewDecoder(bytes.NewReader(data[len(bytecodeMagic)+1:])).Decode(&p); err != nil {
		return nil, fmt.Errorf("program gob decoding failed: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("program validation failed: %w", err)
	}
	return &p, nil
}

// Validate checks the structural integrity of a deserialized program.
func (p *Program) Validate() error {
	if p.Types == nil {
		return fmt.Errorf("program has no type registry")
	}
	if p.Script == nil || p.Script.Chunk == nil || len(p.Script.Chunk.Code) == 0 {
		return fmt.Errorf("program has empty script bytecode")
	}
	check := func(f *CompiledFunction) error {
		if f.Layout < 0 || f.Layout >= len(p.Layouts) {
			return fmt.Errorf("function %s has layout %d of %d", f.displayName(), f.Layout, len(p.Layouts))
		}
		if !f.IsHost() && f.Chunk == nil {
			return fmt.Errorf("function %s has no bytecode", f.displayName())
		}
		return nil
	}
	if err := check(p.Script); err != nil {
		return err
	}
	for _, f := range p.Functions {
		if f.IsHost() {
			continue
		}
		if err := check(f); err != nil {
			return err
		}
	}
	if p.Entry.Kind == typed.EntryMain && (p.Entry.Function < 0 || p.Entry.Function >= len(p.Functions)) {
		return fmt.Errorf("entry function %d out of range", p.Entry.Function)
	}
	return nil
}
