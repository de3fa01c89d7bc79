package vm

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/funvibe/floyd/internal/builtins"
	"github.com/funvibe/floyd/internal/diagnostics"
	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/typed"
)

const scriptName = "<script>"

// Compiler lowers a resolved program to bytecode. Addresses come from the
// analyzer unchanged; the compiler only materializes them.
type Compiler struct {
	prog *typed.Program
	out  *Program

	// Function being compiled
	function *CompiledFunction

	layouts map[*typed.Scope]int
}

// Compile lowers p. Every error it returns is a C001 diagnostic: a tree the
// analyzer should never have produced.
func Compile(p *typed.Program) (*Program, error) {
	if p == nil || p.Types == nil || p.Globals == nil {
		return nil, diagnostics.NewError(diagnostics.ErrC001, token.Synthetic(), "incomplete resolved program")
	}
	c := &Compiler{
		prog: p,
		out: &Program{
			ID:    uuid.New(),
			File:  p.File,
			Types: p.Types,
			Entry: p.Entry,
		},
		layouts: make(map[*typed.Scope]int),
	}
	if err := c.compileProgram(); err != nil {
		return nil, err
	}
	return c.out, nil
}

func (c *Compiler) compileProgram() error {
	// Function values only need the index, so every function exists before
	// any body is compiled.
	c.out.Functions = make([]*CompiledFunction, len(c.prog.Functions))
	for i, def := range c.prog.Functions {
		if def == nil {
			return c.defect(token.Synthetic(), "function %d is missing", i)
		}
		c.out.Functions[i] = &CompiledFunction{
			Name:    def.Name,
			Type:    def.Type,
			Arity:   len(c.prog.Types.Get(def.Type).Params),
			Layout:  -1,
			Linkage: def.Linkage,
		}
	}

	globals, err := c.layout(c.prog.Globals, token.Synthetic())
	if err != nil {
		return err
	}
	c.out.Script = &CompiledFunction{Name: scriptName, Layout: globals, Chunk: NewChunk()}
	c.function = c.out.Script
	if err := c.compileStatements(c.prog.Body); err != nil {
		return err
	}
	c.emit(OP_HALT, token.Synthetic())

	for i, def := range c.prog.Functions {
		if def.IsHost() {
			if _, ok := builtins.LookupHost(def.Linkage); !ok {
				return c.defect(def.Location, "unknown host linkage %q", def.Linkage)
			}
			continue
		}
		if err := c.compileFunction(c.out.Functions[i], def); err != nil {
			return err
		}
	}
	if e := c.prog.Entry; e.Kind == typed.EntryMain && (e.Function < 0 || e.Function >= len(c.out.Functions)) {
		return c.defect(token.Synthetic(), "entry function %d out of range", e.Function)
	}
	return nil
}

// compileFunction compiles a body into its own chunk. The frame a call
// creates is laid out by the body scope, parameters first.
func (c *Compiler) compileFunction(fn *CompiledFunction, def *typed.FunctionDef) error {
	if def.Body.Scope == nil || def.ParamCount != fn.Arity {
		return c.defect(def.Location, "function %s has a malformed body", fn.displayName())
	}
	layout, err := c.layout(def.Body.Scope, def.Location)
	if err != nil {
		return err
	}
	fn.Layout = layout
	fn.Chunk = NewChunk()

	saved := c.function
	c.function = fn
	defer func() { c.function = saved }()

	if err := c.compileStatements(def.Body.Body); err != nil {
		return err
	}
	// Non-void bodies always return before this point.
	c.emit(OP_RETURN_VOID, def.Location)
	return nil
}

func (c *Compiler) currentChunk() *Chunk {
	return c.function.Chunk
}

// defect reports a resolved tree the compiler cannot lower.
func (c *Compiler) defect(loc token.Location, format string, args ...any) error {
	return diagnostics.NewError(diagnostics.ErrC001, loc, fmt.Sprintf(format, args...))
}
