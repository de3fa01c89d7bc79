// Package floyd compiles and runs programs handed over by a parser as JSON
// syntax trees.
package floyd

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/funvibe/floyd/internal/ast"
	"github.com/funvibe/floyd/internal/cache"
	"github.com/funvibe/floyd/internal/config"
	"github.com/funvibe/floyd/internal/pipeline"
	"github.com/funvibe/floyd/internal/typed"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
	"github.com/funvibe/floyd/internal/vm"
)

// Options configure a compile or run. The zero value uses config.Default
// with no logging, no cache and no output echo.
type Options struct {
	Config *config.Config
	Logger zerolog.Logger
	// FilePath names the source in diagnostics.
	FilePath string
	// Output receives printed lines as they are produced.
	Output io.Writer
}

// Program is a compiled instruction program.
type Program struct {
	prog *vm.Program
}

// Result is the outcome of a run: the entry point's value and every line
// printed, including those printed before a runtime error.
type Result struct {
	Exit    value.Value
	Printed []string
	types   *typesystem.Registry
}

// ExitString renders the exit value; a void exit renders as "".
func (r *Result) ExitString() string {
	if r.Exit.IsVoid() || !r.Exit.IsValid() {
		return ""
	}
	return value.Format(r.types, r.Exit)
}

func (o Options) context(ctx context.Context, source []byte) *pipeline.PipelineContext {
	pc := pipeline.NewPipelineContext(source)
	if ctx != nil {
		pc.Ctx = ctx
	}
	if o.Config != nil {
		pc.Config = o.Config
	}
	pc.Logger = o.Logger
	pc.FilePath = o.FilePath
	return pc
}

func (o Options) openCache(cfg *config.Config) (*cache.Store, error) {
	if cfg.Cache.Path == "" {
		return nil, nil
	}
	return cache.Open(cfg.Cache.Path, o.Logger)
}

// Compile decodes, analyzes and compiles a JSON syntax tree. When the
// configuration names a cache, compiled programs are looked up there first
// and stored there afterwards.
func Compile(ctx context.Context, source []byte, opts Options) (*Program, error) {
	pc := opts.context(ctx, source)
	store, err := opts.openCache(pc.Config)
	if err != nil {
		return nil, err
	}
	if store != nil {
		defer store.Close()
	}

	final := pipeline.New(
		&cache.LoadProcessor{Store: store},
		&pipeline.DecodeProcessor{},
		&pipeline.AnalyzerProcessor{},
		&pipeline.CompilerProcessor{},
		&cache.StoreProcessor{Store: store},
	).Run(pc)
	if err := final.Err(); err != nil {
		return nil, err
	}
	return &Program{prog: final.Program}, nil
}

// CompileTree compiles an unresolved tree built in memory.
func CompileTree(ctx context.Context, tree *ast.Program, opts Options) (*Program, error) {
	pc := opts.context(ctx, nil)
	pc.AstRoot = tree
	final := pipeline.New(&pipeline.AnalyzerProcessor{}, &pipeline.CompilerProcessor{}).Run(pc)
	if err := final.Err(); err != nil {
		return nil, err
	}
	return &Program{prog: final.Program}, nil
}

// Run compiles source and executes it with args. A runtime error still
// returns the Result holding the lines printed before it.
func Run(ctx context.Context, source []byte, args []string, opts Options) (*Result, error) {
	p, err := Compile(ctx, source, opts)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, args, opts)
}

// RunTree compiles and executes an unresolved tree built in memory.
func RunTree(ctx context.Context, tree *ast.Program, args []string, opts Options) (*Result, error) {
	p, err := CompileTree(ctx, tree, opts)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, args, opts)
}

// Resolve analyzes source and returns the resolved tree as JSON, with every
// expression's type and every variable's address, for a native backend.
func Resolve(ctx context.Context, source []byte, opts Options) ([]byte, error) {
	final := pipeline.New(&pipeline.DecodeProcessor{}, &pipeline.AnalyzerProcessor{}).Run(opts.context(ctx, source))
	if err := final.Err(); err != nil {
		return nil, err
	}
	return typed.Marshal(final.Resolved)
}

// Load reads a program written by Serialize.
func Load(data []byte) (*Program, error) {
	p, err := vm.Deserialize(data)
	if err != nil {
		return nil, err
	}
	return &Program{prog: p}, nil
}

// Run executes the program.
func (p *Program) Run(ctx context.Context, args []string, opts Options) (*Result, error) {
	pc := opts.context(ctx, nil)
	pc.Program = p.prog
	final := pipeline.New(&pipeline.ExecutionProcessor{Args: args, Output: opts.Output}).Run(pc)

	var res *Result
	if final.Result != nil {
		res = &Result{Exit: final.Result.Exit, Printed: final.Result.Printed, types: p.prog.Types}
	}
	return res, final.Err()
}

// ID identifies the compilation that produced p.
func (p *Program) ID() string { return p.prog.ID.String() }

// Disassemble lists every instruction of p.
func (p *Program) Disassemble() string { return vm.Disassemble(p.prog) }

// Serialize encodes p in the binary program format.
func (p *Program) Serialize() ([]byte, error) { return p.prog.Serialize() }
