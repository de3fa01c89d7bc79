package pipeline

import (
	"io"
	"time"

	"github.com/funvibe/floyd/internal/analyzer"
	"github.com/funvibe/floyd/internal/astjson"
	"github.com/funvibe/floyd/internal/vm"
)

// DecodeProcessor turns Source into AstRoot.
type DecodeProcessor struct{}

func (dp *DecodeProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Failed() || ctx.AstRoot != nil || ctx.Program != nil {
		return ctx
	}
	start := time.Now()
	prog, err := astjson.DecodeBytes(ctx.Source)
	if err != nil {
		return ctx.fail(err)
	}
	if ctx.FilePath != "" {
		prog.File = ctx.FilePath
	}
	ctx.AstRoot = prog
	ctx.Logger.Debug().Str("stage", "decode").Int("statements", len(prog.Statements)).
		Dur("elapsed", time.Since(start)).Msg("stage finished")
	return ctx
}

// AnalyzerProcessor resolves AstRoot into Resolved.
type AnalyzerProcessor struct{}

func (ap *AnalyzerProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Failed() || ctx.Program != nil {
		return ctx
	}
	if ctx.AstRoot == nil {
		return ctx
	}
	start := time.Now()
	resolved, err := analyzer.Analyze(ctx.AstRoot)
	if err != nil {
		ctx.Logger.Debug().Str("stage", "analyze").Err(err).Msg("stage failed")
		return ctx.fail(err)
	}
	ctx.Resolved = resolved
	ctx.Logger.Debug().Str("stage", "analyze").Int("functions", len(resolved.Functions)).
		Dur("elapsed", time.Since(start)).Msg("stage finished")
	return ctx
}

// CompilerProcessor compiles Resolved into Program.
type CompilerProcessor struct{}

func (cp *CompilerProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Failed() || ctx.Program != nil || ctx.Resolved == nil {
		return ctx
	}
	start := time.Now()
	prog, err := vm.Compile(ctx.Resolved)
	if err != nil {
		ctx.Logger.Debug().Str("stage", "compile").Err(err).Msg("stage failed")
		return ctx.fail(err)
	}
	ctx.Program = prog
	ctx.Logger.Debug().Str("stage", "compile").Str("program", prog.ID.String()).
		Int("functions", len(prog.Functions)).Dur("elapsed", time.Since(start)).Msg("stage finished")
	return ctx
}

// ExecutionProcessor runs Program and stores its Result. Printed lines go
// to Output as well when it is set.
type ExecutionProcessor struct {
	Args   []string
	Output io.Writer
}

func (ep *ExecutionProcessor) Process(ctx *PipelineContext) *PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.Failed() || ctx.Program == nil {
		return ctx
	}
	opts := vm.OptionsFromConfig(ctx.Config, ctx.Logger)
	opts.Output = ep.Output

	start := time.Now()
	result, err := vm.New(ctx.Program, opts).Run(ctx.Ctx, ep.Args)
	ctx.Result = result
	if err != nil {
		return ctx.fail(err)
	}
	ctx.Logger.Debug().Str("stage", "execute").Dur("elapsed", time.Since(start)).Msg("stage finished")
	return ctx
}
