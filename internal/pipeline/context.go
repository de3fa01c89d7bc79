package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/funvibe/floyd/internal/ast"
	"github.com/funvibe/floyd/internal/config"
	"github.com/funvibe/floyd/internal/typed"
	"github.com/funvibe/floyd/internal/vm"
)

// PipelineContext carries one source unit through the stages.
type PipelineContext struct {
	Ctx      context.Context
	Config   *config.Config
	Logger   zerolog.Logger
	FilePath string

	// Source is the JSON syntax tree. Stages after decoding may also start
	// from AstRoot directly.
	Source   []byte
	AstRoot  *ast.Program
	Resolved *typed.Program
	Program  *vm.Program
	// CacheHit is set when Program came from the compiled-program store.
	CacheHit bool
	Result   *vm.Result

	Errors []error
}

func NewPipelineContext(source []byte) *PipelineContext {
	return &PipelineContext{
		Ctx:    context.Background(),
		Config: config.Default(),
		Logger: zerolog.Nop(),
		Source: source,
	}
}

// Failed reports whether any stage recorded an error.
func (c *PipelineContext) Failed() bool {
	return len(c.Errors) > 0
}

// Err returns the first recorded error.
func (c *PipelineContext) Err() error {
	if len(c.Errors) == 0 {
		return nil
	}
	return c.Errors[0]
}

func (c *PipelineContext) fail(err error) *PipelineContext {
	c.Errors = append(c.Errors, err)
	return c
}
