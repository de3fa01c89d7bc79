// Package pipeline runs the stages that take a JSON syntax tree to a finished
// run: decode, analyze, compile and execute.
package pipeline

// Processor is one stage. It reads what earlier stages left in the context
// and records its own output or errors there.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Stages return early once an error is recorded, so later
		// stages only see the first failure.
	}
	return ctx
}
