package cache

import (
	"github.com/funvibe/floyd/internal/pipeline"
)

// LoadProcessor fills Program from the store when Source was compiled
// before. It runs ahead of decoding; a hit skips every stage up to execution.
type LoadProcessor struct {
	Store *Store
}

func (lp *LoadProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if lp.Store == nil || ctx.Failed() || ctx.Program != nil || len(ctx.Source) == 0 {
		return ctx
	}
	key := Key(ctx.Source)
	prog, ok, err := lp.Store.Get(ctx.Ctx, key)
	if err != nil {
		// The cache is an optimisation; a broken store only costs a recompile.
		ctx.Logger.Warn().Err(err).Msg("cache lookup failed")
		return ctx
	}
	if ok {
		ctx.Program = prog
		ctx.CacheHit = true
	}
	ctx.Logger.Debug().Str("stage", "cache").Str("key", key[:12]).Bool("hit", ok).Msg("cache lookup")
	return ctx
}

// StoreProcessor records a freshly compiled Program.
type StoreProcessor struct {
	Store *Store
}

func (sp *StoreProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if sp.Store == nil || ctx.Failed() || ctx.Program == nil || ctx.CacheHit || len(ctx.Source) == 0 {
		return ctx
	}
	if err := sp.Store.Put(ctx.Ctx, Key(ctx.Source), ctx.Program); err != nil {
		ctx.Logger.Warn().Err(err).Msg("cache store failed")
	}
	return ctx
}
