package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
	"github.com/rs/zerolog"

	"github.com/funvibe/floyd/internal/analyzer"
	b "github.com/funvibe/floyd/internal/ast/astbuild"
	"github.com/funvibe/floyd/internal/pipeline"
	"github.com/funvibe/floyd/internal/vm"
)

const source = `{"type": "Program", "body": [
  {"type": "ExpressionStatement", "expression": {"type": "Call",
    "callee": {"type": "Identifier", "name": "print"},
    "arguments": [{"type": "StringLiteral", "value": "cached"}]}}
]}`

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path, zerolog.Nop())
	be.Err(t, err, nil)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func compiled(t *testing.T) *vm.Program {
	t.Helper()
	tp, err := analyzer.Analyze(b.Prog(b.Let("result", b.Int(5))))
	be.Err(t, err, nil)
	p, err := vm.Compile(tp)
	be.Err(t, err, nil)
	return p
}

func TestKey(t *testing.T) {
	be.Equal(t, Key([]byte("a")), Key([]byte("a")))
	be.True(t, Key([]byte("a")) != Key([]byte("b")))
	be.Equal(t, len(Key(nil)), 64)
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s, path := openStore(t)
	p := compiled(t)

	_, ok, err := s.Get(ctx, "missing")
	be.Err(t, err, nil)
	be.True(t, !ok)

	be.Err(t, s.Put(ctx, "k", p), nil)
	be.Err(t, s.Put(ctx, "k", p), nil)
	n, err := s.Len(ctx)
	be.Err(t, err, nil)
	be.Equal(t, n, 1)

	got, ok, err := s.Get(ctx, "k")
	be.Err(t, err, nil)
	be.True(t, ok)
	be.Equal(t, got.ID, p.ID)

	res, err := vm.New(got, vm.Options{}).Run(ctx, nil)
	be.Err(t, err, nil)
	be.Equal(t, res.Exit.AsInt(), int64(5))

	// Entries survive reopening.
	be.Err(t, s.Close(), nil)
	s2, err := Open(path, zerolog.Nop())
	be.Err(t, err, nil)
	defer s2.Close()
	_, ok, err = s2.Get(ctx, "k")
	be.Err(t, err, nil)
	be.True(t, ok)
}

func TestUnreadableEntryIsDropped(t *testing.T) {
	ctx := context.Background()
	s, _ := openStore(t)
	_, err := s.db.Exec(`INSERT INTO programs (key, program_id, file, data, created_at) VALUES ('bad', '', '', x'00', 0)`)
	be.Err(t, err, nil)

	_, ok, err := s.Get(ctx, "bad")
	be.Err(t, err, nil)
	be.True(t, !ok)
	n, err := s.Len(ctx)
	be.Err(t, err, nil)
	be.Equal(t, n, 0)
}

func TestProcessors(t *testing.T) {
	s, _ := openStore(t)
	run := func() *pipeline.PipelineContext {
		p := pipeline.New(
			&LoadProcessor{Store: s},
			&pipeline.DecodeProcessor{},
			&pipeline.AnalyzerProcessor{},
			&pipeline.CompilerProcessor{},
			&StoreProcessor{Store: s},
			&pipeline.ExecutionProcessor{},
		)
		final := p.Run(pipeline.NewPipelineContext([]byte(source)))
		be.Err(t, final.Err(), nil)
		return final
	}

	first := run()
	be.True(t, !first.CacheHit)
	be.True(t, first.AstRoot != nil)
	be.Equal(t, first.Result.Printed, []string{"cached"})

	second := run()
	be.True(t, second.CacheHit)
	be.True(t, second.AstRoot == nil)
	be.Equal(t, second.Program.ID, first.Program.ID)
	be.Equal(t, second.Result.Printed, []string{"cached"})
}

func TestNilStoreIsSkipped(t *testing.T) {
	ctx := pipeline.NewPipelineContext([]byte(source))
	final := pipeline.New(&LoadProcessor{}, &StoreProcessor{}).Run(ctx)
	be.True(t, !final.Failed())
	be.True(t, final.Program == nil)
}
