package floyd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	b "github.com/funvibe/floyd/internal/ast/astbuild"
	"github.com/funvibe/floyd/internal/config"
	"github.com/funvibe/floyd/internal/diagnostics"
	"github.com/funvibe/floyd/internal/vm"
)

const greet = `{"type": "Program", "body": [
  {"type": "FunctionDeclaration", "name": "main", "function": {
    "type": "FunctionLiteral", "returnType": "int",
    "parameters": [{"name": "args", "paramType": {"type": "VectorType", "element": "string"}}],
    "body": {"type": "Block", "body": [
      {"type": "ExpressionStatement", "expression": {"type": "Call",
        "callee": {"type": "Identifier", "name": "print"},
        "arguments": [{"type": "Index",
          "object": {"type": "Identifier", "name": "args"},
          "index": {"type": "IntegerLiteral", "value": 0}}]}},
      {"type": "Return", "value": {"type": "Call",
        "callee": {"type": "Identifier", "name": "size"},
        "arguments": [{"type": "Identifier", "name": "args"}]}}
    ]}
  }}
]}`

func TestRun(t *testing.T) {
	var out bytes.Buffer
	res, err := Run(context.Background(), []byte(greet), []string{"world"}, Options{Output: &out})
	be.Err(t, err, nil)
	be.Equal(t, res.ExitString(), "1")
	be.Equal(t, res.Exit.AsInt(), int64(1))
	be.Equal(t, res.Printed, []string{"world"})
	be.Equal(t, out.String(), "world\n")
}

func TestRunTree(t *testing.T) {
	res, err := RunTree(context.Background(),
		b.Prog(b.Let("result", b.Vec(b.Int(1), b.Int(2)))), nil, Options{})
	be.Err(t, err, nil)
	be.Equal(t, res.ExitString(), "[1, 2]")

	res, err = RunTree(context.Background(), b.Prog(b.Expr(b.CallN("print", b.Int(1)))), nil, Options{})
	be.Err(t, err, nil)
	be.Equal(t, res.ExitString(), "")
}

func TestRunErrors(t *testing.T) {
	_, err := RunTree(context.Background(), b.Prog(b.Expr(b.CallN("print", b.Id("missing")))), nil, Options{})
	be.Equal(t, diagnostics.CodeOf(err), diagnostics.ErrR001)

	res, err := RunTree(context.Background(), b.Prog(
		b.Expr(b.CallN("print", b.Str("a"))),
		b.Expr(b.CallN("assert", b.Bool(false))),
	), nil, Options{})
	var re *vm.RuntimeError
	be.True(t, errors.As(err, &re))
	be.Equal(t, res.Printed, []string{"a"})
}

func TestLimitsFromConfig(t *testing.T) {
	cfg, err := config.ParseConfig([]byte("limits:\n  max_instructions: 500\n"), "floyd.yaml")
	be.Err(t, err, nil)
	_, err = RunTree(context.Background(), b.Prog(b.While(b.Bool(true))), nil, Options{Config: cfg})
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "instruction budget"))
}

func TestCompileUsesCache(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Path = filepath.Join(t.TempDir(), "programs.db")
	opts := Options{Config: cfg}

	first, err := Compile(context.Background(), []byte(greet), opts)
	be.Err(t, err, nil)
	second, err := Compile(context.Background(), []byte(greet), opts)
	be.Err(t, err, nil)
	be.Equal(t, second.ID(), first.ID())

	res, err := second.Run(context.Background(), []string{"again", "twice"}, opts)
	be.Err(t, err, nil)
	be.Equal(t, res.ExitString(), "2")
	be.Equal(t, res.Printed, []string{"again"})
}

func TestSerializeAndLoad(t *testing.T) {
	p, err := Compile(context.Background(), []byte(greet), Options{})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(p.Disassemble(), "CALL_INTRINSIC"))

	data, err := p.Serialize()
	be.Err(t, err, nil)
	loaded, err := Load(data)
	be.Err(t, err, nil)
	be.Equal(t, loaded.ID(), p.ID())
	res, err := loaded.Run(context.Background(), []string{"loaded"}, Options{})
	be.Err(t, err, nil)
	be.Equal(t, res.Printed, []string{"loaded"})

	_, err = Load([]byte("junk"))
	be.True(t, err != nil)
}

func TestResolve(t *testing.T) {
	data, err := Resolve(context.Background(), []byte(greet), Options{})
	be.Err(t, err, nil)
	var doc map[string]any
	be.Err(t, json.Unmarshal(data, &doc), nil)
	be.True(t, doc["types"] != nil)
	be.True(t, doc["functions"] != nil)
}
