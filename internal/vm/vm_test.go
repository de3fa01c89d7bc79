package vm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/funvibe/floyd/internal/analyzer"
	"github.com/funvibe/floyd/internal/ast"
	b "github.com/funvibe/floyd/internal/ast/astbuild"
	"github.com/funvibe/floyd/internal/builtins"
	"github.com/funvibe/floyd/internal/diagnostics"
	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/typed"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

func compile(t *testing.T, stmts ...ast.Statement) *Program {
	t.Helper()
	tp, err := analyzer.Analyze(b.Prog(stmts...))
	if err != nil {
		t.Fatalf("analysis error: %s", err)
	}
	p, err := Compile(tp)
	if err != nil {
		t.Fatalf("compilation error: %s", err)
	}
	return p
}

func runWith(t *testing.T, opts Options, args []string, stmts ...ast.Statement) (*Result, error) {
	t.Helper()
	return New(compile(t, stmts...), opts).Run(context.Background(), args)
}

func runVM(t *testing.T, stmts ...ast.Statement) *Result {
	t.Helper()
	result, err := runWith(t, Options{}, nil, stmts...)
	if err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	return result
}

// runVMExpectErrorContains runs the program expecting a runtime error whose
// message contains want.
func runVMExpectErrorContains(t *testing.T, want string, stmts ...ast.Statement) *RuntimeError {
	t.Helper()
	_, err := runWith(t, Options{}, nil, stmts...)
	if err == nil {
		t.Fatalf("expected runtime error, but code ran successfully")
	}
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected a *RuntimeError, got %T: %s", err, err)
	}
	if !strings.Contains(re.Message, want) {
		t.Errorf("error %q should contain %q", re.Message, want)
	}
	return re
}

func result(e ast.Expression) ast.Statement {
	return b.Let("result", e)
}

func assert(e ast.Expression) ast.Statement {
	return b.Expr(b.CallN("assert", e))
}

func printed(t *testing.T, r *Result, want ...string) {
	t.Helper()
	if strings.Join(r.Printed, ",") != strings.Join(want, ",") {
		t.Errorf("printed %q, want %q", r.Printed, want)
	}
}

func TestIntegerArithmetic(t *testing.T) {
	tests := []struct {
		expr     ast.Expression
		expected int64
	}{
		{b.Bin("+", b.Int(1), b.Int(2)), 3},
		{b.Bin("-", b.Bin("*", b.Int(2), b.Int(3)), b.Int(4)), 2},
		{b.Bin("/", b.Int(7), b.Int(2)), 3},
		{b.Bin("/", b.Int(-7), b.Int(2)), -3},
		{b.Bin("%", b.Int(7), b.Int(3)), 1},
		{b.Neg(b.Int(5)), -5},
		{b.Cond(b.Bin(">", b.Int(2), b.Int(1)), b.Int(10), b.Int(20)), 10},
	}
	for _, tt := range tests {
		r := runVM(t, result(tt.expr))
		if got := r.Exit.AsInt(); got != tt.expected {
			t.Errorf("got=%d, want=%d", got, tt.expected)
		}
	}
}

func TestDoubleArithmetic(t *testing.T) {
	r := runVM(t, result(b.Bin("+", b.Dbl(1.5), b.Bin("/", b.Dbl(9), b.Dbl(4)))))
	if got := r.Exit.AsDouble(); got != 3.75 {
		t.Errorf("got=%v, want=3.75", got)
	}
}

func TestNaNIsNeverEqual(t *testing.T) {
	runVM(t,
		b.Let("n", b.CallN("sqrt", b.Dbl(-1))),
		assert(b.Bin("!=", b.Id("n"), b.Id("n"))),
		assert(b.Bin("!=", b.Id("n"), b.Dbl(1))),
		assert(b.Bin("==", b.Bin("==", b.Id("n"), b.Id("n")), b.Bool(false))),
		assert(b.Bin("<", b.Id("n"), b.Dbl(1))),
	)
}

func TestConcatenation(t *testing.T) {
	runVM(t,
		assert(b.Bin("==", b.Bin("+", b.Str("ab"), b.Str("cd")), b.Str("abcd"))),
		assert(b.Bin("==", b.Bin("+", b.Vec(b.Int(1)), b.Vec(b.Int(2), b.Int(3))), b.Vec(b.Int(1), b.Int(2), b.Int(3)))),
	)
}

func TestLogicalOperatorsShortCircuit(t *testing.T) {
	boom := b.Bin("==", b.Bin("/", b.Int(1), b.Int(0)), b.Int(0))
	r := runVM(t,
		b.Let("a", b.Bin("&&", b.Bool(false), boom)),
		b.Let("o", b.Bin("||", b.Bool(true), boom)),
		b.Expr(b.CallN("print", b.Id("a"))),
		b.Expr(b.CallN("print", b.Id("o"))),
		b.Expr(b.CallN("print", b.Bin("&&", b.Bool(true), b.Not(b.Bool(false))))),
	)
	printed(t, r, "false", "true", "true")
}

func TestShadowing(t *testing.T) {
	assertX := func(v int64) ast.Statement {
		return assert(b.Bin("==", b.Id("x"), b.Int(v)))
	}
	runVM(t,
		b.Bind("int", "x", b.Int(1)),
		b.Block(b.Bind("int", "x", b.Int(2)), assertX(2)),
		assertX(1),
	)
}

func TestMutableAssignment(t *testing.T) {
	r := runVM(t,
		b.Mut("", "a", b.Int(1)),
		b.Set("a", b.Int(2)),
		assert(b.Bin("==", b.Id("a"), b.Int(2))),
		b.Mut("int", "sum", b.Int(0)),
		b.ForClosed("i", b.Int(1), b.Int(4),
			b.If(b.Bool(true), b.Set("sum", b.Bin("+", b.Id("sum"), b.Id("i"))))),
		result(b.Id("sum")),
	)
	if r.Exit.AsInt() != 10 {
		t.Errorf("sum = %d, want 10", r.Exit.AsInt())
	}
}

func TestForLoops(t *testing.T) {
	show := func() ast.Statement { return b.Expr(b.CallN("print", b.Id("i"))) }

	printed(t, runVM(t, b.ForClosed("i", b.Int(0), b.Int(3), show())), "0", "1", "2", "3")
	printed(t, runVM(t, b.ForOpen("i", b.Int(0), b.Int(3), show())), "0", "1", "2")
	printed(t, runVM(t, b.ForClosed("i", b.Int(3), b.Int(2), show())))
	printed(t, runVM(t, b.ForOpen("i", b.Int(0), b.Int(0), show())))

	// Nested loops each see their own iterator.
	printed(t, runVM(t,
		b.ForOpen("i", b.Int(0), b.Int(2),
			b.ForOpen("j", b.Int(0), b.Int(2),
				b.Expr(b.CallN("print", b.Bin("+", b.Bin("*", b.Id("i"), b.Int(10)), b.Id("j")))))),
	), "0", "1", "10", "11")
}

func TestWhileLoop(t *testing.T) {
	r := runVM(t,
		b.Mut("int", "n", b.Int(0)),
		b.While(b.Bin("<", b.Id("n"), b.Int(3)),
			b.Expr(b.CallN("print", b.Id("n"))),
			b.Set("n", b.Bin("+", b.Id("n"), b.Int(1)))),
	)
	printed(t, r, "0", "1", "2")
}

func TestIfElse(t *testing.T) {
	pick := func(c bool) ast.Statement {
		return b.IfElse(b.Bool(c),
			b.Block(b.Expr(b.CallN("print", b.Str("then")))),
			b.Block(b.Expr(b.CallN("print", b.Str("else")))))
	}
	printed(t, runVM(t, pick(true), pick(false)), "then", "else")
}

func TestReturnUnwindsNestedScopes(t *testing.T) {
	find := b.Func("find", "int", b.Params(b.P("[int]", "v"), b.P("int", "x")),
		b.ForOpen("i", b.Int(0), b.CallN("size", b.Id("v")),
			b.Block(
				b.If(b.Bin("==", b.Index(b.Id("v"), b.Id("i")), b.Id("x")),
					b.Ret(b.Id("i"))))),
		b.Ret(b.Int(-1)))

	r := runVM(t, find,
		result(b.Bin("+",
			b.Bin("*", b.CallN("find", b.Vec(b.Int(5), b.Int(6), b.Int(7)), b.Int(7)), b.Int(10)),
			b.CallN("find", b.Vec(b.Int(1)), b.Int(9)))),
	)
	if r.Exit.AsInt() != 19 {
		t.Errorf("got %d, want 19", r.Exit.AsInt())
	}
}

func TestRecursiveFunction(t *testing.T) {
	fib := b.PureFunc("fib", "int", b.Params(b.P("int", "n")),
		b.If(b.Bin("<", b.Id("n"), b.Int(2)), b.Ret(b.Id("n"))),
		b.Ret(b.Bin("+",
			b.CallN("fib", b.Bin("-", b.Id("n"), b.Int(1))),
			b.CallN("fib", b.Bin("-", b.Id("n"), b.Int(2))))))
	r := runVM(t, fib, result(b.CallN("fib", b.Int(15))))
	if r.Exit.AsInt() != 610 {
		t.Errorf("fib(15) = %d, want 610", r.Exit.AsInt())
	}
}

func TestFunctionLocalsAndVoidReturn(t *testing.T) {
	r := runVM(t,
		b.Func("show", "void", b.Params(b.P("int", "n")),
			b.Let("twice", b.Bin("*", b.Id("n"), b.Int(2))),
			b.If(b.Bin(">", b.Id("twice"), b.Int(4)), b.RetVoid()),
			b.Expr(b.CallN("print", b.Id("twice")))),
		b.Expr(b.CallN("show", b.Int(1))),
		b.Expr(b.CallN("show", b.Int(5))),
		b.Expr(b.CallN("show", b.Int(2))),
	)
	printed(t, r, "2", "4")
}

func TestGlobalReadBeforeInitialization(t *testing.T) {
	re := runVMExpectErrorContains(t, "g read before it was initialized",
		b.Func("f", "int", b.Params(), b.Ret(b.CallN("h"))),
		b.Bind("int", "x", b.CallN("f")),
		b.Bind("int", "g", b.Int(5)),
		b.Func("h", "int", b.Params(), b.Ret(b.Id("g"))),
		result(b.Id("x")),
	)
	if len(re.Trace) != 3 || re.Trace[0].Function != "h" {
		t.Errorf("unexpected trace %+v", re.Trace)
	}

	// Once g is set the same call succeeds.
	r := runVM(t,
		b.Bind("int", "g", b.Int(5)),
		b.Func("h", "int", b.Params(), b.Ret(b.Id("g"))),
		result(b.CallN("h")),
	)
	if r.Exit.AsInt() != 5 {
		t.Errorf("got %d, want 5", r.Exit.AsInt())
	}
}

func TestValueIndependence(t *testing.T) {
	runVM(t,
		b.Let("a", b.Vec(b.Int(1), b.Int(2), b.Int(3))),
		b.Let("c", b.CallN("update", b.Id("a"), b.Int(1), b.Int(99))),
		assert(b.Bin("==", b.Id("a"), b.Vec(b.Int(1), b.Int(2), b.Int(3)))),
		assert(b.Bin("==", b.Id("c"), b.Vec(b.Int(1), b.Int(99), b.Int(3)))),

		b.Struct("pt", b.M("int", "x"), b.M("int", "y")),
		b.Let("p", b.Call(b.Id("pt"), b.Int(1), b.Int(2))),
		b.Let("q", b.CallN("update", b.Id("p"), b.Str("y"), b.Int(5))),
		assert(b.Bin("==", b.Member(b.Id("p"), "y"), b.Int(2))),
		assert(b.Bin("==", b.Member(b.Id("q"), "y"), b.Int(5))),
		assert(b.Bin("==", b.Member(b.Id("q"), "x"), b.Int(1))),
	)
}

func TestOrdering(t *testing.T) {
	color := func(r, g, bl int64) ast.Expression {
		return b.Call(b.Id("color"), b.Int(r), b.Int(g), b.Int(bl))
	}
	runVM(t,
		b.Struct("color", b.M("int", "red"), b.M("int", "green"), b.M("int", "blue")),
		assert(b.Bin("==", b.Bin("==", color(1, 2, 3), color(1, 2, 3)), b.Bool(true))),
		assert(b.Bin("==", b.Bin("<", color(1, 2, 3), color(1, 4, 3)), b.Bool(true))),
		assert(b.Bin("==", b.Bin("<", b.Vec(b.Str("a"), b.Str("b")), b.Vec(b.Str("a"), b.Str("c"))), b.Bool(true))),
		assert(b.Bin(">", b.Vec(b.Int(1), b.Int(2)), b.Vec(b.Int(1), b.Int(2), b.Int(3)))),
		assert(b.Bin("<", b.Dict(b.Str("a"), b.Int(1)), b.Dict(b.Str("b"), b.Int(0)))),
		assert(b.Bin("!=", b.Str("a"), b.Str("b"))),
	)
}

func TestDefaultValues(t *testing.T) {
	runVM(t,
		b.Struct("pt", b.M("int", "x"), b.M("[string]", "tags")),
		b.Bind("pt", "p", nil),
		b.Bind("[string:int]", "d", nil),
		b.Bind("string", "s", nil),
		assert(b.Bin("==", b.Member(b.Id("p"), "x"), b.Int(0))),
		assert(b.Bin("==", b.CallN("size", b.Member(b.Id("p"), "tags")), b.Int(0))),
		assert(b.Bin("==", b.CallN("size", b.Id("d")), b.Int(0))),
		assert(b.Bin("==", b.Id("s"), b.Str(""))),
	)
}

func TestIndexing(t *testing.T) {
	r := runVM(t,
		b.Let("d", b.Dict(b.Str("k"), b.Int(7))),
		b.Expr(b.CallN("print", b.Index(b.Vec(b.Int(4), b.Int(5)), b.Int(1)))),
		b.Expr(b.CallN("print", b.Index(b.Id("d"), b.Str("k")))),
		b.Expr(b.CallN("print", b.Index(b.Str("A"), b.Int(0)))),
		b.Bind("json", "j", b.CallN("parse_json", b.Str(`{"a": [1, 2]}`))),
		result(b.CallN("generate_json", b.Index(b.Index(b.Id("j"), b.Str("a")), b.Int(1)))),
	)
	printed(t, r, "5", "7", "65")
	if r.Exit.AsString() != "2" {
		t.Errorf("got %q, want \"2\"", r.Exit.AsString())
	}
}

func TestHigherOrderIntrinsics(t *testing.T) {
	r := runVM(t,
		b.PureFunc("add", "int", b.Params(b.P("int", "acc"), b.P("int", "x")), b.Ret(b.Bin("+", b.Id("acc"), b.Id("x")))),
		b.PureFunc("odd", "bool", b.Params(b.P("int", "x")), b.Ret(b.Bin("==", b.Bin("%", b.Id("x"), b.Int(2)), b.Int(1)))),
		b.Let("v", b.Vec(b.Int(1), b.Int(2), b.Int(3))),
		assert(b.Bin("==", b.CallN("reduce", b.Id("v"), b.Int(0), b.Id("add")), b.Int(6))),
		assert(b.Bin("==", b.CallN("filter", b.Id("v"), b.Id("odd")), b.Vec(b.Int(1), b.Int(3)))),
		assert(b.Bin("==", b.CallN("map", b.Id("v"), b.Id("to_double")), b.Vec(b.Dbl(1), b.Dbl(2), b.Dbl(3)))),
		result(b.CallN("size", b.CallN("filter", b.Id("v"), b.Id("odd")))),
	)
	if r.Exit.AsInt() != 2 {
		t.Errorf("got %d, want 2", r.Exit.AsInt())
	}
}

func TestHostFunctionsAreFirstClass(t *testing.T) {
	r := runVM(t,
		b.Let("f", b.Id("sqrt")),
		result(b.Call(b.Id("f"), b.Dbl(16))),
	)
	if r.Exit.AsDouble() != 4 {
		t.Errorf("sqrt(16) = %v", r.Exit.AsDouble())
	}
}

func TestMainEntry(t *testing.T) {
	r := runVM(t, b.Func("main", "int", b.Params(),
		b.Expr(b.CallN("print", b.Str("hi"))),
		b.Ret(b.Int(7))))
	printed(t, r, "hi")
	if r.Exit.AsInt() != 7 {
		t.Errorf("exit %d, want 7", r.Exit.AsInt())
	}

	r, err := runWith(t, Options{}, []string{"a", "b"},
		b.Func("main", "int", b.Params(b.P("[string]", "args")), b.Ret(b.CallN("size", b.Id("args")))))
	if err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	if r.Exit.AsInt() != 2 {
		t.Errorf("exit %d, want 2", r.Exit.AsInt())
	}

	r = runVM(t, b.Let("x", b.Int(1)))
	if !r.Exit.IsVoid() {
		t.Errorf("expected a void exit value")
	}
}

func TestDivisionByZero(t *testing.T) {
	runVMExpectErrorContains(t, "division by zero", result(b.Bin("/", b.Int(2), b.Int(0))))
	runVMExpectErrorContains(t, "remainder by zero", result(b.Bin("%", b.Int(2), b.Int(0))))
	runVMExpectErrorContains(t, "division by zero", result(b.Bin("/", b.Dbl(2), b.Dbl(0))))
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		want string
		stmt ast.Statement
	}{
		{"vector index", "out of bounds", result(b.Index(b.Vec(b.Int(1)), b.Int(1)))},
		{"negative index", "out of bounds", result(b.Index(b.Vec(b.Int(1)), b.Int(-1)))},
		{"string index", "out of bounds", result(b.Index(b.Str(""), b.Int(0)))},
		{"dict key", "not found", result(b.Index(b.Dict(b.Str("a"), b.Int(1)), b.Str("b")))},
		{"update bounds", "out of bounds", result(b.CallN("update", b.Vec(b.Int(1)), b.Int(3), b.Int(0)))},
		{"bad json", "parse_json", result(b.CallN("parse_json", b.Str("{")))},
		{"assertion", "assertion failed", assert(b.Bool(false))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runVMExpectErrorContains(t, tt.want, tt.stmt)
		})
	}
}

func TestAssertionFailureUnwraps(t *testing.T) {
	re := runVMExpectErrorContains(t, "assert", assert(b.Bool(false)))
	if !errors.Is(re, builtins.ErrAssertion) {
		t.Errorf("expected errors.Is(err, ErrAssertion)")
	}
}

func TestRuntimeErrorLocationAndTrace(t *testing.T) {
	bad := b.Bin("/", b.Id("n"), b.Int(0))
	re := runVMExpectErrorContains(t, "division by zero",
		b.Func("f", "int", b.Params(b.P("int", "n")), b.Ret(bad)),
		b.Expr(b.CallN("print", b.Str("before"))),
		result(b.CallN("f", b.Int(1))),
	)
	if re.Offset != bad.Loc().Offset {
		t.Errorf("offset %d, want %d", re.Offset, bad.Loc().Offset)
	}
	if len(re.Trace) != 2 || re.Trace[0].Function != "f" || re.Trace[1].Function != scriptName {
		t.Errorf("unexpected trace %+v", re.Trace)
	}
	if re.Loc() != token.At(re.Offset) {
		t.Errorf("Loc should match Offset")
	}
}

func TestPrintedOutputSurvivesErrors(t *testing.T) {
	var out bytes.Buffer
	r, err := runWith(t, Options{Output: &out}, nil,
		b.Expr(b.CallN("print", b.Int(1))),
		b.Expr(b.CallN("print", b.Bin("/", b.Int(1), b.Int(0)))),
	)
	if err == nil {
		t.Fatal("expected runtime error")
	}
	printed(t, r, "1")
	if out.String() != "1\n" {
		t.Errorf("output %q", out.String())
	}
}

func TestCallbackErrorsKeepTheirTrace(t *testing.T) {
	re := runVMExpectErrorContains(t, "division by zero",
		b.PureFunc("inv", "int", b.Params(b.P("int", "x")), b.Ret(b.Bin("/", b.Int(1), b.Id("x")))),
		result(b.CallN("map", b.Vec(b.Int(1), b.Int(0)), b.Id("inv"))),
	)
	if re.Trace[0].Function != "inv" {
		t.Errorf("unexpected trace %+v", re.Trace)
	}
}

func TestCallDepthLimit(t *testing.T) {
	_, err := runWith(t, Options{MaxCallDepth: 50}, nil,
		b.Func("f", "int", b.Params(b.P("int", "n")), b.Ret(b.CallN("f", b.Bin("+", b.Id("n"), b.Int(1))))),
		result(b.CallN("f", b.Int(0))),
	)
	if err == nil || !strings.Contains(err.Error(), "call depth limit of 50") {
		t.Fatalf("expected call depth error, got %v", err)
	}
}

func TestInstructionBudget(t *testing.T) {
	_, err := runWith(t, Options{MaxInstructions: 1000}, nil, b.While(b.Bool(true)))
	if err == nil || !strings.Contains(err.Error(), "instruction budget of 1000 exceeded") {
		t.Fatalf("expected budget error, got %v", err)
	}
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(compile(t, b.While(b.Bool(true))), Options{}).Run(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestInstructionTrace(t *testing.T) {
	var logs bytes.Buffer
	log := zerolog.New(&logs).Level(zerolog.TraceLevel)
	if _, err := runWith(t, Options{Logger: log, Trace: true}, nil, result(b.Int(1))); err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	if !strings.Contains(logs.String(), `"op":"HALT"`) {
		t.Errorf("trace does not contain HALT: %s", logs.String())
	}
}

func TestCompileRejectsUntypedExpressions(t *testing.T) {
	reg := typesystem.NewRegistry()
	p := &typed.Program{
		Types:   reg,
		Globals: &typed.Scope{},
		Body:    []typed.Statement{&typed.ExprStmt{Expr: &typed.Literal{Value: value.Int(1)}}},
	}
	_, err := Compile(p)
	if diagnostics.CodeOf(err) != diagnostics.ErrC001 {
		t.Fatalf("expected C001, got %v", err)
	}

	if _, err := Compile(nil); diagnostics.CodeOf(err) != diagnostics.ErrC001 {
		t.Fatalf("expected C001 for a nil program, got %v", err)
	}
}

func TestDisassembler(t *testing.T) {
	p := compile(t,
		b.ForClosed("i", b.Int(0), b.Int(3), b.Expr(b.CallN("print", b.Id("i")))),
		b.Func("f", "int", b.Params(), b.Ret(b.Int(1))),
	)
	out := Disassemble(p)
	for _, want := range []string{"== <script> ==", "FOR_TEST", "closed", "ENTER_SCOPE", "'print'", "== f #", "RETURN", "HALT"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	p := compile(t,
		b.Struct("pt", b.M("int", "x")),
		b.Let("p", b.Call(b.Id("pt"), b.Int(3))),
		b.Expr(b.CallN("print", b.Id("p"))),
		b.Expr(b.CallN("print", b.CallN("sqrt", b.Dbl(9)))),
	)
	data, err := p.Serialize()
	if err != nil {
		t.Fatalf("serialize: %s", err)
	}
	loaded, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %s", err)
	}
	if loaded.ID != p.ID {
		t.Errorf("program id changed")
	}

	want, err := New(p, Options{}).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	got, err := New(loaded, Options{}).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	printed(t, got, want.Printed...)

	if _, err := Deserialize([]byte("nope!")); err == nil {
		t.Errorf("expected an error for a bad magic number")
	}
}
