package analyzer

import (
	"testing"

	"github.com/funvibe/floyd/internal/ast"
	b "github.com/funvibe/floyd/internal/ast/astbuild"
	"github.com/funvibe/floyd/internal/config"
	"github.com/funvibe/floyd/internal/diagnostics"
	"github.com/funvibe/floyd/internal/symbols"
	"github.com/funvibe/floyd/internal/typed"
	"github.com/funvibe/floyd/internal/typesystem"
)

// analyzeOK analyzes the statements and fails the test on any error.
func analyzeOK(t *testing.T, stmts ...ast.Statement) *typed.Program {
	t.Helper()
	p, err := Analyze(b.Prog(stmts...))
	if err != nil {
		t.Fatalf("expected no errors, got: %v", err)
	}
	return p
}

// expectAnalyzerError asserts that analysis fails with the given code.
func expectAnalyzerError(t *testing.T, code diagnostics.ErrorCode, stmts ...ast.Statement) error {
	t.Helper()
	_, err := Analyze(b.Prog(stmts...))
	if err == nil {
		t.Fatalf("expected error %s, but got none", code)
	}
	if got := diagnostics.CodeOf(err); got != code {
		t.Fatalf("expected error %s, got: %v", code, err)
	}
	return err
}

// collect returns every node of type T in program order.
func collect[T typed.Node](p *typed.Program) []T {
	var out []T
	typed.InspectProgram(p, func(n typed.Node) bool {
		if x, ok := n.(T); ok {
			out = append(out, x)
		}
		return true
	})
	return out
}

func stores(p *typed.Program) map[string]*typed.Store {
	out := make(map[string]*typed.Store)
	for _, s := range collect[*typed.Store](p) {
		out[s.Name] = s
	}
	return out
}

func assertX(v int64) ast.Statement {
	return b.Expr(b.CallN("assert", b.Bin("==", b.Id("x"), b.Int(v))))
}

func TestEveryExpressionIsTyped(t *testing.T) {
	p := analyzeOK(t,
		b.Bind("int", "a", b.Int(1)),
		b.Let("s", b.Bin("+", b.Id("a"), b.Int(2))),
		b.Let("d", b.Dict(b.Str("k"), b.Vec(b.Dbl(1.5)))),
		b.Expr(b.CallN("print", b.Cond(b.Bin("<", b.Id("a"), b.Int(3)), b.Str("lt"), b.Str("ge")))),
	)
	for _, e := range collect[typed.Expression](p) {
		if e.Type() == typesystem.Undefined {
			t.Errorf("untyped expression %T at %s", e, e.Loc())
		}
	}
	s := stores(p)
	if s["s"].Value.Type() != typesystem.Int {
		t.Errorf("int + int should be int, got %s", p.Types.String(s["s"].Value.Type()))
	}
	if got := p.Types.String(s["d"].Value.Type()); got != "[string:[double]]" {
		t.Errorf("unexpected dict type %s", got)
	}
}

func TestShadowing(t *testing.T) {
	p := analyzeOK(t,
		b.Bind("int", "x", b.Int(1)),
		b.Block(b.Bind("int", "x", b.Int(2)), assertX(2)),
		assertX(1),
	)
	loads := collect[*typed.Load](p)
	if len(loads) != 2 {
		t.Fatalf("expected 2 loads, got %d", len(loads))
	}
	if loads[0].Addr != (symbols.Address{Distance: 0, Slot: 0}) {
		t.Errorf("inner x resolved to %s", loads[0].Addr)
	}
	if !loads[1].Addr.IsGlobal() || p.Globals.Symbols[loads[1].Addr.Slot].Name != "x" {
		t.Errorf("outer x resolved to %s", loads[1].Addr)
	}
}

func TestLoopAndParameterAddresses(t *testing.T) {
	p := analyzeOK(t,
		b.Func("f", "int", b.Params(b.P("int", "a"), b.P("int", "b")),
			b.Ret(b.Bin("+", b.Id("a"), b.Id("b")))),
		b.ForClosed("i", b.Int(0), b.Int(3),
			b.Expr(b.CallN("print", b.Id("i"))),
			b.If(b.Bool(true), b.Expr(b.CallN("print", b.Id("i"))))),
	)
	want := []symbols.Address{{Distance: 0, Slot: 0}, {Distance: 1, Slot: 0}, {Distance: 0, Slot: 0}, {Distance: 0, Slot: 1}}
	var got []symbols.Address
	for _, l := range collect[*typed.Load](p) {
		got = append(got, l.Addr)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d loads, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("load %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	f := p.Functions[len(p.Functions)-1]
	if f.Name != "f" || f.ParamCount != 2 || f.Params()[1].Name != "b" {
		t.Errorf("unexpected function definition %+v", f)
	}
}

func TestImmutability(t *testing.T) {
	expectAnalyzerError(t, diagnostics.ErrT002,
		b.Set("a", b.Int(1)),
		b.Set("a", b.Int(2)),
	)
	expectAnalyzerError(t, diagnostics.ErrT002, b.Set("int", b.Int(1)))
	expectAnalyzerError(t, diagnostics.ErrT002,
		b.Func("f", "int", b.Params(b.P("int", "n")), b.Set("n", b.Int(0)), b.Ret(b.Id("n"))))

	p := analyzeOK(t,
		b.Mut("", "a", b.Int(1)),
		b.Set("a", b.Int(2)),
		b.Expr(b.CallN("assert", b.Bin("==", b.Id("a"), b.Int(2)))),
	)
	var inits, writes int
	for _, s := range collect[*typed.Store](p) {
		if s.Init {
			inits++
		} else {
			writes++
		}
	}
	if inits != 1 || writes != 1 {
		t.Errorf("expected one binding and one assignment, got %d and %d", inits, writes)
	}
}

func TestImplicitBinding(t *testing.T) {
	p := analyzeOK(t, b.Set("a", b.Int(1)))
	sym := p.Globals.Symbols[len(p.Globals.Symbols)-1]
	if sym.Name != "a" || sym.Kind != symbols.ImmutableBinding || sym.Type != typesystem.Int {
		t.Errorf("unexpected implicit binding %+v", sym)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		code  diagnostics.ErrorCode
		stmts []ast.Statement
	}{
		{"undefined name", diagnostics.ErrR001, []ast.Statement{
			b.Expr(b.Id("nope")),
		}},
		{"undefined function", diagnostics.ErrR001, []ast.Statement{
			b.Expr(b.CallN("nope")),
		}},
		{"unknown member", diagnostics.ErrR002, []ast.Statement{
			b.Struct("pt", b.M("int", "x")),
			b.Let("v", b.Call(b.Id("pt"), b.Int(1))),
			b.Expr(b.Member(b.Id("v"), "y")),
		}},
		{"duplicate binding", diagnostics.ErrR003, []ast.Statement{
			b.Bind("int", "x", b.Int(1)),
			b.Bind("int", "x", b.Int(2)),
		}},
		{"duplicate member", diagnostics.ErrR003, []ast.Statement{
			b.Struct("pt", b.M("int", "x"), b.M("double", "x")),
		}},
		{"duplicate parameter", diagnostics.ErrR003, []ast.Statement{
			b.Func("f", "int", b.Params(b.P("int", "a"), b.P("int", "a")), b.Ret(b.Id("a"))),
		}},
		{"unknown type", diagnostics.ErrR004, []ast.Statement{
			b.Bind("color", "c", nil),
		}},
		{"binding used as type", diagnostics.ErrR004, []ast.Statement{
			b.Let("x", b.Int(1)),
			b.Bind("x", "y", nil),
		}},
		{"captured local", diagnostics.ErrR005, []ast.Statement{
			b.Func("f", "int", b.Params(),
				b.Bind("int", "x", b.Int(1)),
				b.Func("g", "int", b.Params(), b.Ret(b.Id("x"))),
				b.Ret(b.CallN("g"))),
		}},
		{"captured parameter", diagnostics.ErrR005, []ast.Statement{
			b.Func("f", "int", b.Params(b.P("int", "n")),
				b.Let("g", b.Fn("int", b.Params(), b.Ret(b.Id("n")))),
				b.Ret(b.Call(b.Id("g")))),
		}},
		{"type mismatch", diagnostics.ErrT001, []ast.Statement{
			b.Bind("int", "x", b.Str("a")),
		}},
		{"mixed arithmetic", diagnostics.ErrT001, []ast.Statement{
			b.Let("x", b.Bin("+", b.Int(1), b.Dbl(2))),
		}},
		{"empty vector", diagnostics.ErrT001, []ast.Statement{
			b.Let("v", b.Vec()),
		}},
		{"mixed vector", diagnostics.ErrT001, []ast.Statement{
			b.Let("v", b.Vec(b.Int(1), b.Str("a"))),
		}},
		{"function without initializer", diagnostics.ErrT001, []ast.Statement{
			b.Bind("func int()", "f", nil),
		}},
		{"condition not bool", diagnostics.ErrT001, []ast.Statement{
			b.If(b.Int(1)),
		}},
		{"bad intrinsic argument", diagnostics.ErrT001, []ast.Statement{
			b.Expr(b.CallN("size", b.Int(1))),
		}},
		{"bad operand", diagnostics.ErrT003, []ast.Statement{
			b.Let("x", b.Bin("-", b.Str("a"), b.Str("b"))),
		}},
		{"not on int", diagnostics.ErrT003, []ast.Statement{
			b.Let("x", b.Not(b.Int(1))),
		}},
		{"index on int", diagnostics.ErrT003, []ast.Statement{
			b.Let("x", b.Index(b.Int(1), b.Int(0))),
		}},
		{"argument count", diagnostics.ErrT004, []ast.Statement{
			b.Func("f", "int", b.Params(b.P("int", "a")), b.Ret(b.Id("a"))),
			b.Expr(b.CallN("f")),
		}},
		{"intrinsic argument count", diagnostics.ErrT004, []ast.Statement{
			b.Expr(b.CallN("print")),
		}},
		{"constructor argument count", diagnostics.ErrT004, []ast.Statement{
			b.Struct("pt", b.M("int", "x"), b.M("int", "y")),
			b.Let("p", b.Call(b.Id("pt"), b.Int(1))),
		}},
		{"not callable", diagnostics.ErrT005, []ast.Statement{
			b.Let("x", b.Int(1)),
			b.Expr(b.Call(b.Id("x"))),
		}},
		{"return outside function", diagnostics.ErrT006, []ast.Statement{
			b.Ret(b.Int(1)),
		}},
		{"missing return", diagnostics.ErrT006, []ast.Statement{
			b.Func("f", "int", b.Params(b.P("bool", "c")), b.If(b.Id("c"), b.Ret(b.Int(1)))),
		}},
		{"struct contains itself", diagnostics.ErrT007, []ast.Statement{
			b.Struct("bad", b.M("int", "v"), b.M("bad", "next")),
		}},
		{"structs contain each other", diagnostics.ErrT007, []ast.Statement{
			b.Struct("a", b.M("b", "x")),
			b.Struct("b", b.M("a", "y")),
		}},
		{"pure calls print", diagnostics.ErrT008, []ast.Statement{
			b.PureFunc("f", "int", b.Params(), b.Expr(b.CallN("print", b.Int(1))), b.Ret(b.Int(1))),
		}},
		{"pure calls impure host", diagnostics.ErrT008, []ast.Statement{
			b.PureFunc("f", "int", b.Params(), b.Ret(b.CallN("get_time_of_day"))),
		}},
		{"pure calls impure user function", diagnostics.ErrT008, []ast.Statement{
			b.Func("g", "int", b.Params(), b.Ret(b.Int(1))),
			b.PureFunc("f", "int", b.Params(), b.Ret(b.CallN("g"))),
		}},
		{"pure maps impure callback", diagnostics.ErrT008, []ast.Statement{
			b.Func("g", "int", b.Params(b.P("int", "x")), b.Ret(b.Id("x"))),
			b.PureFunc("f", "[int]", b.Params(), b.Ret(b.CallN("map", b.Vec(b.Int(1)), b.Id("g")))),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectAnalyzerError(t, tt.code, tt.stmts...)
		})
	}
}

func TestErrorsCarryLocation(t *testing.T) {
	bad := b.Id("nope")
	err := expectAnalyzerError(t, diagnostics.ErrR001, b.Expr(bad))
	de := err.(*diagnostics.DiagnosticError)
	if de.Location != bad.Location {
		t.Errorf("expected location %s, got %s", bad.Location, de.Location)
	}
}

func TestFunctionsAndRecursion(t *testing.T) {
	p := analyzeOK(t,
		b.Let("r", b.CallN("later")),
		b.Func("later", "int", b.Params(), b.Ret(b.CallN("fact", b.Int(5)))),
		b.PureFunc("fact", "int", b.Params(b.P("int", "n")),
			b.If(b.Bin("<=", b.Id("n"), b.Int(1)), b.Ret(b.Int(1))),
			b.Ret(b.Bin("*", b.Id("n"), b.CallN("fact", b.Bin("-", b.Id("n"), b.Int(1)))))),
	)
	for _, c := range collect[*typed.Call](p) {
		if _, ok := c.Callee.(*typed.FunctionValue); !ok {
			t.Errorf("expected a direct function value callee, got %T", c.Callee)
		}
	}
}

func TestConstantsAreInlinedAcrossFunctions(t *testing.T) {
	p := analyzeOK(t,
		b.Func("f", "int", b.Params(),
			b.Func("g", "int", b.Params(), b.Ret(b.Int(1))),
			b.Func("h", "int", b.Params(), b.Ret(b.CallN("g"))),
			b.Ret(b.CallN("h"))),
	)
	if n := len(collect[*typed.Load](p)); n != 0 {
		t.Errorf("expected constants to be inlined, got %d loads", n)
	}
}

func TestUserDeclarationsShadowIntrinsics(t *testing.T) {
	p := analyzeOK(t,
		b.Func("size", "int", b.Params(b.P("int", "x")), b.Ret(b.Id("x"))),
		b.Let("s", b.CallN("size", b.Int(3))),
	)
	if n := len(collect[*typed.IntrinsicCall](p)); n != 0 {
		t.Errorf("expected no intrinsic calls, got %d", n)
	}
}

func TestImplicitJSONConversion(t *testing.T) {
	p := analyzeOK(t,
		b.Bind("json", "a", b.Int(1)),
		b.Bind("json", "b", b.Vec(b.Int(1), b.Str("x"))),
		b.Let("c", b.Bin("==", b.CallN("parse_json", b.Str("1")), b.Dbl(1))),
	)
	s := stores(p)
	call, ok := s["a"].Value.(*typed.IntrinsicCall)
	if !ok || call.Name != config.ToJSONFuncName {
		t.Fatalf("expected a to_json call, got %T", s["a"].Value)
	}
	if call.Args[0].Type() != typesystem.Int {
		t.Errorf("expected the converted value to stay int")
	}
	if _, ok := s["b"].Value.(*typed.IntrinsicCall); !ok {
		t.Errorf("expected the vector to be converted, got %T", s["b"].Value)
	}
	cmp := s["c"].Value.(*typed.Comparison)
	if _, ok := cmp.Right.(*typed.IntrinsicCall); !ok {
		t.Errorf("expected the right operand to be converted, got %T", cmp.Right)
	}
}

func TestDefaultValues(t *testing.T) {
	p := analyzeOK(t,
		b.Struct("pt", b.M("int", "x"), b.M("string", "s"), b.M("[int]", "v")),
		b.Bind("pt", "p", nil),
		b.Bind("[string:int]", "d", nil),
		b.Bind("json", "j", nil),
		b.Bind("double", "f", nil),
	)
	s := stores(p)
	c, ok := s["p"].Value.(*typed.Construct)
	if !ok || c.Kind != typed.ConstructStruct || len(c.Elements) != 3 {
		t.Fatalf("expected a struct construct, got %#v", s["p"].Value)
	}
	if inner := c.Elements[2].(*typed.Construct); inner.Kind != typed.ConstructVector || len(inner.Elements) != 0 {
		t.Errorf("expected an empty vector member")
	}
	if d := s["d"].Value.(*typed.Construct); d.Kind != typed.ConstructDict {
		t.Errorf("expected an empty dict")
	}
	if lit := s["j"].Value.(*typed.Literal); lit.Type() != typesystem.JSON {
		t.Errorf("expected a json literal")
	}
	if lit := s["f"].Value.(*typed.Literal); lit.Value.AsDouble() != 0 {
		t.Errorf("expected 0.0")
	}
}

func TestStructs(t *testing.T) {
	p := analyzeOK(t,
		b.Struct("color", b.M("int", "r"), b.M("int", "g"), b.M("int", "b")),
		b.Let("c", b.Call(b.Id("color"), b.Int(1), b.Int(2), b.Int(3))),
		b.Let("g", b.Member(b.Id("c"), "g")),
		b.Let("d", b.CallN("update", b.Id("c"), b.Str("b"), b.Int(9))),
		b.Let("lt", b.Bin("<", b.Id("c"), b.Id("d"))),
	)
	s := stores(p)
	if m := s["g"].Value.(*typed.Member); m.Index != 1 || m.Type() != typesystem.Int {
		t.Errorf("unexpected member %+v", m)
	}
	u, ok := s["d"].Value.(*typed.MemberUpdate)
	if !ok {
		t.Fatalf("expected a member update, got %T", s["d"].Value)
	}
	if u.Index != 2 || u.Type() != s["c"].Value.Type() {
		t.Errorf("unexpected member update %+v", u)
	}

	expectAnalyzerError(t, diagnostics.ErrR002,
		b.Struct("pt", b.M("int", "x")),
		b.Let("p", b.Call(b.Id("pt"), b.Int(1))),
		b.Let("q", b.CallN("update", b.Id("p"), b.Str("z"), b.Int(1))),
	)
}

func TestRecursiveStruct(t *testing.T) {
	p := analyzeOK(t,
		b.Struct("node", b.M("int", "v"), b.M("[node]", "children")),
		b.Let("leaf", b.Call(b.Id("node"), b.Int(1), b.VecOf("node"))),
		b.Let("root", b.Call(b.Id("node"), b.Int(0), b.Vec(b.Id("leaf")))),
		b.Let("kids", b.Member(b.Id("root"), "children")),
	)
	var node typesystem.TypeID
	for _, sym := range p.Globals.Symbols {
		if sym.Name == "node" {
			node, _ = sym.DenotedType()
		}
	}
	kids := stores(p)["kids"].Value.Type()
	if kids != p.Types.Vector(node) {
		t.Errorf("expected [node], got %s", p.Types.String(kids))
	}
	if got := p.Types.String(node); got != "struct { int v; [node] children }" {
		t.Errorf("unexpected rendering %q", got)
	}
}

func TestEntry(t *testing.T) {
	p := analyzeOK(t, b.Func("main", "int", b.Params(), b.Ret(b.Int(0))))
	if p.Entry.Kind != typed.EntryMain || p.Entry.TakesArgs || p.Functions[p.Entry.Function].Name != "main" {
		t.Errorf("unexpected entry %+v", p.Entry)
	}

	p = analyzeOK(t, b.PureFunc("main", "int", b.Params(b.P("[string]", "args")), b.Ret(b.CallN("size", b.Id("args")))))
	if p.Entry.Kind != typed.EntryMain || !p.Entry.TakesArgs {
		t.Errorf("unexpected entry %+v", p.Entry)
	}

	p = analyzeOK(t, b.Let("result", b.Int(3)))
	if p.Entry.Kind != typed.EntryResult || p.Globals.Symbols[p.Entry.Slot].Name != "result" {
		t.Errorf("unexpected entry %+v", p.Entry)
	}

	p = analyzeOK(t, b.Let("x", b.Int(3)))
	if p.Entry.Kind != typed.EntryNone {
		t.Errorf("unexpected entry %+v", p.Entry)
	}

	expectAnalyzerError(t, diagnostics.ErrT001, b.Func("main", "string", b.Params(), b.Ret(b.Str(""))))
}

func TestIntrinsicHints(t *testing.T) {
	p := analyzeOK(t,
		b.Bind("[json]", "v", b.Vec()),
		b.Let("w", b.CallN("push_back", b.Id("v"), b.Int(1))),
		b.Bind("[int]", "e", b.CallN("update", b.Vec(), b.Int(0), b.Int(1))),
	)
	s := stores(p)
	push := s["w"].Value.(*typed.IntrinsicCall)
	if _, ok := push.Args[1].(*typed.IntrinsicCall); !ok {
		t.Errorf("expected the pushed element to be converted to json, got %T", push.Args[1])
	}
	if s["e"].Value.Type() != p.Types.Vector(typesystem.Int) {
		t.Errorf("expected [int], got %s", p.Types.String(s["e"].Value.Type()))
	}
}

func TestHigherOrderIntrinsics(t *testing.T) {
	p := analyzeOK(t,
		b.PureFunc("twice", "double", b.Params(b.P("int", "x")), b.Ret(b.CallN("to_double", b.Bin("*", b.Id("x"), b.Int(2))))),
		b.PureFunc("f", "[double]", b.Params(), b.Ret(b.CallN("map", b.Vec(b.Int(1), b.Int(2)), b.Id("twice")))),
	)
	calls := collect[*typed.IntrinsicCall](p)
	if len(calls) != 1 || calls[0].Type() != p.Types.Vector(typesystem.Double) {
		t.Fatalf("unexpected intrinsic calls %v", calls)
	}
}
