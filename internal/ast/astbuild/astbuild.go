// Package astbuild builds unresolved trees without a parser.
//
// Every constructor stamps its node with a fresh, increasing offset so
// diagnostics in tests still point somewhere distinct.
package astbuild

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/funvibe/floyd/internal/ast"
	"github.com/funvibe/floyd/internal/token"
)

var offset atomic.Int64

func loc() token.Location {
	return token.At(int(offset.Add(1)))
}

func Prog(stmts ...ast.Statement) *ast.Program {
	return &ast.Program{File: "test", Statements: stmts}
}

// Expressions

func Int(v int64) *ast.IntegerLiteral    { return &ast.IntegerLiteral{Location: loc(), Value: v} }
func Dbl(v float64) *ast.DoubleLiteral   { return &ast.DoubleLiteral{Location: loc(), Value: v} }
func Str(v string) *ast.StringLiteral    { return &ast.StringLiteral{Location: loc(), Value: v} }
func Bool(v bool) *ast.BoolLiteral       { return &ast.BoolLiteral{Location: loc(), Value: v} }
func Id(name string) *ast.Identifier     { return &ast.Identifier{Location: loc(), Name: name} }
func Neg(e ast.Expression) ast.Expression { return unary(ast.OpNeg, e) }
func Not(e ast.Expression) ast.Expression { return unary(ast.OpNot, e) }

func unary(op ast.Operator, e ast.Expression) ast.Expression {
	return &ast.UnaryExpression{Location: loc(), Operator: op, Operand: e}
}

// Bin builds an arithmetic or comparison node depending on op.
func Bin(op string, l, r ast.Expression) ast.Expression {
	o := ast.Operator(op)
	if o.IsComparison() {
		return &ast.ComparisonExpression{Location: loc(), Operator: o, Left: l, Right: r}
	}
	return &ast.ArithmeticExpression{Location: loc(), Operator: o, Left: l, Right: r}
}

func Cond(c, a, b ast.Expression) ast.Expression {
	return &ast.ConditionalExpression{Location: loc(), Cond: c, Then: a, Else: b}
}

func Call(callee ast.Expression, args ...ast.Expression) *ast.CallExpression {
	return &ast.CallExpression{Location: loc(), Callee: callee, Args: args}
}

// CallN calls a function by name.
func CallN(name string, args ...ast.Expression) *ast.CallExpression {
	return Call(Id(name), args...)
}

func Member(parent ast.Expression, name string) ast.Expression {
	return &ast.MemberExpression{Location: loc(), Parent: parent, Member: name}
}

func Index(parent, key ast.Expression) ast.Expression {
	return &ast.IndexExpression{Location: loc(), Parent: parent, Key: key}
}

func Vec(elems ...ast.Expression) *ast.VectorLiteral {
	return &ast.VectorLiteral{Location: loc(), Elements: elems}
}

// VecOf is a vector literal with an explicit element type.
func VecOf(elem string, elems ...ast.Expression) *ast.VectorLiteral {
	v := Vec(elems...)
	v.ElemType = Type(elem)
	return v
}

// Dict takes alternating keys and values.
func Dict(kv ...ast.Expression) *ast.DictLiteral {
	if len(kv)%2 != 0 {
		panic("astbuild.Dict: odd number of arguments")
	}
	d := &ast.DictLiteral{Location: loc()}
	for i := 0; i < len(kv); i += 2 {
		d.Entries = append(d.Entries, ast.DictEntry{Key: kv[i], Value: kv[i+1]})
	}
	return d
}

func DictOf(elem string, kv ...ast.Expression) *ast.DictLiteral {
	d := Dict(kv...)
	d.ElemType = Type(elem)
	return d
}

// M is a struct member.
func M(typ, name string) ast.StructMember {
	return ast.StructMember{Location: loc(), Name: name, Type: Type(typ)}
}

func StructT(members ...ast.StructMember) *ast.StructTypeExpression {
	return &ast.StructTypeExpression{Location: loc(), Members: members}
}

// P is a function parameter.
func P(typ, name string) ast.Parameter {
	return ast.Parameter{Location: loc(), Name: name, Type: Type(typ)}
}

// Params is a readability helper for Fn and Func.
func Params(ps ...ast.Parameter) []ast.Parameter { return ps }

// Fn is an impure function literal.
func Fn(ret string, params []ast.Parameter, body ...ast.Statement) *ast.FunctionLiteral {
	return &ast.FunctionLiteral{Location: loc(), Return: Type(ret), Params: params, Body: Block(body...)}
}

func PureFn(ret string, params []ast.Parameter, body ...ast.Statement) *ast.FunctionLiteral {
	f := Fn(ret, params, body...)
	f.Pure = true
	return f
}

// Statements

// Let binds an immutable local with an inferred type.
func Let(name string, e ast.Expression) *ast.BindStatement {
	return &ast.BindStatement{Location: loc(), Name: name, Value: e}
}

// Bind binds an immutable local. typ may be "" to infer and e may be nil.
func Bind(typ, name string, e ast.Expression) *ast.BindStatement {
	return &ast.BindStatement{Location: loc(), Name: name, Type: Type(typ), Value: e}
}

// Mut is Bind for a mutable local.
func Mut(typ, name string, e ast.Expression) *ast.BindStatement {
	b := Bind(typ, name, e)
	b.Mutable = true
	return b
}

func Set(name string, e ast.Expression) *ast.AssignStatement {
	return &ast.AssignStatement{Location: loc(), Name: name, Value: e}
}

func Ret(e ast.Expression) *ast.ReturnStatement {
	return &ast.ReturnStatement{Location: loc(), Value: e}
}

func RetVoid() *ast.ReturnStatement {
	return &ast.ReturnStatement{Location: loc()}
}

func Block(stmts ...ast.Statement) *ast.BlockStatement {
	return &ast.BlockStatement{Location: loc(), Statements: stmts}
}

func If(c ast.Expression, then ...ast.Statement) *ast.IfStatement {
	return &ast.IfStatement{Location: loc(), Cond: c, Then: Block(then...)}
}

func IfElse(c ast.Expression, then, els *ast.BlockStatement) *ast.IfStatement {
	return &ast.IfStatement{Location: loc(), Cond: c, Then: then, Else: els}
}

// ForClosed iterates over start...end.
func ForClosed(it string, start, end ast.Expression, body ...ast.Statement) *ast.ForStatement {
	return &ast.ForStatement{Location: loc(), Iterator: it, Start: start, End: end, Closed: true, Body: Block(body...)}
}

// ForOpen iterates over start..<end.
func ForOpen(it string, start, end ast.Expression, body ...ast.Statement) *ast.ForStatement {
	return &ast.ForStatement{Location: loc(), Iterator: it, Start: start, End: end, Body: Block(body...)}
}

func While(c ast.Expression, body ...ast.Statement) *ast.WhileStatement {
	return &ast.WhileStatement{Location: loc(), Cond: c, Body: Block(body...)}
}

func Expr(e ast.Expression) *ast.ExpressionStatement {
	return &ast.ExpressionStatement{Location: loc(), Expression: e}
}

func Struct(name string, members ...ast.StructMember) *ast.StructDeclaration {
	return &ast.StructDeclaration{Location: loc(), Name: name, Members: members}
}

// Func declares an impure function.
func Func(name, ret string, params []ast.Parameter, body ...ast.Statement) *ast.FunctionDeclaration {
	return &ast.FunctionDeclaration{Location: loc(), Name: name, Function: Fn(ret, params, body...)}
}

func PureFunc(name, ret string, params []ast.Parameter, body ...ast.Statement) *ast.FunctionDeclaration {
	return &ast.FunctionDeclaration{Location: loc(), Name: name, Function: PureFn(ret, params, body...)}
}

// Type parses a source type: int, [int], [string:int], color,
// func int(double, string) and the pure variant "pure func int()".
// The empty string is nil, meaning "infer".
func Type(s string) ast.TypeExpr {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	p := &typeParser{src: s}
	t := p.parse()
	p.skipSpace()
	if p.pos != len(p.src) {
		panic(fmt.Sprintf("astbuild.Type: trailing input in %q", s))
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) eat(prefix string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], prefix) {
		p.pos += len(prefix)
		return true
	}
	return false
}

func (p *typeParser) expect(prefix string) {
	if !p.eat(prefix) {
		panic(fmt.Sprintf("astbuild.Type: expected %q at %d in %q", prefix, p.pos, p.src))
	}
}

func (p *typeParser) word() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		break
	}
	if start == p.pos {
		panic(fmt.Sprintf("astbuild.Type: expected a name at %d in %q", start, p.src))
	}
	return p.src[start:p.pos]
}

func (p *typeParser) parse() ast.TypeExpr {
	l := loc()
	switch {
	case p.eat("[string:"):
		elem := p.parse()
		p.expect("]")
		return &ast.DictType{Location: l, Elem: elem}
	case p.eat("["):
		elem := p.parse()
		p.expect("]")
		return &ast.VectorType{Location: l, Elem: elem}
	case p.eat("pure func "):
		return p.funcRest(l, true)
	case p.eat("func "):
		return p.funcRest(l, false)
	}
	return &ast.NamedType{Location: l, Name: p.word()}
}

func (p *typeParser) funcRest(l token.Location, pure bool) ast.TypeExpr {
	ft := &ast.FunctionType{Location: l, Pure: pure, Return: p.parse()}
	p.expect("(")
	if p.eat(")") {
		return ft
	}
	for {
		ft.Params = append(ft.Params, p.parse())
		if p.eat(")") {
			return ft
		}
		p.expect(",")
	}
}
