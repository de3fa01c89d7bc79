package ast

import "github.com/funvibe/floyd/internal/token"

type BoolLiteral struct {
	Location token.Location
	Value    bool
}

func (bl *BoolLiteral) expressionNode()     {}
func (bl *BoolLiteral) Loc() token.Location { return bl.Location }

type IntegerLiteral struct {
	Location token.Location
	Value    int64
}

func (il *IntegerLiteral) expressionNode()     {}
func (il *IntegerLiteral) Loc() token.Location { return il.Location }

type DoubleLiteral struct {
	Location token.Location
	Value    float64
}

func (dl *DoubleLiteral) expressionNode()     {}
func (dl *DoubleLiteral) Loc() token.Location { return dl.Location }

type StringLiteral struct {
	Location token.Location
	Value    string
}

func (sl *StringLiteral) expressionNode()     {}
func (sl *StringLiteral) Loc() token.Location { return sl.Location }

// ArithmeticExpression covers + - * / % && ||.
type ArithmeticExpression struct {
	Location token.Location
	Operator Operator
	Left     Expression
	Right    Expression
}

func (ae *ArithmeticExpression) expressionNode()     {}
func (ae *ArithmeticExpression) Loc() token.Location { return ae.Location }

// ComparisonExpression covers == != < <= > >=.
type ComparisonExpression struct {
	Location token.Location
	Operator Operator
	Left     Expression
	Right    Expression
}

func (ce *ComparisonExpression) expressionNode()     {}
func (ce *ComparisonExpression) Loc() token.Location { return ce.Location }

// UnaryExpression is -x or !x.
type UnaryExpression struct {
	Location token.Location
	Operator Operator
	Operand  Expression
}

func (ue *UnaryExpression) expressionNode()     {}
func (ue *UnaryExpression) Loc() token.Location { return ue.Location }

// ConditionalExpression is Cond ? Then : Else.
type ConditionalExpression struct {
	Location token.Location
	Cond     Expression
	Then     Expression
	Else     Expression
}

func (ce *ConditionalExpression) expressionNode()     {}
func (ce *ConditionalExpression) Loc() token.Location { return ce.Location }

type CallExpression struct {
	Location token.Location
	Callee   Expression
	Args     []Expression
}

func (ce *CallExpression) expressionNode()     {}
func (ce *CallExpression) Loc() token.Location { return ce.Location }

// StructMember is one member of a struct type literal or declaration.
type StructMember struct {
	Location token.Location
	Name     string
	Type     TypeExpr
}

// StructTypeExpression is a struct type used as a value: struct { int a; }.
type StructTypeExpression struct {
	Location token.Location
	Members  []StructMember
}

func (st *StructTypeExpression) expressionNode()     {}
func (st *StructTypeExpression) Loc() token.Location { return st.Location }

type Parameter struct {
	Location token.Location
	Name     string
	Type     TypeExpr
}

// FunctionLiteral is an anonymous function. Return must be set.
type FunctionLiteral struct {
	Location token.Location
	Return   TypeExpr
	Params   []Parameter
	Pure     bool
	Body     *BlockStatement
}

func (fl *FunctionLiteral) expressionNode()     {}
func (fl *FunctionLiteral) Loc() token.Location { return fl.Location }

// Identifier loads a value by name.
type Identifier struct {
	Location token.Location
	Name     string
}

func (i *Identifier) expressionNode()     {}
func (i *Identifier) Loc() token.Location { return i.Location }

// MemberExpression is Parent.Member.
type MemberExpression struct {
	Location token.Location
	Parent   Expression
	Member   string
}

func (me *MemberExpression) expressionNode()     {}
func (me *MemberExpression) Loc() token.Location { return me.Location }

// IndexExpression is Parent[Key].
type IndexExpression struct {
	Location token.Location
	Parent   Expression
	Key      Expression
}

func (ie *IndexExpression) expressionNode()     {}
func (ie *IndexExpression) Loc() token.Location { return ie.Location }

// VectorLiteral is [a, b, ...]. ElemType is optional.
type VectorLiteral struct {
	Location token.Location
	ElemType TypeExpr
	Elements []Expression
}

func (vl *VectorLiteral) expressionNode()     {}
func (vl *VectorLiteral) Loc() token.Location { return vl.Location }

type DictEntry struct {
	Key   Expression
	Value Expression
}

// DictLiteral is {"k": v, ...}. ElemType is optional.
type DictLiteral struct {
	Location token.Location
	ElemType TypeExpr
	Entries  []DictEntry
}

func (dl *DictLiteral) expressionNode()     {}
func (dl *DictLiteral) Loc() token.Location { return dl.Location }
