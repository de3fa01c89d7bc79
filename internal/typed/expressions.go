package typed

import (
	"github.com/funvibe/floyd/internal/ast"
	"github.com/funvibe/floyd/internal/symbols"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

type Literal struct {
	Base
	Value value.Value
}

type Arithmetic struct {
	Base
	Operator ast.Operator
	Left     Expression
	Right    Expression
}

type Comparison struct {
	Base
	Operator ast.Operator
	Left     Expression
	Right    Expression
}

type Unary struct {
	Base
	Operator ast.Operator
	Operand  Expression
}

type Conditional struct {
	Base
	Cond Expression
	Then Expression
	Else Expression
}

// Call invokes a function value.
type Call struct {
	Base
	Callee Expression
	Args   []Expression
}

// IntrinsicCall invokes a generic builtin by name.
type IntrinsicCall struct {
	Base
	Name string
	Args []Expression
}

// TypeValue is a type used as a value of type typeid.
type TypeValue struct {
	Base
	Denoted typesystem.TypeID
}

// FunctionValue refers to Program.Functions[Function].
type FunctionValue struct {
	Base
	Function int
}

// Load reads the slot at Addr.
type Load struct {
	Base
	Name string
	Addr symbols.Address
}

// Member reads struct member Index.
type Member struct {
	Base
	Parent Expression
	Name   string
	Index  int
}

// MemberUpdate is a copy of Parent with member Index replaced by Value.
type MemberUpdate struct {
	Base
	Parent Expression
	Name   string
	Index  int
	Value  Expression
}

// Index is Parent[Key] on a vector, dict, string or json value.
type Index struct {
	Base
	Parent Expression
	Key    Expression
}

type ConstructKind int

const (
	ConstructVector ConstructKind = iota
	ConstructDict
	ConstructStruct
)

func (k ConstructKind) String() string {
	switch k {
	case ConstructVector:
		return "vector"
	case ConstructDict:
		return "dict"
	}
	return "struct"
}

// Construct builds an aggregate of its type. Dicts pair Keys[i] with
// Elements[i]; structs take one element per member.
type Construct struct {
	Base
	Kind     ConstructKind
	Keys     []Expression
	Elements []Expression
}

func (*Literal) expressionNode()       {}
func (*Arithmetic) expressionNode()    {}
func (*Comparison) expressionNode()    {}
func (*Unary) expressionNode()         {}
func (*Conditional) expressionNode()   {}
func (*Call) expressionNode()          {}
func (*IntrinsicCall) expressionNode() {}
func (*TypeValue) expressionNode()     {}
func (*FunctionValue) expressionNode() {}
func (*Load) expressionNode()          {}
func (*Member) expressionNode()        {}
func (*MemberUpdate) expressionNode()  {}
func (*Index) expressionNode()         {}
func (*Construct) expressionNode()     {}
