// Package ast defines the unresolved tree produced by the external parser.
//
// Nothing in this tree carries a type or an address. The analyzer turns it
// into the resolved tree of package typed.
package ast

import "github.com/funvibe/floyd/internal/token"

// Node is the base interface for all tree nodes.
type Node interface {
	Loc() token.Location
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// TypeExpr is a type as written in source. A nil TypeExpr means "infer".
type TypeExpr interface {
	Node
	typeNode()
}

// Program is the root of every tree the parser produces.
type Program struct {
	File       string
	Statements []Statement
}

// Operator is a binary or unary operator symbol.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
	OpMod Operator = "%"
	OpAnd Operator = "&&"
	OpOr  Operator = "||"

	OpEq Operator = "=="
	OpNe Operator = "!="
	OpLt Operator = "<"
	OpLe Operator = "<="
	OpGt Operator = ">"
	OpGe Operator = ">="

	OpNeg Operator = "-"
	OpNot Operator = "!"
)

// IsComparison reports == != < <= > >=.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// IsArithmetic reports the operators of ArithmeticExpression.
func (op Operator) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpAnd, OpOr:
		return true
	}
	return false
}

// IsLogical reports the short-circuit operators.
func (op Operator) IsLogical() bool {
	return op == OpAnd || op == OpOr
}
