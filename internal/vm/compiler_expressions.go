package vm

import (
	"github.com/funvibe/floyd/internal/ast"
	"github.com/funvibe/floyd/internal/builtins"
	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/typed"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

var arithmeticOps = map[ast.Operator]Opcode{
	ast.OpAdd: OP_ADD,
	ast.OpSub: OP_SUB,
	ast.OpMul: OP_MUL,
	ast.OpDiv: OP_DIV,
	ast.OpMod: OP_MOD,
}

var comparisonOps = map[ast.Operator]Opcode{
	ast.OpEq: OP_EQ,
	ast.OpNe: OP_NE,
	ast.OpLt: OP_LT,
	ast.OpLe: OP_LE,
	ast.OpGt: OP_GT,
	ast.OpGe: OP_GE,
}

// compileExpression leaves exactly one value on the stack. Void calls push
// a void value.
func (c *Compiler) compileExpression(e typed.Expression) error {
	if e == nil {
		return c.defect(token.Synthetic(), "missing expression")
	}
	if e.Type() == typesystem.Undefined {
		return c.defect(e.Loc(), "%T has no type", e)
	}
	loc := e.Loc()

	switch e := e.(type) {
	case *typed.Literal:
		return c.emitConstant(e.Value, loc)

	case *typed.TypeValue:
		return c.emitConstant(value.TypeValue(e.Denoted), loc)

	case *typed.FunctionValue:
		if e.Function < 0 || e.Function >= len(c.out.Functions) {
			return c.defect(loc, "function %d out of range", e.Function)
		}
		fn := c.out.Functions[e.Function]
		return c.emitConstant(value.Function(e.Type(), value.FunctionRef{Index: e.Function, Name: fn.Name}), loc)

	case *typed.Load:
		return c.emitAddress(true, e.Addr, loc)

	case *typed.Arithmetic:
		if e.Operator == ast.OpAnd || e.Operator == ast.OpOr {
			return c.compileLogicalOp(e)
		}
		op, ok := arithmeticOps[e.Operator]
		if !ok {
			return c.defect(loc, "unknown arithmetic operator %q", e.Operator)
		}
		return c.compileBinary(op, e.Left, e.Right, loc)

	case *typed.Comparison:
		op, ok := comparisonOps[e.Operator]
		if !ok {
			return c.defect(loc, "unknown comparison operator %q", e.Operator)
		}
		return c.compileBinary(op, e.Left, e.Right, loc)

	case *typed.Unary:
		if err := c.compileExpression(e.Operand); err != nil {
			return err
		}
		switch e.Operator {
		case ast.OpNeg:
			c.emit(OP_NEG, loc)
		case ast.OpNot:
			c.emit(OP_NOT, loc)
		default:
			return c.defect(loc, "unknown unary operator %q", e.Operator)
		}
		return nil

	case *typed.Conditional:
		return c.compileConditional(e)

	case *typed.Call:
		if len(e.Args) > 0xff {
			return c.defect(loc, "too many arguments")
		}
		if err := c.compileExpression(e.Callee); err != nil {
			return err
		}
		if err := c.compileExpressions(e.Args); err != nil {
			return err
		}
		c.emit(OP_CALL, loc)
		c.emitByte(len(e.Args), loc)
		return nil

	case *typed.IntrinsicCall:
		in, ok := builtins.LookupIntrinsic(e.Name)
		if !ok || in.Arity != len(e.Args) {
			return c.defect(loc, "bad intrinsic call %s/%d", e.Name, len(e.Args))
		}
		if err := c.compileExpressions(e.Args); err != nil {
			return err
		}
		c.emit(OP_CALL_INTRINSIC, loc)
		c.emitByte(in.ID, loc)
		c.emitByte(len(e.Args), loc)
		return nil

	case *typed.Member:
		if err := c.compileExpression(e.Parent); err != nil {
			return err
		}
		c.emit(OP_GET_MEMBER, loc)
		c.emitUint16(e.Index, loc)
		return nil

	case *typed.MemberUpdate:
		if err := c.compileExpression(e.Parent); err != nil {
			return err
		}
		if err := c.compileExpression(e.Value); err != nil {
			return err
		}
		c.emit(OP_UPDATE_MEMBER, loc)
		c.emitUint16(e.Index, loc)
		return nil

	case *typed.Index:
		return c.compileBinary(OP_GET_INDEX, e.Parent, e.Key, loc)

	case *typed.Construct:
		return c.compileConstruct(e)
	}
	return c.defect(loc, "unknown expression %T", e)
}

func (c *Compiler) compileExpressions(es []typed.Expression) error {
	for _, e := range es {
		if err := c.compileExpression(e); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileBinary(op Opcode, left, right typed.Expression, loc token.Location) error {
	if err := c.compileExpression(left); err != nil {
		return err
	}
	if err := c.compileExpression(right); err != nil {
		return err
	}
	c.emit(op, loc)
	return nil
}

// compileLogicalOp short-circuits on the left operand, which stays on the
// stack as the result when it decides the outcome.
func (c *Compiler) compileLogicalOp(e *typed.Arithmetic) error {
	loc := e.Loc()
	if err := c.compileExpression(e.Left); err != nil {
		return err
	}
	if e.Operator == ast.OpAnd {
		endJump := c.emitJump(OP_JUMP_IF_FALSE, loc)
		c.emit(OP_POP, loc)
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		return c.patchJump(endJump, loc)
	}

	elseJump := c.emitJump(OP_JUMP_IF_FALSE, loc)
	endJump := c.emitJump(OP_JUMP, loc)
	if err := c.patchJump(elseJump, loc); err != nil {
		return err
	}
	c.emit(OP_POP, loc)
	if err := c.compileExpression(e.Right); err != nil {
		return err
	}
	return c.patchJump(endJump, loc)
}

func (c *Compiler) compileConditional(e *typed.Conditional) error {
	loc := e.Loc()
	if err := c.compileExpression(e.Cond); err != nil {
		return err
	}
	elseJump := c.emitJump(OP_JUMP_IF_FALSE, loc)
	c.emit(OP_POP, loc)
	if err := c.compileExpression(e.Then); err != nil {
		return err
	}
	endJump := c.emitJump(OP_JUMP, loc)
	if err := c.patchJump(elseJump, loc); err != nil {
		return err
	}
	c.emit(OP_POP, loc)
	if err := c.compileExpression(e.Else); err != nil {
		return err
	}
	return c.patchJump(endJump, loc)
}

// compileConstruct pushes the parts in order; dict keys precede their values.
func (c *Compiler) compileConstruct(e *typed.Construct) error {
	loc := e.Loc()
	count := len(e.Elements)
	if count > maxOperand {
		return c.defect(loc, "%s with %d elements", e.Kind, count)
	}

	var op Opcode
	switch e.Kind {
	case typed.ConstructVector:
		op = OP_MAKE_VECTOR
		if err := c.compileExpressions(e.Elements); err != nil {
			return err
		}
	case typed.ConstructStruct:
		op = OP_MAKE_STRUCT
		if err := c.compileExpressions(e.Elements); err != nil {
			return err
		}
	case typed.ConstructDict:
		op = OP_MAKE_DICT
		if len(e.Keys) != count {
			return c.defect(loc, "dict with %d keys and %d values", len(e.Keys), count)
		}
		for i := range e.Elements {
			if err := c.compileExpression(e.Keys[i]); err != nil {
				return err
			}
			if err := c.compileExpression(e.Elements[i]); err != nil {
				return err
			}
		}
	default:
		return c.defect(loc, "unknown construct kind %d", e.Kind)
	}

	idx, err := c.constant(value.TypeValue(e.Type()), loc)
	if err != nil {
		return err
	}
	c.emit(op, loc)
	c.emitUint16(idx, loc)
	c.emitUint16(count, loc)
	return nil
}
