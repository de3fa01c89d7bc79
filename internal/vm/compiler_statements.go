package vm

import (
	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/typed"
)

func (c *Compiler) compileStatements(stmts []typed.Statement) error {
	for _, s := range stmts {
		if err := c.compileStatement(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileStatement(s typed.Statement) error {
	switch s := s.(type) {
	case *typed.Return:
		if s.Value == nil {
			c.emit(OP_RETURN_VOID, s.Location)
			return nil
		}
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
		c.emit(OP_RETURN, s.Location)
		return nil

	case *typed.Store:
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
		return c.emitAddress(false, s.Addr, s.Location)

	case *typed.Block:
		return c.compileBlock(s)

	case *typed.If:
		return c.compileIf(s)

	case *typed.For:
		return c.compileFor(s)

	case *typed.While:
		return c.compileWhile(s)

	case *typed.ExprStmt:
		if err := c.compileExpression(s.Expr); err != nil {
			return err
		}
		c.emit(OP_POP, s.Location)
		return nil

	case nil:
		return c.defect(token.Synthetic(), "missing statement")
	}
	return c.defect(s.Loc(), "unknown statement %T", s)
}

func (c *Compiler) compileBlock(b *typed.Block) error {
	if b == nil {
		return c.defect(token.Synthetic(), "missing block")
	}
	if err := c.enterScope(b); err != nil {
		return err
	}
	if err := c.compileStatements(b.Body); err != nil {
		return err
	}
	c.exitScope(b)
	return nil
}

// compileIf emits
//
//	cond; JUMP_IF_FALSE else; POP; then; JUMP end; else: POP; [else-body]; end:
func (c *Compiler) compileIf(s *typed.If) error {
	if err := c.compileExpression(s.Cond); err != nil {
		return err
	}
	elseJump := c.emitJump(OP_JUMP_IF_FALSE, s.Location)
	c.emit(OP_POP, s.Location)
	if err := c.compileBlock(s.Then); err != nil {
		return err
	}
	endJump := c.emitJump(OP_JUMP, s.Location)
	if err := c.patchJump(elseJump, s.Location); err != nil {
		return err
	}
	c.emit(OP_POP, s.Location)
	if s.Else != nil {
		if err := c.compileBlock(s.Else); err != nil {
			return err
		}
	}
	return c.patchJump(endJump, s.Location)
}

func (c *Compiler) compileWhile(s *typed.While) error {
	loopStart := c.currentChunk().Len()
	if err := c.compileExpression(s.Cond); err != nil {
		return err
	}
	exitJump := c.emitJump(OP_JUMP_IF_FALSE, s.Location)
	c.emit(OP_POP, s.Location)
	if err := c.compileBlock(s.Body); err != nil {
		return err
	}
	if err := c.emitLoop(loopStart, s.Location); err != nil {
		return err
	}
	if err := c.patchJump(exitJump, s.Location); err != nil {
		return err
	}
	c.emit(OP_POP, s.Location)
	return nil
}

// compileFor keeps the iterator and the end bound on the operand stack and
// copies the iterator into slot 0 of a fresh body frame on every pass:
//
//	start; end; loop: FOR_TEST exit; ENTER_SCOPE; PICK 1; STORE 0 0; body;
//	EXIT_SCOPE; FOR_NEXT; LOOP loop; exit: POP; POP
func (c *Compiler) compileFor(s *typed.For) error {
	if s.Body == nil || s.Body.Scope == nil || s.Body.Scope.Len() == 0 {
		return c.defect(s.Location, "for loop without an iterator slot")
	}
	if err := c.compileExpression(s.Start); err != nil {
		return err
	}
	if err := c.compileExpression(s.End); err != nil {
		return err
	}

	loopStart := c.currentChunk().Len()
	exitJump := c.emitForTest(s.Closed, s.Location)
	if err := c.enterScope(s.Body); err != nil {
		return err
	}
	c.emit(OP_PICK, s.Location)
	c.emitByte(1, s.Location)
	c.emit(OP_STORE, s.Location)
	c.emitByte(0, s.Location)
	c.emitUint16(0, s.Location)
	if err := c.compileStatements(s.Body.Body); err != nil {
		return err
	}
	c.exitScope(s.Body)
	c.emit(OP_FOR_NEXT, s.Location)
	if err := c.emitLoop(loopStart, s.Location); err != nil {
		return err
	}
	if err := c.patchJump(exitJump, s.Location); err != nil {
		return err
	}
	c.emit(OP_POP, s.Location)
	c.emit(OP_POP, s.Location)
	return nil
}
