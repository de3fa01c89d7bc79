package typed

import (
	"github.com/funvibe/floyd/internal/symbols"
	"github.com/funvibe/floyd/internal/token"
)

type Return struct {
	Location token.Location
	Value    Expression
}

// Store writes Value to Addr. Init marks the binding's first store.
type Store struct {
	Location token.Location
	Name     string
	Addr     symbols.Address
	Value    Expression
	Init     bool
}

// Block runs Body in a fresh frame laid out by Scope.
type Block struct {
	Location token.Location
	Scope    *Scope
	Body     []Statement
}

type If struct {
	Location token.Location
	Cond     Expression
	Then     *Block
	Else     *Block
}

// For binds the iterator to slot 0 of Body.Scope.
type For struct {
	Location token.Location
	Start    Expression
	End      Expression
	Closed   bool
	Body     *Block
}

type While struct {
	Location token.Location
	Cond     Expression
	Body     *Block
}

type ExprStmt struct {
	Location token.Location
	Expr     Expression
}

func (s *Return) Loc() token.Location   { return s.Location }
func (s *Store) Loc() token.Location    { return s.Location }
func (s *Block) Loc() token.Location    { return s.Location }
func (s *If) Loc() token.Location       { return s.Location }
func (s *For) Loc() token.Location      { return s.Location }
func (s *While) Loc() token.Location    { return s.Location }
func (s *ExprStmt) Loc() token.Location { return s.Location }

func (*Return) statementNode()   {}
func (*Store) statementNode()    {}
func (*Block) statementNode()    {}
func (*If) statementNode()       {}
func (*For) statementNode()      {}
func (*While) statementNode()    {}
func (*ExprStmt) statementNode() {}
