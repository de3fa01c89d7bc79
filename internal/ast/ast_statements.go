package ast

import "github.com/funvibe/floyd/internal/token"

// ReturnStatement returns Value, which is nil in void functions.
type ReturnStatement struct {
	Location token.Location
	Value    Expression
}

func (rs *ReturnStatement) statementNode()      {}
func (rs *ReturnStatement) Loc() token.Location { return rs.Location }

// BindStatement declares a local: [mutable] [Type] Name [= Value].
// At least one of Type and Value is set.
type BindStatement struct {
	Location token.Location
	Name     string
	Type     TypeExpr
	Mutable  bool
	Value    Expression
}

func (bs *BindStatement) statementNode()      {}
func (bs *BindStatement) Loc() token.Location { return bs.Location }

// AssignStatement is Name = Value.
type AssignStatement struct {
	Location token.Location
	Name     string
	Value    Expression
}

func (as *AssignStatement) statementNode()      {}
func (as *AssignStatement) Loc() token.Location { return as.Location }

type BlockStatement struct {
	Location   token.Location
	Statements []Statement
}

func (bs *BlockStatement) statementNode()      {}
func (bs *BlockStatement) Loc() token.Location { return bs.Location }

// IfStatement. An else-if is an IfStatement alone in Else.
type IfStatement struct {
	Location token.Location
	Cond     Expression
	Then     *BlockStatement
	Else     *BlockStatement
}

func (is *IfStatement) statementNode()      {}
func (is *IfStatement) Loc() token.Location { return is.Location }

// ForStatement iterates Iterator over Start...End when Closed, else over
// Start..<End.
type ForStatement struct {
	Location token.Location
	Iterator string
	Start    Expression
	End      Expression
	Closed   bool
	Body     *BlockStatement
}

func (fs *ForStatement) statementNode()      {}
func (fs *ForStatement) Loc() token.Location { return fs.Location }

type WhileStatement struct {
	Location token.Location
	Cond     Expression
	Body     *BlockStatement
}

func (ws *WhileStatement) statementNode()      {}
func (ws *WhileStatement) Loc() token.Location { return ws.Location }

type ExpressionStatement struct {
	Location   token.Location
	Expression Expression
}

func (es *ExpressionStatement) statementNode()      {}
func (es *ExpressionStatement) Loc() token.Location { return es.Location }

// StructDeclaration is struct Name { members }.
type StructDeclaration struct {
	Location token.Location
	Name     string
	Members  []StructMember
}

func (sd *StructDeclaration) statementNode()      {}
func (sd *StructDeclaration) Loc() token.Location { return sd.Location }

// FunctionDeclaration binds Name to Function in the enclosing scope.
type FunctionDeclaration struct {
	Location token.Location
	Name     string
	Function *FunctionLiteral
}

func (fd *FunctionDeclaration) statementNode()      {}
func (fd *FunctionDeclaration) Loc() token.Location { return fd.Location }
