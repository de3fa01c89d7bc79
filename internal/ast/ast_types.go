package ast

import "github.com/funvibe/floyd/internal/token"

// NamedType is a builtin type name or the name of a struct declared in
// an enclosing scope.
type NamedType struct {
	Location token.Location
	Name     string
}

func (nt *NamedType) typeNode()           {}
func (nt *NamedType) Loc() token.Location { return nt.Location }

// VectorType is [Elem].
type VectorType struct {
	Location token.Location
	Elem     TypeExpr
}

func (vt *VectorType) typeNode()           {}
func (vt *VectorType) Loc() token.Location { return vt.Location }

// DictType is [string:Elem].
type DictType struct {
	Location token.Location
	Elem     TypeExpr
}

func (dt *DictType) typeNode()           {}
func (dt *DictType) Loc() token.Location { return dt.Location }

// FunctionType is func Return(Params...).
type FunctionType struct {
	Location token.Location
	Return   TypeExpr
	Params   []TypeExpr
	Pure     bool
}

func (ft *FunctionType) typeNode()           {}
func (ft *FunctionType) Loc() token.Location { return ft.Location }
