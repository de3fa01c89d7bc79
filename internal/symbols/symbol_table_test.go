package symbols

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

func binding(t typesystem.TypeID) Symbol {
	return Symbol{Kind: ImmutableBinding, Type: t, Location: token.At(0)}
}

func TestDeclareAssignsSlotsInOrder(t *testing.T) {
	st := NewEmptySymbolTable()
	a, err := st.Declare("a", binding(typesystem.Int))
	be.Err(t, err, nil)
	b, err := st.Declare("b", binding(typesystem.Double))
	be.Err(t, err, nil)

	be.Equal(t, a, 0)
	be.Equal(t, b, 1)
	be.Equal(t, st.Len(), 2)
	be.Equal(t, st.Get(1).Name, "b")
}

func TestDeclareDuplicate(t *testing.T) {
	st := NewEmptySymbolTable()
	_, err := st.Declare("x", binding(typesystem.Int))
	be.Err(t, err, nil)

	_, err = st.Declare("x", binding(typesystem.Int))
	var dup *DuplicateDeclarationError
	be.True(t, errors.As(err, &dup))
	be.Equal(t, dup.Name, "x")
}

func TestShadowingAcrossScopes(t *testing.T) {
	global := NewEmptySymbolTable()
	_, _ = global.Declare("x", binding(typesystem.Int))
	block := NewEnclosedSymbolTable(global, ScopeBlock)
	_, err := block.Declare("x", binding(typesystem.String))
	be.Err(t, err, nil)

	res, ok := block.Lookup("x")
	be.True(t, ok)
	be.Equal(t, res.Address, Address{Distance: 0, Slot: 0})
	be.Equal(t, res.Symbol.Type, typesystem.String)

	res, ok = global.Lookup("x")
	be.True(t, ok)
	be.True(t, res.Address.IsGlobal())
	be.Equal(t, res.Symbol.Type, typesystem.Int)
}

func TestLookupDistances(t *testing.T) {
	global := NewEmptySymbolTable()
	_, _ = global.Declare("g", binding(typesystem.Int))
	fn := NewEnclosedSymbolTable(global, ScopeFunction)
	_, _ = fn.Declare("p", Symbol{Kind: ImmutableParameter, Type: typesystem.Int})
	loop := NewEnclosedSymbolTable(fn, ScopeLoop)
	_, _ = loop.Declare("i", binding(typesystem.Int))
	block := NewEnclosedSymbolTable(loop, ScopeBlock)

	res, ok := block.Lookup("i")
	be.True(t, ok)
	be.Equal(t, res.Address, Address{Distance: 1, Slot: 0})

	res, ok = block.Lookup("p")
	be.True(t, ok)
	be.Equal(t, res.Address, Address{Distance: 2, Slot: 0})
	be.True(t, !res.CrossesFunction)

	res, ok = block.Lookup("g")
	be.True(t, ok)
	be.Equal(t, res.Address, Address{Distance: GlobalDistance, Slot: 0})
	be.True(t, !res.CrossesFunction)

	_, ok = block.Lookup("missing")
	be.True(t, !ok)
}

func TestLookupAcrossFunctionBoundary(t *testing.T) {
	global := NewEmptySymbolTable()
	outer := NewEnclosedSymbolTable(global, ScopeFunction)
	_, _ = outer.Declare("local", binding(typesystem.Int))
	inner := NewEnclosedSymbolTable(outer, ScopeFunction)

	res, ok := inner.Lookup("local")
	be.True(t, ok)
	be.True(t, res.CrossesFunction)
	be.True(t, res.Scope == outer)
}

func TestAddressStability(t *testing.T) {
	global := NewEmptySymbolTable()
	fn := NewEnclosedSymbolTable(global, ScopeFunction)
	_, _ = fn.Declare("a", binding(typesystem.Int))
	block := NewEnclosedSymbolTable(fn, ScopeBlock)

	first, _ := block.Lookup("a")
	second, _ := block.Lookup("a")
	be.Equal(t, first.Address, second.Address)
}

func TestUpdateKeepsName(t *testing.T) {
	st := NewEmptySymbolTable()
	slot, _ := st.Declare("f", Symbol{Kind: PrecomputedConstant, Type: typesystem.Int})
	st.Update(slot, Symbol{Kind: PrecomputedConstant, Type: typesystem.Int, Value: value.Int(3)})

	sym, got, ok := st.Local("f")
	be.True(t, ok)
	be.Equal(t, got, slot)
	be.Equal(t, sym.Name, "f")
	be.True(t, sym.HasValue())
	be.Equal(t, sym.Value.AsInt(), int64(3))
}

func TestGlobalTableDeclaresBuiltinTypes(t *testing.T) {
	st := NewGlobalSymbolTable()
	res, ok := st.Lookup("double")
	be.True(t, ok)
	be.Equal(t, res.Symbol.Kind, TypeAlias)

	denoted, ok := res.Symbol.DenotedType()
	be.True(t, ok)
	be.Equal(t, denoted, typesystem.Double)
	be.True(t, !res.Symbol.IsMutable())
}
