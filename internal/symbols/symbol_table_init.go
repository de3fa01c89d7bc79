package symbols

import (
	"github.com/funvibe/floyd/internal/config"
	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

// builtinTypeNames fixes the slot order of the builtin aliases.
var builtinTypeNames = []string{
	config.VoidTypeName,
	config.BoolTypeName,
	config.IntTypeName,
	config.DoubleTypeName,
	config.StringTypeName,
	config.JSONTypeName,
	config.TypeIDTypeName,
}

// NewGlobalSymbolTable creates the global scope with the builtin type names
// declared as type aliases.
func NewGlobalSymbolTable() *SymbolTable {
	st := NewEmptySymbolTable()
	for _, name := range builtinTypeNames {
		// Fresh table, names are distinct.
		_, _ = st.Declare(name, Symbol{
			Kind:     TypeAlias,
			Type:     typesystem.Typeid,
			Value:    value.TypeValue(typesystem.PrimitiveByName[name]),
			Location: token.Synthetic(),
		})
	}
	return st
}
