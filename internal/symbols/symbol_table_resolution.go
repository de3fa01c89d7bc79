package symbols

// Resolution is the result of a successful Lookup.
type Resolution struct {
	Symbol  Symbol
	Address Address
	// Scope is the table that declares the symbol.
	Scope *SymbolTable
	// CrossesFunction is set when the walk left a function body before
	// reaching a non-global scope. Such a symbol belongs to another frame
	// chain and can only be used when its value is known up front.
	CrossesFunction bool
}

// Lookup walks outward from s and returns the innermost declaration of name.
// Symbols of the global scope get GlobalDistance regardless of depth.
func (s *SymbolTable) Lookup(name string) (Resolution, bool) {
	crossed := false
	distance := 0
	for t := s; t != nil; t = t.outer {
		if slot, ok := t.index[name]; ok {
			res := Resolution{
				Symbol:  t.entries[slot],
				Address: Address{Distance: distance, Slot: slot},
				Scope:   t,
			}
			if t.IsGlobalScope() {
				res.Address.Distance = GlobalDistance
			} else {
				res.CrossesFunction = crossed
			}
			return res, true
		}
		if t.scopeType == ScopeFunction {
			crossed = true
		}
		distance++
	}
	return Resolution{}, false
}

// EnclosingFunction returns the nearest function scope, or nil at top level.
func (s *SymbolTable) EnclosingFunction() *SymbolTable {
	for t := s; t != nil; t = t.outer {
		if t.scopeType == ScopeFunction {
			return t
		}
	}
	return nil
}
