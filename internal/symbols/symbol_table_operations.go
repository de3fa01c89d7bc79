package symbols

type SymbolTable struct {
	entries   []Symbol
	index     map[string]int
	outer     *SymbolTable
	scopeType ScopeType
}

func NewEmptySymbolTable() *SymbolTable {
	return &SymbolTable{
		index:     make(map[string]int),
		scopeType: ScopeGlobal,
	}
}

func NewEnclosedSymbolTable(outer *SymbolTable, scopeType ScopeType) *SymbolTable {
	st := NewEmptySymbolTable()
	st.outer = outer
	st.scopeType = scopeType
	return st
}

// Outer returns the enclosing scope, nil for the global scope.
func (s *SymbolTable) Outer() *SymbolTable {
	return s.outer
}

func (s *SymbolTable) ScopeType() ScopeType {
	return s.scopeType
}

func (s *SymbolTable) IsGlobalScope() bool {
	return s.outer == nil
}

func (s *SymbolTable) IsFunctionScope() bool {
	return s.scopeType == ScopeFunction
}

// Declare appends a symbol and returns its slot. Shadowing an outer scope is
// fine; a second declaration of the same name in this scope is not.
func (s *SymbolTable) Declare(name string, sym Symbol) (int, error) {
	if slot, ok := s.index[name]; ok {
		return -1, &DuplicateDeclarationError{Name: name, Previous: s.entries[slot].Location}
	}
	sym.Name = name
	slot := len(s.entries)
	s.entries = append(s.entries, sym)
	s.index[name] = slot
	return slot, nil
}

// Update replaces the symbol in slot, keeping its name. It is used to fill in
// a constant's value once it is known.
func (s *SymbolTable) Update(slot int, sym Symbol) {
	sym.Name = s.entries[slot].Name
	s.entries[slot] = sym
}

// Local looks a name up in this scope only.
func (s *SymbolTable) Local(name string) (Symbol, int, bool) {
	slot, ok := s.index[name]
	if !ok {
		return Symbol{}, -1, false
	}
	return s.entries[slot], slot, true
}

func (s *SymbolTable) Get(slot int) Symbol {
	return s.entries[slot]
}

func (s *SymbolTable) Len() int {
	return len(s.entries)
}

// Symbols returns the scope's symbols in slot order.
func (s *SymbolTable) Symbols() []Symbol {
	out := make([]Symbol, len(s.entries))
	copy(out, s.entries)
	return out
}
