package lang

import "fmt"

// ----------------------------------------------------------------------------
// General information

// This section implements the symbol table: an ordered list of symbols per
// scope plus a hashmap-with-backup-pointer, where
// lookup cascades to the backup scope when a key is absent locally. Pushing a
// scope replaces the active hashmap with a fresh one chaining to the previous;
// popping restores the previous. Insertion into the *local* map only is a
// collision; shadowing via a freshly pushed child map is never a collision.

// SymbolKind tags what kind of entity a Symbol names.
type SymbolKind uint8

const (
	GlobalVar SymbolKind = iota
	Function
	Parameter
	LocalVar
	LocalStruct
	GlobalStruct
	Namespace
)

// Symbol names a declared entity.
type Symbol struct {
	Name    string
	Kind    SymbolKind
	Node    NodeRef // the defining AST node
	Seq     int     // sequence number within its defining scope
	Builtin bool
	Sub     *Scope // struct field table or function-local table, when applicable
}

// Scope is one hashmap "frame" in the backup chain described above.
type Scope struct {
	entries map[string]*Symbol
	order   []*Symbol
	backup  *Scope
}

// NewGlobalScope returns an empty root scope (no backup).
func NewGlobalScope() *Scope {
	return &Scope{entries: map[string]*Symbol{}}
}

// Push returns a fresh child scope chaining back to 'parent'.
func Push(parent *Scope) *Scope {
	return &Scope{entries: map[string]*Symbol{}, backup: parent}
}

// Pop returns the backup scope a child was pushed from (nil at the root).
func (s *Scope) Pop() *Scope { return s.backup }

// Insert adds 'sym' to this scope's local map. Reports a name-error collision
// only when *this* scope's map already contains the name; a symbol of the same
// name present in a backup (enclosing) scope is legitimate shadowing.
func (s *Scope) Insert(sym *Symbol) error {
	if _, exists := s.entries[sym.Name]; exists {
		return wrapf(ErrName, "redeclaration of %q in the same scope", sym.Name)
	}
	sym.Seq = len(s.order)
	s.entries[sym.Name] = sym
	s.order = append(s.order, sym)
	return nil
}

// Lookup cascades from this scope through the backup chain until the name is
// found, returning an ErrName failure if it is absent everywhere.
func (s *Scope) Lookup(name string) (*Symbol, error) {
	for scope := s; scope != nil; scope = scope.backup {
		if sym, ok := scope.entries[name]; ok {
			return sym, nil
		}
	}
	return nil, wrapf(ErrName, "undeclared identifier %q", name)
}

// Entries returns this scope's symbols in insertion order (not including
// backup scopes), mirroring the "ordered list of symbols" half of the data
// model.
func (s *Scope) Entries() []*Symbol { return s.order }

// wrapf centralises the fmt.Errorf("%w: ...") pattern used for every
// name/type/codegen error raised from deep inside a recursive visit, so the
// sentinel is always preserved for errors.Is checks at the driver boundary.
func wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
