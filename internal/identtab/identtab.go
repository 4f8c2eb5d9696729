// Package identtab holds the global identifier storage and the lexical
// scope stack: a dense table from IdentifierID to Entry, seeded with NL's
// builtin types before any user code is bound.
package identtab

import (
	"nl/internal/source"
	"nl/internal/types"
)

// ID is a dense, globally unique identifier for one bound name — a
// constant, a function, or a function parameter.
type ID int32

// ExpressionData is the payload attached to an Entry once its defining
// expression has been (at least partially) resolved.
type ExpressionData struct {
	Present      bool
	Constantness types.Constantness
	Type         types.Type
	HasType      bool
}

// Entry records everything known about one bound name.
type Entry struct {
	ID              ID
	Name            string
	Builtin         bool
	Range           source.Range // sentinel (zero value) for builtins
	IsBeingDefined  bool
	Data            ExpressionData
	Value           types.Variant
}

// Storage is the process-lifetime (well: compilation-lifetime) table of
// every bound identifier, keyed by ID.
type Storage struct {
	entries []Entry
}

// NewStorage creates an empty table. Builtins are seeded separately by
// SeedBuiltins so that callers control when the builtin scope is
// constructed.
func NewStorage() *Storage {
	return &Storage{}
}

// Define allocates a new Entry for a user-defined name at the given source
// range and returns its ID.
func (s *Storage) Define(name string, rng source.Range) ID {
	id := ID(len(s.entries))
	s.entries = append(s.entries, Entry{ID: id, Name: name, Range: rng})
	return id
}

// defineBuiltin allocates a builtin Entry with its constant type-value
// already populated.
func (s *Storage) defineBuiltin(name string, value types.Variant) ID {
	id := ID(len(s.entries))
	s.entries = append(s.entries, Entry{
		ID:      id,
		Name:    name,
		Builtin: true,
		Data: ExpressionData{
			Present:      true,
			Constantness: types.Constant,
			Type:         types.TypeT,
			HasType:      true,
		},
		Value: value,
	})
	return id
}

// Get returns a pointer to the Entry for id, allowing in-place mutation
// (e.g. setting IsBeingDefined or writing a resolved Value).
func (s *Storage) Get(id ID) *Entry {
	return &s.entries[id]
}

// Len returns the number of entries, including builtins.
func (s *Storage) Len() int {
	return len(s.entries)
}

// builtinTypeNames is the exact builtin type lexicon, in seeding order.
var builtinTypeNames = []struct {
	name string
	typ  types.Type
}{
	{"ct_int", types.CtInt},
	{"i1", types.I1}, {"i2", types.I2}, {"i4", types.I4}, {"i8", types.I8},
	{"u1", types.U1}, {"u2", types.U2}, {"u4", types.U4}, {"u8", types.U8},
	{"iptr", types.IPtr}, {"uptr", types.UPtr},
	{"bool", types.Bool},
	{"type", types.TypeT},
}

// SeedBuiltins populates storage with the builtin type entries and returns
// a root Scope whose name map binds each builtin name to its ID. Each
// builtin entry's value is a type-value Variant of itself (e.g. the entry
// named "i4" has Value = type-value(i4)).
func SeedBuiltins(s *Storage) *Scope {
	root := NewScope(nil)
	for _, b := range builtinTypeNames {
		id := s.defineBuiltin(b.name, types.NewType(b.typ))
		root.names[b.name] = id
	}
	return root
}
