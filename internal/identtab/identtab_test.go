package identtab

import (
	"testing"

	"nl/internal/source"
	"nl/internal/types"
)

func TestSeedBuiltinsCoversLexicon(t *testing.T) {
	s := NewStorage()
	root := SeedBuiltins(s)

	want := []string{"ct_int", "i1", "i2", "i4", "i8", "u1", "u2", "u4", "u8", "iptr", "uptr", "bool", "type"}
	if s.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", s.Len(), len(want))
	}
	for _, name := range want {
		id, ok := root.Lookup(name)
		if !ok {
			t.Errorf("builtin %q not bound in root scope", name)
			continue
		}
		entry := s.Get(id)
		if !entry.Builtin {
			t.Errorf("builtin %q: Builtin should be true", name)
		}
		if !entry.Data.HasType || entry.Data.Type.Kind != types.KindTypeOfTypes {
			t.Errorf("builtin %q: Data.Type should be type-of-types", name)
		}
		if entry.Value.Kind != types.VType {
			t.Errorf("builtin %q: Value should be a type-value Variant", name)
		}
	}
}

func TestDefineAllocatesDistinctIDs(t *testing.T) {
	s := NewStorage()
	SeedBuiltins(s)
	before := s.Len()

	id1 := s.Define("x", source.Range{})
	id2 := s.Define("y", source.Range{})
	if id1 == id2 {
		t.Fatal("Define should allocate distinct IDs for distinct names")
	}
	if s.Len() != before+2 {
		t.Errorf("Len() = %d, want %d", s.Len(), before+2)
	}
	if s.Get(id1).Name != "x" || s.Get(id2).Name != "y" {
		t.Error("Get should return the Entry with the name it was Defined with")
	}
}

func TestScopeLookupWalksParents(t *testing.T) {
	root := NewScope(nil)
	root.DefineLocal("outer", 1)
	child := NewScope(root)
	child.DefineLocal("inner", 2)

	if id, ok := child.Lookup("outer"); !ok || id != 1 {
		t.Errorf("Lookup(outer) from child = %v, %v, want 1, true", id, ok)
	}
	if _, ok := root.Lookup("inner"); ok {
		t.Error("root should not see child's bindings")
	}
	if id, ok := child.Lookup("inner"); !ok || id != 2 {
		t.Errorf("Lookup(inner) from child = %v, %v, want 2, true", id, ok)
	}
}

func TestScopeDefineLocalRejectsOvershadowing(t *testing.T) {
	s := NewScope(nil)
	if !s.DefineLocal("x", 1) {
		t.Fatal("first DefineLocal should succeed")
	}
	if s.DefineLocal("x", 2) {
		t.Fatal("second DefineLocal of the same name in the same scope should fail")
	}
	id, _ := s.LookupLocal("x")
	if id != 1 {
		t.Errorf("LookupLocal(x) = %d, want 1 (rejected redefinition must not overwrite)", id)
	}
}

func TestScopeRebindOverwritesUnconditionally(t *testing.T) {
	s := NewScope(nil)
	s.DefineLocal("x", 1)
	s.Rebind("x", 2)
	id, ok := s.LookupLocal("x")
	if !ok || id != 2 {
		t.Errorf("after Rebind, LookupLocal(x) = %v, %v, want 2, true", id, ok)
	}
}
