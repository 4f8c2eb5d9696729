// Package ast defines NL's tagged-union AST node set, a Visitor facility
// over it (every node implements Accept(visitor); the AST printer is the
// visitor implementation) and the hook-driven Walk traversal that the
// identifier resolver uses. Type resolution and bytecode compilation use
// type switches over the node types.
package ast

import (
	"nl/internal/identtab"
	"nl/internal/source"
	"nl/internal/types"
)

// Annotations holds the three inferred fields every expression node carries
// once semantic analysis has run: a constantness classification, an
// optional resolved type, and an optional cached compile-time value (set by
// type resolution on the nodes it folds, and on each constant's evaluated
// initializer).
type Annotations struct {
	Constantness types.Constantness
	HasType      bool
	Type         types.Type
	HasValue     bool
	Value        types.Variant
}

// SetType records a resolved type.
func (a *Annotations) SetType(t types.Type) {
	a.Type = t
	a.HasType = true
}

// SetValue records a cached compile-time value.
func (a *Annotations) SetValue(v types.Variant) {
	a.Value = v
	a.HasValue = true
}

// Identifier holds a resolved binding. It is embedded both by the
// Identifier expression node (a usage) and, separately, wherever the
// grammar introduces a new name (constant names, function names, argument
// names) — those sites use Identifier directly as a definition slot rather
// than as an Expr.
type Identifier struct {
	Name  string
	Range source.Range
	HasID bool
	ID    identtab.ID
}
