// Package resolve implements NL's two-pass identifier resolution as two
// ast.Hooks-driven traversals sharing a scope stack rooted at the builtins
// scope.
package resolve

import (
	"nl/internal/ast"
	"nl/internal/diag"
	"nl/internal/identtab"
	"nl/internal/types"
)

// Resolver carries the shared storage, diagnostic bag, and current
// top-of-stack scope used by both passes.
type Resolver struct {
	storage *identtab.Storage
	diags   *diag.Bag
	scope   *identtab.Scope
}

// Resolve runs the scout pass, and — only if it recorded no errors — the
// resolve pass, over stmts. root is normally identtab.SeedBuiltins's
// return value. Reports success iff the diagnostic bag ends with zero
// errors.
func Resolve(stmts []ast.Stmt, storage *identtab.Storage, root *identtab.Scope, diags *diag.Bag) bool {
	r := &Resolver{storage: storage, diags: diags, scope: root}
	r.scout(stmts)
	if diags.HasErrors() {
		return false
	}
	r.scope = root
	r.resolveUsages(stmts)
	return !diags.HasErrors()
}

func (r *Resolver) pushScope() { r.scope = identtab.NewScope(r.scope) }
func (r *Resolver) popScope()  { r.scope = r.scope.Parent() }

// scout visits only identifier definitions, allocating a fresh storage
// entry for each and detecting same-scope overshadowing.
func (r *Resolver) scout(stmts []ast.Stmt) {
	ast.Walk(stmts, &ast.Hooks{
		VisitIdentifierDefinition: r.defineScout,
		EnterFunctionScope:        func(s *ast.FunctionStmt) { r.pushScope() },
		ExitFunction:              func(s *ast.FunctionStmt) { r.popScope() },
	})
}

func (r *Resolver) defineScout(id *ast.Identifier) {
	if _, exists := r.scope.LookupLocal(id.Name); exists {
		r.diags.PushError(id.Range, "Declaration of '%s' overshadows a previous declaration.", id.Name)
		return
	}
	newID := r.storage.Define(id.Name, id.Range)
	r.scope.DefineLocal(id.Name, newID)
	id.HasID = true
	id.ID = newID
}

// resolveUsages re-walks the tree with a fresh scope stack, re-binding each
// definition (the scout already allocated its id) and resolving every
// identifier usage against the current scope chain.
func (r *Resolver) resolveUsages(stmts []ast.Stmt) {
	ast.Walk(stmts, &ast.Hooks{
		EnterConstant: func(s *ast.ConstantStmt) { r.setBeingDefined(s.Name, true) },
		ExitConstant:  func(s *ast.ConstantStmt) { r.setBeingDefined(s.Name, false) },

		EnterFunctionScope: func(s *ast.FunctionStmt) { r.pushScope() },
		ExitFunction:       func(s *ast.FunctionStmt) { r.popScope() },

		VisitIdentifierDefinition: func(id *ast.Identifier) {
			if id.HasID {
				r.scope.Rebind(id.Name, id.ID)
			}
		},

		// Segmented identifiers parse fully but have no resolver semantics
		// yet: fail with an explicit sentinel rather than guessing what
		// `base/field` means. Base itself is still walked and may resolve
		// normally — the sentinel is about the field-access operation, not
		// about Base's own binding.
		EnterFieldAccess: func(e *ast.FieldAccessExpr) {
			r.diags.PushError(e.Span, "segmented identifier access is not yet implemented")
			e.Annotations.Constantness = types.NotConstant
		},

		VisitIdentifierUsage: r.resolveUsage,
	})
}

func (r *Resolver) setBeingDefined(name ast.Identifier, value bool) {
	if !name.HasID {
		return
	}
	r.storage.Get(name.ID).IsBeingDefined = value
}

func (r *Resolver) resolveUsage(e *ast.IdentifierExpr) {
	id, ok := r.scope.Lookup(e.Identifier.Name)
	if !ok {
		r.diags.PushError(e.Identifier.Range, "Usage of undeclared identifier '%s'.", e.Identifier.Name)
		return
	}
	entry := r.storage.Get(id)
	if entry.IsBeingDefined {
		r.diags.PushError(e.Identifier.Range, "Invalid recursive use of '%s'.", e.Identifier.Name)
		r.diags.PushNote(entry.Range, "previous declaration of '%s' is here", entry.Name)
		return
	}
	e.Identifier.HasID = true
	e.Identifier.ID = id
}
