// Package eval implements the Evaluator facade: construct a compiler with
// zero parameters, compile the expression with an optional type hint,
// append ret, commit the state, run it, and translate any VM failure into
// a diagnostic on the expression's source range. This is the sole place
// the type resolver (internal/typecheck) reaches for a compile-time value.
package eval

import (
	"nl/internal/ast"
	"nl/internal/bytecode"
	"nl/internal/compile"
	"nl/internal/diag"
	"nl/internal/identtab"
	"nl/internal/types"
)

// Evaluator compile-time-evaluates expressions against one identifier
// storage.
type Evaluator struct {
	storage *identtab.Storage
	diags   *diag.Bag
}

// New constructs an Evaluator. diags receives one error message per failed
// evaluation, anchored at the failing expression's range.
func New(storage *identtab.Storage, diags *diag.Bag) *Evaluator {
	return &Evaluator{storage: storage, diags: diags}
}

// Evaluate compiles expr (with zero parameters, per the spec) to bytecode,
// optionally casting its result to hint, runs it, and returns the resulting
// Variant. ok is false if compilation or execution failed; a diagnostic has
// already been pushed in that case.
func (e *Evaluator) Evaluate(expr ast.Expr, hint *types.Type) (types.Variant, bool) {
	c := compile.New(e.storage)
	if err := c.CompileExpr(expr, hint); err != nil {
		e.diags.PushError(expr.Range(), "%s", err.Error())
		return types.Variant{}, false
	}
	c.Finish()

	st := bytecode.NewState(c.Code(), c.Data(), nil, 0, e.storage)
	v, err := st.Run()
	if err != nil {
		e.diags.PushError(expr.Range(), "%s", err.Error())
		return types.Variant{}, false
	}
	return v, true
}
