// Package typecheck implements NL's type resolver: an iterative
// fixed-point pass that assigns every constant and expression its type,
// constantness, and — for constants — a compile-time Variant, using
// internal/eval's Evaluator to compile-time-evaluate type expressions and
// constant initializers along the way.
package typecheck

import (
	"math/big"

	"nl/internal/ast"
	"nl/internal/diag"
	"nl/internal/eval"
	"nl/internal/identtab"
	"nl/internal/invariant"
	"nl/internal/types"
)

// status is the outcome of attempting to resolve one node this pass.
type status int

const (
	resolved status = iota
	// suspended means a dependency (usually another identifier) has not
	// been typed yet; the outer loop should try again next pass.
	suspended
	// failed means a diagnostic has already been pushed and the node is
	// resolved-but-broken: its entry is marked done (so the outer loop
	// still terminates) but its type should not be trusted downstream.
	failed
)

// brokenType is the placeholder stored for a constant whose initializer
// failed to type-check. Any concrete type would do here — the pipeline
// already has an error and will not proceed past this compilation, so
// propagating a plausible-looking type to dependents only avoids spurious
// "identifier never resolved" pileup, not a fully accurate downstream type.
var brokenType = types.CtInt

// Checker carries the shared identifier storage, diagnostic bag, and
// Evaluator used across one fixed-point run.
type Checker struct {
	storage *identtab.Storage
	diags   *diag.Bag
	eval    *eval.Evaluator

	// functionIDs marks every identifier ID bound to a `proc` name,
	// collected once up front. NL has no function-valued Type (types.Kind
	// has no Function case — the grammar never treats procs as first-class
	// values), so a plain reference to a function name in expression
	// position is always a semantic error, never a pending dependency.
	functionIDs map[identtab.ID]bool

	// doneFn marks FunctionStmt nodes whose signature (argument and return
	// types) has already been fully resolved, so re-running the outer loop
	// does not re-typecheck an already-settled signature. Keyed by pointer
	// identity since FunctionStmt carries no identifier-table entry of its
	// own to hang a "done" flag off of.
	doneFn map[*ast.FunctionStmt]bool

	unresolved int
}

// Resolve runs the fixed-point loop to completion or failure. Reports
// success iff the diagnostic bag ends with zero errors.
func Resolve(stmts []ast.Stmt, storage *identtab.Storage, diags *diag.Bag) bool {
	c := &Checker{
		storage:     storage,
		diags:       diags,
		eval:        eval.New(storage, diags),
		functionIDs: map[identtab.ID]bool{},
		doneFn:      map[*ast.FunctionStmt]bool{},
	}
	collectFunctionIDs(stmts, c.functionIDs)

	lastUnresolved := -1
	for {
		c.unresolved = 0
		for _, s := range stmts {
			c.resolveStatement(s)
		}
		if c.unresolved == 0 {
			break
		}
		if lastUnresolved != -1 && c.unresolved >= lastUnresolved {
			// A non-decreasing unresolved count is an internal invariant
			// violation (most likely a dependency cycle slipping past the
			// identifier resolver's recursive-use check), not a
			// user-facing diagnostic — abort the compiler.
			invariant.Panicf("type resolution made no progress across a pass (%d identifiers still unresolved)", c.unresolved)
		}
		lastUnresolved = c.unresolved
	}
	return !diags.HasErrors()
}

func collectFunctionIDs(stmts []ast.Stmt, out map[identtab.ID]bool) {
	for _, s := range stmts {
		if fn, ok := s.(*ast.FunctionStmt); ok {
			if fn.Name.HasID {
				out[fn.Name.ID] = true
			}
			collectFunctionIDs(fn.Body, out)
		}
	}
}

func (c *Checker) resolveStatement(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.ConstantStmt:
		c.resolveConstant(n)
	case *ast.FunctionStmt:
		c.resolveFunction(n)
	}
}

// markBroken finalizes entry as resolved-but-broken: HasType becomes true
// (so the outer loop's dependents stop suspending on it) but Constantness
// is NotConstant and Type is the neutral brokenType placeholder.
func (c *Checker) markBroken(entry *identtab.Entry) {
	entry.Data = identtab.ExpressionData{
		Present:      true,
		Constantness: types.NotConstant,
		Type:         brokenType,
		HasType:      true,
	}
}

func (c *Checker) markBrokenID(id identtab.ID) {
	c.markBroken(c.storage.Get(id))
}

// resolveConstant resolves one constant declaration. A constant whose
// entry already carries a type is skipped outright — it was fully resolved
// in an earlier pass.
func (c *Checker) resolveConstant(s *ast.ConstantStmt) {
	entry := c.storage.Get(s.Name.ID)
	if entry.Data.HasType {
		return
	}

	var target types.Type
	haveTarget := false
	if s.TypeExpr != nil {
		t, st := c.resolveTypeExpr(s.TypeExpr)
		switch st {
		case suspended:
			c.unresolved++
			return
		case failed:
			c.markBroken(entry)
			return
		}
		target, haveTarget = t, true
	}

	valueType, st := c.resolveExpr(s.Value)
	switch st {
	case suspended:
		c.unresolved++
		return
	case failed:
		c.markBroken(entry)
		return
	}

	if s.Value.Info().Constantness != types.Constant {
		c.diags.PushError(s.Value.Range(), "initializer of constant '%s' is not a compile-time constant", s.Name.Name)
		c.markBroken(entry)
		return
	}

	if haveTarget {
		if !types.CoercesTo(valueType, target) {
			c.diags.PushError(s.Value.Range(), "'%s' cannot be coerced to '%s'", valueType, target)
			c.markBroken(entry)
			return
		}
	} else {
		target = valueType
	}

	v, ok := c.eval.Evaluate(s.Value, &target)
	if !ok {
		c.markBroken(entry)
		return
	}

	entry.Data = identtab.ExpressionData{
		Present: true, Constantness: types.Constant, Type: target, HasType: true,
	}
	entry.Value = v
	s.Value.Info().SetValue(v)
}

// resolveFunction resolves a proc's argument and return-type declarations
// (the only parts of a function signature the type system has any opinion
// about, since function bodies are never compiled or executed — the VM is
// scoped to constant-expression evaluation only). Each argument's
// own identifier entry is populated with its declared type and
// Constantness: NotConstant, so it can be referenced (as a value, not
// re-declared) from nested constants in the same way any other bound name
// is. The function's own name entry is deliberately left untyped: see
// functionIDs.
func (c *Checker) resolveFunction(s *ast.FunctionStmt) {
	if !c.doneFn[s] {
		argTypes := make([]types.Type, len(s.Args))
		ready := true
		for i := range s.Args {
			arg := &s.Args[i]
			t, st := c.resolveTypeExpr(arg.TypeExpr)
			switch st {
			case suspended:
				c.unresolved++
				ready = false
			case failed:
				ready = false
				if arg.Name.HasID {
					c.markBrokenID(arg.Name.ID)
				}
			case resolved:
				argTypes[i] = t
			}
		}

		if ready && s.ReturnType != nil {
			if _, st := c.resolveTypeExpr(s.ReturnType); st != resolved {
				if st == suspended {
					c.unresolved++
				}
				ready = false
			}
		}

		if ready {
			for i := range s.Args {
				if !s.Args[i].Name.HasID {
					continue
				}
				argEntry := c.storage.Get(s.Args[i].Name.ID)
				argEntry.Data = identtab.ExpressionData{
					Present: true, Constantness: types.NotConstant, Type: argTypes[i], HasType: true,
				}
			}
			c.doneFn[s] = true
		}
	}

	for _, body := range s.Body {
		c.resolveStatement(body)
	}
}

// resolveTypeExpr resolves e as a type expression: it must type-check to
// types.TypeT, be a compile-time constant, and compile-time-evaluate to a
// concrete Type value.
func (c *Checker) resolveTypeExpr(e ast.Expr) (types.Type, status) {
	t, st := c.resolveExpr(e)
	if st != resolved {
		return types.Type{}, st
	}
	if t.Kind != types.KindTypeOfTypes {
		c.diags.PushError(e.Range(), "expected a type expression, found a value of type %s", t)
		return types.Type{}, failed
	}
	if e.Info().Constantness != types.Constant {
		c.diags.PushError(e.Range(), "type expression must be a compile-time constant")
		return types.Type{}, failed
	}
	v, ok := c.eval.Evaluate(e, nil)
	if !ok {
		return types.Type{}, failed
	}
	if v.Kind != types.VType {
		c.diags.PushError(e.Range(), "type expression did not evaluate to a type")
		return types.Type{}, failed
	}
	return v.Type, resolved
}

// resolveExpr resolves one expression node: an already annotated node is
// skipped; otherwise children resolve first (suspending if any of them
// suspend), then operator typing applies.
func (c *Checker) resolveExpr(e ast.Expr) (types.Type, status) {
	info := e.Info()
	if info.HasType {
		return info.Type, resolved
	}

	switch n := e.(type) {
	case *ast.IdentifierExpr:
		return c.resolveIdentifier(n)

	case *ast.IntegerExpr:
		t, ok := types.ByFlag[n.TypeFlag]
		if !ok {
			t = types.CtInt
		}
		v := variantForInteger(t, n.Magnitude)
		info.Constantness = types.Constant
		info.SetType(t)
		info.SetValue(v)
		return t, resolved

	case *ast.GroupExpr:
		t, st := c.resolveExpr(n.Inner)
		if st != resolved {
			return t, st
		}
		inner := n.Inner.Info()
		info.Constantness = inner.Constantness
		info.SetType(t)
		if inner.HasValue {
			info.SetValue(inner.Value)
		}
		return t, resolved

	case *ast.UnaryExpr:
		return c.resolveUnary(n)

	case *ast.BinaryExpr:
		return c.resolveBinary(n)

	case *ast.StringExpr, *ast.CallExpr, *ast.FieldAccessExpr:
		// None of these has an operator-typing rule: string literals carry
		// no integer/boolean/type-of-types classification, calls are never
		// typed because function bodies are never compiled (so no return
		// type is ever inferred for them), and segmented access already
		// failed at resolver level. All three are therefore semantic
		// errors here rather than suspensions.
		c.diags.PushError(e.Range(), "expression has no type in this version of the language")
		info.Constantness = types.NotConstant
		return types.Type{}, failed

	default:
		c.diags.PushError(e.Range(), "internal: unhandled expression kind %T", e)
		info.Constantness = types.NotConstant
		return types.Type{}, failed
	}
}

func (c *Checker) resolveIdentifier(n *ast.IdentifierExpr) (types.Type, status) {
	info := n.Info()
	if !n.Identifier.HasID {
		// The identifier resolver already pushed a diagnostic for this
		// usage (undeclared name, invalid recursive use, ...); don't
		// duplicate it here.
		info.Constantness = types.NotConstant
		return types.Type{}, failed
	}
	if c.functionIDs[n.Identifier.ID] {
		c.diags.PushError(n.Identifier.Range, "'%s' names a function, which has no value in an expression", n.Identifier.Name)
		info.Constantness = types.NotConstant
		return types.Type{}, failed
	}

	entry := c.storage.Get(n.Identifier.ID)
	if !entry.Data.HasType {
		return types.Type{}, suspended
	}
	info.Constantness = entry.Data.Constantness
	info.SetType(entry.Data.Type)
	if entry.Data.Constantness == types.Constant {
		info.SetValue(entry.Value)
	}
	return entry.Data.Type, resolved
}

func (c *Checker) resolveUnary(n *ast.UnaryExpr) (types.Type, status) {
	info := n.Info()
	operandType, st := c.resolveExpr(n.Operand)
	if st != resolved {
		return operandType, st
	}
	result, ok := types.UnaryResult(n.Op, operandType)
	if !ok {
		c.diags.PushError(n.OpRange, "operator does not apply to a value of type %s", operandType)
		info.Constantness = types.NotConstant
		return types.Type{}, failed
	}
	info.Constantness = n.Operand.Info().Constantness
	info.SetType(result)
	if info.Constantness == types.Constant {
		v, ok := c.eval.Evaluate(n, &result)
		if !ok {
			return types.Type{}, failed
		}
		info.SetValue(v)
	}
	return result, resolved
}

// variantForInteger builds the literal's compile-time Variant under its
// resolved type: arbitrary-precision for ct_int, truncated two's-complement
// bits for any fixed-width kind, consistent with how cast_int truncates in
// internal/bytecode.
func variantForInteger(t types.Type, magnitude *big.Int) types.Variant {
	kind := types.VariantKindFor(t)
	if kind == types.VCtInt {
		return types.NewCtInt(magnitude)
	}
	raw := types.BitsFromBig(magnitude, types.WidthBits(kind))
	return types.NewInt(kind, raw)
}

func (c *Checker) resolveBinary(n *ast.BinaryExpr) (types.Type, status) {
	info := n.Info()
	leftType, lst := c.resolveExpr(n.Left)
	rightType, rst := c.resolveExpr(n.Right)
	if lst == suspended || rst == suspended {
		return types.Type{}, suspended
	}
	if lst == failed || rst == failed {
		info.Constantness = types.NotConstant
		return types.Type{}, failed
	}

	result, ok := types.BinaryResult(n.Op, leftType, rightType)
	if !ok {
		c.diags.PushError(n.OpRange, "operator does not apply to values of type %s and %s", leftType, rightType)
		info.Constantness = types.NotConstant
		return types.Type{}, failed
	}
	info.Constantness = types.Mix(n.Left.Info().Constantness, n.Right.Info().Constantness)
	info.SetType(result)
	if info.Constantness == types.Constant {
		v, ok := c.eval.Evaluate(n, &result)
		if !ok {
			return types.Type{}, failed
		}
		info.SetValue(v)
	}
	return result, resolved
}
