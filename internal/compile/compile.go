// Package compile translates annotated expressions into bytecode: a small
// struct accumulating an instruction stream and a constant pool as it
// recurses over the AST. Only expressions are ever compiled to bytecode —
// the VM exists exclusively for evaluating constant expressions during
// semantic analysis — so the Compiler recurses over NL's Expr set rather
// than a general statement tree.
package compile

import (
	"fmt"
	"math/big"

	"nl/internal/ast"
	"nl/internal/bytecode"
	"nl/internal/identtab"
	"nl/internal/types"
)

// Compiler accumulates one expression's instruction stream and embedded
// constant ("data") pool.
type Compiler struct {
	storage *identtab.Storage
	code    []byte
	data    []types.Variant
}

// New constructs a Compiler bound to the identifier storage that load_id
// instructions will index into.
func New(storage *identtab.Storage) *Compiler {
	return &Compiler{storage: storage}
}

// Code returns the accumulated instruction stream.
func (c *Compiler) Code() []byte { return c.code }

// Data returns the accumulated embedded-constant pool, indexed by
// load_data's operand.
func (c *Compiler) Data() []types.Variant { return c.data }

func (c *Compiler) emit(op bytecode.Opcode, operands ...int) {
	c.code = append(c.code, bytecode.Make(op, operands...)...)
}

func (c *Compiler) addData(v types.Variant) int {
	c.data = append(c.data, v)
	return len(c.data) - 1
}

// Finish appends a closing ret after all operand bytes have been emitted.
func (c *Compiler) Finish() {
	c.emit(bytecode.Ret)
}

// CompileExpr compiles expr naively, then — if hint is non-nil and differs
// from expr's own resolved type — emits a trailing cast_int to hint.
func (c *Compiler) CompileExpr(expr ast.Expr, hint *types.Type) error {
	if err := c.compileNode(expr); err != nil {
		return err
	}
	if hint != nil {
		info := expr.Info()
		if !info.HasType {
			return fmt.Errorf("cannot cast an expression with no resolved type")
		}
		if !types.Same(info.Type, *hint) {
			c.emitCast(info.Type, *hint)
		}
	}
	return nil
}

func (c *Compiler) emitCast(from, to types.Type) {
	fromKind := types.VariantKindFor(from)
	toKind := types.VariantKindFor(to)
	c.emit(bytecode.CastInt, bytecode.PackCastOperands(types.IntFlagIndex(fromKind), types.IntFlagIndex(toKind)))
}

func (c *Compiler) castIfNeeded(from, to types.Type) {
	if types.Same(from, to) {
		return
	}
	c.emitCast(from, to)
}

func (c *Compiler) compileNode(expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.IdentifierExpr:
		if !e.Identifier.HasID {
			return fmt.Errorf("identifier %q has no bound id", e.Identifier.Name)
		}
		c.emit(bytecode.LoadID, int(e.Identifier.ID))
		return nil
	case *ast.IntegerExpr:
		if !e.Annotations.HasValue {
			return fmt.Errorf("integer literal %q has no cached compile-time value", e.Text)
		}
		c.emit(bytecode.LoadData, c.addData(e.Annotations.Value))
		return nil
	case *ast.GroupExpr:
		return c.compileNode(e.Inner)
	case *ast.UnaryExpr:
		return c.compileUnary(e)
	case *ast.BinaryExpr:
		return c.compileBinary(e)
	default:
		// StringExpr, CallExpr, FieldAccessExpr: none of these have an
		// operator-typing rule, so the type resolver never produces a
		// resolved, constant, coercible value for them — they are rejected
		// earlier, in typecheck, and compileNode should never actually be
		// reached for one. Kept as a defensive error rather than a panic.
		return fmt.Errorf("cannot compile expression of kind %T to bytecode", expr)
	}
}

// compileUnary handles `+`, `-`, `~` and `not`. There are no dedicated
// integer unary opcodes, so id is a true no-op, and neg/bnot are
// synthesized from sub_int against a zero or all-ones constant of the
// operand's own type: 0 - x computes -x, and (-1) - x computes ~x for any
// width (two's-complement identity, true for both signed and unsigned
// representations and for arbitrary-precision ct_int alike). `not` uses the
// dedicated LNot opcode, since booleans have no integer representation to
// borrow a primitive from.
func (c *Compiler) compileUnary(e *ast.UnaryExpr) error {
	if e.Op == types.UnaryLNot {
		if err := c.compileNode(e.Operand); err != nil {
			return err
		}
		c.emit(bytecode.LNot)
		return nil
	}
	if e.Op == types.UnaryID {
		return c.compileNode(e.Operand)
	}

	info := e.Operand.Info()
	if !info.HasType {
		return fmt.Errorf("unary operand has no resolved type")
	}
	kind := types.VariantKindFor(info.Type)
	tag := types.IntFlagIndex(kind)

	var constant types.Variant
	switch e.Op {
	case types.UnaryNeg:
		constant = zeroOf(kind)
	case types.UnaryBNot:
		constant = allOnesOf(kind)
	default:
		return fmt.Errorf("unhandled unary operator")
	}
	c.emit(bytecode.LoadData, c.addData(constant))
	if err := c.compileNode(e.Operand); err != nil {
		return err
	}
	c.emit(bytecode.SubInt, tag)
	return nil
}

func zeroOf(kind types.VariantKind) types.Variant {
	if kind == types.VCtInt {
		return types.NewCtInt(big.NewInt(0))
	}
	return types.NewInt(kind, 0)
}

func allOnesOf(kind types.VariantKind) types.Variant {
	if kind == types.VCtInt {
		return types.NewCtInt(big.NewInt(-1))
	}
	return types.NewInt(kind, ^uint64(0))
}

var arithOpcodes = map[types.BinaryOp]bytecode.Opcode{
	types.Add: bytecode.AddInt, types.Sub: bytecode.SubInt, types.Mul: bytecode.MulInt,
	types.Div: bytecode.DivInt, types.Mod: bytecode.ModInt,
	types.Shl: bytecode.ShlInt, types.Shr: bytecode.ShrInt,
	types.BAnd: bytecode.BAndInt, types.BOr: bytecode.BOrInt, types.BXor: bytecode.BXorInt,
}

var cmpOpcodes = map[types.BinaryOp]bytecode.Opcode{
	types.Eq: bytecode.EqInt, types.Ne: bytecode.NeInt,
	types.Lt: bytecode.LtInt, types.Le: bytecode.LeInt,
	types.Gt: bytecode.GtInt, types.Ge: bytecode.GeInt,
}

// compileBinary compiles each side naively (without a type hint) then
// coerces both to T with cast_int before emitting the operator, where T is
// the peer type of the two operands — the same peer computation
// BinaryResult used to type the node in the first place, recomputed here
// rather than read off the node, since for comparisons the node's own
// annotated type is bool while the cast target is the operands' peer
// integer type.
func (c *Compiler) compileBinary(e *ast.BinaryExpr) error {
	if e.Op == types.LAnd || e.Op == types.LOr {
		if err := c.compileNode(e.Left); err != nil {
			return err
		}
		if err := c.compileNode(e.Right); err != nil {
			return err
		}
		if e.Op == types.LAnd {
			c.emit(bytecode.LAnd)
		} else {
			c.emit(bytecode.LOr)
		}
		return nil
	}

	leftInfo, rightInfo := e.Left.Info(), e.Right.Info()
	if !leftInfo.HasType || !rightInfo.HasType {
		return fmt.Errorf("binary operand has no resolved type")
	}
	peer, ok := types.Peer(leftInfo.Type, rightInfo.Type)
	if !ok {
		return fmt.Errorf("binary operands %s and %s have no peer type", leftInfo.Type, rightInfo.Type)
	}
	tag := types.IntFlagIndex(types.VariantKindFor(peer))

	if err := c.compileNode(e.Left); err != nil {
		return err
	}
	c.castIfNeeded(leftInfo.Type, peer)
	if err := c.compileNode(e.Right); err != nil {
		return err
	}
	c.castIfNeeded(rightInfo.Type, peer)

	if op, ok := arithOpcodes[e.Op]; ok {
		c.emit(op, tag)
		return nil
	}
	if op, ok := cmpOpcodes[e.Op]; ok {
		c.emit(op, tag)
		return nil
	}
	return fmt.Errorf("unhandled binary operator")
}
