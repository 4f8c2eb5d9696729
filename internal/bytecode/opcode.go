// Package bytecode implements NL's stack-machine instruction set and VM: an
// opcode set with fixed operand widths and big-endian encoding, plus a
// fetch-decode-dispatch Run loop over a byte slice with an instruction
// pointer.
package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Opcode is a single instruction tag. The set has one opcode beyond the
// obvious arithmetic/comparison primitives: LNot, a boolean-negation
// primitive. Integer negation and bitwise-not get no dedicated opcode
// because the compiler synthesizes them from sub_int against a
// constant (see compile.compileUnary); booleans have no integer
// representation to borrow a primitive from, so `not` needs one of its own.
type Opcode byte

const (
	Noop Opcode = iota
	LoadID
	LoadParam
	LoadLocal
	LoadData
	WriteLocal
	End
	Ret
	Err
	Drop
	Dup
	Swap
	CastInt

	AddInt
	SubInt
	MulInt
	DivInt
	ModInt
	ShlInt
	ShrInt
	BAndInt
	BOrInt
	BXorInt

	EqInt
	NeInt
	LtInt
	LeInt
	GtInt
	GeInt

	LAnd
	LOr
	LNot
)

var names = map[Opcode]string{
	Noop: "noop", LoadID: "load_id", LoadParam: "load_param",
	LoadLocal: "load_local", LoadData: "load_data", WriteLocal: "write_local",
	End: "end", Ret: "ret", Err: "err", Drop: "drop", Dup: "dup", Swap: "swap",
	CastInt: "cast_int",
	AddInt:  "add_int", SubInt: "sub_int", MulInt: "mul_int", DivInt: "div_int",
	ModInt: "mod_int", ShlInt: "shl_int", ShrInt: "shr_int",
	BAndInt: "band_int", BOrInt: "bor_int", BXorInt: "bxor_int",
	EqInt: "eq_int", NeInt: "ne_int", LtInt: "lt_int", LeInt: "le_int",
	GtInt: "gt_int", GeInt: "ge_int",
	LAnd: "land", LOr: "lor", LNot: "lnot",
}

func (op Opcode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return fmt.Sprintf("opcode(%d)", byte(op))
}

// Definition describes one opcode's fixed operand layout: how many bytes
// each successive operand occupies. Everything is encoded big-endian.
type Definition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*Definition{
	Noop:       {"noop", nil},
	LoadID:     {"load_id", []int{4}},
	LoadParam:  {"load_param", []int{2}},
	LoadLocal:  {"load_local", []int{2}},
	LoadData:   {"load_data", []int{2}},
	WriteLocal: {"write_local", []int{2}},
	End:        {"end", nil},
	Ret:        {"ret", nil},
	Err:        {"err", nil},
	Drop:       {"drop", []int{1}},
	Dup:        {"dup", []int{1}},
	Swap:       {"swap", nil},
	// cast_int packs two 4-bit IntFlagOrder indices (from, to) into one byte.
	CastInt: {"cast_int", []int{1}},

	// Arithmetic and comparison opcodes take a single operand: the integer
	// type tag both operands share, as an index into types.IntFlagOrder.
	AddInt: {"add_int", []int{1}}, SubInt: {"sub_int", []int{1}},
	MulInt: {"mul_int", []int{1}}, DivInt: {"div_int", []int{1}},
	ModInt: {"mod_int", []int{1}}, ShlInt: {"shl_int", []int{1}},
	ShrInt: {"shr_int", []int{1}}, BAndInt: {"band_int", []int{1}},
	BOrInt: {"bor_int", []int{1}}, BXorInt: {"bxor_int", []int{1}},

	EqInt: {"eq_int", []int{1}}, NeInt: {"ne_int", []int{1}},
	LtInt: {"lt_int", []int{1}}, LeInt: {"le_int", []int{1}},
	GtInt: {"gt_int", []int{1}}, GeInt: {"ge_int", []int{1}},

	LAnd: {"land", nil}, LOr: {"lor", nil}, LNot: {"lnot", nil},
}

// Lookup returns op's Definition, or an error if op is not a recognized
// opcode.
func Lookup(op Opcode) (*Definition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("bytecode: opcode %d undefined", op)
	}
	return def, nil
}

// Width returns the total encoded length of an instruction with this
// opcode, including the opcode byte itself.
func (d *Definition) Width() int {
	total := 1
	for _, w := range d.OperandWidths {
		total += w
	}
	return total
}

// Make encodes one instruction: the opcode byte followed by its operands,
// each truncated to its defined width and written big-endian.
func Make(op Opcode, operands ...int) []byte {
	def, err := Lookup(op)
	if err != nil {
		return nil
	}
	buf := make([]byte, def.Width())
	buf[0] = byte(op)
	offset := 1
	for i, width := range def.OperandWidths {
		operand := 0
		if i < len(operands) {
			operand = operands[i]
		}
		switch width {
		case 1:
			buf[offset] = byte(operand)
		case 2:
			binary.BigEndian.PutUint16(buf[offset:], uint16(operand))
		case 4:
			binary.BigEndian.PutUint32(buf[offset:], uint32(operand))
		}
		offset += width
	}
	return buf
}

// PackCastOperands packs two IntFlagOrder indices into cast_int's single
// operand byte: the opcode packs two 4-bit indices.
func PackCastOperands(from, to int) int {
	return (from&0xF)<<4 | (to & 0xF)
}

// UnpackCastOperands reverses PackCastOperands.
func UnpackCastOperands(operand byte) (from, to int) {
	return int(operand>>4) & 0xF, int(operand) & 0xF
}

// ReadOperand decodes the operand of the given width at buf's start,
// big-endian.
func ReadOperand(buf []byte, width int) int {
	switch width {
	case 1:
		return int(buf[0])
	case 2:
		return int(binary.BigEndian.Uint16(buf))
	case 4:
		return int(binary.BigEndian.Uint32(buf))
	default:
		return 0
	}
}
