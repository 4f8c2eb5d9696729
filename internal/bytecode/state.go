package bytecode

import (
	"math/big"

	"nl/internal/identtab"
	"nl/internal/types"
)

// State is one execution of a compiled instruction stream: the code itself,
// its embedded constant pool, the caller-supplied parameters, a fixed-size
// local slot array, and the operand stack. NL has no persistent heap, so
// each compiled expression gets its own short-lived State.
type State struct {
	Code    []byte
	Data    []types.Variant
	Params  []types.Variant
	Locals  []types.Variant
	Storage *identtab.Storage

	stack []types.Variant
	ip    int
}

// NewState constructs a State ready to Run. Locals is sized by the caller
// (the compiler knows the local count up front).
func NewState(code []byte, data []types.Variant, params []types.Variant, localCount int, storage *identtab.Storage) *State {
	return &State{
		Code: code, Data: data, Params: params,
		Locals: make([]types.Variant, localCount), Storage: storage,
	}
}

func (s *State) push(v types.Variant) { s.stack = append(s.stack, v) }

func (s *State) pop() (types.Variant, error) {
	if len(s.stack) == 0 {
		return types.Variant{}, errorf("stack underflow")
	}
	top := len(s.stack) - 1
	v := s.stack[top]
	s.stack = s.stack[:top]
	return v, nil
}

func (s *State) peek() (types.Variant, error) {
	if len(s.stack) == 0 {
		return types.Variant{}, errorf("stack underflow")
	}
	return s.stack[len(s.stack)-1], nil
}

type outcome int

const (
	notFinished outcome = iota
	finished
	failed
)

// Run loops fetch-decode-dispatch until an instruction terminates execution
// (end, ret, err, or a dispatch failure).
func (s *State) Run() (types.Variant, error) {
	for {
		if s.ip >= len(s.Code) {
			return types.Variant{}, errorf("instruction pointer ran off the end of the code")
		}
		op := Opcode(s.Code[s.ip])
		def, err := Lookup(op)
		if err != nil {
			return types.Variant{}, errorf("%s", err.Error())
		}
		width := def.Width()
		operandStart := s.ip + 1
		result, out, err := s.dispatch(op, s.Code[operandStart:operandStart+(width-1)])
		if err != nil {
			return types.Variant{}, err
		}
		s.ip += width
		switch out {
		case finished:
			return result, nil
		case failed:
			return types.Variant{}, errorf("err instruction reached")
		}
	}
}

func (s *State) dispatch(op Opcode, operands []byte) (types.Variant, outcome, error) {
	switch op {
	case Noop:
		return types.Variant{}, notFinished, nil

	case LoadID:
		id := identtab.ID(ReadOperand(operands, 4))
		entry := s.Storage.Get(id)
		s.push(entry.Value)
		return types.Variant{}, notFinished, nil

	case LoadParam:
		i := ReadOperand(operands, 2)
		if i < 0 || i >= len(s.Params) {
			return types.Variant{}, failed, errorf("load_param index %d out of range", i)
		}
		s.push(s.Params[i])
		return types.Variant{}, notFinished, nil

	case LoadLocal:
		i := ReadOperand(operands, 2)
		if i < 0 || i >= len(s.Locals) {
			return types.Variant{}, failed, errorf("load_local index %d out of range", i)
		}
		s.push(s.Locals[i])
		return types.Variant{}, notFinished, nil

	case LoadData:
		i := ReadOperand(operands, 2)
		if i < 0 || i >= len(s.Data) {
			return types.Variant{}, failed, errorf("load_data index %d out of range", i)
		}
		s.push(s.Data[i])
		return types.Variant{}, notFinished, nil

	case WriteLocal:
		i := ReadOperand(operands, 2)
		v, err := s.pop()
		if err != nil {
			return types.Variant{}, failed, err
		}
		if i < 0 || i >= len(s.Locals) {
			return types.Variant{}, failed, errorf("write_local index %d out of range", i)
		}
		s.Locals[i] = v
		return types.Variant{}, notFinished, nil

	case End:
		return types.None, finished, nil

	case Ret:
		v, err := s.pop()
		if err != nil {
			return types.Variant{}, failed, err
		}
		return v, finished, nil

	case Err:
		return types.Variant{}, failed, nil

	case Drop:
		n := ReadOperand(operands, 1)
		for i := 0; i < n; i++ {
			if _, err := s.pop(); err != nil {
				return types.Variant{}, failed, err
			}
		}
		return types.Variant{}, notFinished, nil

	case Dup:
		n := ReadOperand(operands, 1)
		top, err := s.peek()
		if err != nil {
			return types.Variant{}, failed, err
		}
		for i := 0; i < n; i++ {
			s.push(top)
		}
		return types.Variant{}, notFinished, nil

	case Swap:
		b, err := s.pop()
		if err != nil {
			return types.Variant{}, failed, err
		}
		a, err := s.pop()
		if err != nil {
			return types.Variant{}, failed, err
		}
		s.push(b)
		s.push(a)
		return types.Variant{}, notFinished, nil

	case CastInt:
		fromIdx, toIdx := UnpackCastOperands(operands[0])
		x, err := s.pop()
		if err != nil {
			return types.Variant{}, failed, err
		}
		v, err := castInt(indexKind(fromIdx), indexKind(toIdx), x)
		if err != nil {
			return types.Variant{}, failed, err
		}
		s.push(v)
		return types.Variant{}, notFinished, nil

	case AddInt, SubInt, MulInt, DivInt, ModInt, ShlInt, ShrInt, BAndInt, BOrInt, BXorInt:
		t := indexKind(ReadOperand(operands, 1))
		b, err := s.pop()
		if err != nil {
			return types.Variant{}, failed, err
		}
		a, err := s.pop()
		if err != nil {
			return types.Variant{}, failed, err
		}
		v, err := intArith(op, t, a, b)
		if err != nil {
			return types.Variant{}, failed, err
		}
		s.push(v)
		return types.Variant{}, notFinished, nil

	case EqInt, NeInt, LtInt, LeInt, GtInt, GeInt:
		t := indexKind(ReadOperand(operands, 1))
		b, err := s.pop()
		if err != nil {
			return types.Variant{}, failed, err
		}
		a, err := s.pop()
		if err != nil {
			return types.Variant{}, failed, err
		}
		result, err := intCompare(op, t, a, b)
		if err != nil {
			return types.Variant{}, failed, err
		}
		s.push(types.NewBool(result))
		return types.Variant{}, notFinished, nil

	case LAnd, LOr:
		b, err := s.pop()
		if err != nil {
			return types.Variant{}, failed, err
		}
		a, err := s.pop()
		if err != nil {
			return types.Variant{}, failed, err
		}
		var result bool
		if op == LAnd {
			result = a.Bool && b.Bool
		} else {
			result = a.Bool || b.Bool
		}
		s.push(types.NewBool(result))
		return types.Variant{}, notFinished, nil

	case LNot:
		a, err := s.pop()
		if err != nil {
			return types.Variant{}, failed, err
		}
		s.push(types.NewBool(!a.Bool))
		return types.Variant{}, notFinished, nil

	default:
		return types.Variant{}, failed, errorf("unhandled opcode %s", op)
	}
}

func indexKind(i int) types.VariantKind {
	if i < 0 || i >= len(types.IntFlagOrder) {
		return types.VNone
	}
	return types.IntFlagOrder[i]
}

// castInt reinterprets x (of kind from) as kind to: casting between two
// widths reinterprets the value as the destination's bit width;
// out-of-range values truncate in the destination signedness.
func castInt(from, to types.VariantKind, x types.Variant) (types.Variant, error) {
	if from == types.VCtInt {
		if to == types.VCtInt {
			return x, nil
		}
		raw := types.BitsFromBig(x.Big, types.WidthBits(to))
		return types.NewInt(to, raw), nil
	}
	if to == types.VCtInt {
		if types.IsSignedKind(from) {
			return types.NewCtInt(big.NewInt(x.SignedValue())), nil
		}
		return types.NewCtInt(new(big.Int).SetUint64(x.UnsignedValue())), nil
	}
	var raw uint64
	if types.IsSignedKind(from) {
		raw = uint64(x.SignedValue())
	} else {
		raw = x.UnsignedValue()
	}
	return types.NewInt(to, raw), nil
}

func intArith(op Opcode, t types.VariantKind, a, b types.Variant) (types.Variant, error) {
	if t == types.VCtInt {
		return ctIntArith(op, a, b)
	}
	signed := types.IsSignedKind(t)
	width := types.WidthBits(t)
	shiftMask := uint64(width - 1)

	if signed {
		sa, sb := a.SignedValue(), b.SignedValue()
		switch op {
		case AddInt:
			return types.NewInt(t, uint64(sa+sb)), nil
		case SubInt:
			return types.NewInt(t, uint64(sa-sb)), nil
		case MulInt:
			return types.NewInt(t, uint64(sa*sb)), nil
		case DivInt:
			if sb == 0 {
				return types.Variant{}, errorf("integer division by zero")
			}
			return types.NewInt(t, uint64(sa/sb)), nil
		case ModInt:
			if sb == 0 {
				return types.Variant{}, errorf("integer division by zero")
			}
			return types.NewInt(t, uint64(sa%sb)), nil
		case ShlInt:
			return types.NewInt(t, uint64(sa)<<(uint64(sb)&shiftMask)), nil
		case ShrInt:
			return types.NewInt(t, uint64(sa>>(uint64(sb)&shiftMask))), nil
		case BAndInt:
			return types.NewInt(t, uint64(sa)&uint64(sb)), nil
		case BOrInt:
			return types.NewInt(t, uint64(sa)|uint64(sb)), nil
		case BXorInt:
			return types.NewInt(t, uint64(sa)^uint64(sb)), nil
		}
	}
	ua, ub := a.UnsignedValue(), b.UnsignedValue()
	switch op {
	case AddInt:
		return types.NewInt(t, ua+ub), nil
	case SubInt:
		return types.NewInt(t, ua-ub), nil
	case MulInt:
		return types.NewInt(t, ua*ub), nil
	case DivInt:
		if ub == 0 {
			return types.Variant{}, errorf("integer division by zero")
		}
		return types.NewInt(t, ua/ub), nil
	case ModInt:
		if ub == 0 {
			return types.Variant{}, errorf("integer division by zero")
		}
		return types.NewInt(t, ua%ub), nil
	case ShlInt:
		return types.NewInt(t, ua<<(ub&shiftMask)), nil
	case ShrInt:
		return types.NewInt(t, ua>>(ub&shiftMask)), nil
	case BAndInt:
		return types.NewInt(t, ua&ub), nil
	case BOrInt:
		return types.NewInt(t, ua|ub), nil
	case BXorInt:
		return types.NewInt(t, ua^ub), nil
	}
	return types.Variant{}, errorf("unhandled integer arithmetic opcode %s", op)
}

func ctIntArith(op Opcode, a, b types.Variant) (types.Variant, error) {
	r := new(big.Int)
	switch op {
	case AddInt:
		r.Add(a.Big, b.Big)
	case SubInt:
		r.Sub(a.Big, b.Big)
	case MulInt:
		r.Mul(a.Big, b.Big)
	case DivInt:
		if b.Big.Sign() == 0 {
			return types.Variant{}, errorf("integer division by zero")
		}
		r.Quo(a.Big, b.Big)
	case ModInt:
		if b.Big.Sign() == 0 {
			return types.Variant{}, errorf("integer division by zero")
		}
		r.Rem(a.Big, b.Big)
	case ShlInt:
		r.Lsh(a.Big, uint(b.Big.Uint64()))
	case ShrInt:
		r.Rsh(a.Big, uint(b.Big.Uint64()))
	case BAndInt:
		r.And(a.Big, b.Big)
	case BOrInt:
		r.Or(a.Big, b.Big)
	case BXorInt:
		r.Xor(a.Big, b.Big)
	default:
		return types.Variant{}, errorf("unhandled ct_int arithmetic opcode %s", op)
	}
	return types.NewCtInt(r), nil
}

func intCompare(op Opcode, t types.VariantKind, a, b types.Variant) (bool, error) {
	var cmp int
	if t == types.VCtInt {
		cmp = a.Big.Cmp(b.Big)
	} else if types.IsSignedKind(t) {
		sa, sb := a.SignedValue(), b.SignedValue()
		switch {
		case sa < sb:
			cmp = -1
		case sa > sb:
			cmp = 1
		}
	} else {
		ua, ub := a.UnsignedValue(), b.UnsignedValue()
		switch {
		case ua < ub:
			cmp = -1
		case ua > ub:
			cmp = 1
		}
	}
	switch op {
	case EqInt:
		return cmp == 0, nil
	case NeInt:
		return cmp != 0, nil
	case LtInt:
		return cmp < 0, nil
	case LeInt:
		return cmp <= 0, nil
	case GtInt:
		return cmp > 0, nil
	case GeInt:
		return cmp >= 0, nil
	default:
		return false, errorf("unhandled integer comparison opcode %s", op)
	}
}
