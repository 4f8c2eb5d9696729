package types

import (
	"fmt"
	"math/big"
)

// VariantKind discriminates the tagged union of Variant.
type VariantKind int

const (
	VNone VariantKind = iota
	VCtInt
	VI1
	VI2
	VI4
	VI8
	VU1
	VU2
	VU4
	VU8
	VIPtr
	VUPtr
	VBool
	VType
)

// IntFlagOrder is the canonical 0..10 ordering of integer Variant kinds used
// to pack cast_int's two 4-bit operand indices. iptr/uptr are treated as
// 8-byte widths for the purpose of bit masking.
var IntFlagOrder = []VariantKind{VCtInt, VI1, VI2, VI4, VI8, VU1, VU2, VU4, VU8, VIPtr, VUPtr}

// IntFlagIndex returns k's position in IntFlagOrder, or -1 if k is not an
// integer Variant kind.
func IntFlagIndex(k VariantKind) int {
	for i, v := range IntFlagOrder {
		if v == k {
			return i
		}
	}
	return -1
}

func widthBits(k VariantKind) int {
	switch k {
	case VI1, VU1:
		return 8
	case VI2, VU2:
		return 16
	case VI4, VU4:
		return 32
	case VI8, VU8, VIPtr, VUPtr:
		return 64
	default:
		return 0
	}
}

func isSignedKind(k VariantKind) bool {
	switch k {
	case VI1, VI2, VI4, VI8, VIPtr:
		return true
	default:
		return false
	}
}

// WidthBits is the exported form of widthBits, used by the bytecode package
// to reinterpret and truncate values for cast_int.
func WidthBits(k VariantKind) int { return widthBits(k) }

// IsSignedKind is the exported form of isSignedKind.
func IsSignedKind(k VariantKind) bool { return isSignedKind(k) }

// BitsFromBig truncates an arbitrary-precision value to its low widthBits
// bits, two's-complement, returned as a raw uint64 (for casting a ct_int
// down to a fixed-width kind).
func BitsFromBig(v *big.Int, widthBits int) uint64 {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(widthBits))
	r := new(big.Int).Mod(v, mod)
	if r.Sign() < 0 {
		r.Add(r, mod)
	}
	return r.Uint64()
}

// Variant is a concrete compile-time value produced by the bytecode VM. The
// zero value is VNone.
type Variant struct {
	Kind VariantKind
	Big  *big.Int // valid iff Kind == VCtInt: arbitrary-precision signed value
	Bits uint64   // valid for fixed-width integer kinds: raw two's-complement bit pattern, masked to the kind's width
	Bool bool     // valid iff Kind == VBool
	Type Type     // valid iff Kind == VType
}

// None is the unit Variant produced by an `end` instruction.
var None = Variant{Kind: VNone}

// NewCtInt constructs a ct_int Variant from an arbitrary-precision value.
func NewCtInt(v *big.Int) Variant {
	return Variant{Kind: VCtInt, Big: new(big.Int).Set(v)}
}

// NewInt constructs a fixed-width integer Variant, masking raw to the
// kind's width.
func NewInt(kind VariantKind, raw uint64) Variant {
	bits := widthBits(kind)
	if bits > 0 && bits < 64 {
		raw &= (uint64(1) << bits) - 1
	}
	return Variant{Kind: kind, Bits: raw}
}

// NewBool constructs a boolean Variant.
func NewBool(b bool) Variant {
	return Variant{Kind: VBool, Bool: b}
}

// NewType constructs a type-value Variant.
func NewType(t Type) Variant {
	return Variant{Kind: VType, Type: t}
}

// VariantKindFor maps a Type to the VariantKind of the values it describes.
func VariantKindFor(t Type) VariantKind {
	switch t.Kind {
	case KindBoolean:
		return VBool
	case KindTypeOfTypes:
		return VType
	case KindInteger:
		switch t.Width {
		case Dynamic:
			return VCtInt
		case Pointer:
			if t.Signed {
				return VIPtr
			}
			return VUPtr
		default:
			bytes := bytesOf(t.Width)
			switch {
			case t.Signed && bytes == 1:
				return VI1
			case t.Signed && bytes == 2:
				return VI2
			case t.Signed && bytes == 4:
				return VI4
			case t.Signed && bytes == 8:
				return VI8
			case !t.Signed && bytes == 1:
				return VU1
			case !t.Signed && bytes == 2:
				return VU2
			case !t.Signed && bytes == 4:
				return VU4
			case !t.Signed && bytes == 8:
				return VU8
			}
		}
	}
	return VNone
}

func typeForVariantKind(k VariantKind) Type {
	switch k {
	case VCtInt:
		return CtInt
	case VI1:
		return I1
	case VI2:
		return I2
	case VI4:
		return I4
	case VI8:
		return I8
	case VU1:
		return U1
	case VU2:
		return U2
	case VU4:
		return U4
	case VU8:
		return U8
	case VIPtr:
		return IPtr
	case VUPtr:
		return UPtr
	case VBool:
		return Bool
	case VType:
		return TypeT
	default:
		return Type{}
	}
}

// TypeOf returns v's deterministic type.
func (v Variant) TypeOf() Type {
	if v.Kind == VType {
		return TypeT
	}
	return typeForVariantKind(v.Kind)
}

// SignedValue reinterprets a fixed-width Variant's raw bits as a signed
// int64 sign-extended from its width. Only meaningful for signed integer
// kinds (VI1..VI8, VIPtr).
func (v Variant) SignedValue() int64 {
	bits := widthBits(v.Kind)
	if bits == 0 || bits == 64 {
		return int64(v.Bits)
	}
	shift := 64 - bits
	return int64(v.Bits<<shift) >> shift
}

// UnsignedValue returns a fixed-width Variant's raw bits as a uint64.
func (v Variant) UnsignedValue() uint64 {
	return v.Bits
}

func (v Variant) String() string {
	switch v.Kind {
	case VNone:
		return "none"
	case VCtInt:
		return v.Big.String()
	case VBool:
		return fmt.Sprintf("%t", v.Bool)
	case VType:
		return v.Type.String()
	default:
		if isSignedKind(v.Kind) {
			return fmt.Sprintf("%d", v.SignedValue())
		}
		return fmt.Sprintf("%d", v.UnsignedValue())
	}
}
