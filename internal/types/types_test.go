package types

import (
	"math/big"
	"testing"
)

func TestSame(t *testing.T) {
	if !Same(I4, I4) {
		t.Error("I4 should equal itself")
	}
	if Same(I4, U4) {
		t.Error("I4 and U4 differ in signedness")
	}
	if Same(I4, I8) {
		t.Error("I4 and I8 differ in width")
	}
	if !Same(CtInt, CtInt) {
		t.Error("ct_int should equal itself")
	}
	if !Same(Bool, Bool) {
		t.Error("bool should equal itself")
	}
}

func TestCoercesTo(t *testing.T) {
	cases := []struct {
		a, b Type
		want bool
	}{
		{CtInt, I4, true},
		{I4, CtInt, true},
		{I1, I4, true},
		{I4, I1, false},
		{I4, U4, false},
		{IPtr, UPtr, false},
		{IPtr, IPtr, true},
		{I8, IPtr, false},
		{Bool, Bool, true},
		{TypeT, TypeT, true},
	}
	for _, c := range cases {
		if got := CoercesTo(c.a, c.b); got != c.want {
			t.Errorf("CoercesTo(%s, %s) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestPeer(t *testing.T) {
	if p, ok := Peer(CtInt, CtInt); !ok || !Same(p, CtInt) {
		t.Errorf("Peer(ct_int, ct_int) = %v, %v", p, ok)
	}
	if p, ok := Peer(CtInt, I4); !ok || !Same(p, I4) {
		t.Errorf("Peer(ct_int, i4) = %v, %v, want i4", p, ok)
	}
	if p, ok := Peer(I4, CtInt); !ok || !Same(p, I4) {
		t.Errorf("Peer(i4, ct_int) = %v, %v, want i4", p, ok)
	}
	if p, ok := Peer(I1, I4); !ok || !Same(p, I4) {
		t.Errorf("Peer(i1, i4) = %v, %v, want i4 (widest wins)", p, ok)
	}
	if _, ok := Peer(I4, U4); ok {
		t.Error("Peer(i4, u4) should have no peer (signedness mismatch)")
	}
	if _, ok := Peer(I8, IPtr); ok {
		t.Error("Peer(i8, iptr) should have no peer (pointer is distinct width)")
	}
}

func TestTypeString(t *testing.T) {
	cases := map[Type]string{
		CtInt: "ct_int",
		I4:    "i4",
		U8:    "u8",
		IPtr:  "iptr",
		UPtr:  "uptr",
		Bool:  "bool",
		TypeT: "type",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("%#v.String() = %q, want %q", typ, got, want)
		}
	}
}

func TestVariantKindForRoundTrip(t *testing.T) {
	for _, typ := range []Type{CtInt, I1, I2, I4, I8, U1, U2, U4, U8, IPtr, UPtr, Bool, TypeT} {
		k := VariantKindFor(typ)
		if k == VNone {
			t.Errorf("VariantKindFor(%s) = VNone", typ)
			continue
		}
		var v Variant
		switch k {
		case VCtInt:
			v = NewCtInt(big.NewInt(1))
		case VBool:
			v = NewBool(true)
		case VType:
			v = NewType(typ)
		default:
			v = NewInt(k, 1)
		}
		if !Same(v.TypeOf(), typ) {
			t.Errorf("round trip through VariantKindFor/TypeOf: %s -> %v -> %s", typ, k, v.TypeOf())
		}
	}
}

func TestNewIntMasksToWidth(t *testing.T) {
	v := NewInt(VU1, 0x1FF)
	if v.Bits != 0xFF {
		t.Errorf("NewInt(VU1, 0x1FF).Bits = %#x, want 0xff", v.Bits)
	}
}

func TestSignedValueSignExtends(t *testing.T) {
	v := NewInt(VI1, 0xFF) // -1 as i1
	if v.SignedValue() != -1 {
		t.Errorf("SignedValue() = %d, want -1", v.SignedValue())
	}
	v2 := NewInt(VI1, 0x7F) // 127 as i1
	if v2.SignedValue() != 127 {
		t.Errorf("SignedValue() = %d, want 127", v2.SignedValue())
	}
}

func TestBitsFromBigWrapsNegative(t *testing.T) {
	got := BitsFromBig(big.NewInt(-1), 8)
	if got != 0xFF {
		t.Errorf("BitsFromBig(-1, 8) = %#x, want 0xff", got)
	}
	got2 := BitsFromBig(big.NewInt(256), 8)
	if got2 != 0 {
		t.Errorf("BitsFromBig(256, 8) = %#x, want 0", got2)
	}
}

func TestBinaryResult(t *testing.T) {
	if r, ok := BinaryResult(Add, CtInt, I4); !ok || !Same(r, I4) {
		t.Errorf("Add(ct_int, i4) = %v, %v, want i4", r, ok)
	}
	if r, ok := BinaryResult(Lt, I4, I4); !ok || !Same(r, Bool) {
		t.Errorf("Lt(i4, i4) = %v, %v, want bool", r, ok)
	}
	if _, ok := BinaryResult(Add, I4, U4); ok {
		t.Error("Add(i4, u4) should fail: no peer")
	}
	if r, ok := BinaryResult(LAnd, Bool, Bool); !ok || !Same(r, Bool) {
		t.Errorf("LAnd(bool, bool) = %v, %v, want bool", r, ok)
	}
	if _, ok := BinaryResult(LAnd, I4, I4); ok {
		t.Error("LAnd(i4, i4) should fail: logical ops require bool")
	}
	if _, ok := BinaryResult(Add, Bool, Bool); ok {
		t.Error("Add(bool, bool) should fail: arithmetic ops require integers")
	}
}

func TestUnaryResult(t *testing.T) {
	if r, ok := UnaryResult(UnaryNeg, I4); !ok || !Same(r, I4) {
		t.Errorf("UnaryNeg(i4) = %v, %v, want i4", r, ok)
	}
	if r, ok := UnaryResult(UnaryLNot, Bool); !ok || !Same(r, Bool) {
		t.Errorf("UnaryLNot(bool) = %v, %v, want bool", r, ok)
	}
	if _, ok := UnaryResult(UnaryLNot, I4); ok {
		t.Error("UnaryLNot(i4) should fail: lnot requires bool")
	}
	if _, ok := UnaryResult(UnaryNeg, Bool); ok {
		t.Error("UnaryNeg(bool) should fail: neg requires integer")
	}
}

func TestConstantnessMix(t *testing.T) {
	if Mix(Constant, Constant) != Constant {
		t.Error("Mix(constant, constant) should be constant")
	}
	if Mix(Constant, NotConstant) != NotConstant {
		t.Error("Mix(constant, not_constant) should be not_constant")
	}
	if Mix(Unknown, Constant) != Unknown {
		t.Error("Mix(unknown, constant) should be unknown")
	}
}

func TestIntFlagIndexOrdering(t *testing.T) {
	if IntFlagIndex(VCtInt) != 0 {
		t.Errorf("IntFlagIndex(VCtInt) = %d, want 0", IntFlagIndex(VCtInt))
	}
	if IntFlagIndex(VUPtr) != len(IntFlagOrder)-1 {
		t.Errorf("IntFlagIndex(VUPtr) = %d, want %d", IntFlagIndex(VUPtr), len(IntFlagOrder)-1)
	}
	if IntFlagIndex(VBool) != -1 {
		t.Error("IntFlagIndex(VBool) should be -1, bool is not an integer kind")
	}
}
