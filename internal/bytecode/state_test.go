package bytecode

import (
	"testing"

	"nl/internal/identtab"
	"nl/internal/source"
	"nl/internal/types"
)

func runProgram(t *testing.T, code []byte, data []types.Variant) types.Variant {
	t.Helper()
	storage := identtab.NewStorage()
	st := NewState(code, data, nil, 0, storage)
	v, err := st.Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return v
}

func i4FlagIdx() int { return types.IntFlagIndex(types.VI4) }

func TestStateLoadDataAndRet(t *testing.T) {
	data := []types.Variant{types.NewInt(types.VI4, 42)}
	code := append(Make(LoadData, 0), Make(Ret)...)
	v := runProgram(t, code, data)
	if v.Kind != types.VI4 || v.UnsignedValue() != 42 {
		t.Errorf("got %v, want i4(42)", v)
	}
}

func TestStateAddInt(t *testing.T) {
	data := []types.Variant{types.NewInt(types.VI4, 2), types.NewInt(types.VI4, 3)}
	var code []byte
	code = append(code, Make(LoadData, 0)...)
	code = append(code, Make(LoadData, 1)...)
	code = append(code, Make(AddInt, i4FlagIdx())...)
	code = append(code, Make(Ret)...)
	v := runProgram(t, code, data)
	if v.UnsignedValue() != 5 {
		t.Errorf("got %v, want i4(5)", v)
	}
}

func TestStateDivisionByZeroErrors(t *testing.T) {
	data := []types.Variant{types.NewInt(types.VI4, 1), types.NewInt(types.VI4, 0)}
	var code []byte
	code = append(code, Make(LoadData, 0)...)
	code = append(code, Make(LoadData, 1)...)
	code = append(code, Make(DivInt, i4FlagIdx())...)
	code = append(code, Make(Ret)...)
	storage := identtab.NewStorage()
	st := NewState(code, data, nil, 0, storage)
	if _, err := st.Run(); err == nil {
		t.Fatal("expected a division-by-zero error")
	}
}

func TestStateCastIntTruncatesWrapping(t *testing.T) {
	// Cast 0x1FF (i4) down to u1: must wrap to the low 8 bits (0xFF).
	data := []types.Variant{types.NewInt(types.VI4, 0x1FF)}
	operand := PackCastOperands(types.IntFlagIndex(types.VI4), types.IntFlagIndex(types.VU1))
	var code []byte
	code = append(code, Make(LoadData, 0)...)
	code = append(code, Make(CastInt, operand)...)
	code = append(code, Make(Ret)...)
	v := runProgram(t, code, data)
	if v.Kind != types.VU1 || v.UnsignedValue() != 0xFF {
		t.Errorf("got %v, want u1(0xff)", v)
	}
}

func TestStateComparison(t *testing.T) {
	data := []types.Variant{types.NewInt(types.VI4, 1), types.NewInt(types.VI4, 2)}
	var code []byte
	code = append(code, Make(LoadData, 0)...)
	code = append(code, Make(LoadData, 1)...)
	code = append(code, Make(LtInt, i4FlagIdx())...)
	code = append(code, Make(Ret)...)
	v := runProgram(t, code, data)
	if v.Kind != types.VBool || !v.Bool {
		t.Errorf("got %v, want bool(true)", v)
	}
}

func TestStateLogicalAnd(t *testing.T) {
	data := []types.Variant{types.NewBool(true), types.NewBool(false)}
	var code []byte
	code = append(code, Make(LoadData, 0)...)
	code = append(code, Make(LoadData, 1)...)
	code = append(code, Make(LAnd)...)
	code = append(code, Make(Ret)...)
	v := runProgram(t, code, data)
	if v.Bool {
		t.Error("true land false should be false")
	}
}

func TestStateLoadIDReadsStorage(t *testing.T) {
	storage := identtab.NewStorage()
	id := storage.Define("x", source.Range{})
	entry := storage.Get(id)
	entry.Value = types.NewInt(types.VI4, 99)
	entry.Data.HasType = true

	code := append(Make(LoadID, int(id)), Make(Ret)...)
	st := NewState(code, nil, nil, 0, storage)
	v, err := st.Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if v.UnsignedValue() != 99 {
		t.Errorf("got %v, want i4(99)", v)
	}
}

func TestStateEndProducesNone(t *testing.T) {
	code := Make(End)
	v := runProgram(t, code, nil)
	if v.Kind != types.VNone {
		t.Errorf("got %v, want None", v)
	}
}

func TestStateErrInstructionFails(t *testing.T) {
	code := Make(Err)
	storage := identtab.NewStorage()
	st := NewState(code, nil, nil, 0, storage)
	if _, err := st.Run(); err == nil {
		t.Fatal("expected the err instruction to produce a failure")
	}
}
