package invariant

import "testing"

func TestErrorMessageFormat(t *testing.T) {
	e := Error{Message: "something broke"}
	want := "🤖 InvariantError: something broke"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
}

func TestPanicfRaisesTypedError(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Panicf should panic")
		}
		e, ok := r.(Error)
		if !ok {
			t.Fatalf("recovered %T, want invariant.Error", r)
		}
		if e.Message != "count was 3" {
			t.Errorf("Message = %q, want %q", e.Message, "count was 3")
		}
	}()
	Panicf("count was %d", 3)
}
