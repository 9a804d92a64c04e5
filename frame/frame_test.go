package frame

import "testing"

func TestArithmeticClosure(t *testing.T) {
	a := New(1, 2)
	b := New(3, -1)

	if got := a.Add(b); got != New(4, 1) {
		t.Errorf("Add: got %v, want %v", got, New(4, 1))
	}
	if got := a.Sub(b); got != New(-2, 3) {
		t.Errorf("Sub: got %v, want %v", got, New(-2, 3))
	}
	if got := a.Scale(2); got != New(2, 4) {
		t.Errorf("Scale: got %v, want %v", got, New(2, 4))
	}
	if got := a.Neg(); got != New(-1, -2) {
		t.Errorf("Neg: got %v, want %v", got, New(-1, -2))
	}
}

func TestAsMono(t *testing.T) {
	f := New(1, 3)
	if got := f.AsMono(); got != FromMono(2) {
		t.Errorf("AsMono: got %v, want %v", got, FromMono(2))
	}
}

func TestZero(t *testing.T) {
	if Zero != New(0, 0) {
		t.Errorf("Zero: got %v", Zero)
	}
}

func TestZeroedAndAddInto(t *testing.T) {
	out := []Frame{New(1, 1), New(2, 2)}
	Zeroed(out)
	for i, f := range out {
		if f != Zero {
			t.Errorf("Zeroed[%d] = %v, want zero", i, f)
		}
	}

	dst := []Frame{New(1, 1), New(2, 2)}
	src := []Frame{New(10, 10), New(20, 20)}
	AddInto(dst, src)
	if dst[0] != New(11, 11) || dst[1] != New(22, 22) {
		t.Errorf("AddInto: got %v", dst)
	}
}
