package nes

import "testing"

func TestController_ReadOrder(t *testing.T) {
	ctrl := &Controller{}
	ctrl.Press(A)
	ctrl.Press(Start)
	ctrl.Press(Down)

	ctrl.Write(1) // strobe high, latch
	ctrl.Write(0) // strobe low, start shifting

	want := []Button{1, 0, 0, 1, 0, 1, 0, 0} // A, B, Select, Start, Up, Down, Left, Right
	for i, w := range want {
		if got := ctrl.Read(); got != w {
			t.Fatalf("read %d = %v, want %v", i, got, w)
		}
	}
}

func TestController_ReadsPastEighthReturnOne(t *testing.T) {
	ctrl := &Controller{}
	ctrl.Write(1)
	ctrl.Write(0)

	for i := 0; i < 8; i++ {
		ctrl.Read()
	}
	for i := 0; i < 4; i++ {
		if got := ctrl.Read(); got != 1 {
			t.Fatalf("read past the eighth = %v, want 1", got)
		}
	}
}

func TestController_LatchIgnoresMidSequenceChanges(t *testing.T) {
	ctrl := &Controller{}
	ctrl.Press(A)
	ctrl.Write(1)
	ctrl.Write(0) // latch: only A held

	if got := ctrl.Read(); got != 1 {
		t.Fatalf("read A = %v, want 1", got)
	}
	ctrl.Press(Start)
	ctrl.Release(A)
	for i, b := range []Button{B, Select, Start} {
		if got := ctrl.Read(); got != 0 {
			t.Fatalf("read %d (%v) = %v, want the latched 0; changes after the strobe drop must wait for the next latch", i+1, b, got)
		}
	}

	ctrl.Write(1)
	ctrl.Write(0) // new latch picks up Start
	want := []Button{0, 0, 0, 1} // A, B, Select, Start
	for i, w := range want {
		if got := ctrl.Read(); got != w {
			t.Fatalf("read %d after relatch = %v, want %v", i, got, w)
		}
	}
}

func TestController_StrobeHighRepeatsA(t *testing.T) {
	ctrl := &Controller{}
	ctrl.Press(A)
	ctrl.Write(1)

	for i := 0; i < 4; i++ {
		if got := ctrl.Read(); got != 1 {
			t.Fatalf("read %d with strobe high = %v, want button A state", i, got)
		}
	}

	ctrl.Release(A)
	ctrl.Press(B)
	ctrl.Write(0)

	if got := ctrl.Read(); got != 0 {
		t.Fatalf("first read after strobe drop = %v, want released A", got)
	}
	if got := ctrl.Read(); got != 1 {
		t.Fatalf("second read after strobe drop = %v, want pressed B", got)
	}
}
