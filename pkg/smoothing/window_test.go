package smoothing

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestNewWindow_RejectsNonPositive(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := NewWindow(size); err == nil {
			t.Errorf("NewWindow(%d): expected error", size)
		}
	}
}

func TestWindow_EmptyIsZero(t *testing.T) {
	w, _ := NewWindow(DefaultSize)
	if got := w.Current(); got != 0 {
		t.Errorf("Current() on empty window = %v, want 0", got)
	}
	if w.Len() != 0 || w.Cap() != DefaultSize {
		t.Errorf("Len/Cap = %d/%d", w.Len(), w.Cap())
	}
}

func TestWindow_NoZeroPadding(t *testing.T) {
	w, _ := NewWindow(30)
	w.Push(1.0)
	w.Push(0.5)

	if got := w.Current(); !approxEqual(got, 0.75) {
		t.Errorf("Current() = %v, want 0.75 (mean of pushed values only)", got)
	}
}

func TestWindow_ConstantInput(t *testing.T) {
	for _, r := range []float64{0, 0.1, 1.0 / 3, 0.7, 1} {
		w, _ := NewWindow(DefaultSize)
		for i := 0; i < DefaultSize; i++ {
			w.Push(r)
		}
		if got := w.Current(); !approxEqual(got, r) {
			t.Errorf("constant %v: Current() = %v", r, got)
		}
	}
}

func TestWindow_FIFOEviction(t *testing.T) {
	const n = 5
	w, _ := NewWindow(n)

	vals := []float64{0.9, 0.1, 0.2, 0.3, 0.4, 0.5}
	for _, v := range vals {
		w.Push(v)
	}

	if w.Len() != n {
		t.Fatalf("Len() = %d, want %d", w.Len(), n)
	}

	want := (0.1 + 0.2 + 0.3 + 0.4 + 0.5) / 5
	if got := w.Current(); !approxEqual(got, want) {
		t.Errorf("Current() = %v, want %v (oldest evicted)", got, want)
	}

	got := w.Values()
	for i, v := range vals[1:] {
		if got[i] != v {
			t.Errorf("Values()[%d] = %v, want %v", i, got[i], v)
		}
	}
}

func TestWindow_NeverExceedsCapacity(t *testing.T) {
	w, _ := NewWindow(3)
	for i := 0; i < 100; i++ {
		w.Push(float64(i % 2))
		if w.Len() > 3 {
			t.Fatalf("Len() = %d after %d pushes", w.Len(), i+1)
		}
	}
}

func TestWindow_HalfAndHalf(t *testing.T) {
	w, _ := NewWindow(30)
	for i := 0; i < 15; i++ {
		w.Push(1.0)
	}
	for i := 0; i < 15; i++ {
		w.Push(0.0)
	}

	if got := w.Current(); !approxEqual(got, 0.5) {
		t.Errorf("Current() = %v, want 0.5", got)
	}
}

func TestWindow_PushReturnsMean(t *testing.T) {
	w, _ := NewWindow(2)
	if got := w.Push(1); got != 1 {
		t.Errorf("Push(1) = %v", got)
	}
	if got := w.Push(0); got != 0.5 {
		t.Errorf("Push(0) = %v", got)
	}
	if got := w.Push(0); got != 0 {
		t.Errorf("Push(0) = %v", got)
	}
}

func TestWindow_Reset(t *testing.T) {
	w, _ := NewWindow(4)
	w.Push(0.8)
	w.Reset()
	if w.Len() != 0 || w.Current() != 0 {
		t.Errorf("after Reset: Len=%d Current=%v", w.Len(), w.Current())
	}
	w.Push(0.2)
	if got := w.Current(); got != 0.2 {
		t.Errorf("after Reset+Push: Current=%v", got)
	}
}
