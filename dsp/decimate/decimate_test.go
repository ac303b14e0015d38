package decimate

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-psd/dsp/core"
)

func sine(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * float64(i) / 977)
	}
	return out
}

func checkIndices(t *testing.T, idx []int, n, target int) {
	t.Helper()

	if len(idx) > target {
		t.Fatalf("n=%d target=%d: got %d points", n, target, len(idx))
	}
	if idx[0] != 0 || idx[len(idx)-1] != n-1 {
		t.Fatalf("n=%d target=%d: endpoints %d..%d", n, target, idx[0], idx[len(idx)-1])
	}
	for i := 1; i < len(idx); i++ {
		if idx[i] <= idx[i-1] {
			t.Fatalf("n=%d target=%d: not increasing at %d", n, target, i)
		}
	}
}

func TestDecimationBound(t *testing.T) {
	sizes := []int{2, 3, 9999, 10000, 10001, 20000, 123457, 1000003}
	targets := []int{2, 3, 4, 5, 100, 10000}

	for _, n := range sizes {
		x := sine(n)
		for _, target := range targets {
			for _, s := range []Strategy{MinMax, Stride} {
				idx, err := s.Indices(x, target)
				if err != nil {
					t.Fatalf("%s n=%d target=%d: %v", s, n, target, err)
				}
				checkIndices(t, idx, n, target)
				if n <= target && len(idx) != n {
					t.Fatalf("%s n=%d target=%d: expected identity, got %d", s, n, target, len(idx))
				}
			}
		}
	}
}

func TestMinMaxKeepsShortSpike(t *testing.T) {
	x := make([]float64, 1000000)
	x[500123] = 42
	x[700001] = -17

	idx, err := MinMaxIndices(x, 1000)
	if err != nil {
		t.Fatal(err)
	}

	var sawPeak, sawDip bool
	for _, i := range idx {
		sawPeak = sawPeak || x[i] == 42
		sawDip = sawDip || x[i] == -17
	}
	if !sawPeak || !sawDip {
		t.Fatalf("spike lost: peak=%v dip=%v", sawPeak, sawDip)
	}

	stride, err := StrideIndices(len(x), 1000)
	if err != nil {
		t.Fatal(err)
	}
	for _, i := range stride {
		if x[i] == 42 {
			t.Fatal("stride unexpectedly hit the spike; pick another index")
		}
	}
}

func TestStrideSpacing(t *testing.T) {
	idx, err := StrideIndices(101, 11)
	if err != nil {
		t.Fatal(err)
	}

	want := []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if len(idx) != len(want) {
		t.Fatalf("got %v", idx)
	}
	for i := range want {
		if idx[i] != want[i] {
			t.Fatalf("got %v, want %v", idx, want)
		}
	}
}

func TestValidation(t *testing.T) {
	if _, err := StrideIndices(100, 1); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if _, err := MinMaxIndices([]float64{1}, 10); !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := Strategy(9).Indices([]float64{1, 2}, 10); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestParseStrategy(t *testing.T) {
	for name, want := range map[string]Strategy{"minmax": MinMax, "": MinMax, "Stride": Stride, "uniform": Stride} {
		got, err := ParseStrategy(name)
		if err != nil || got != want {
			t.Fatalf("ParseStrategy(%q)=%v,%v", name, got, err)
		}
	}
	if _, err := ParseStrategy("lttb"); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}
