package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(1000, 48000, 1.0, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}
	if math.Abs(s[0]) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	for i, v := range s {
		if v < -1 || v > 1 {
			t.Fatalf("s[%d] = %v out of range", i, v)
		}
	}
}

func TestDeterministicNoiseReproducible(t *testing.T) {
	a := DeterministicNoise(42, 1, 256)
	b := DeterministicNoise(42, 1, 256)
	c := DeterministicNoise(43, 1, 256)
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic at index %d", i)
		}
		if a[i] != c[i] {
			same = false
		}
		if a[i] < -1 || a[i] > 1 {
			t.Fatalf("a[%d] = %v out of range", i, a[i])
		}
	}
	if same {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestGaussianNoiseVariance(t *testing.T) {
	x := GaussianNoise(7, 2, 1<<16)
	sum, sumSq := 0.0, 0.0
	for _, v := range x {
		sum += v
		sumSq += v * v
	}
	n := float64(len(x))
	mean := sum / n
	variance := sumSq/n - mean*mean
	if math.Abs(mean) > 0.05 {
		t.Fatalf("mean = %v, want ~0", mean)
	}
	if math.Abs(variance-4)/4 > 0.03 {
		t.Fatalf("variance = %v, want ~4", variance)
	}
}

func TestSum(t *testing.T) {
	got := Sum(DC(1, 4), DC(2, 3))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, v := range got {
		if v != 3 {
			t.Fatalf("got[%d] = %v, want 3", i, v)
		}
	}
	if Sum() != nil {
		t.Fatal("Sum() should be nil")
	}
}

func TestFull(t *testing.T) {
	sig := Full(t, 1000, DC(0.5, 2000))
	if sig.Len() != 2000 || sig.SampleRate() != 1000 || sig.Unit() != "g" {
		t.Fatalf("unexpected signal: len=%d fs=%v unit=%q", sig.Len(), sig.SampleRate(), sig.Unit())
	}
	if !sig.Start().Equal(Epoch) {
		t.Fatalf("start = %v, want %v", sig.Start(), Epoch)
	}
}
