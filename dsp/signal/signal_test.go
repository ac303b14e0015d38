package signal

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/algo-psd/dsp/core"
)

var t0 = time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func mustFull(t *testing.T, rate float64, samples []float64) Full {
	t.Helper()
	f, err := NewFull(Meta{Channel: "acc-x", Unit: "g", SampleRate: rate, Start: t0}, samples)
	if err != nil {
		t.Fatalf("NewFull error: %v", err)
	}
	return f
}

func TestNewFullRejectsBadRate(t *testing.T) {
	for _, rate := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := NewFull(Meta{SampleRate: rate}, []float64{1, 2})
		if !errors.Is(err, core.ErrInvalidParameter) {
			t.Fatalf("rate=%v: expected ErrInvalidParameter, got %v", rate, err)
		}
	}
}

func TestFullTiming(t *testing.T) {
	f := mustFull(t, 100, ramp(1000))

	if f.Duration() != 10*time.Second {
		t.Fatalf("duration=%s, want 10s", f.Duration())
	}

	if want := t0.Add(9990 * time.Millisecond); !f.End().Equal(want) {
		t.Fatalf("end=%s, want %s", f.End(), want)
	}

	if got := f.TimeAt(250); !got.Equal(t0.Add(2500 * time.Millisecond)) {
		t.Fatalf("TimeAt(250)=%s", got)
	}
}

func TestSliceEventInclusive(t *testing.T) {
	f := mustFull(t, 100, ramp(1000))

	ev := Event{Start: t0.Add(time.Second), End: t0.Add(2 * time.Second)}
	sub, err := f.Slice(ev)
	if err != nil {
		t.Fatalf("Slice error: %v", err)
	}

	if sub.Len() != 101 {
		t.Fatalf("len=%d, want 101 (inclusive ends)", sub.Len())
	}

	if sub.Samples()[0] != 100 || sub.Samples()[100] != 200 {
		t.Fatalf("unexpected bounds: %v..%v", sub.Samples()[0], sub.Samples()[100])
	}

	if !sub.Start().Equal(ev.Start) || !sub.End().Equal(ev.End) {
		t.Fatalf("sub span %s..%s, want %s..%s", sub.Start(), sub.End(), ev.Start, ev.End)
	}

	if sub.SampleRate() != f.SampleRate() || sub.Unit() != "g" {
		t.Fatalf("meta not carried: %+v", sub.Meta())
	}
}

func TestSliceEventClipsAndRejects(t *testing.T) {
	f := mustFull(t, 10, ramp(10))

	sub, err := f.Slice(Event{Start: t0.Add(-time.Hour), End: t0.Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if sub.Len() != 10 {
		t.Fatalf("clipped len=%d, want 10", sub.Len())
	}

	_, err = f.Slice(Event{Start: t0.Add(time.Hour), End: t0.Add(2 * time.Hour)})
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	_, err = f.Slice(Event{Start: t0.Add(time.Second), End: t0})
	if !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestSliceIndexBounds(t *testing.T) {
	f := mustFull(t, 10, ramp(10))

	if _, err := f.SliceIndex(5, 11); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}

	sub, err := f.SliceIndex(2, 4)
	if err != nil {
		t.Fatal(err)
	}

	if cap(sub.Samples()) != 2 {
		t.Fatalf("sub-slice must not expose trailing capacity: cap=%d", cap(sub.Samples()))
	}
}

func TestDisplayOfSharesSpan(t *testing.T) {
	f := mustFull(t, 50, ramp(20))
	d := DisplayOf(f)

	if d.Len() != 20 || d.Decimated() {
		t.Fatalf("len=%d decimated=%v", d.Len(), d.Decimated())
	}

	if !d.Start().Equal(f.Start()) || !d.End().Equal(f.End()) {
		t.Fatal("display span differs from full span")
	}

	if d.SampleRate() != f.SampleRate() {
		t.Fatal("sample rate differs")
	}
}

func TestDisplayFrom(t *testing.T) {
	f := mustFull(t, 10, ramp(10))

	d, err := DisplayFrom(f, []int{0, 3, 4, 9})
	if err != nil {
		t.Fatal(err)
	}

	if d.Len() != 4 || !d.Decimated() || d.SourceLen() != 10 {
		t.Fatalf("len=%d decimated=%v source=%d", d.Len(), d.Decimated(), d.SourceLen())
	}

	if d.Offsets()[1] != 0.3 || d.Values()[1] != 3 {
		t.Fatalf("point 1 = (%v, %v)", d.Offsets()[1], d.Values()[1])
	}

	if !d.End().Equal(f.End()) {
		t.Fatalf("end=%s, want %s", d.End(), f.End())
	}

	bad := [][]int{nil, {1, 9}, {0, 8}, {0, 4, 4, 9}}
	for _, idx := range bad {
		if _, err := DisplayFrom(f, idx); !errors.Is(err, core.ErrInvalidParameter) {
			t.Fatalf("indices %v: expected ErrInvalidParameter, got %v", idx, err)
		}
	}
}

func TestJoin(t *testing.T) {
	a := mustFull(t, 10, ramp(10))
	b, err := NewFull(Meta{Channel: "acc-x", SampleRate: 10, Start: t0.Add(time.Second)}, []float64{10, 11})
	if err != nil {
		t.Fatal(err)
	}

	j, err := Join([]Full{a, b})
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}

	if j.Len() != 12 || j.Samples()[11] != 11 {
		t.Fatalf("joined len=%d last=%v", j.Len(), j.Samples()[j.Len()-1])
	}

	late, _ := NewFull(Meta{SampleRate: 10, Start: t0.Add(5 * time.Second)}, []float64{1})
	if _, err := Join([]Full{a, late}); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("expected gap rejection, got %v", err)
	}

	if _, err := Join([]Full{a, late}, AllowGap()); err != nil {
		t.Fatalf("AllowGap join error: %v", err)
	}

	fast, _ := NewFull(Meta{SampleRate: 20, Start: t0.Add(time.Second)}, []float64{1})
	if _, err := Join([]Full{a, fast}); !errors.Is(err, core.ErrRateMismatch) {
		t.Fatalf("expected ErrRateMismatch, got %v", err)
	}

	if _, err := Join(nil); !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestGeneratorGaussianNoiseStatistics(t *testing.T) {
	g := NewGenerator(1000, WithSeed(7))
	x, err := g.GaussianNoise(2, 200000)
	if err != nil {
		t.Fatal(err)
	}

	mean, sq := 0.0, 0.0
	for _, v := range x {
		mean += v
		sq += v * v
	}
	mean /= float64(len(x))
	variance := sq/float64(len(x)) - mean*mean

	if math.Abs(mean) > 0.02 {
		t.Fatalf("mean=%v, want ~0", mean)
	}
	if math.Abs(variance-4) > 0.05 {
		t.Fatalf("variance=%v, want ~4", variance)
	}

	y, _ := NewGenerator(1000, WithSeed(7)).GaussianNoise(2, 10)
	for i := range y {
		if y[i] != x[i] {
			t.Fatalf("noise not deterministic at %d", i)
		}
	}
}

func TestGeneratorValidation(t *testing.T) {
	g := NewGenerator(0)
	if _, err := g.Sine(1, 1, 10); err == nil {
		t.Fatal("expected sample rate error")
	}

	g = NewGenerator(100)
	if _, err := g.WhiteNoise(-1, 10); err == nil {
		t.Fatal("expected amplitude error")
	}
	if _, err := g.GaussianNoise(1, 0); err == nil {
		t.Fatal("expected length error")
	}
}
