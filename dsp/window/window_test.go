package window

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-psd/dsp/core"
)

func TestGenerateAllTypes(t *testing.T) {
	for _, typ := range Types() {
		t.Run(Info(typ).Name, func(t *testing.T) {
			w := Generate(typ, 64)
			if len(w) != 64 {
				t.Fatalf("len=%d, want 64", len(w))
			}

			for i, v := range w {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("coefficient[%d] invalid: %v", i, v)
				}
			}
		})
	}
}

func TestPeriodicVsSymmetric(t *testing.T) {
	a := Generate(TypeHann, 16)
	b := Generate(TypeHann, 16, WithPeriodic())

	if !almostEqual(a[15], 0, 1e-12) {
		t.Fatalf("symmetric hann end=%v, want 0", a[15])
	}

	if almostEqual(a[15], b[15], 1e-12) {
		t.Fatal("expected different end coefficient for periodic form")
	}
}

func TestMetadataMatchesGeneratedCoefficients(t *testing.T) {
	for _, typ := range Types() {
		m := Info(typ)
		w := Generate(typ, 4096, WithPeriodic())

		pg, err := PowerGain(w)
		if err != nil {
			t.Fatalf("%s: PowerGain error: %v", m.Name, err)
		}

		if !almostEqual(pg, m.PowerGain, 2e-3) {
			t.Fatalf("%s: power gain=%v metadata=%v", m.Name, pg, m.PowerGain)
		}

		enbw, err := EquivalentNoiseBandwidth(w)
		if err != nil {
			t.Fatalf("%s: ENBW error: %v", m.Name, err)
		}

		if !almostEqual(enbw, m.ENBW, 0.01) {
			t.Fatalf("%s: ENBW=%v metadata=%v", m.Name, enbw, m.ENBW)
		}
	}
}

func TestSumSquares(t *testing.T) {
	if got := SumSquares([]float64{1, 2, 2}); got != 9 {
		t.Fatalf("SumSquares=%v, want 9", got)
	}

	if got := SumSquares(Generate(TypeRectangular, 10)); got != 10 {
		t.Fatalf("rectangular SumSquares=%v, want 10", got)
	}
}

func TestParseTypeRoundTrip(t *testing.T) {
	for _, typ := range Types() {
		got, err := ParseType(typ.String())
		if err != nil {
			t.Fatalf("ParseType(%q) error: %v", typ.String(), err)
		}

		if got != typ {
			t.Fatalf("ParseType(%q)=%v, want %v", typ.String(), got, typ)
		}
	}

	aliases := map[string]Type{
		" Hanning ": TypeHann,
		"FLAT-TOP":  TypeFlatTop,
		"boxcar":    TypeRectangular,
		"none":      TypeRectangular,
	}
	for name, want := range aliases {
		got, err := ParseType(name)
		if err != nil || got != want {
			t.Fatalf("ParseType(%q)=%v,%v want %v", name, got, err, want)
		}
	}

	if _, err := ParseType("triangle"); !errors.Is(err, errUnknownType) {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestTextMarshalling(t *testing.T) {
	text, err := TypeBlackmanHarris4Term.MarshalText()
	if err != nil {
		t.Fatal(err)
	}

	var typ Type
	if err := typ.UnmarshalText(text); err != nil {
		t.Fatal(err)
	}

	if typ != TypeBlackmanHarris4Term {
		t.Fatalf("round trip got %v", typ)
	}

	if _, err := Type(99).MarshalText(); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestApplyCoefficients(t *testing.T) {
	samples := []float64{1, 2, 3}
	coeffs := []float64{0.5, 0.5, 0.5}
	out := make([]float64, 3)

	if err := ApplyCoefficients(out, samples, coeffs); err != nil {
		t.Fatal(err)
	}

	if !almostEqual(out[2], 1.5, 1e-12) {
		t.Fatalf("out[2]=%v", out[2])
	}

	if samples[2] != 3 {
		t.Fatalf("input mutated: %v", samples)
	}

	if err := ApplyCoefficients(samples, samples, coeffs); err != nil {
		t.Fatal(err)
	}
	if samples[0] != 0.5 || samples[2] != 1.5 {
		t.Fatalf("in-place result %v", samples)
	}
}

func TestGoldenVectors(t *testing.T) {
	hannExpected := []float64{
		0.0, 0.1882550990706332, 0.6112604669781572, 0.9504844339512095,
		0.9504844339512095, 0.6112604669781573, 0.1882550990706333, 0.0,
	}
	hammingExpected := []float64{
		0.08, 0.25319469114498255, 0.6423596296199047, 0.9544456792351128,
		0.9544456792351128, 0.6423596296199048, 0.25319469114498266, 0.08,
	}
	bh4Expected := []float64{
		0.00006, 0.03339172347815117, 0.332833504298565,
		0.8893697722232837, 0.8893697722232838, 0.3328335042985652,
		0.0333917234781512, 0.00006,
	}
	flattopExpected := []float64{
		-0.0004210510000000013, -0.03684077608132298, 0.01070371671636002,
		0.7808739149387524, 0.7808739149387525, 0.010703716716360296,
		-0.03684077608132292, -0.0004210510000000013,
	}
	kaiserExpected := []float64{
		0.002338830460264423, 0.1091958100155291, 0.4871186737556569, 0.9261577358777303,
		0.9261577358777303, 0.4871186737556569, 0.1091958100155291, 0.002338830460264423,
	}

	checkGolden(t, Generate(TypeHann, 8), hannExpected, 1e-10)
	checkGolden(t, Generate(TypeHamming, 8), hammingExpected, 1e-10)
	checkGolden(t, Generate(TypeBlackmanHarris4Term, 8), bh4Expected, 1e-10)
	checkGolden(t, Generate(TypeFlatTop, 8), flattopExpected, 1e-8)
	checkGolden(t, Generate(TypeKaiser, 8, WithAlpha(8)), kaiserExpected, 1e-10)
}

func TestValidationAndEdgeCases(t *testing.T) {
	if got := Generate(TypeHann, 0); got != nil {
		t.Fatalf("expected nil for zero length, got %v", got)
	}

	if _, err := Kaiser(16, -1); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("expected beta validation error, got %v", err)
	}

	if _, err := Tukey(16, 2); err == nil {
		t.Fatal("expected alpha validation error")
	}

	if _, err := Tukey(0, 0.5); err == nil {
		t.Fatal("expected size validation error")
	}

	if _, err := EquivalentNoiseBandwidth(nil); err == nil {
		t.Fatal("expected empty coeffs error")
	}

	if _, err := EquivalentNoiseBandwidth([]float64{0, 0, 0}); err == nil {
		t.Fatal("expected zero coherent gain error")
	}

	if _, err := PowerGain([]float64{0, 0}); err == nil {
		t.Fatal("expected zero power gain error")
	}

	if err := ApplyCoefficients(make([]float64, 2), []float64{1, 2}, []float64{1}); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		typ                       Type
		enbw, bw3, firstMin       float64
		sidelobe, scallop, over50 float64
	}{
		{TypeRectangular, 1, 0.886, 1, -13.26, -3.92, 0.5},
		{TypeHann, 1.5, 1.44, 2, -31.47, -1.42, 1.0 / 6},
		{TypeBlackman, 1.727, 1.64, 3, -58.1, -1.10, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			a := Analyze(Generate(tt.typ, 512, WithPeriodic()))

			if a.Length != 512 {
				t.Fatalf("length=%d", a.Length)
			}
			if !almostEqual(a.ENBW, tt.enbw, 1e-3) {
				t.Fatalf("enbw=%v want=%v", a.ENBW, tt.enbw)
			}
			if !almostEqual(a.Bandwidth3dB, tt.bw3, 0.01) {
				t.Fatalf("bw3dB=%v want=%v", a.Bandwidth3dB, tt.bw3)
			}
			if !almostEqual(a.FirstMinimumBins, tt.firstMin, 0.05) {
				t.Fatalf("first minimum=%v want=%v", a.FirstMinimumBins, tt.firstMin)
			}
			if !almostEqual(a.HighestSidelobedB, tt.sidelobe, 0.3) {
				t.Fatalf("sidelobe=%v dB want=%v", a.HighestSidelobedB, tt.sidelobe)
			}
			if !almostEqual(a.ScallopLossdB, tt.scallop, 0.02) {
				t.Fatalf("scallop=%v dB want=%v", a.ScallopLossdB, tt.scallop)
			}
			if tt.over50 > 0 && !almostEqual(a.Overlap50, tt.over50, 1e-9) {
				t.Fatalf("overlap50=%v want=%v", a.Overlap50, tt.over50)
			}
		})
	}

	if a := Analyze(nil); a.Length != 0 {
		t.Fatalf("empty taper: %+v", a)
	}
}

func TestOverlapCorrelation(t *testing.T) {
	w := Generate(TypeHann, 1024, WithPeriodic())

	if got := OverlapCorrelation(w, 0); got != 0 {
		t.Fatalf("no overlap: %v", got)
	}

	prev := 0.0
	for _, p := range []float64{25, 50, 66.7, 75, 90} {
		c := OverlapCorrelation(w, p)
		if c <= prev || c >= 1 {
			t.Fatalf("overlap %v%%: correlation %v not in (%v, 1)", p, c, prev)
		}
		prev = c
	}

	if got := OverlapCorrelation(w, 100); got != 0 {
		t.Fatalf("invalid overlap: %v", got)
	}
}

func checkGolden(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("len mismatch got=%d want=%d", len(got), len(want))
	}

	for i := range got {
		if !almostEqual(got[i], want[i], tol) {
			t.Fatalf("index %d: got=%.16f want=%.16f", i, got[i], want[i])
		}
	}
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
