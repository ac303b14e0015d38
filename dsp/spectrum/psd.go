package spectrum

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/window"
)

// Kind tells how a PSD was produced.
type Kind int

const (
	// KindAveraged is a Welch average over one signal.
	KindAveraged Kind = iota
	// KindMaximax is an elementwise maximum over per-window Welch averages.
	KindMaximax
)

// String returns "averaged" or "maximax".
func (k Kind) String() string {
	switch k {
	case KindAveraged:
		return "averaged"
	case KindMaximax:
		return "maximax"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "averaged":
		*k = KindAveraged
	case "maximax":
		*k = KindMaximax
	default:
		return fmt.Errorf("%w: unknown PSD kind %q", core.ErrInvalidParameter, text)
	}
	return nil
}

// PSD is a one-sided power spectral density from 0 Hz to Nyquist.
//
// Values are in Unit²/Hz. A PSD is never modified after an estimator
// returns it; new parameters produce a new PSD.
type PSD struct {
	Frequencies []float64 `json:"frequencies"`
	Values      []float64 `json:"values"`

	Unit           string      `json:"unit"`
	Channel        string      `json:"channel,omitempty"`
	SampleRate     float64     `json:"sampleRate"`
	SegmentLength  int         `json:"segmentLength"`
	ActualDF       float64     `json:"actualDf"`
	OverlapPercent float64     `json:"overlapPercent"`
	Taper          window.Type `json:"taper"`
	Detrend        Detrend     `json:"detrend"`
	Kind           Kind        `json:"kind"`
	// Segments is the number of periodograms averaged (per window for
	// maximax results).
	Segments int `json:"segments"`

	// Maximax only.
	Windows              int     `json:"windows,omitempty"`
	WindowDuration       float64 `json:"windowDuration,omitempty"`
	WindowOverlapPercent float64 `json:"windowOverlapPercent,omitempty"`
}

// Len returns the number of bins.
func (p PSD) Len() int { return len(p.Values) }

// DensityUnit returns the label of the values, e.g. "g²/Hz".
func (p PSD) DensityUnit() string {
	if p.Unit == "" {
		return "1/Hz"
	}
	return p.Unit + "²/Hz"
}

// Span returns the lowest and highest frequency covered.
func (p PSD) Span() (lo, hi float64) {
	if len(p.Frequencies) == 0 {
		return 0, 0
	}
	return p.Frequencies[0], p.Frequencies[len(p.Frequencies)-1]
}

// Peak returns the frequency and value of the largest bin.
func (p PSD) Peak() (freq, value float64) {
	if len(p.Values) == 0 {
		return 0, 0
	}
	i := floats.MaxIdx(p.Values)
	return p.Frequencies[i], p.Values[i]
}

// DB returns 10*log10(value/ref) per bin. ref <= 0 is treated as 1.
func (p PSD) DB(ref float64) []float64 {
	if ref <= 0 {
		ref = 1
	}
	out := make([]float64, len(p.Values))
	for i, v := range p.Values {
		out[i] = core.LinearPowerToDB(v / ref)
	}
	return out
}

// ValueAt linearly interpolates the density at f. Frequencies outside the
// span return the nearest end value.
func (p PSD) ValueAt(f float64) float64 {
	n := len(p.Frequencies)
	if n == 0 {
		return 0
	}
	if f <= p.Frequencies[0] {
		return p.Values[0]
	}
	if f >= p.Frequencies[n-1] {
		return p.Values[n-1]
	}

	j := sort.SearchFloat64s(p.Frequencies, f)
	if p.Frequencies[j] == f {
		return p.Values[j]
	}

	f0, f1 := p.Frequencies[j-1], p.Frequencies[j]
	t := (f - f0) / (f1 - f0)

	return p.Values[j-1] + t*(p.Values[j]-p.Values[j-1])
}

// PointsBetween returns the number of bins strictly inside (lo, hi).
func (p PSD) PointsBetween(lo, hi float64) int {
	i0, i1 := p.interior(lo, hi)
	if i1 < i0 {
		return 0
	}
	return i1 - i0
}

// interior returns [i0, i1) such that lo < Frequencies[i] < hi.
func (p PSD) interior(lo, hi float64) (int, int) {
	f := p.Frequencies
	i0 := sort.Search(len(f), func(i int) bool { return f[i] > lo })
	i1 := sort.Search(len(f), func(i int) bool { return f[i] >= hi })
	return i0, i1
}

// Energy integrates the density over [lo, hi] intersected with the span,
// treating the PSD as piecewise linear between bins (trapezoidal rule).
// The result is a mean-square value in Unit².
func (p PSD) Energy(lo, hi float64) (float64, error) {
	if len(p.Frequencies) < 2 || len(p.Frequencies) != len(p.Values) {
		return 0, fmt.Errorf("%w: PSD has %d bins", core.ErrInsufficientData, len(p.Values))
	}

	if !(lo < hi) || math.IsNaN(lo) || math.IsNaN(hi) {
		return 0, fmt.Errorf("%w: frequency range [%g, %g] is empty", core.ErrInvalidParameter, lo, hi)
	}

	flo, fhi := p.Span()
	a := math.Max(lo, flo)
	b := math.Min(hi, fhi)
	if !(a < b) {
		return 0, fmt.Errorf("%w: range [%g, %g] Hz outside PSD span [%g, %g] Hz",
			core.ErrInsufficientData, lo, hi, flo, fhi)
	}

	i0, i1 := p.interior(a, b)
	x := make([]float64, 0, i1-i0+2)
	y := make([]float64, 0, i1-i0+2)

	x = append(x, a)
	y = append(y, p.ValueAt(a))
	x = append(x, p.Frequencies[i0:i1]...)
	y = append(y, p.Values[i0:i1]...)
	x = append(x, b)
	y = append(y, p.ValueAt(b))

	return integrate.Trapezoidal(x, y), nil
}
