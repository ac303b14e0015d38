package octave

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/spectrum"
)

// ReferenceFrequency anchors the band center series.
const ReferenceFrequency = 1000.0

// centerTolerance admits centers that miss a range limit by rounding only.
const centerTolerance = 1e-9

// Band is one fractional-octave band.
type Band struct {
	Center float64 `json:"center"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	// Value is the average density over [Lower, Upper] in unit²/Hz.
	Value float64 `json:"value"`
	// Points is the number of narrowband bins strictly inside the band.
	Points int `json:"points"`
}

// Bandwidth returns Upper-Lower.
func (b Band) Bandwidth() float64 { return b.Upper - b.Lower }

// MeanSquare returns Value*Bandwidth, the band's share of the mean square.
func (b Band) MeanSquare() float64 { return b.Value * b.Bandwidth() }

// Result is a fractional-octave spectrum ordered by center frequency.
type Result struct {
	Fraction int           `json:"fraction"`
	Bands    []Band        `json:"bands"`
	Unit     string        `json:"unit"`
	Channel  string        `json:"channel,omitempty"`
	Kind     spectrum.Kind `json:"kind"`
}

// Centers returns the band centers 1000·2^(n/fraction) that lie in
// [fmin, fmax], ascending.
func Centers(fraction int, fmin, fmax float64) ([]float64, error) {
	if err := validate(fraction, fmin, fmax); err != nil {
		return nil, err
	}

	n := float64(fraction)
	first := int(math.Ceil(n*math.Log2(fmin/ReferenceFrequency) - centerTolerance))
	last := int(math.Floor(n*math.Log2(fmax/ReferenceFrequency) + centerTolerance))

	out := make([]float64, 0, max(0, last-first+1))
	for i := first; i <= last; i++ {
		out = append(out, ReferenceFrequency*math.Pow(2, float64(i)/n))
	}

	return out, nil
}

// Edges returns the lower and upper edge of the band centered at center.
func Edges(center float64, fraction int) (lower, upper float64) {
	half := math.Pow(2, 1/(2*float64(fraction)))
	return center / half, center * half
}

// Convert integrates psd into 1/fraction-octave bands with centers in
// [fmin, fmax].
//
// Each band integrates the piecewise-linear PSD between its edges, clipped to
// the positive part of the PSD's span, and divides by the full bandwidth.
// Bands without any PSD bin strictly inside their edges are omitted.
// Frequencies at or below 0 Hz never contribute.
//
// The PSD is interpolated at the band edges, so a band also collects the
// partial bin intervals at both ends. Summing only the bins strictly inside
// the edges gives slightly lower band values.
func Convert(psd spectrum.PSD, fraction int, fmin, fmax float64) (Result, error) {
	centers, err := Centers(fraction, fmin, fmax)
	if err != nil {
		return Result{}, err
	}

	if len(psd.Frequencies) != len(psd.Values) {
		return Result{}, fmt.Errorf("%w: PSD has %d frequencies and %d values",
			core.ErrInvalidParameter, len(psd.Frequencies), len(psd.Values))
	}

	first := sort.Search(len(psd.Frequencies), func(i int) bool { return psd.Frequencies[i] > 0 })
	if len(psd.Frequencies)-first < 2 {
		return Result{}, fmt.Errorf("%w: PSD has %d positive frequencies", core.ErrInsufficientData, len(psd.Frequencies)-first)
	}

	lo := psd.Frequencies[first]
	hi := psd.Frequencies[len(psd.Frequencies)-1]

	res := Result{
		Fraction: fraction,
		Unit:     psd.Unit,
		Channel:  psd.Channel,
		Kind:     psd.Kind,
	}

	for _, fc := range centers {
		lower, upper := Edges(fc, fraction)

		points := psd.PointsBetween(math.Max(lower, 0), upper)
		if points == 0 {
			continue
		}

		a, b := math.Max(lower, lo), math.Min(upper, hi)
		if !(a < b) {
			continue
		}

		energy, err := psd.Energy(a, b)
		if err != nil {
			return Result{}, fmt.Errorf("band %.4g Hz: %w", fc, err)
		}

		res.Bands = append(res.Bands, Band{
			Center: fc,
			Lower:  lower,
			Upper:  upper,
			Value:  energy / (upper - lower),
			Points: points,
		})
	}

	if len(res.Bands) == 0 {
		return Result{}, fmt.Errorf("%w: no 1/%d-octave band in [%g, %g] Hz has PSD bins inside (PSD %g..%g Hz, df %g Hz)",
			core.ErrInsufficientData, fraction, fmin, fmax, lo, hi, psd.ActualDF)
	}

	return res, nil
}

// Span returns the lower edge of the first band and the upper edge of the
// last one.
func (r Result) Span() (lo, hi float64) {
	if len(r.Bands) == 0 {
		return 0, 0
	}
	return r.Bands[0].Lower, r.Bands[len(r.Bands)-1].Upper
}

// Energy integrates the band densities, taken as constant across each band,
// over [lo, hi].
func (r Result) Energy(lo, hi float64) (float64, error) {
	if !(lo < hi) || math.IsNaN(lo) || math.IsNaN(hi) {
		return 0, fmt.Errorf("%w: frequency range [%g, %g] is empty", core.ErrInvalidParameter, lo, hi)
	}

	sum := 0.0
	covered := false
	for _, b := range r.Bands {
		overlap := math.Min(hi, b.Upper) - math.Max(lo, b.Lower)
		if overlap <= 0 {
			continue
		}
		sum += b.Value * overlap
		covered = true
	}

	if !covered {
		flo, fhi := r.Span()
		return 0, fmt.Errorf("%w: range [%g, %g] Hz misses every band (bands span [%g, %g] Hz)",
			core.ErrInsufficientData, lo, hi, flo, fhi)
	}

	return sum, nil
}

// Centers returns the center frequency of each band.
func (r Result) Centers() []float64 {
	out := make([]float64, len(r.Bands))
	for i, b := range r.Bands {
		out[i] = b.Center
	}
	return out
}

// Values returns the density of each band.
func (r Result) Values() []float64 {
	out := make([]float64, len(r.Bands))
	for i, b := range r.Bands {
		out[i] = b.Value
	}
	return out
}

func validate(fraction int, fmin, fmax float64) error {
	if fraction < 1 {
		return fmt.Errorf("%w: octave fraction must be >= 1: %d", core.ErrInvalidParameter, fraction)
	}

	if !(fmin > 0) || !core.IsFinite(fmin) || !core.IsFinite(fmax) || !(fmin < fmax) {
		return fmt.Errorf("%w: need 0 < fmin < fmax: [%g, %g]", core.ErrInvalidParameter, fmin, fmax)
	}

	return nil
}
