package window

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-psd/dsp/core"
)

const (
	// responsePadding is the zero-padding factor of the sampled frequency
	// response: one response point every 1/responsePadding bins.
	responsePadding = 32
	// maxResponseLength caps the padded transform for long tapers.
	maxResponseLength = 1 << 22
)

// Analysis describes a taper as seen by a density PSD estimator.
type Analysis struct {
	Length int
	// CoherentGain is sum(w)/N, the amplitude response to a bin-centred tone.
	CoherentGain float64
	// PowerGain is sum(w²)/N. Density scaling divides by it.
	PowerGain float64
	// ENBW is the equivalent noise bandwidth in bins.
	ENBW float64
	// Bandwidth3dB is the two-sided half-power main lobe width in bins.
	Bandwidth3dB float64
	// FirstMinimumBins is the distance of the first null from DC in bins.
	FirstMinimumBins float64
	// HighestSidelobedB is the largest response past the first null, relative
	// to DC.
	HighestSidelobedB float64
	// ScallopLossdB is the power response half a bin off centre.
	ScallopLossdB float64
	// Overlap50 is the correlation of two segments overlapping by 50%. The
	// lower it is, the more independent the averaged periodograms.
	Overlap50 float64
}

// Analyze measures coeffs from a zero-padded frequency response. Tapers that
// sum to zero yield an Analysis with only Length set.
func Analyze(coeffs []float64) Analysis {
	n := len(coeffs)
	if n == 0 {
		return Analysis{}
	}

	enbw, err := EquivalentNoiseBandwidth(coeffs)
	if err != nil {
		return Analysis{Length: n}
	}
	power, err := PowerGain(coeffs)
	if err != nil {
		return Analysis{Length: n}
	}

	resp, pad := response(coeffs)
	first := firstMinimum(resp)

	return Analysis{
		Length:            n,
		CoherentGain:      floats.Sum(coeffs) / float64(n),
		PowerGain:         power,
		ENBW:              enbw,
		Bandwidth3dB:      2 * halfPower(resp) / float64(pad),
		FirstMinimumBins:  float64(first) / float64(pad),
		HighestSidelobedB: core.LinearPowerToDB(floats.Max(resp[first:])),
		ScallopLossdB:     core.LinearPowerToDB(resp[pad/2]),
		Overlap50:         OverlapCorrelation(coeffs, 50),
	}
}

// OverlapCorrelation returns sum(w[i]·w[i+hop]) / sum(w²) for the hop that
// overlapPercent implies. It is 1 at full overlap and 0 without overlap.
func OverlapCorrelation(coeffs []float64, overlapPercent float64) float64 {
	energy := SumSquares(coeffs)
	if energy == 0 || !core.ValidOverlap(overlapPercent) {
		return 0
	}

	hop := core.HopSize(len(coeffs), overlapPercent)
	if hop >= len(coeffs) {
		return 0
	}

	return floats.Dot(coeffs[:len(coeffs)-hop], coeffs[hop:]) / energy
}

// response returns |W(f)|²/|W(0)|² from DC to Nyquist of the padded
// transform, and the padding used.
func response(coeffs []float64) ([]float64, int) {
	pad := responsePadding
	for pad > 2 && len(coeffs)*pad > maxResponseLength {
		pad /= 2
	}

	padded := make([]float64, len(coeffs)*pad)
	copy(padded, coeffs)
	bins := fourier.NewFFT(len(padded)).Coefficients(nil, padded)

	dc := cmplx.Abs(bins[0])
	out := make([]float64, len(bins))
	for i, c := range bins {
		r := cmplx.Abs(c) / dc
		out[i] = r * r
	}

	return out, pad
}

// halfPower returns the fractional response index where the main lobe
// falls to 0.5.
func halfPower(resp []float64) float64 {
	for i := 1; i < len(resp); i++ {
		if resp[i] < 0.5 {
			return float64(i-1) + (resp[i-1]-0.5)/(resp[i-1]-resp[i])
		}
	}
	return float64(len(resp) - 1)
}

// firstMinimum returns the index of the first local minimum once the
// response has dropped below a tenth of DC, which skips flat-top plateaus.
func firstMinimum(resp []float64) int {
	for i := 1; i+1 < len(resp); i++ {
		if resp[i] < 0.1 && resp[i+1] > resp[i] {
			return i
		}
	}
	return len(resp) - 1
}
