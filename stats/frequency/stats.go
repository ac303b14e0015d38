package frequency

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/spectrum"
)

// DefaultRolloff is the mean-square fraction used for [Stats.Rolloff].
const DefaultRolloff = 0.95

// Stats holds shape descriptors of a density PSD. Frequencies are in Hz.
//
// The spectral moments m_k = ∫ f^k G(f) df are computed with the trapezoidal
// rule over the PSD's bins. For a stationary Gaussian process RMSFrequency is
// the expected rate of zero up-crossings and PeakRate the expected rate of
// maxima.
type Stats struct {
	MeanSquare    float64 `json:"meanSquare"` // m0
	RMS           float64 `json:"rms"`
	PeakFrequency float64 `json:"peakFrequency"`
	PeakDensity   float64 `json:"peakDensity"`
	Centroid      float64 `json:"centroid"`     // m1/m0
	Spread        float64 `json:"spread"`       // standard deviation around the centroid
	RMSFrequency  float64 `json:"rmsFrequency"` // sqrt(m2/m0)
	PeakRate      float64 `json:"peakRate"`     // sqrt(m4/m2)
	Irregularity  float64 `json:"irregularity"` // m2/sqrt(m0*m4), 1 for a pure tone
	Flatness      float64 `json:"flatness"`     // 0..1, 1 for white noise
	Rolloff       float64 `json:"rolloff"`      // below which DefaultRolloff of m0 lies
	Bandwidth     float64 `json:"bandwidth"`    // half-power width around the peak
}

// Calculate computes all descriptors of psd.
func Calculate(psd spectrum.PSD) (Stats, error) {
	if err := check(psd); err != nil {
		return Stats{}, err
	}

	f, g := psd.Frequencies, psd.Values
	m0 := Moment(psd, 0)
	if m0 <= 0 {
		return Stats{}, fmt.Errorf("%w: PSD has no power", core.ErrInsufficientData)
	}

	m1, m2, m4 := Moment(psd, 1), Moment(psd, 2), Moment(psd, 4)
	centroid := m1 / m0

	peak := floats.MaxIdx(g)
	s := Stats{
		MeanSquare:    m0,
		RMS:           math.Sqrt(m0),
		PeakFrequency: f[peak],
		PeakDensity:   g[peak],
		Centroid:      centroid,
		Spread:        math.Sqrt(math.Max(m2/m0-centroid*centroid, 0)),
		RMSFrequency:  math.Sqrt(m2 / m0),
		Flatness:      flatness(g),
		Rolloff:       rolloff(f, g, DefaultRolloff),
		Bandwidth:     bandwidth(f, g, peak),
	}

	if m2 > 0 {
		s.PeakRate = math.Sqrt(m4 / m2)
	}
	if m4 > 0 {
		s.Irregularity = m2 / math.Sqrt(m0*m4)
	}

	return s, nil
}

// Moment returns the k-th spectral moment ∫ f^k G(f) df.
func Moment(psd spectrum.PSD, k int) float64 {
	if len(psd.Frequencies) < 2 {
		return 0
	}

	weighted := make([]float64, len(psd.Values))
	for i, v := range psd.Values {
		weighted[i] = v * math.Pow(psd.Frequencies[i], float64(k))
	}

	return integrate.Trapezoidal(psd.Frequencies, weighted)
}

// Rolloff returns the frequency below which fraction (0, 1] of the mean
// square lies.
func Rolloff(psd spectrum.PSD, fraction float64) (float64, error) {
	if err := check(psd); err != nil {
		return 0, err
	}

	if !(fraction > 0 && fraction <= 1) {
		return 0, fmt.Errorf("%w: rolloff fraction must be in (0, 1]: %f", core.ErrInvalidParameter, fraction)
	}

	return rolloff(psd.Frequencies, psd.Values, fraction), nil
}

// Flatness returns the spectral flatness (geometric over arithmetic mean)
// of the bins above DC.
func Flatness(psd spectrum.PSD) float64 {
	return flatness(psd.Values)
}

func check(psd spectrum.PSD) error {
	if len(psd.Frequencies) < 2 || len(psd.Frequencies) != len(psd.Values) {
		return fmt.Errorf("%w: PSD has %d bins", core.ErrInsufficientData, len(psd.Values))
	}
	return nil
}

func flatness(g []float64) float64 {
	if len(g) < 2 {
		return 0
	}

	sumLin, sumLog := 0.0, 0.0
	for _, v := range g[1:] {
		if v <= 0 {
			return 0
		}
		sumLin += v
		sumLog += math.Log(v)
	}

	n := float64(len(g) - 1)
	return math.Exp(sumLog/n) / (sumLin / n)
}

// rolloff walks the cumulative trapezoid integral and interpolates inside
// the segment where it crosses the threshold.
func rolloff(f, g []float64, fraction float64) float64 {
	total := integrate.Trapezoidal(f, g)
	if total <= 0 {
		return f[0]
	}

	threshold := fraction * total
	cum := 0.0
	for i := 1; i < len(f); i++ {
		piece := (f[i] - f[i-1]) * (g[i] + g[i-1]) / 2
		if cum+piece >= threshold && piece > 0 {
			t := (threshold - cum) / piece
			return f[i-1] + t*(f[i]-f[i-1])
		}
		cum += piece
	}

	return f[len(f)-1]
}

// bandwidth returns the width between the half-power crossings on both
// sides of the peak, linearly interpolated between bins.
func bandwidth(f, g []float64, peak int) float64 {
	if g[peak] <= 0 {
		return 0
	}

	threshold := g[peak] / 2

	lower := f[0]
	for i := peak; i >= 1; i-- {
		if g[i-1] <= threshold {
			lower = crossing(f[i-1], f[i], g[i-1], g[i], threshold)
			break
		}
	}

	upper := f[len(f)-1]
	for i := peak; i < len(f)-1; i++ {
		if g[i+1] <= threshold {
			upper = crossing(f[i], f[i+1], g[i], g[i+1], threshold)
			break
		}
	}

	return math.Max(upper-lower, 0)
}

func crossing(f0, f1, g0, g1, threshold float64) float64 {
	if g1 == g0 {
		return (f0 + f1) / 2
	}
	t := (threshold - g0) / (g1 - g0)
	return f0 + t*(f1-f0)
}
