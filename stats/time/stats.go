package time

import (
	"math"

	"github.com/cwbudde/algo-psd/dsp/signal"
)

// Stats holds time-domain statistics of a vibration record. Variance is the
// population variance, the quantity a density PSD integrates to.
type Stats struct {
	Samples       int     `json:"samples"`
	Mean          float64 `json:"mean"`
	RMS           float64 `json:"rms"`
	StdDev        float64 `json:"stdDev"`
	Variance      float64 `json:"variance"`
	Max           float64 `json:"max"`
	MaxPos        int     `json:"maxPos"`
	Min           float64 `json:"min"`
	MinPos        int     `json:"minPos"`
	Peak          float64 `json:"peak"` // max(|max|, |min|)
	CrestFactor   float64 `json:"crestFactor"`
	ZeroCrossings int     `json:"zeroCrossings"`
	Skewness      float64 `json:"skewness"`
	Kurtosis      float64 `json:"kurtosis"` // excess
}

// Of computes the statistics of a full-resolution signal.
func Of(sig signal.Full) Stats {
	return Calculate(sig.Samples())
}

// Calculate computes all statistics in a single pass. Moments use Welford's
// online update, which stays accurate for long records with a DC offset.
func Calculate(samples []float64) Stats {
	var acc StreamingStats
	acc.Update(samples)
	return acc.Result()
}

// RMS returns the root-mean-square of the samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range samples {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(samples)))
}

// Mean returns the average of the samples using Kahan summation.
func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum, c float64
	for _, x := range samples {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum / float64(len(samples))
}

// Peak returns the largest absolute sample.
func Peak(samples []float64) float64 {
	peak := 0.0
	for _, x := range samples {
		peak = math.Max(peak, math.Abs(x))
	}

	return peak
}

// Moments returns the mean, population variance, skewness and excess
// kurtosis of the samples.
func Moments(samples []float64) (mean, variance, skewness, kurtosis float64) {
	s := Calculate(samples)
	return s.Mean, s.Variance, s.Skewness, s.Kurtosis
}

// StreamingStats accumulates statistics over consecutive blocks of one
// record, e.g. chunks read from a store. Feeding the blocks in order gives
// the same result as [Calculate] on the concatenation.
type StreamingStats struct {
	n             int
	mean          float64
	m2            float64
	m3            float64
	m4            float64
	sumSq         float64
	maxVal        float64
	maxPos        int
	minVal        float64
	minPos        int
	zeroCrossings int
	last          float64
}

// NewStreamingStats creates an empty accumulator.
func NewStreamingStats() *StreamingStats {
	return &StreamingStats{}
}

// Len returns the number of samples seen so far.
func (s *StreamingStats) Len() int { return s.n }

// Update adds a block of samples.
func (s *StreamingStats) Update(samples []float64) {
	for _, x := range samples {
		if s.n == 0 {
			s.maxVal, s.minVal = x, x
		} else {
			if x > s.maxVal {
				s.maxVal, s.maxPos = x, s.n
			}
			if x < s.minVal {
				s.minVal, s.minPos = x, s.n
			}
			if s.last*x < 0 {
				s.zeroCrossings++
			}
		}

		s.n++
		ni := float64(s.n)

		delta := x - s.mean
		deltaN := delta / ni
		deltaN2 := deltaN * deltaN
		term1 := delta * deltaN * float64(s.n-1)

		// M4 before M3 before M2.
		s.m4 += term1*deltaN2*(ni*ni-3*ni+3) + 6*deltaN2*s.m2 - 4*deltaN*s.m3
		s.m3 += term1*deltaN*(ni-2) - 3*deltaN*s.m2
		s.m2 += term1
		s.mean += deltaN

		s.sumSq += x * x
		s.last = x
	}
}

// Result returns the statistics of everything seen so far.
func (s *StreamingStats) Result() Stats {
	if s.n == 0 {
		return Stats{}
	}

	nf := float64(s.n)
	rms := math.Sqrt(s.sumSq / nf)
	peak := math.Max(math.Abs(s.maxVal), math.Abs(s.minVal))
	variance := s.m2 / nf

	var crest float64
	if rms > 0 {
		crest = peak / rms
	}

	var skewness, kurtosis float64
	if variance > 0 {
		skewness = (s.m3 / nf) / (variance * math.Sqrt(variance))
		kurtosis = (s.m4/nf)/(variance*variance) - 3
	}

	return Stats{
		Samples:       s.n,
		Mean:          s.mean,
		RMS:           rms,
		StdDev:        math.Sqrt(variance),
		Variance:      variance,
		Max:           s.maxVal,
		MaxPos:        s.maxPos,
		Min:           s.minVal,
		MinPos:        s.minPos,
		Peak:          peak,
		CrestFactor:   crest,
		ZeroCrossings: s.zeroCrossings,
		Skewness:      skewness,
		Kurtosis:      kurtosis,
	}
}

// Reset clears the accumulator for reuse.
func (s *StreamingStats) Reset() {
	*s = StreamingStats{}
}
