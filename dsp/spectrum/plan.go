package spectrum

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-psd/dsp/core"
)

// maxSegmentLength bounds the transform size a plan may request.
const maxSegmentLength = 1 << 28

// Plan fixes the transform segment length for a desired frequency
// resolution. The same plan serves a Welch estimate and every time window
// of a maximax estimate.
type Plan struct {
	SampleRate    float64 `json:"sampleRate"`
	DesiredDF     float64 `json:"desiredDf"`
	EfficientFFT  bool    `json:"efficientFft"`
	SegmentLength int     `json:"segmentLength"`
	// ActualDF is SampleRate/SegmentLength, the bin spacing really obtained.
	ActualDF float64 `json:"actualDf"`
}

// NewPlan converts a desired resolution into a segment length.
//
// The naive length round(sampleRate/desiredDF) is clamped to at least 2.
// With efficientFFT it is raised to the next power of two, which makes the
// actual resolution equal to or finer than requested.
func NewPlan(sampleRate, desiredDF float64, efficientFFT bool) (Plan, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return Plan{}, fmt.Errorf("%w: sample rate must be > 0: %f", core.ErrInvalidParameter, sampleRate)
	}

	if desiredDF <= 0 || !core.IsFinite(desiredDF) {
		return Plan{}, fmt.Errorf("%w: frequency resolution must be > 0: %f", core.ErrInvalidParameter, desiredDF)
	}

	ratio := math.Round(sampleRate / desiredDF)
	if ratio > maxSegmentLength {
		return Plan{}, fmt.Errorf("%w: resolution %g Hz at %g Hz needs %g-sample segments (max %d)",
			core.ErrInvalidParameter, desiredDF, sampleRate, ratio, maxSegmentLength)
	}

	n := int(ratio)
	if n < 2 {
		n = 2
	}

	if efficientFFT {
		n = core.NextPowerOfTwo(n)
	}

	return Plan{
		SampleRate:    sampleRate,
		DesiredDF:     desiredDF,
		EfficientFFT:  efficientFFT,
		SegmentLength: n,
		ActualDF:      sampleRate / float64(n),
	}, nil
}

// Bins returns the number of one-sided bins, 0 through Nyquist.
func (p Plan) Bins() int {
	return p.SegmentLength/2 + 1
}

// Frequencies returns the bin frequencies k*ActualDF for k in [0, Bins).
func (p Plan) Frequencies() []float64 {
	out := make([]float64, p.Bins())
	for k := range out {
		out[k] = float64(k) * p.SampleRate / float64(p.SegmentLength)
	}

	return out
}

// SegmentDuration returns the time spanned by one segment in seconds.
func (p Plan) SegmentDuration() float64 {
	return float64(p.SegmentLength) / p.SampleRate
}

func (p Plan) validate() error {
	if p.SegmentLength < 2 || p.SampleRate <= 0 {
		return fmt.Errorf("%w: plan not initialized (segment length %d, sample rate %f); use NewPlan",
			core.ErrInvalidParameter, p.SegmentLength, p.SampleRate)
	}

	if p.EfficientFFT && !core.IsPowerOfTwo(p.SegmentLength) {
		return fmt.Errorf("%w: efficient plan with segment length %d", core.ErrInvalidParameter, p.SegmentLength)
	}

	return nil
}

// String formats the plan as "L=1024 df=0.977Hz".
func (p Plan) String() string {
	return fmt.Sprintf("L=%d df=%.3gHz", p.SegmentLength, p.ActualDF)
}
