package spectrum

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/signal"
	"github.com/cwbudde/algo-psd/dsp/window"
)

// rateTolerance is the relative difference at which two sample rates are
// considered distinct.
const rateTolerance = 1e-9

// Estimator computes Welch averages for one plan and taper. It owns the
// taper coefficients, the FFT plan and scratch buffers, so repeated calls do
// not allocate per segment. An Estimator is not safe for concurrent use.
type Estimator struct {
	plan  Plan
	taper window.Type
	cfg   config

	coeffs []float64
	// scale converts |X|^2 to a two-sided density: 1/(fs*sum(w^2)).
	scale float64
	fft   *algofft.Plan[complex128]

	seg   []float64
	frame []complex128
	spec  []complex128
	power []float64
}

// NewEstimator prepares a reusable Welch estimator.
func NewEstimator(plan Plan, taper window.Type, opts ...Option) (*Estimator, error) {
	if err := plan.validate(); err != nil {
		return nil, err
	}

	if window.Info(taper).Name == "" {
		return nil, fmt.Errorf("%w: unknown taper %d", core.ErrInvalidParameter, int(taper))
	}

	cfg := applyOptions(opts)
	switch cfg.detrend {
	case DetrendConstant, DetrendNone, DetrendLinear:
	default:
		return nil, fmt.Errorf("%w: unknown detrend %d", core.ErrInvalidParameter, int(cfg.detrend))
	}

	n := plan.SegmentLength
	coeffs, err := taperCoefficients(taper, n, cfg)
	if err != nil {
		return nil, err
	}

	energy := window.SumSquares(coeffs)
	if energy == 0 {
		return nil, fmt.Errorf("%w: %s taper of length %d has zero energy", core.ErrInvalidParameter, taper, n)
	}

	fft, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan for %d samples: %w", n, err)
	}

	return &Estimator{
		plan:   plan,
		taper:  taper,
		cfg:    cfg,
		coeffs: coeffs,
		scale:  1 / (plan.SampleRate * energy),
		fft:    fft,
		seg:    make([]float64, n),
		frame:  make([]complex128, n),
		spec:   make([]complex128, n),
		power:  make([]float64, plan.Bins()),
	}, nil
}

// Plan returns the plan the estimator was built for.
func (e *Estimator) Plan() Plan { return e.plan }

// Taper returns the taper applied to each segment.
func (e *Estimator) Taper() window.Type { return e.taper }

// Segments returns how many segments a signal of n samples yields at the
// given overlap. It is zero when n is shorter than one segment.
func (e *Estimator) Segments(n int, overlapPercent float64) int {
	return segmentCount(n, e.plan.SegmentLength, core.HopSize(e.plan.SegmentLength, overlapPercent))
}

// EstimateInto writes the one-sided Welch average of samples into dst, which
// must hold Plan().Bins() values, and returns the number of averaged
// segments. samples is not modified.
func (e *Estimator) EstimateInto(dst, samples []float64, overlapPercent float64) (int, error) {
	return e.estimateInto(dst, samples, overlapPercent, false)
}

// estimateInto is EstimateInto with an optional extra segment ending at the
// last sample, used when the hop grid stops short of it.
func (e *Estimator) estimateInto(dst, samples []float64, overlapPercent float64, coverEnd bool) (int, error) {
	if !core.ValidOverlap(overlapPercent) {
		return 0, fmt.Errorf("%w: overlap must be in [0, 100): %f", core.ErrInvalidParameter, overlapPercent)
	}

	if len(dst) != e.plan.Bins() {
		return 0, fmt.Errorf("%w: destination has %d bins, plan needs %d",
			core.ErrInvalidParameter, len(dst), e.plan.Bins())
	}

	n := e.plan.SegmentLength
	if len(samples) < n {
		return 0, fmt.Errorf("%w: segment length %d exceeds signal length %d",
			core.ErrInsufficientData, n, len(samples))
	}

	hop := core.HopSize(n, overlapPercent)
	count := segmentCount(len(samples), n, hop)

	clear(dst)
	for s := range count {
		if err := e.accumulate(dst, samples[s*hop:s*hop+n]); err != nil {
			return 0, err
		}
	}

	if coverEnd && (len(samples)-n)%hop != 0 {
		if err := e.accumulate(dst, samples[len(samples)-n:]); err != nil {
			return 0, err
		}
		count++
	}

	vecmath.ScaleBlockInPlace(dst, e.scale/float64(count))
	foldOneSided(dst, n)

	return count, nil
}

// Estimate runs the estimator on a full-resolution signal.
func (e *Estimator) Estimate(sig signal.Full, overlapPercent float64) (PSD, error) {
	if err := checkRate(sig.SampleRate(), e.plan.SampleRate); err != nil {
		return PSD{}, err
	}

	values := make([]float64, e.plan.Bins())
	count, err := e.EstimateInto(values, sig.Samples(), overlapPercent)
	if err != nil {
		return PSD{}, err
	}

	return PSD{
		Frequencies:    e.plan.Frequencies(),
		Values:         values,
		Unit:           sig.Unit(),
		Channel:        sig.Meta().Channel,
		SampleRate:     e.plan.SampleRate,
		SegmentLength:  e.plan.SegmentLength,
		ActualDF:       e.plan.ActualDF,
		OverlapPercent: overlapPercent,
		Taper:          e.taper,
		Detrend:        e.cfg.detrend,
		Kind:           KindAveraged,
		Segments:       count,
	}, nil
}

// Welch estimates the one-sided PSD of sig by averaging tapered periodograms
// of overlapping segments.
//
// Every segment is tapered with the periodic form of taper and the density is
// normalised by the taper energy, so the integral of the result equals the
// signal variance regardless of the taper. Segments that would run past the
// end of the signal are not used.
func Welch(sig signal.Full, plan Plan, overlapPercent float64, taper window.Type, opts ...Option) (PSD, error) {
	if err := plan.validate(); err != nil {
		return PSD{}, err
	}

	if err := checkRate(sig.SampleRate(), plan.SampleRate); err != nil {
		return PSD{}, err
	}

	if !core.ValidOverlap(overlapPercent) {
		return PSD{}, fmt.Errorf("%w: overlap must be in [0, 100): %f", core.ErrInvalidParameter, overlapPercent)
	}

	if plan.SegmentLength > sig.Len() {
		return PSD{}, fmt.Errorf("%w: segment length %d exceeds signal length %d",
			core.ErrInsufficientData, plan.SegmentLength, sig.Len())
	}

	est, err := NewEstimator(plan, taper, opts...)
	if err != nil {
		return PSD{}, err
	}

	return est.Estimate(sig, overlapPercent)
}

// accumulate adds the raw periodogram of one detrended, tapered segment to dst.
func (e *Estimator) accumulate(dst, segment []float64) error {
	copy(e.seg, segment)

	switch e.cfg.detrend {
	case DetrendConstant:
		removeMean(e.seg)
	case DetrendLinear:
		removeLine(e.seg)
	}

	if err := window.ApplyCoefficients(e.seg, e.seg, e.coeffs); err != nil {
		return err
	}
	for i, v := range e.seg {
		e.frame[i] = complex(v, 0)
	}

	if err := e.fft.Forward(e.spec, e.frame); err != nil {
		return fmt.Errorf("spectrum: forward FFT failed: %w", err)
	}

	PowerInto(e.power, e.spec[:len(e.power)])
	vecmath.AddBlockInPlace(dst, e.power)
	return nil
}

func segmentCount(n, length, hop int) int {
	if n < length {
		return 0
	}
	return (n-length)/hop + 1
}

// foldOneSided doubles every bin except DC and, for even lengths, Nyquist.
func foldOneSided(psd []float64, n int) {
	last := len(psd)
	if n%2 == 0 {
		last--
	}

	for k := 1; k < last; k++ {
		psd[k] *= 2
	}
}

func checkRate(got, want float64) error {
	if !core.NearlyEqual(got, want, rateTolerance) {
		return fmt.Errorf("%w: signal is sampled at %g Hz, plan at %g Hz", core.ErrRateMismatch, got, want)
	}
	return nil
}
