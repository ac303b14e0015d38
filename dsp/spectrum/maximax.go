package spectrum

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/signal"
	"github.com/cwbudde/algo-psd/dsp/window"
)

// MaximaxParams configures a maximax envelope.
//
// WindowOverlapPercent is the overlap between consecutive time windows.
// SegmentOverlapPercent is the overlap of Welch segments inside each window;
// the two are unrelated.
type MaximaxParams struct {
	WindowDuration        float64     `json:"windowDuration" yaml:"windowDuration"`
	WindowOverlapPercent  float64     `json:"windowOverlapPercent" yaml:"windowOverlap"`
	DF                    float64     `json:"df" yaml:"df"`
	EfficientFFT          bool        `json:"efficientFft" yaml:"efficientFFT"`
	SegmentOverlapPercent float64     `json:"segmentOverlapPercent" yaml:"segmentOverlap"`
	Taper                 window.Type `json:"taper" yaml:"taper"`
}

// Validate checks the parameters that do not depend on a signal.
func (p MaximaxParams) Validate() error {
	if p.WindowDuration <= 0 || !core.IsFinite(p.WindowDuration) {
		return fmt.Errorf("%w: window duration must be > 0: %f", core.ErrInvalidParameter, p.WindowDuration)
	}

	if !core.ValidOverlap(p.WindowOverlapPercent) {
		return fmt.Errorf("%w: window overlap must be in [0, 100): %f", core.ErrInvalidParameter, p.WindowOverlapPercent)
	}

	if !core.ValidOverlap(p.SegmentOverlapPercent) {
		return fmt.Errorf("%w: segment overlap must be in [0, 100): %f", core.ErrInvalidParameter, p.SegmentOverlapPercent)
	}

	if p.DF <= 0 || !core.IsFinite(p.DF) {
		return fmt.Errorf("%w: frequency resolution must be > 0: %f", core.ErrInvalidParameter, p.DF)
	}

	if window.Info(p.Taper).Name == "" {
		return fmt.Errorf("%w: unknown taper %d", core.ErrInvalidParameter, int(p.Taper))
	}

	return nil
}

// TimeWindow is one maximax time window. Samples [StartSample, EndSample)
// of the signal belong to it.
type TimeWindow struct {
	Index       int       `json:"index"`
	StartSample int       `json:"startSample"`
	EndSample   int       `json:"endSample"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// layout is the window arrangement derived from a signal and parameters.
type layout struct {
	plan    Plan
	samples int
	hop     int
	count   int
}

func newLayout(sig signal.Full, p MaximaxParams) (layout, error) {
	if err := p.Validate(); err != nil {
		return layout{}, err
	}

	fs := sig.SampleRate()

	ws := math.Round(p.WindowDuration * fs)
	if ws < 2 || ws > maxSegmentLength {
		return layout{}, fmt.Errorf("%w: window of %g s at %g Hz holds %g samples",
			core.ErrInvalidParameter, p.WindowDuration, fs, ws)
	}

	windowSamples := int(ws)

	plan, err := NewPlan(fs, p.DF, p.EfficientFFT)
	if err != nil {
		return layout{}, err
	}

	// Checked before the signal length: the configuration is wrong no matter
	// how much data there is.
	if plan.SegmentLength > windowSamples {
		return layout{}, fmt.Errorf("%w: resolution %g Hz needs %d-sample segments but a %g s window holds %d samples",
			core.ErrInvalidParameter, p.DF, plan.SegmentLength, p.WindowDuration, windowSamples)
	}

	if sig.Len() < windowSamples {
		return layout{}, fmt.Errorf("%w: signal has %d samples, one %g s window needs %d",
			core.ErrInsufficientData, sig.Len(), p.WindowDuration, windowSamples)
	}

	hop := core.HopSize(windowSamples, p.WindowOverlapPercent)

	return layout{
		plan:    plan,
		samples: windowSamples,
		hop:     hop,
		count:   segmentCount(sig.Len(), windowSamples, hop),
	}, nil
}

// MaximaxWindows returns the time windows a maximax estimate of sig would
// fold. A trailing partial window is not included.
func MaximaxWindows(sig signal.Full, p MaximaxParams) ([]TimeWindow, error) {
	l, err := newLayout(sig, p)
	if err != nil {
		return nil, err
	}

	out := make([]TimeWindow, 0, l.count)
	for start := 0; start+l.samples <= sig.Len(); start += l.hop {
		out = append(out, TimeWindow{
			Index:       len(out),
			StartSample: start,
			EndSample:   start + l.samples,
			Start:       sig.TimeAt(start),
			End:         sig.TimeAt(start + l.samples - 1),
		})
	}

	return out, nil
}

// Maximax estimates the maximax PSD envelope of sig.
//
// The signal is cut into time windows of WindowDuration seconds advancing by
// the window hop. Each window gets its own Welch average using one shared
// plan and taper, and the result holds the elementwise maximum across
// windows. When the segment hop does not land on the end of a window, one more
// segment ending at the window's last sample is averaged in, so every sample
// of every window reaches at least one segment. Samples after the last
// complete window are ignored.
func Maximax(sig signal.Full, p MaximaxParams, opts ...Option) (PSD, error) {
	l, err := newLayout(sig, p)
	if err != nil {
		return PSD{}, err
	}

	est, err := NewEstimator(l.plan, p.Taper, opts...)
	if err != nil {
		return PSD{}, err
	}

	samples := sig.Samples()
	bins := l.plan.Bins()
	envelope := make([]float64, bins)
	current := make([]float64, bins)

	windows, segments := 0, 0
	for start := 0; start+l.samples <= len(samples); start += l.hop {
		n, err := est.estimateInto(current, samples[start:start+l.samples], p.SegmentOverlapPercent, true)
		if err != nil {
			return PSD{}, fmt.Errorf("window %d: %w", windows, err)
		}

		if windows == 0 {
			copy(envelope, current)
		} else {
			for k, v := range current {
				if v > envelope[k] {
					envelope[k] = v
				}
			}
		}

		segments = n
		windows++
	}

	if windows != l.count {
		return PSD{}, fmt.Errorf("maximax folded %d windows, expected %d", windows, l.count)
	}

	return PSD{
		Frequencies:          l.plan.Frequencies(),
		Values:               envelope,
		Unit:                 sig.Unit(),
		Channel:              sig.Meta().Channel,
		SampleRate:           l.plan.SampleRate,
		SegmentLength:        l.plan.SegmentLength,
		ActualDF:             l.plan.ActualDF,
		OverlapPercent:       p.SegmentOverlapPercent,
		Taper:                p.Taper,
		Detrend:              est.cfg.detrend,
		Kind:                 KindMaximax,
		Segments:             segments,
		Windows:              windows,
		WindowDuration:       p.WindowDuration,
		WindowOverlapPercent: p.WindowOverlapPercent,
	}, nil
}
