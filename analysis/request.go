package analysis

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-psd/channel"
	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/signal"
	"github.com/cwbudde/algo-psd/dsp/spectrum"
	"github.com/cwbudde/algo-psd/dsp/window"
)

// Request describes one calculation on one channel.
//
// FMin and FMax bound the level integration and the octave band centers.
// When both are zero the full span of the PSD is used.
type Request struct {
	Channel channel.Ref   `json:"channel"`
	Event   *signal.Event `json:"event,omitempty"`
	Kind    spectrum.Kind `json:"kind"`

	DF             float64          `json:"df"`
	EfficientFFT   bool             `json:"efficientFft"`
	OverlapPercent float64          `json:"overlapPercent"`
	Taper          window.Type      `json:"taper"`
	Detrend        spectrum.Detrend `json:"detrend"`
	// TaperShape is the Kaiser beta or Tukey fraction; 0 keeps the taper's
	// default shape.
	TaperShape float64 `json:"taperShape,omitempty"`

	// Maximax only.
	WindowDuration       float64 `json:"windowDuration,omitempty"`
	WindowOverlapPercent float64 `json:"windowOverlapPercent,omitempty"`

	// OctaveFraction selects 1/N-octave bands; 0 skips the conversion.
	OctaveFraction int     `json:"octaveFraction,omitempty"`
	FMin           float64 `json:"fmin,omitempty"`
	FMax           float64 `json:"fmax,omitempty"`
}

// DefaultRequest returns an averaged 1 Hz Hann request with 50% overlap and
// third-octave bands.
func DefaultRequest(ref channel.Ref) Request {
	return Request{
		Channel:              ref,
		Kind:                 spectrum.KindAveraged,
		DF:                   1,
		EfficientFFT:         true,
		OverlapPercent:       50,
		Taper:                window.TypeHann,
		Detrend:              spectrum.DetrendConstant,
		WindowDuration:       1,
		WindowOverlapPercent: 50,
		OctaveFraction:       3,
	}
}

// Validate checks everything that does not depend on the loaded signal.
func (r Request) Validate() error {
	switch r.Kind {
	case spectrum.KindAveraged:
		if r.DF <= 0 || !core.IsFinite(r.DF) {
			return fmt.Errorf("%w: frequency resolution must be > 0: %f", core.ErrInvalidParameter, r.DF)
		}
		if !core.ValidOverlap(r.OverlapPercent) {
			return fmt.Errorf("%w: overlap must be in [0, 100): %f", core.ErrInvalidParameter, r.OverlapPercent)
		}
		if window.Info(r.Taper).Name == "" {
			return fmt.Errorf("%w: unknown taper %d", core.ErrInvalidParameter, int(r.Taper))
		}
	case spectrum.KindMaximax:
		if err := r.MaximaxParams().Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown PSD kind %d", core.ErrInvalidParameter, int(r.Kind))
	}

	if r.TaperShape < 0 || !core.IsFinite(r.TaperShape) {
		return fmt.Errorf("%w: taper shape must be >= 0: %f", core.ErrInvalidParameter, r.TaperShape)
	}
	if r.Taper == window.TypeTukey && r.TaperShape > 1 {
		return fmt.Errorf("%w: tukey fraction must be in [0,1]: %f", core.ErrInvalidParameter, r.TaperShape)
	}

	if r.Event != nil {
		if err := r.Event.Validate(); err != nil {
			return err
		}
	}

	if r.OctaveFraction < 0 {
		return fmt.Errorf("%w: octave fraction must be >= 0: %d", core.ErrInvalidParameter, r.OctaveFraction)
	}

	if r.ranged() {
		if r.FMin < 0 || !core.IsFinite(r.FMin) || !core.IsFinite(r.FMax) || !(r.FMin < r.FMax) {
			return fmt.Errorf("%w: need 0 <= fmin < fmax: [%g, %g]", core.ErrInvalidParameter, r.FMin, r.FMax)
		}
	}

	return nil
}

// MaximaxParams returns the maximax settings carried by r.
func (r Request) MaximaxParams() spectrum.MaximaxParams {
	return spectrum.MaximaxParams{
		WindowDuration:        r.WindowDuration,
		WindowOverlapPercent:  r.WindowOverlapPercent,
		DF:                    r.DF,
		EfficientFFT:          r.EfficientFFT,
		SegmentOverlapPercent: r.OverlapPercent,
		Taper:                 r.Taper,
	}
}

// estimatorOptions returns the per-segment options both kinds share.
func (r Request) estimatorOptions() []spectrum.Option {
	opts := []spectrum.Option{spectrum.WithDetrend(r.Detrend)}
	if r.TaperShape != 0 {
		opts = append(opts, spectrum.WithTaperShape(r.TaperShape))
	}
	return opts
}

func (r Request) ranged() bool { return r.FMin != 0 || r.FMax != 0 }

// octaveRange returns the center range for the band conversion: the request
// range if set, otherwise first positive bin to Nyquist.
func (r Request) octaveRange(psd spectrum.PSD) (fmin, fmax float64) {
	lo, hi := psd.Span()
	fmin, fmax = math.Max(lo, psd.ActualDF), hi
	if r.ranged() {
		fmin, fmax = math.Max(r.FMin, psd.ActualDF), r.FMax
	}
	return fmin, fmax
}
