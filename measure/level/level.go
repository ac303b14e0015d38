// Package level computes overall RMS levels from spectral results.
package level

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-psd/dsp/core"
)

// Source is a spectral result that can be integrated over frequency.
// spectrum.PSD and octave.Result implement it.
type Source interface {
	// Span returns the frequency range covered by the source.
	Span() (lo, hi float64)
	// Energy returns the integral of the density over [lo, hi].
	Energy(lo, hi float64) (float64, error)
}

// Option configures a level calculation.
type Option func(*config)

type config struct {
	fmin, fmax float64
	ranged     bool
}

// WithRange restricts the integration to [fmin, fmax] Hz. Without it the
// full span of the source is used.
func WithRange(fmin, fmax float64) Option {
	return func(c *config) {
		c.fmin = fmin
		c.fmax = fmax
		c.ranged = true
	}
}

// MeanSquare integrates src over the configured range.
func MeanSquare(src Source, opts ...Option) (float64, error) {
	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	lo, hi := src.Span()
	if !(lo < hi) {
		return 0, fmt.Errorf("%w: source spans no frequencies", core.ErrInsufficientData)
	}

	if cfg.ranged {
		if math.IsNaN(cfg.fmin) || math.IsNaN(cfg.fmax) || cfg.fmin >= cfg.fmax {
			return 0, fmt.Errorf("%w: need fmin < fmax: [%g, %g]", core.ErrInvalidParameter, cfg.fmin, cfg.fmax)
		}

		if cfg.fmax <= lo || cfg.fmin >= hi {
			return 0, fmt.Errorf("%w: range [%g, %g] Hz outside source span [%g, %g] Hz",
				core.ErrInsufficientData, cfg.fmin, cfg.fmax, lo, hi)
		}

		lo = math.Max(lo, cfg.fmin)
		hi = math.Min(hi, cfg.fmax)
	}

	ms, err := src.Energy(lo, hi)
	if err != nil {
		return 0, err
	}

	return math.Max(ms, 0), nil
}

// RMS returns the square root of [MeanSquare].
func RMS(src Source, opts ...Option) (float64, error) {
	ms, err := MeanSquare(src, opts...)
	if err != nil {
		return 0, err
	}

	return math.Sqrt(ms), nil
}

// DB expresses an RMS value in dB relative to ref (20*log10). ref <= 0 is
// treated as 1.
func DB(rms, ref float64) float64 {
	if ref <= 0 {
		ref = 1
	}

	return core.LinearToDB(rms / ref)
}
