package spectrum

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/window"
)

// Detrend selects what is removed from each segment before tapering.
type Detrend int

const (
	// DetrendConstant subtracts the segment mean.
	DetrendConstant Detrend = iota
	// DetrendNone leaves the segment untouched.
	DetrendNone
	// DetrendLinear subtracts the least-squares line through the segment.
	DetrendLinear
)

// String returns the name accepted by [ParseDetrend].
func (d Detrend) String() string {
	switch d {
	case DetrendConstant:
		return "constant"
	case DetrendNone:
		return "none"
	case DetrendLinear:
		return "linear"
	default:
		return fmt.Sprintf("detrend(%d)", int(d))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Detrend) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Detrend) UnmarshalText(text []byte) error {
	parsed, err := ParseDetrend(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDetrend resolves "constant", "none" or "linear".
func ParseDetrend(name string) (Detrend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "constant", "mean", "":
		return DetrendConstant, nil
	case "none", "off":
		return DetrendNone, nil
	case "linear":
		return DetrendLinear, nil
	default:
		return DetrendConstant, fmt.Errorf("%w: unknown detrend %q", core.ErrInvalidParameter, name)
	}
}

// Option configures an estimator.
type Option func(*config)

type config struct {
	detrend  Detrend
	shape    float64
	shapeSet bool
}

func defaultConfig() config {
	return config{detrend: DetrendConstant}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithDetrend selects per-segment detrending. The default removes the
// segment mean so the PSD integral matches the variance of signals with a
// DC offset.
func WithDetrend(d Detrend) Option {
	return func(c *config) {
		c.detrend = d
	}
}

// WithTaperShape sets the shape parameter of a parametric taper: beta for
// Kaiser, the tapered fraction in [0, 1] for Tukey. Other tapers ignore it.
func WithTaperShape(v float64) Option {
	return func(c *config) {
		c.shape = v
		c.shapeSet = true
	}
}

// taperCoefficients returns the periodic taper of length n.
func taperCoefficients(t window.Type, n int, cfg config) ([]float64, error) {
	if cfg.shapeSet {
		switch t {
		case window.TypeKaiser:
			return window.Kaiser(n, cfg.shape, window.WithPeriodic())
		case window.TypeTukey:
			return window.Tukey(n, cfg.shape, window.WithPeriodic())
		}
	}

	return window.Generate(t, n, window.WithPeriodic()), nil
}

func removeMean(seg []float64) {
	mean := 0.0
	for _, v := range seg {
		mean += v
	}
	mean /= float64(len(seg))

	for i := range seg {
		seg[i] -= mean
	}
}

func removeLine(seg []float64) {
	n := float64(len(seg))
	if len(seg) < 2 {
		removeMean(seg)
		return
	}

	// x = 0..n-1, closed-form least squares.
	sumX := n * (n - 1) / 2
	sumXX := (n - 1) * n * (2*n - 1) / 6
	sumY, sumXY := 0.0, 0.0
	for i, v := range seg {
		sumY += v
		sumXY += float64(i) * v
	}

	den := n*sumXX - sumX*sumX
	slope := (n*sumXY - sumX*sumY) / den
	intercept := (sumY - slope*sumX) / n

	for i := range seg {
		seg[i] -= intercept + slope*float64(i)
	}
}
