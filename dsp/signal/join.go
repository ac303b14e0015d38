package signal

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-psd/dsp/core"
)

// JoinOption configures [Join].
type JoinOption func(*joinConfig)

type joinConfig struct {
	allowGap bool
}

// AllowGap accepts parts that do not start exactly one sample period after
// the previous part ends. Samples are concatenated as-is; the gap is not
// filled.
func AllowGap() JoinOption {
	return func(c *joinConfig) {
		c.allowGap = true
	}
}

// Join concatenates consecutive recordings of one channel. All parts must
// share the sample rate; differing rates fail with [core.ErrRateMismatch]
// rather than being resampled.
func Join(parts []Full, opts ...JoinOption) (Full, error) {
	if len(parts) == 0 {
		return Full{}, fmt.Errorf("%w: nothing to join", core.ErrInsufficientData)
	}

	var cfg joinConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	first := parts[0]
	total := first.Len()

	for i := 1; i < len(parts); i++ {
		prev, cur := parts[i-1], parts[i]
		if cur.SampleRate() != first.SampleRate() {
			return Full{}, fmt.Errorf("%w: part %d at %f Hz, part 0 at %f Hz",
				core.ErrRateMismatch, i, cur.SampleRate(), first.SampleRate())
		}

		if !cfg.allowGap {
			want := prev.Start().Add(prev.Duration())
			halfPeriod := seconds(0.5 / first.SampleRate())
			if d := cur.Start().Sub(want); d > halfPeriod || d < -halfPeriod {
				return Full{}, fmt.Errorf("%w: part %d starts %s after expected %s",
					core.ErrInvalidParameter, i, d, want.Format(time.RFC3339Nano))
			}
		}

		total += cur.Len()
	}

	samples := make([]float64, 0, total)
	for _, p := range parts {
		samples = append(samples, p.samples...)
	}

	return NewFull(first.meta, samples)
}
