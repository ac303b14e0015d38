package spectrum

import (
	"fmt"

	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/signal"
	"github.com/cwbudde/algo-psd/dsp/window"
)

// EstimateAll computes Welch PSDs of several channels with one plan so the
// results share a frequency axis and can be compared bin by bin.
//
// All signals must be sampled at the plan's rate; otherwise nothing is
// computed and ErrRateMismatch is returned.
func EstimateAll(sigs []signal.Full, plan Plan, overlapPercent float64, taper window.Type, opts ...Option) ([]PSD, error) {
	if len(sigs) == 0 {
		return nil, fmt.Errorf("%w: no signals", core.ErrInsufficientData)
	}

	if err := plan.validate(); err != nil {
		return nil, err
	}

	for i, sig := range sigs {
		if err := checkRate(sig.SampleRate(), plan.SampleRate); err != nil {
			return nil, fmt.Errorf("signal %d (%s): %w", i, sig.Meta().Channel, err)
		}

		if sig.Len() < plan.SegmentLength {
			return nil, fmt.Errorf("signal %d (%s): %w: segment length %d exceeds signal length %d",
				i, sig.Meta().Channel, core.ErrInsufficientData, plan.SegmentLength, sig.Len())
		}
	}

	est, err := NewEstimator(plan, taper, opts...)
	if err != nil {
		return nil, err
	}

	out := make([]PSD, len(sigs))
	for i, sig := range sigs {
		psd, err := est.Estimate(sig, overlapPercent)
		if err != nil {
			return nil, fmt.Errorf("signal %d (%s): %w", i, sig.Meta().Channel, err)
		}
		out[i] = psd
	}

	return out, nil
}
