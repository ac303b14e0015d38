package signal

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-psd/dsp/core"
)

// Display is a bounded-size subsample of a [Full] signal for rendering.
//
// Points may be unevenly spaced (min/max binning keeps both extremes of a
// bin), so each point carries its offset from Start in seconds.
type Display struct {
	meta      Meta
	offsets   []float64
	values    []float64
	end       time.Time
	sourceLen int
}

// DisplayOf returns a display view holding every sample of full. The
// backing slice is shared.
func DisplayOf(full Full) Display {
	offsets := make([]float64, full.Len())
	for i := range offsets {
		offsets[i] = float64(i) / full.meta.SampleRate
	}

	return Display{
		meta:      full.meta,
		offsets:   offsets,
		values:    full.samples,
		end:       full.End(),
		sourceLen: full.Len(),
	}
}

// DisplayFrom builds a display view from the retained sample indices of
// full. Indices must be strictly increasing and include the first and the
// last sample so both views span the same time range.
func DisplayFrom(full Full, indices []int) (Display, error) {
	n := full.Len()
	if n == 0 {
		return Display{}, fmt.Errorf("%w: display of empty signal", core.ErrInsufficientData)
	}

	if len(indices) == 0 || indices[0] != 0 || indices[len(indices)-1] != n-1 {
		return Display{}, fmt.Errorf("%w: display indices must start at 0 and end at %d", core.ErrInvalidParameter, n-1)
	}

	offsets := make([]float64, len(indices))
	values := make([]float64, len(indices))

	for k, idx := range indices {
		if k > 0 && idx <= indices[k-1] {
			return Display{}, fmt.Errorf("%w: display indices not increasing at %d", core.ErrInvalidParameter, k)
		}

		offsets[k] = float64(idx) / full.meta.SampleRate
		values[k] = full.samples[idx]
	}

	return Display{
		meta:      full.meta,
		offsets:   offsets,
		values:    values,
		end:       full.End(),
		sourceLen: n,
	}, nil
}

// Meta returns the channel identity shared with the full view.
func (d Display) Meta() Meta { return d.meta }

// SampleRate returns the sample rate of the underlying full signal.
func (d Display) SampleRate() float64 { return d.meta.SampleRate }

// Len returns the number of display points.
func (d Display) Len() int { return len(d.values) }

// Values returns the point values. Callers must treat the slice as read-only.
func (d Display) Values() []float64 { return d.values }

// Offsets returns each point's offset from Start in seconds.
func (d Display) Offsets() []float64 { return d.offsets }

// Start returns the absolute time of the first point.
func (d Display) Start() time.Time { return d.meta.Start }

// End returns the absolute time of the last point; it equals the full
// view's End.
func (d Display) End() time.Time { return d.end }

// SourceLen returns the sample count of the full view this was built from.
func (d Display) SourceLen() int { return d.sourceLen }

// Decimated reports whether points were dropped.
func (d Display) Decimated() bool { return len(d.values) < d.sourceLen }
