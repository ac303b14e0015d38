package signal

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-psd/dsp/core"
)

// Meta is the identity shared by both views of a channel.
type Meta struct {
	Dataset    string
	Channel    string
	Unit       string
	SampleRate float64
	Start      time.Time
}

// Full is the full-resolution signal of one channel.
type Full struct {
	meta    Meta
	samples []float64
}

// NewFull wraps samples as a full-resolution signal. The slice is not copied
// and must not be modified afterwards.
func NewFull(meta Meta, samples []float64) (Full, error) {
	if meta.SampleRate <= 0 || !core.IsFinite(meta.SampleRate) {
		return Full{}, fmt.Errorf("%w: sample rate must be > 0: %f", core.ErrInvalidParameter, meta.SampleRate)
	}

	return Full{meta: meta, samples: samples}, nil
}

// Meta returns the channel identity.
func (f Full) Meta() Meta { return f.meta }

// SampleRate returns the sample rate in Hz.
func (f Full) SampleRate() float64 { return f.meta.SampleRate }

// Unit returns the physical unit label.
func (f Full) Unit() string { return f.meta.Unit }

// Len returns the sample count.
func (f Full) Len() int { return len(f.samples) }

// Samples returns the samples. Callers must treat the slice as read-only.
func (f Full) Samples() []float64 { return f.samples }

// Start returns the absolute time of the first sample.
func (f Full) Start() time.Time { return f.meta.Start }

// End returns the absolute time of the last sample.
func (f Full) End() time.Time {
	if len(f.samples) == 0 {
		return f.meta.Start
	}

	return f.TimeAt(len(f.samples) - 1)
}

// Duration returns the covered time, len/sampleRate.
func (f Full) Duration() time.Duration {
	return seconds(float64(len(f.samples)) / f.meta.SampleRate)
}

// TimeAt returns the absolute time of sample i.
func (f Full) TimeAt(i int) time.Time {
	return f.meta.Start.Add(seconds(float64(i) / f.meta.SampleRate))
}

// SliceIndex returns samples [from, to) as a new Full sharing the backing
// array, with Start moved to sample from.
func (f Full) SliceIndex(from, to int) (Full, error) {
	if from < 0 || to > len(f.samples) || from > to {
		return Full{}, fmt.Errorf("%w: slice [%d,%d) outside [0,%d)", core.ErrInvalidParameter, from, to, len(f.samples))
	}

	meta := f.meta
	meta.Start = f.TimeAt(from)

	return Full{meta: meta, samples: f.samples[from:to:to]}, nil
}

// Slice returns the samples whose timestamps fall inside ev, inclusive at
// both ends.
func (f Full) Slice(ev Event) (Full, error) {
	if err := ev.Validate(); err != nil {
		return Full{}, err
	}

	fs := f.meta.SampleRate
	from := int(math.Ceil(ev.Start.Sub(f.meta.Start).Seconds()*fs - indexEpsilon))
	to := int(math.Floor(ev.End.Sub(f.meta.Start).Seconds()*fs+indexEpsilon)) + 1

	if from < 0 {
		from = 0
	}

	if to > len(f.samples) {
		to = len(f.samples)
	}

	if from >= to {
		return Full{}, fmt.Errorf("%w: event %s..%s holds no samples of %q",
			core.ErrInsufficientData, ev.Start.Format(time.RFC3339Nano), ev.End.Format(time.RFC3339Nano), f.meta.Channel)
	}

	return f.SliceIndex(from, to)
}

// indexEpsilon absorbs float rounding when converting times to indices.
const indexEpsilon = 1e-6

// Event is an inclusive time range carved from a full-resolution signal.
type Event struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Validate reports whether the range is ordered.
func (e Event) Validate() error {
	if e.End.Before(e.Start) {
		return fmt.Errorf("%w: event end %s before start %s", core.ErrInvalidParameter,
			e.End.Format(time.RFC3339Nano), e.Start.Format(time.RFC3339Nano))
	}

	return nil
}

// Duration returns End-Start.
func (e Event) Duration() time.Duration { return e.End.Sub(e.Start) }

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
