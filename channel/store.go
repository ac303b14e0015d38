package channel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/signal"
)

// ErrChannelNotFound is returned by stores for unknown datasets or channels.
var ErrChannelNotFound = errors.New("channel not found")

// Ref names one channel of one dataset (flight, test run).
type Ref struct {
	Dataset string `json:"dataset" yaml:"dataset"`
	Channel string `json:"channel" yaml:"channel"`
}

// String formats the reference as "dataset/channel".
func (r Ref) String() string { return r.Dataset + "/" + r.Channel }

// TimeRange is an inclusive absolute time range. A nil *TimeRange selects
// the whole recording.
type TimeRange = signal.Event

// Descriptor describes a stored channel.
type Descriptor struct {
	Dataset    string    `json:"dataset" yaml:"dataset"`
	Name       string    `json:"name" yaml:"name"`
	Unit       string    `json:"unit" yaml:"unit"`
	SampleRate float64   `json:"sampleRate" yaml:"sampleRate"`
	Start      time.Time `json:"start" yaml:"start"`
	Samples    int       `json:"samples" yaml:"samples"`
}

// Ref returns the reference of the described channel.
func (d Descriptor) Ref() Ref { return Ref{Dataset: d.Dataset, Channel: d.Name} }

// Meta returns the signal identity of the described channel.
func (d Descriptor) Meta() signal.Meta {
	return signal.Meta{
		Dataset:    d.Dataset,
		Channel:    d.Name,
		Unit:       d.Unit,
		SampleRate: d.SampleRate,
		Start:      d.Start,
	}
}

// Duration returns the recorded time span.
func (d Descriptor) Duration() time.Duration {
	if d.SampleRate <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(d.Samples) / d.SampleRate * float64(time.Second)))
}

// Validate checks the fields a store needs to serve samples.
func (d Descriptor) Validate() error {
	if d.Dataset == "" || d.Name == "" {
		return fmt.Errorf("%w: channel needs dataset and name: %q/%q", core.ErrInvalidParameter, d.Dataset, d.Name)
	}
	if d.SampleRate <= 0 || !core.IsFinite(d.SampleRate) {
		return fmt.Errorf("%w: sample rate must be > 0: %f", core.ErrInvalidParameter, d.SampleRate)
	}
	if d.Samples < 0 {
		return fmt.Errorf("%w: negative sample count %d", core.ErrInvalidParameter, d.Samples)
	}
	return nil
}

// Offset returns the time of sample i relative to Start.
func (d Descriptor) Offset(i int) time.Duration {
	return time.Duration(math.Round(float64(i) / d.SampleRate * float64(time.Second)))
}

// indexEpsilon absorbs float rounding when converting times to indices.
const indexEpsilon = 1e-6

// IndexRange converts r into the half-open sample range [from, to) of the
// described channel. A nil r covers all samples.
func (d Descriptor) IndexRange(r *TimeRange) (from, to int, err error) {
	if r == nil {
		return 0, d.Samples, nil
	}

	if err := r.Validate(); err != nil {
		return 0, 0, err
	}

	from = int(math.Ceil(r.Start.Sub(d.Start).Seconds()*d.SampleRate - indexEpsilon))
	to = int(math.Floor(r.End.Sub(d.Start).Seconds()*d.SampleRate+indexEpsilon)) + 1
	from = max(from, 0)
	to = min(to, d.Samples)

	if from >= to {
		return 0, 0, fmt.Errorf("%w: range %s..%s holds no samples of %s",
			core.ErrInsufficientData, r.Start.Format(time.RFC3339Nano), r.End.Format(time.RFC3339Nano), d.Ref())
	}

	return from, to, nil
}

// Store is the data source collaborator. Implementations must always return
// every sample in the requested range; decimation happens in [Manager].
type Store interface {
	// ListChannels returns the channels of a dataset. An empty dataset lists
	// every channel in the store.
	ListChannels(ctx context.Context, dataset string) ([]Descriptor, error)
	// FetchSamples returns the full-resolution samples of ref inside r.
	FetchSamples(ctx context.Context, ref Ref, r *TimeRange) (signal.Full, error)
}

// Find returns the descriptor named by ref from descs.
func Find(descs []Descriptor, ref Ref) (Descriptor, error) {
	for _, d := range descs {
		if d.Dataset == ref.Dataset && d.Name == ref.Channel {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %s", ErrChannelNotFound, ref)
}
