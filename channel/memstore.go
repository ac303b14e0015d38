package channel

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cwbudde/algo-psd/dsp/signal"
)

// MemStore is an in-memory Store, handy for tests and for signals generated
// on the fly.
type MemStore struct {
	mu       sync.RWMutex
	channels map[Ref]memChannel
}

type memChannel struct {
	desc    Descriptor
	samples []float64
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{channels: make(map[Ref]memChannel)}
}

// Add stores samples under desc, replacing any channel with the same
// reference. desc.Samples is set from len(samples). The slice is kept, not
// copied.
func (s *MemStore) Add(desc Descriptor, samples []float64) error {
	desc.Samples = len(samples)
	if err := desc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[desc.Ref()] = memChannel{desc: desc, samples: samples}

	return nil
}

// ListChannels implements Store.
func (s *MemStore) ListChannels(ctx context.Context, dataset string) ([]Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Descriptor
	for _, ch := range s.channels {
		if dataset == "" || ch.desc.Dataset == dataset {
			out = append(out, ch.desc)
		}
	}

	if dataset != "" && len(out) == 0 {
		return nil, fmt.Errorf("%w: dataset %q", ErrChannelNotFound, dataset)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Dataset != out[j].Dataset {
			return out[i].Dataset < out[j].Dataset
		}
		return out[i].Name < out[j].Name
	})

	return out, nil
}

// FetchSamples implements Store.
func (s *MemStore) FetchSamples(ctx context.Context, ref Ref, r *TimeRange) (signal.Full, error) {
	if err := ctx.Err(); err != nil {
		return signal.Full{}, err
	}

	s.mu.RLock()
	ch, ok := s.channels[ref]
	s.mu.RUnlock()
	if !ok {
		return signal.Full{}, fmt.Errorf("%w: %s", ErrChannelNotFound, ref)
	}

	from, to, err := ch.desc.IndexRange(r)
	if err != nil {
		return signal.Full{}, err
	}

	meta := ch.desc.Meta()
	meta.Start = meta.Start.Add(ch.desc.Offset(from))

	return signal.NewFull(meta, ch.samples[from:to:to])
}
