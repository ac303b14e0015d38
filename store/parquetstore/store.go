// Package parquetstore keeps vibration channels as Parquet files on disk.
//
// Every channel is one zstd-compressed file with a single float64 column.
// A YAML manifest at the store root records the channel metadata, so listing
// a dataset never opens the sample files.
package parquetstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-psd/channel"
	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/signal"
)

const batchSize = 8192

// sampleRow is the on-disk row layout.
type sampleRow struct {
	Value float64 `parquet:"value"`
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store implements channel.Store on a directory of Parquet files.
type Store struct {
	dir string
	log *zap.Logger

	mu sync.RWMutex
}

var _ channel.Store = (*Store)(nil)

// Open returns a store rooted at dir, creating the directory if needed.
func Open(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty store directory", core.ErrInvalidParameter)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s := &Store{dir: dir, log: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Dir returns the store root.
func (s *Store) Dir() string { return s.dir }

// Write stores samples as the complete contents of the described channel,
// replacing an existing channel with the same reference.
func (s *Store) Write(ctx context.Context, desc channel.Descriptor, samples []float64) error {
	desc.Samples = len(samples)
	if err := desc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rel := filepath.Join(url.PathEscape(desc.Dataset), url.PathEscape(desc.Name)+".parquet")
	if err := s.writeSamples(ctx, rel, samples); err != nil {
		return fmt.Errorf("writing %s: %w", desc.Ref(), err)
	}

	m, err := readManifest(s.dir)
	if err != nil {
		return err
	}
	m.upsert(desc.Dataset, entry{
		Name:       desc.Name,
		Unit:       desc.Unit,
		SampleRate: desc.SampleRate,
		Start:      desc.Start.UTC(),
		Samples:    desc.Samples,
		File:       filepath.ToSlash(rel),
	})
	if err := writeManifest(s.dir, m); err != nil {
		return err
	}

	s.log.Info("stored channel", zap.Stringer("channel", desc.Ref()),
		zap.String("samples", humanize.Comma(int64(desc.Samples))), zap.String("file", rel))

	return nil
}

func (s *Store) writeSamples(ctx context.Context, rel string, samples []float64) (err error) {
	path := filepath.Join(s.dir, rel)
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	w := parquet.NewGenericWriter[sampleRow](f, parquet.Compression(&parquet.Zstd))
	rows := make([]sampleRow, 0, batchSize)
	for start := 0; start < len(samples); start += batchSize {
		if err = ctx.Err(); err != nil {
			return err
		}
		rows = rows[:0]
		for _, v := range samples[start:min(start+batchSize, len(samples))] {
			rows = append(rows, sampleRow{Value: v})
		}
		if _, err = w.Write(rows); err != nil {
			return err
		}
	}
	if err = w.Close(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}

	info, err := os.Stat(f.Name())
	if err == nil {
		s.log.Debug("wrote parquet file", zap.String("file", rel), zap.String("size", humanize.IBytes(uint64(info.Size()))))
	}

	return os.Rename(f.Name(), path)
}

// ListChannels implements channel.Store.
func (s *Store) ListChannels(ctx context.Context, dataset string) ([]channel.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	m, err := readManifest(s.dir)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	var names []string
	if dataset != "" {
		if _, ok := m.Datasets[dataset]; !ok {
			return nil, fmt.Errorf("%w: dataset %q", channel.ErrChannelNotFound, dataset)
		}
		names = []string{dataset}
	} else {
		for name := range m.Datasets {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	var descs []channel.Descriptor
	for _, name := range names {
		for _, e := range m.Datasets[name] {
			descs = append(descs, e.descriptor(name))
		}
	}
	return descs, nil
}

// FetchSamples implements channel.Store.
func (s *Store) FetchSamples(ctx context.Context, ref channel.Ref, r *channel.TimeRange) (signal.Full, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := readManifest(s.dir)
	if err != nil {
		return signal.Full{}, err
	}

	e, ok := m.lookup(ref)
	if !ok {
		return signal.Full{}, fmt.Errorf("%w: %s", channel.ErrChannelNotFound, ref)
	}
	desc := e.descriptor(ref.Dataset)

	from, to, err := desc.IndexRange(r)
	if err != nil {
		return signal.Full{}, err
	}

	samples, err := s.readSamples(ctx, e, from, to)
	if err != nil {
		return signal.Full{}, fmt.Errorf("fetching samples of %s: %w", ref, err)
	}

	meta := desc.Meta()
	meta.Start = meta.Start.Add(desc.Offset(from))

	return signal.NewFull(meta, samples)
}

func (s *Store) readSamples(ctx context.Context, e entry, from, to int) (samples []float64, err error) {
	f, err := os.Open(filepath.Join(s.dir, filepath.FromSlash(e.File)))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, err
	}

	gr := parquet.NewGenericReader[sampleRow](pf)
	defer gr.Close()

	if n := gr.NumRows(); n != int64(e.Samples) {
		return nil, fmt.Errorf("%w: file holds %d rows, manifest says %d", core.ErrInsufficientData, n, e.Samples)
	}
	if err = gr.SeekToRow(int64(from)); err != nil {
		return nil, err
	}

	samples = make([]float64, 0, to-from)
	batch := make([]sampleRow, min(batchSize, to-from))
	for len(samples) < to-from {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		want := min(len(batch), to-from-len(samples))
		n, rerr := gr.Read(batch[:want])
		for _, row := range batch[:n] {
			samples = append(samples, row.Value)
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return nil, rerr
		}
	}

	if len(samples) != to-from {
		return nil, fmt.Errorf("%w: read %d of samples [%d,%d)", core.ErrInsufficientData, len(samples), from, to)
	}
	return samples, nil
}
