// Package sqlitestore keeps vibration channels in a SQLite database.
//
// Samples are stored in chunks of little-endian float64 blobs so that a
// time-range fetch reads only the chunks it overlaps.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-psd/channel"
	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/signal"
)

// DefaultChunkSize is the number of samples per stored chunk.
const DefaultChunkSize = 1 << 16

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

// WithChunkSize sets how many samples Append packs into one row.
func WithChunkSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// Store implements channel.Store on a SQLite file. Reads and writes use
// separate connections that are opened on first use.
type Store struct {
	dbPath    string
	chunkSize int
	log       *zap.Logger

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

var _ channel.Store = (*Store)(nil)

// New returns a store backed by the database at dbPath. Nothing is opened
// until the first call.
func New(dbPath string, opts ...Option) *Store {
	s := &Store{dbPath: dbPath, chunkSize: DefaultChunkSize, log: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if _, err = db.Exec(initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro&_busy_timeout=5000"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// Create registers a new, empty channel and returns its id.
func (s *Store) Create(ctx context.Context, desc channel.Descriptor) (id int64, err error) {
	desc.Samples = 0
	if err = desc.Validate(); err != nil {
		return 0, err
	}

	db, err := s.getWriteDB()
	if err != nil {
		return 0, fmt.Errorf("getting write connection: %w", err)
	}

	result, err := db.ExecContext(ctx, insertChannelSQL, desc.Dataset, desc.Name, desc.Unit, desc.SampleRate, desc.Start.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("inserting channel %s: %w", desc.Ref(), err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting channel ID: %w", err)
	}

	s.log.Info("created channel", zap.Stringer("channel", desc.Ref()), zap.Int64("id", id),
		zap.Float64("sampleRate", desc.SampleRate), zap.String("unit", desc.Unit))

	return id, nil
}

// Append adds samples to the end of channel id, split into chunks.
func (s *Store) Append(ctx context.Context, id int64, samples []float64) (err error) {
	if len(samples) == 0 {
		return nil
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	var next, seq int64
	if err = tx.QueryRowContext(ctx, selectChannelByIDSQL, id).Scan(&next, &seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %d", channel.ErrChannelNotFound, id)
		}
		return fmt.Errorf("reading channel %d: %w", id, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertChunkSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for start := 0; start < len(samples); start += s.chunkSize {
		chunk := samples[start:min(start+s.chunkSize, len(samples))]
		if _, err = stmt.ExecContext(ctx, id, seq, next, len(chunk), encodeSamples(chunk)); err != nil {
			return fmt.Errorf("inserting chunk %d of channel %d: %w", seq, id, err)
		}
		seq++
		next += int64(len(chunk))
	}

	if _, err = tx.ExecContext(ctx, updateSampleCountSQL, len(samples), id); err != nil {
		return fmt.Errorf("updating sample count: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.log.Debug("appended samples", zap.Int64("id", id),
		zap.String("samples", humanize.Comma(int64(len(samples)))),
		zap.String("total", humanize.Comma(next)))

	return nil
}

// ListChannels implements channel.Store.
func (s *Store) ListChannels(ctx context.Context, dataset string) (descs []channel.Descriptor, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectChannelsSQL, dataset, dataset)
	if err != nil {
		return nil, fmt.Errorf("querying channels: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var d channel.Descriptor
		if d, _, err = scanChannel(rows); err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating channels: %w", err)
	}

	if dataset != "" && len(descs) == 0 {
		return nil, fmt.Errorf("%w: dataset %q", channel.ErrChannelNotFound, dataset)
	}

	return descs, nil
}

// FetchSamples implements channel.Store.
func (s *Store) FetchSamples(ctx context.Context, ref channel.Ref, r *channel.TimeRange) (full signal.Full, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return signal.Full{}, fmt.Errorf("getting read connection: %w", err)
	}

	desc, id, err := scanChannel(db.QueryRowContext(ctx, selectChannelSQL, ref.Dataset, ref.Channel))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return signal.Full{}, fmt.Errorf("%w: %s", channel.ErrChannelNotFound, ref)
		}
		return signal.Full{}, err
	}

	from, to, err := desc.IndexRange(r)
	if err != nil {
		return signal.Full{}, err
	}

	rows, err := db.QueryContext(ctx, selectChunksSQL, id, to, from)
	if err != nil {
		return signal.Full{}, fmt.Errorf("querying chunks: %w", err)
	}
	defer closeWithError(rows, &err)

	samples := make([]float64, 0, to-from)
	for rows.Next() {
		var (
			first, count int
			blob         []byte
		)
		if err = rows.Scan(&first, &count, &blob); err != nil {
			return signal.Full{}, fmt.Errorf("scanning chunk: %w", err)
		}

		lo := max(from, first) - first
		hi := min(to, first+count) - first
		if samples, err = decodeSamples(samples, blob, lo, hi); err != nil {
			return signal.Full{}, fmt.Errorf("fetching samples of %s: %w", ref, err)
		}
	}
	if err = rows.Err(); err != nil {
		return signal.Full{}, fmt.Errorf("iterating chunks: %w", err)
	}

	if len(samples) != to-from {
		return signal.Full{}, fmt.Errorf("%w: %s holds %d of samples [%d,%d)", core.ErrInsufficientData, ref, len(samples), from, to)
	}

	meta := desc.Meta()
	meta.Start = meta.Start.Add(desc.Offset(from))

	return signal.NewFull(meta, samples)
}

// Close releases both connections.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.writeDB != nil {
			errs = append(errs, s.writeDB.Close())
		}
		if s.readDB != nil {
			errs = append(errs, s.readDB.Close())
		}
		s.closeErr = errors.Join(errs...)
	})

	return s.closeErr
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChannel(row scanner) (channel.Descriptor, int64, error) {
	var (
		d       channel.Descriptor
		id      int64
		startNS int64
	)
	if err := row.Scan(&id, &d.Dataset, &d.Name, &d.Unit, &d.SampleRate, &startNS, &d.Samples); err != nil {
		return channel.Descriptor{}, 0, fmt.Errorf("scanning channel: %w", err)
	}
	d.Start = time.Unix(0, startNS).UTC()

	return d, id, nil
}
