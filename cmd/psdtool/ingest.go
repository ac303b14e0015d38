package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-psd/channel"
	"github.com/cwbudde/algo-psd/dsp/core"
	timestats "github.com/cwbudde/algo-psd/stats/time"
)

const statsBatch = 4096

func runIngest(ctx context.Context, args []string, stdout io.Writer) (err error) {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	var g globalFlags
	g.register(fs)
	dataset := fs.String("dataset", "", "dataset to store the channel in")
	name := fs.String("channel", "", "channel name")
	rate := fs.Float64("rate", 0, "sample rate in Hz")
	unit := fs.String("unit", "g", "unit of the samples")
	start := fs.String("start", "", "RFC 3339 time of the first sample (default now)")
	column := fs.String("column", "0", "CSV column: zero-based index or header name")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: psdtool ingest [flags] file.csv\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one CSV file, got %d arguments", fs.NArg())
	}

	desc := channel.Descriptor{Dataset: *dataset, Name: *name, Unit: *unit, SampleRate: *rate, Start: time.Now().UTC()}
	if *start != "" {
		if desc.Start, err = time.Parse(time.RFC3339Nano, *start); err != nil {
			return fmt.Errorf("%w: -start: %w", core.ErrInvalidParameter, err)
		}
	}
	if err := desc.Validate(); err != nil {
		return err
	}

	cfg, err := g.load(fs)
	if err != nil {
		return err
	}
	e, err := open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	began := time.Now()
	samples, stats, err := readColumn(f, *column)
	if err != nil {
		return fmt.Errorf("%s: %w", fs.Arg(0), err)
	}

	if err := e.ingest(ctx, desc, samples); err != nil {
		return err
	}

	desc.Samples = len(samples)
	e.log.Info("ingested channel",
		zap.Stringer("channel", desc.Ref()),
		zap.String("samples", humanize.Comma(int64(len(samples)))),
		zap.Duration("duration", desc.Duration()),
		zap.Duration("took", time.Since(began)))

	_, err = fmt.Fprintf(stdout, "%s: %s samples, %s at %g Hz, mean %.4g %s, rms %.4g %s, peak %.4g %s\n",
		desc.Ref(), humanize.Comma(int64(len(samples))), desc.Duration(), desc.SampleRate,
		stats.Mean, desc.Unit, stats.RMS, desc.Unit, stats.Peak, desc.Unit)
	return err
}

// readColumn parses one column of a CSV stream. column is a zero-based index
// or the name of a header field. A first row that does not parse as a
// number is taken as the header.
func readColumn(r io.Reader, column string) ([]float64, timestats.Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	idx, byIndex := -1, false
	if n, err := strconv.Atoi(column); err == nil {
		if n < 0 {
			return nil, timestats.Stats{}, fmt.Errorf("%w: negative column %d", core.ErrInvalidParameter, n)
		}
		idx, byIndex = n, true
	}

	var (
		samples []float64
		stream  = timestats.NewStreamingStats()
		line    int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, timestats.Stats{}, err
		}
		line++

		if line == 1 && !byIndex {
			for i, field := range rec {
				if strings.EqualFold(strings.TrimSpace(field), column) {
					idx = i
				}
			}
			if idx < 0 {
				return nil, timestats.Stats{}, fmt.Errorf("%w: no column named %q", core.ErrInvalidParameter, column)
			}
			continue
		}

		if idx >= len(rec) {
			return nil, timestats.Stats{}, fmt.Errorf("line %d: %w: has %d fields, want column %d", line, core.ErrInvalidParameter, len(rec), idx)
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, timestats.Stats{}, fmt.Errorf("line %d: %w: %w", line, core.ErrInvalidParameter, err)
		}
		if !core.IsFinite(v) {
			return nil, timestats.Stats{}, fmt.Errorf("line %d: %w: non-finite sample %v", line, core.ErrInvalidParameter, v)
		}
		samples = append(samples, v)

		if len(samples)%statsBatch == 0 {
			stream.Update(samples[len(samples)-statsBatch:])
		}
	}

	if rest := len(samples) % statsBatch; rest > 0 {
		stream.Update(samples[len(samples)-rest:])
	}

	if len(samples) == 0 {
		return nil, timestats.Stats{}, fmt.Errorf("%w: no samples", core.ErrInsufficientData)
	}

	return samples, stream.Result(), nil
}
