package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cwbudde/algo-psd/channel"
)

func runChannels(ctx context.Context, args []string, stdout io.Writer) (err error) {
	fs := flag.NewFlagSet("channels", flag.ContinueOnError)
	var g globalFlags
	g.register(fs)
	dataset := fs.String("dataset", "", "dataset to list; empty lists every dataset")
	format := fs.String("format", "table", "output format (table, csv, json)")
	if err := fs.Parse(args); err != nil {
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

	mgr, err := channel.NewManager(e.store, channel.WithLogger(e.log))
	if err != nil {
		return err
	}
	descs, err := mgr.Channels(ctx, *dataset)
	if err != nil {
		return err
	}

	return writeChannels(stdout, descs, *format)
}

func writeChannels(w io.Writer, descs []channel.Descriptor, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(descs)
	case "csv":
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"dataset", "channel", "unit", "sample_rate", "start", "samples", "duration_s"})
		for _, d := range descs {
			_ = cw.Write([]string{
				d.Dataset,
				d.Name,
				d.Unit,
				strconv.FormatFloat(d.SampleRate, 'g', -1, 64),
				d.Start.Format(time.RFC3339Nano),
				strconv.Itoa(d.Samples),
				strconv.FormatFloat(d.Duration().Seconds(), 'g', -1, 64),
			})
		}
		cw.Flush()
		return cw.Error()
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Dataset\tChannel\tUnit\tRate [Hz]\tStart\tSamples\tDuration\n")
		fmt.Fprintf(tw, "-------\t-------\t----\t---------\t-----\t-------\t--------\n")
		for _, d := range descs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%s\t%s\t%s\n",
				d.Dataset, d.Name, d.Unit, d.SampleRate, d.Start.Format(time.RFC3339),
				humanize.Comma(int64(d.Samples)), d.Duration())
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
