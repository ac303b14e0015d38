package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-psd/analysis"
	"github.com/cwbudde/algo-psd/channel"
	"github.com/cwbudde/algo-psd/dsp/signal"
	"github.com/cwbudde/algo-psd/dsp/spectrum"
	"github.com/cwbudde/algo-psd/dsp/window"
	"github.com/cwbudde/algo-psd/internal/config"
)

func runPSD(ctx context.Context, args []string, stdout io.Writer) error {
	return runSpectrum(ctx, spectrum.KindAveraged, args, stdout)
}

func runMaximax(ctx context.Context, args []string, stdout io.Writer) error {
	return runSpectrum(ctx, spectrum.KindMaximax, args, stdout)
}

// spectrumFlags mirror the analysis, maximax and octave sections of the
// configuration.
type spectrumFlags struct {
	globalFlags
	dataset, channel string
	from, to         float64

	df            float64
	efficient     bool
	overlap       float64
	taper         window.Type
	taperShape    float64
	detrend       spectrum.Detrend
	window        float64
	windowOverlap float64
	fraction      int
	fmin, fmax    float64

	format string
	bands  bool
	output string
}

func (f *spectrumFlags) register(fs *flag.FlagSet) {
	f.globalFlags.register(fs)
	fs.StringVar(&f.dataset, "dataset", "", "dataset of the channel")
	fs.StringVar(&f.channel, "channel", "", "channel name")
	fs.Float64Var(&f.from, "from", math.NaN(), "start of the analysed range in seconds from the recording start")
	fs.Float64Var(&f.to, "to", math.NaN(), "end of the analysed range in seconds from the recording start")
	fs.Float64Var(&f.df, "df", 0, "desired frequency resolution in Hz")
	fs.BoolVar(&f.efficient, "efficient", true, "round the segment length up to a power of two")
	fs.Float64Var(&f.overlap, "overlap", 0, "segment overlap in percent")
	fs.TextVar(&f.taper, "taper", window.TypeHann, "taper (see taperinfo -list)")
	fs.Float64Var(&f.taperShape, "taper-shape", 0, "kaiser beta or tukey fraction, 0 keeps the default")
	fs.TextVar(&f.detrend, "detrend", spectrum.DetrendConstant, "per-segment detrend (constant, linear, none)")
	fs.Float64Var(&f.window, "window", 0, "maximax window duration in seconds")
	fs.Float64Var(&f.windowOverlap, "window-overlap", 0, "maximax window overlap in percent")
	fs.IntVar(&f.fraction, "fraction", 0, "octave fraction N of 1/N-octave bands, 0 disables bands")
	fs.Float64Var(&f.fmin, "fmin", 0, "lower frequency limit for bands and levels")
	fs.Float64Var(&f.fmax, "fmax", 0, "upper frequency limit for bands and levels")
	fs.StringVar(&f.format, "format", "table", "output format (table, csv, json)")
	fs.BoolVar(&f.bands, "bands", false, "print the octave bands instead of the narrowband PSD")
	fs.StringVar(&f.output, "o", "", "write the result to this file instead of stdout")
}

func (f *spectrumFlags) apply(fs *flag.FlagSet, cfg *config.Config) {
	visit(fs, map[string]func(){
		"df":             func() { cfg.Analysis.DF = f.df },
		"efficient":      func() { cfg.Analysis.EfficientFFT = f.efficient },
		"overlap":        func() { cfg.Analysis.Overlap = f.overlap },
		"taper":          func() { cfg.Analysis.Taper = f.taper },
		"taper-shape":    func() { cfg.Analysis.TaperShape = f.taperShape },
		"detrend":        func() { cfg.Analysis.Detrend = f.detrend },
		"window":         func() { cfg.Maximax.WindowDuration = f.window },
		"window-overlap": func() { cfg.Maximax.WindowOverlap = f.windowOverlap },
		"fraction":       func() { cfg.Octave.Fraction = f.fraction },
		"fmin":           func() { cfg.Octave.FMin = f.fmin },
		"fmax":           func() { cfg.Octave.FMax = f.fmax },
	})
}

func runSpectrum(ctx context.Context, kind spectrum.Kind, args []string, stdout io.Writer) (err error) {
	fs := flag.NewFlagSet(kind.String(), flag.ContinueOnError)
	var f spectrumFlags
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if f.dataset == "" || f.channel == "" {
		return fmt.Errorf("-dataset and -channel are required")
	}
	cfg, err := f.load(fs)
	if err != nil {
		return err
	}
	f.apply(fs, &cfg)
	if f.bands && cfg.Octave.Fraction == 0 {
		cfg.Octave.Fraction = 3
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

	mgr, err := channel.NewManager(e.store,
		channel.WithDisplayTarget(cfg.Display.Target),
		channel.WithStrategy(cfg.Display.Strategy),
		channel.WithLogger(e.log))
	if err != nil {
		return err
	}
	runner, err := analysis.NewRunner(mgr, analysis.WithLogger(e.log))
	if err != nil {
		return err
	}

	ref := channel.Ref{Dataset: f.dataset, Channel: f.channel}
	req := cfg.Request(ref, kind)
	if !math.IsNaN(f.from) || !math.IsNaN(f.to) {
		ev, err := eventOf(ctx, mgr, ref, f.from, f.to)
		if err != nil {
			return err
		}
		req.Event = &ev
	}

	res, err := runner.Run(ctx, req)
	if err != nil {
		return err
	}

	w := stdout
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = file
		e.log.Info("writing result", zap.String("file", f.output), zap.String("format", f.format))
	}

	return writeResult(w, res, f.format, f.bands)
}

// eventOf converts second offsets into an absolute range of ref. A NaN
// offset means the start or end of the recording.
func eventOf(ctx context.Context, mgr *channel.Manager, ref channel.Ref, from, to float64) (signal.Event, error) {
	descs, err := mgr.Channels(ctx, ref.Dataset)
	if err != nil {
		return signal.Event{}, err
	}
	desc, err := channel.Find(descs, ref)
	if err != nil {
		return signal.Event{}, err
	}

	ev := signal.Event{Start: desc.Start, End: desc.Start.Add(desc.Offset(desc.Samples - 1))}
	if !math.IsNaN(from) {
		ev.Start = desc.Start.Add(time.Duration(from * float64(time.Second)))
	}
	if !math.IsNaN(to) {
		ev.End = desc.Start.Add(time.Duration(to * float64(time.Second)))
	}
	return ev, ev.Validate()
}
