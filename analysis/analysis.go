// Package analysis runs complete PSD calculations: load a channel, estimate
// its averaged or maximax PSD, convert to fractional-octave bands and derive
// levels and statistics.
package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-psd/channel"
	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/signal"
	"github.com/cwbudde/algo-psd/dsp/spectrum"
	"github.com/cwbudde/algo-psd/measure/level"
	"github.com/cwbudde/algo-psd/measure/octave"
	freqstats "github.com/cwbudde/algo-psd/stats/frequency"
	timestats "github.com/cwbudde/algo-psd/stats/time"
)

// Level holds the RMS levels of a result over [FMin, FMax].
type Level struct {
	FMin float64 `json:"fmin"`
	FMax float64 `json:"fmax"`
	// RMS integrates the narrowband PSD.
	RMS float64 `json:"rms"`
	// OctaveRMS integrates the octave bands; zero without bands.
	OctaveRMS float64 `json:"octaveRms,omitempty"`
}

// Result is the outcome of one Request.
type Result struct {
	Request Request   `json:"request"`
	Unit    string    `json:"unit"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Samples int       `json:"samples"`

	PSD     spectrum.PSD          `json:"psd"`
	Windows []spectrum.TimeWindow `json:"windows,omitempty"`
	Octave  *octave.Result        `json:"octave,omitempty"`
	Level   Level                 `json:"level"`

	Time     timestats.Stats `json:"time"`
	Spectral freqstats.Stats `json:"spectral"`

	// Display is the decimated view of the analysed samples, for plotting.
	Display signal.Display `json:"-"`
}

// Analyze computes req on sig. req.Channel and req.Event are not consulted;
// sig is taken as already selected.
func Analyze(sig signal.Full, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{
		Request: req,
		Unit:    sig.Unit(),
		Start:   sig.Start(),
		End:     sig.End(),
		Samples: sig.Len(),
	}

	var err error
	switch req.Kind {
	case spectrum.KindMaximax:
		p := req.MaximaxParams()
		if res.PSD, err = spectrum.Maximax(sig, p, req.estimatorOptions()...); err != nil {
			return Result{}, err
		}
		if res.Windows, err = spectrum.MaximaxWindows(sig, p); err != nil {
			return Result{}, err
		}
	default:
		plan, err := spectrum.NewPlan(sig.SampleRate(), req.DF, req.EfficientFFT)
		if err != nil {
			return Result{}, err
		}
		if res.PSD, err = spectrum.Welch(sig, plan, req.OverlapPercent, req.Taper, req.estimatorOptions()...); err != nil {
			return Result{}, err
		}
	}

	var opts []level.Option
	res.Level.FMin, res.Level.FMax = res.PSD.Span()
	if req.ranged() {
		opts = append(opts, level.WithRange(req.FMin, req.FMax))
		res.Level.FMin, res.Level.FMax = req.FMin, req.FMax
	}

	if res.Level.RMS, err = level.RMS(res.PSD, opts...); err != nil {
		return Result{}, fmt.Errorf("narrowband level: %w", err)
	}

	if req.OctaveFraction > 0 {
		fmin, fmax := req.octaveRange(res.PSD)
		bands, err := octave.Convert(res.PSD, req.OctaveFraction, fmin, fmax)
		if err != nil {
			return Result{}, fmt.Errorf("1/%d-octave bands: %w", req.OctaveFraction, err)
		}
		res.Octave = &bands

		if res.Level.OctaveRMS, err = level.RMS(bands, opts...); err != nil {
			return Result{}, fmt.Errorf("octave level: %w", err)
		}
	}

	res.Time = timestats.Of(sig)
	if res.Spectral, err = freqstats.Calculate(res.PSD); err != nil {
		return Result{}, err
	}

	return res, nil
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// Runner loads channels through a channel.Manager and analyses them.
// It holds no per-request state; one request runs at a time per call.
type Runner struct {
	mgr *channel.Manager
	log *zap.Logger
}

// NewRunner returns a runner reading through mgr.
func NewRunner(mgr *channel.Manager, opts ...Option) (*Runner, error) {
	if mgr == nil {
		return nil, fmt.Errorf("%w: nil channel manager", core.ErrInvalidParameter)
	}

	r := &Runner{mgr: mgr, log: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Run validates req, loads the requested channel (or event) at full
// resolution and analyses it.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	log := r.log.With(zap.Stringer("channel", req.Channel), zap.Stringer("kind", req.Kind))

	if err := req.Validate(); err != nil {
		log.Warn("rejected request", zap.Error(err))
		return Result{}, err
	}

	var loadOpts []channel.LoadOption
	if req.Event != nil {
		loadOpts = append(loadOpts, channel.Within(*req.Event))
	}

	began := time.Now()
	view, err := r.mgr.Load(ctx, req.Channel, loadOpts...)
	if err != nil {
		log.Error("loading channel failed", zap.Error(err))
		return Result{}, err
	}

	res, err := Analyze(view.Full, req)
	if err != nil {
		log.Error("analysis failed", zap.Error(err), zap.Int("samples", view.Full.Len()))
		return Result{}, fmt.Errorf("analysing %s: %w", req.Channel, err)
	}
	res.Display = view.Display

	peakF, peakG := res.PSD.Peak()
	log.Info("analysis complete",
		zap.Int("segmentLength", res.PSD.SegmentLength),
		zap.Float64("df", res.PSD.ActualDF),
		zap.Int("segments", res.PSD.Segments),
		zap.Int("windows", res.PSD.Windows),
		zap.Float64("rms", res.Level.RMS),
		zap.Float64("peakFrequency", peakF),
		zap.Float64("peakDensity", peakG),
		zap.Duration("took", time.Since(began)),
	)

	return res, nil
}
