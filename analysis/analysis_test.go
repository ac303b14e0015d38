package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cwbudde/algo-psd/channel"
	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/signal"
	"github.com/cwbudde/algo-psd/dsp/spectrum"
	"github.com/cwbudde/algo-psd/dsp/window"
	"github.com/cwbudde/algo-psd/internal/testutil"
)

const fs = 1024.0

var ref = channel.Ref{Dataset: "FT-104", Channel: "accel"}

func noise(t *testing.T) signal.Full {
	t.Helper()
	return testutil.Full(t, fs, testutil.GaussianNoise(11, 0.5, 64*1024))
}

func TestAnalyzeAveragedMatchesTimeDomain(t *testing.T) {
	sig := noise(t)

	res, err := Analyze(sig, DefaultRequest(ref))
	require.NoError(t, err)

	assert.Equal(t, spectrum.KindAveraged, res.PSD.Kind)
	assert.Equal(t, 1024, res.PSD.SegmentLength)
	assert.Equal(t, 127, res.PSD.Segments)
	assert.Equal(t, sig.Len(), res.Samples)
	assert.Equal(t, "g", res.Unit)
	assert.True(t, res.End.Equal(sig.End()))

	testutil.RequireRelNear(t, "narrowband rms", res.Level.RMS, res.Time.StdDev, 0.02)

	require.NotNil(t, res.Octave)
	assert.Equal(t, 3, res.Octave.Fraction)
	testutil.RequireRelNear(t, "octave rms", res.Level.OctaveRMS, res.Level.RMS, 0.02)

	testutil.RequireRelNear(t, "spectral mean square", res.Spectral.MeanSquare, res.Level.RMS*res.Level.RMS, 1e-6)
	assert.Equal(t, 0.0, res.Level.FMin)
	assert.Equal(t, 512.0, res.Level.FMax)
}

func TestAnalyzeMaximaxEnvelopesAverage(t *testing.T) {
	sig := noise(t)

	avg, err := Analyze(sig, DefaultRequest(ref))
	require.NoError(t, err)

	req := DefaultRequest(ref)
	req.Kind = spectrum.KindMaximax
	req.WindowDuration = 4
	req.WindowOverlapPercent = 0
	mx, err := Analyze(sig, req)
	require.NoError(t, err)

	assert.Equal(t, spectrum.KindMaximax, mx.PSD.Kind)
	assert.Equal(t, 16, mx.PSD.Windows)
	assert.Len(t, mx.Windows, 16)
	assert.Equal(t, spectrum.KindMaximax, mx.Octave.Kind)
	assert.Greater(t, mx.Level.RMS, avg.Level.RMS)
}

func TestAnalyzeRange(t *testing.T) {
	samples := testutil.Sum(
		testutil.DeterministicSine(50, fs, 1, 16*1024),
		testutil.DeterministicSine(200, fs, 2, 16*1024),
	)
	sig := testutil.Full(t, fs, samples)

	req := DefaultRequest(ref)
	req.FMin, req.FMax = 20, 100
	res, err := Analyze(sig, req)
	require.NoError(t, err)

	testutil.RequireRelNear(t, "band rms", res.Level.RMS, 1/1.4142135623730951, 0.01)
	testutil.RequireRelNear(t, "octave band rms", res.Level.OctaveRMS, 1/1.4142135623730951, 0.02)
	assert.Equal(t, 20.0, res.Level.FMin)
	assert.Equal(t, 100.0, res.Level.FMax)

	for _, b := range res.Octave.Bands {
		assert.GreaterOrEqual(t, b.Center, 20.0)
		assert.LessOrEqual(t, b.Center, 100.0)
	}

	assert.InDelta(t, 200.0, res.Spectral.PeakFrequency, 1e-9)
}

func TestAnalyzeWithoutBands(t *testing.T) {
	req := DefaultRequest(ref)
	req.OctaveFraction = 0

	res, err := Analyze(noise(t), req)
	require.NoError(t, err)
	assert.Nil(t, res.Octave)
	assert.Zero(t, res.Level.OctaveRMS)
}

func TestValidate(t *testing.T) {
	reversed := signal.Event{Start: testutil.Epoch.Add(time.Second), End: testutil.Epoch}

	tests := []struct {
		name   string
		modify func(*Request)
	}{
		{"zero df", func(r *Request) { r.DF = 0 }},
		{"full overlap", func(r *Request) { r.OverlapPercent = 100 }},
		{"unknown kind", func(r *Request) { r.Kind = spectrum.Kind(7) }},
		{"negative fraction", func(r *Request) { r.OctaveFraction = -1 }},
		{"inverted range", func(r *Request) { r.FMin, r.FMax = 100, 20 }},
		{"reversed event", func(r *Request) { r.Event = &reversed }},
		{"negative taper shape", func(r *Request) { r.TaperShape = -2 }},
		{"tukey fraction above one", func(r *Request) {
			r.Taper = window.TypeTukey
			r.TaperShape = 1.5
		}},
		{"maximax without window", func(r *Request) {
			r.Kind = spectrum.KindMaximax
			r.WindowDuration = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := DefaultRequest(ref)
			tt.modify(&req)
			err := req.Validate()
			assert.True(t, errors.Is(err, core.ErrInvalidParameter), "err=%v", err)
		})
	}

	assert.NoError(t, DefaultRequest(ref).Validate())
}

func TestAnalyzeTaperShape(t *testing.T) {
	sig := testutil.Full(t, fs, testutil.GaussianNoise(41, 1, 16*1024))

	hann, err := Analyze(sig, DefaultRequest(ref))
	require.NoError(t, err)

	req := DefaultRequest(ref)
	req.Taper = window.TypeTukey
	req.TaperShape = 1
	tukey, err := Analyze(sig, req)
	require.NoError(t, err)
	assert.InDeltaSlice(t, hann.PSD.Values, tukey.PSD.Values, 1e-12)

	req.Kind = spectrum.KindMaximax
	req.TaperShape = 0.25
	short, err := Analyze(sig, req)
	require.NoError(t, err)

	req.TaperShape = 0
	def, err := Analyze(sig, req)
	require.NoError(t, err)
	assert.NotEqual(t, def.PSD.Values, short.PSD.Values)
}

func TestAnalyzeShortSignal(t *testing.T) {
	sig := testutil.Full(t, fs, testutil.GaussianNoise(3, 1, 512))

	_, err := Analyze(sig, DefaultRequest(ref))
	assert.True(t, errors.Is(err, core.ErrInsufficientData), "err=%v", err)

	req := DefaultRequest(ref)
	req.Kind = spectrum.KindMaximax
	_, err = Analyze(sig, req)
	assert.True(t, errors.Is(err, core.ErrInsufficientData), "err=%v", err)
}

func newRunner(t *testing.T) (*Runner, *observer.ObservedLogs) {
	t.Helper()

	store := channel.NewMemStore()
	require.NoError(t, store.Add(channel.Descriptor{
		Dataset:    ref.Dataset,
		Name:       ref.Channel,
		Unit:       "g",
		SampleRate: fs,
		Start:      testutil.Epoch,
	}, testutil.GaussianNoise(5, 1, 120*1024)))

	obs, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(obs)

	mgr, err := channel.NewManager(store, channel.WithLogger(log))
	require.NoError(t, err)
	r, err := NewRunner(mgr, WithLogger(log))
	require.NoError(t, err)

	return r, logs
}

func TestRunnerRun(t *testing.T) {
	r, logs := newRunner(t)

	res, err := r.Run(context.Background(), DefaultRequest(ref))
	require.NoError(t, err)
	assert.Equal(t, 120*1024, res.Samples)
	assert.LessOrEqual(t, res.Display.Len(), 10000)
	assert.True(t, res.Display.End().Equal(res.End))

	entries := logs.FilterMessage("analysis complete").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "FT-104/accel", entries[0].ContextMap()["channel"])
	assert.Equal(t, int64(1024), entries[0].ContextMap()["segmentLength"])
}

func TestRunnerRunEvent(t *testing.T) {
	r, _ := newRunner(t)

	req := DefaultRequest(ref)
	req.Event = &signal.Event{Start: testutil.Epoch.Add(10 * time.Second), End: testutil.Epoch.Add(40 * time.Second)}
	res, err := r.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 30*1024+1, res.Samples)
	assert.True(t, res.Start.Equal(req.Event.Start))
	assert.True(t, res.End.Equal(req.Event.End))
}

func TestRunnerErrors(t *testing.T) {
	r, logs := newRunner(t)

	req := DefaultRequest(channel.Ref{Dataset: "FT-104", Channel: "missing"})
	_, err := r.Run(context.Background(), req)
	assert.True(t, errors.Is(err, channel.ErrChannelNotFound), "err=%v", err)
	assert.Equal(t, 1, logs.FilterMessage("loading channel failed").Len())

	req = DefaultRequest(ref)
	req.DF = -1
	_, err = r.Run(context.Background(), req)
	assert.True(t, errors.Is(err, core.ErrInvalidParameter), "err=%v", err)
	assert.Equal(t, 1, logs.FilterMessage("rejected request").Len())

	_, err = NewRunner(nil)
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))
}

func TestResultJSON(t *testing.T) {
	res, err := Analyze(noise(t), DefaultRequest(ref))
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "psd")
	assert.Contains(t, doc, "octave")
	assert.NotContains(t, doc, "Display")
	assert.NotContains(t, doc, "windows")

	request := doc["request"].(map[string]any)
	assert.Equal(t, "averaged", request["kind"])
	assert.Equal(t, "hann", request["taper"])
	assert.Equal(t, "constant", request["detrend"])

	var back Request
	require.NoError(t, json.Unmarshal(data, &struct {
		Request *Request `json:"request"`
	}{&back}))
	assert.Equal(t, res.Request, back)
}
