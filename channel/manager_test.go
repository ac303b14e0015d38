package channel

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/decimate"
	"github.com/cwbudde/algo-psd/dsp/signal"
)

var t0 = time.Date(2023, time.June, 2, 14, 0, 0, 0, time.UTC)

func sine(n int, fs float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * 7 * float64(i) / fs)
	}
	return out
}

func newStore(t *testing.T) *MemStore {
	t.Helper()
	s := NewMemStore()
	require.NoError(t, s.Add(Descriptor{Dataset: "FT-104", Name: "wing.ax", Unit: "g", SampleRate: 2000, Start: t0}, sine(200_000, 2000)))
	require.NoError(t, s.Add(Descriptor{Dataset: "FT-104", Name: "fus.az", Unit: "g", SampleRate: 100, Start: t0}, sine(1000, 100)))
	require.NoError(t, s.Add(Descriptor{Dataset: "FT-104", Name: "stub", Unit: "g", SampleRate: 100, Start: t0}, []float64{1}))
	return s
}

func TestLoadSmallChannelIsNotDecimated(t *testing.T) {
	m, err := NewManager(newStore(t))
	require.NoError(t, err)

	v, err := m.Load(context.Background(), Ref{Dataset: "FT-104", Channel: "fus.az"})
	require.NoError(t, err)

	assert.Equal(t, 1000, v.Full.Len())
	assert.Equal(t, 1000, v.Display.Len())
	assert.False(t, v.Display.Decimated())
	assert.Equal(t, v.Full.Samples(), v.Display.Values())
}

func TestLoadLargeChannelIsBounded(t *testing.T) {
	for _, strategy := range []decimate.Strategy{decimate.MinMax, decimate.Stride} {
		t.Run(strategy.String(), func(t *testing.T) {
			m, err := NewManager(newStore(t), WithStrategy(strategy))
			require.NoError(t, err)

			v, err := m.Load(context.Background(), Ref{Dataset: "FT-104", Channel: "wing.ax"})
			require.NoError(t, err)

			assert.Equal(t, 200_000, v.Full.Len(), "full view must keep every sample")
			assert.LessOrEqual(t, v.Display.Len(), decimate.DefaultTarget)
			assert.True(t, v.Display.Decimated())
			assert.True(t, v.Display.Start().Equal(v.Full.Start()))
			assert.True(t, v.Display.End().Equal(v.Full.End()))
			assert.Equal(t, v.Full.SampleRate(), v.Display.SampleRate())
		})
	}
}

func TestLoadCustomTarget(t *testing.T) {
	m, err := NewManager(newStore(t), WithDisplayTarget(500))
	require.NoError(t, err)

	v, err := m.Load(context.Background(), Ref{Dataset: "FT-104", Channel: "fus.az"})
	require.NoError(t, err)
	assert.LessOrEqual(t, v.Display.Len(), 500)
	assert.Equal(t, 1000, v.Full.Len())
}

func TestLoadErrors(t *testing.T) {
	m, err := NewManager(newStore(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = m.Load(ctx, Ref{Dataset: "FT-104", Channel: "stub"})
	assert.True(t, errors.Is(err, core.ErrInsufficientData), "err=%v", err)

	_, err = m.Load(ctx, Ref{Dataset: "FT-104", Channel: "missing"})
	assert.True(t, errors.Is(err, ErrChannelNotFound), "err=%v", err)

	_, err = m.LoadEvent(ctx, Ref{Dataset: "FT-104", Channel: "fus.az"}, signal.Event{Start: t0.Add(time.Second), End: t0})
	assert.True(t, errors.Is(err, core.ErrInvalidParameter), "err=%v", err)

	_, err = m.LoadEvent(ctx, Ref{Dataset: "FT-104", Channel: "fus.az"}, signal.Event{Start: t0.Add(time.Hour), End: t0.Add(2 * time.Hour)})
	assert.True(t, errors.Is(err, core.ErrInsufficientData), "err=%v", err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = m.Load(cancelled, Ref{Dataset: "FT-104", Channel: "fus.az"})
	assert.True(t, errors.Is(err, context.Canceled), "err=%v", err)
}

func TestLoadEvent(t *testing.T) {
	m, err := NewManager(newStore(t))
	require.NoError(t, err)

	ev := signal.Event{Start: t0.Add(2 * time.Second), End: t0.Add(3 * time.Second)}
	v, err := m.LoadEvent(context.Background(), Ref{Dataset: "FT-104", Channel: "fus.az"}, ev)
	require.NoError(t, err)

	assert.Equal(t, 101, v.Full.Len())
	assert.True(t, v.Full.Start().Equal(ev.Start), "start=%v", v.Full.Start())
	assert.True(t, v.Full.End().Equal(ev.End), "end=%v", v.Full.End())
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(nil)
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))

	_, err = NewManager(NewMemStore(), WithDisplayTarget(1))
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))
}

func TestChannels(t *testing.T) {
	m, err := NewManager(newStore(t))
	require.NoError(t, err)

	descs, err := m.Channels(context.Background(), "FT-104")
	require.NoError(t, err)
	require.Len(t, descs, 3)
	assert.Equal(t, "fus.az", descs[0].Name)
	assert.Equal(t, 200_000, descs[2].Samples)
	assert.Equal(t, 100*time.Second, descs[2].Duration())

	_, err = m.Channels(context.Background(), "FT-999")
	assert.True(t, errors.Is(err, ErrChannelNotFound))
}

func TestLoadLogs(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	m, err := NewManager(newStore(t), WithLogger(zap.New(obs)))
	require.NoError(t, err)

	_, err = m.Load(context.Background(), Ref{Dataset: "FT-104", Channel: "wing.ax"})
	require.NoError(t, err)

	entries := logs.FilterMessage("loaded channel").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "200,000", fields["samples"])
	assert.Equal(t, "FT-104/wing.ax", fields["channel"])
}

func TestIndexRange(t *testing.T) {
	d := Descriptor{Dataset: "d", Name: "c", SampleRate: 10, Start: t0, Samples: 100}

	from, to, err := d.IndexRange(nil)
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 100}, [2]int{from, to})

	from, to, err = d.IndexRange(&TimeRange{Start: t0.Add(-time.Second), End: t0.Add(1500 * time.Millisecond)})
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 16}, [2]int{from, to})

	from, to, err = d.IndexRange(&TimeRange{Start: t0.Add(2050 * time.Millisecond), End: t0.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, [2]int{21, 100}, [2]int{from, to})
}
