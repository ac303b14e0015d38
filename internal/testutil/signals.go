package testutil

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/cwbudde/algo-psd/dsp/signal"
)

// Epoch is the start time of every signal built by Full.
var Epoch = time.Date(2024, time.March, 14, 9, 30, 0, 0, time.UTC)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates uniform white noise in [-amplitude, amplitude]
// with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// GaussianNoise generates zero-mean Gaussian white noise with standard
// deviation sigma and a fixed seed.
func GaussianNoise(seed int64, sigma float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Sum adds signals elementwise into a new slice as long as the shortest one.
func Sum(parts ...[]float64) []float64 {
	if len(parts) == 0 {
		return nil
	}
	n := len(parts[0])
	for _, p := range parts[1:] {
		n = min(n, len(p))
	}
	out := make([]float64, n)
	for _, p := range parts {
		for i := range out {
			out[i] += p[i]
		}
	}
	return out
}

// Full wraps samples as a full-resolution acceleration channel starting at
// Epoch. It fails t on invalid input.
func Full(t testing.TB, sampleRate float64, samples []float64) signal.Full {
	t.Helper()
	sig, err := signal.NewFull(signal.Meta{
		Dataset:    "test",
		Channel:    "accel",
		Unit:       "g",
		SampleRate: sampleRate,
		Start:      Epoch,
	}, samples)
	if err != nil {
		t.Fatalf("NewFull: %v", err)
	}
	return sig
}
