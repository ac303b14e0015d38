// Package spectrum estimates one-sided power spectral densities of
// full-resolution signals.
//
// The pieces build on each other:
//
//   - [NewPlan] turns a desired frequency resolution into a transform
//     segment length and reports the resolution actually achieved.
//   - [Welch] averages tapered, overlapping periodograms into a density PSD
//     whose integral equals the signal variance for any taper.
//   - [Maximax] runs a full Welch estimate in each fixed-duration time window
//     and keeps the elementwise maximum, the aerospace envelope convention.
//
// Every estimator validates its parameters before touching the data and
// reports failures as wrapped [core.ErrInvalidParameter],
// [core.ErrInsufficientData] or [core.ErrRateMismatch]. Nothing in the
// package holds state between calls, and inputs are never modified.
//
// The package does not implement the FFT itself; segment transforms come from
// algo-fft, block arithmetic from algo-vecmath.
package spectrum
