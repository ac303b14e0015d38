// Package window generates the tapers applied to transform segments before
// an FFT, together with the gain figures a spectral estimator needs to undo
// their effect.
//
// A density PSD divides each periodogram by sum(w[n]^2); [SumSquares] and
// [PowerGain] expose that quantity so estimates taken with different tapers
// integrate to the same signal variance.
package window
