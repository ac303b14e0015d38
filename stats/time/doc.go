// Package time computes time-domain statistics of vibration records.
//
// The variance reported here is what the integral of a density PSD of the
// same record converges to, which makes these statistics the reference for
// spectral level checks.
package time
