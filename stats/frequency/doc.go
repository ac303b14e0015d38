// Package frequency computes shape descriptors of power spectral densities:
// spectral moments, centroid, apparent frequencies, flatness, roll-off and
// half-power bandwidth.
package frequency
