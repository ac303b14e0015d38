// Package channel loads recorded channels from a store and hands out the two
// resolutions the rest of the system works with: the full-resolution signal
// for computation and a bounded display view for plotting.
//
// The store is always asked for every sample in the requested range. The
// display view is derived locally, so a decimated signal can never reach a
// spectral estimator.
package channel
