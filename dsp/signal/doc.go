// Package signal defines the two views of one acquired channel.
//
// [Full] holds every acquired sample and is the only input any spectral
// estimator accepts. [Display] is a bounded-size representative subsample of
// the same channel over the same absolute time span, meant for rendering
// only. The two are distinct types so a display buffer cannot be passed to a
// calculation by accident.
//
// Both are immutable values: accessors hand out the backing slices for
// reading, and nothing in this module writes through them.
package signal
