// Package decimate selects a bounded number of representative samples from a
// long signal for display.
//
// [MinMaxIndices] keeps the minimum and maximum of every bin so short spikes
// survive decimation; [StrideIndices] keeps every k-th sample. Both always
// retain the first and the last sample, so a decimated view spans exactly
// the same time range as its source.
package decimate
