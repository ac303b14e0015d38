// Package octave integrates narrowband PSDs into fractional-octave bands.
//
// Band centers follow the base-2 series 1000·2^(n/N) Hz and band edges sit
// half a band away on a logarithmic axis, so adjacent bands share edges and
// tile the frequency axis without gaps. Each band value is the average
// density over the band, which keeps the total mean square of the PSD
// unchanged by the conversion.
package octave
