package decimate

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-psd/dsp/core"
)

// DefaultTarget is the display point budget used when none is configured.
const DefaultTarget = 10000

// Strategy selects how display points are picked.
type Strategy int

const (
	// MinMax keeps the extremes of each bin.
	MinMax Strategy = iota
	// Stride keeps every k-th sample.
	Stride
)

// String returns the name accepted by [ParseStrategy].
func (s Strategy) String() string {
	switch s {
	case MinMax:
		return "minmax"
	case Stride:
		return "stride"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	v, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStrategy resolves "minmax" or "stride".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "minmax", "min-max", "":
		return MinMax, nil
	case "stride", "uniform":
		return Stride, nil
	default:
		return MinMax, fmt.Errorf("%w: unknown decimation strategy %q", core.ErrInvalidParameter, name)
	}
}

// Indices returns the retained sample indices of values for a point budget
// of target, in increasing order.
func (s Strategy) Indices(values []float64, target int) ([]int, error) {
	switch s {
	case MinMax:
		return MinMaxIndices(values, target)
	case Stride:
		return StrideIndices(len(values), target)
	default:
		return nil, fmt.Errorf("%w: unknown decimation strategy %d", core.ErrInvalidParameter, int(s))
	}
}

// StrideIndices returns indices 0, k, 2k, ... plus n-1 with the smallest
// stride k that keeps the count at or below target.
func StrideIndices(n, target int) ([]int, error) {
	if err := validate(n, target); err != nil {
		return nil, err
	}

	if n <= target {
		return identity(n), nil
	}

	stride := (n - 2 + target - 1) / (target - 1) // ceil((n-1)/(target-1))
	out := make([]int, 0, target)
	for i := 0; i < n-1; i += stride {
		out = append(out, i)
	}

	return append(out, n-1), nil
}

// MinMaxIndices splits the interior samples into (target-2)/2 bins and keeps
// the index of the minimum and of the maximum of each bin, in time order.
// The first and last samples are always kept. Budgets below 4 fall back to
// [StrideIndices].
func MinMaxIndices(values []float64, target int) ([]int, error) {
	n := len(values)
	if err := validate(n, target); err != nil {
		return nil, err
	}

	if n <= target {
		return identity(n), nil
	}

	bins := (target - 2) / 2
	if bins < 1 {
		return StrideIndices(n, target)
	}

	interior := n - 2
	out := make([]int, 0, 2+2*bins)
	out = append(out, 0)

	for b := 0; b < bins; b++ {
		lo := 1 + b*interior/bins
		hi := 1 + (b+1)*interior/bins
		if lo >= hi {
			continue
		}

		minIdx, maxIdx := lo, lo
		for i := lo + 1; i < hi; i++ {
			if values[i] < values[minIdx] {
				minIdx = i
			}
			if values[i] > values[maxIdx] {
				maxIdx = i
			}
		}

		switch {
		case minIdx == maxIdx:
			out = append(out, minIdx)
		case minIdx < maxIdx:
			out = append(out, minIdx, maxIdx)
		default:
			out = append(out, maxIdx, minIdx)
		}
	}

	return append(out, n-1), nil
}

func validate(n, target int) error {
	if target < 2 {
		return fmt.Errorf("%w: display target must be >= 2: %d", core.ErrInvalidParameter, target)
	}

	if n < 2 {
		return fmt.Errorf("%w: need at least 2 samples to decimate, have %d", core.ErrInsufficientData, n)
	}

	return nil
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}
