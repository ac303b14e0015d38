package window

import (
	"fmt"

	"github.com/cwbudde/algo-psd/dsp/core"
)

// Taper errors wrap core.ErrInvalidParameter.
var (
	errEmptyCoeffs      = fmt.Errorf("%w: taper has no coefficients", core.ErrInvalidParameter)
	errZeroCoherentGain = fmt.Errorf("%w: taper sums to zero", core.ErrInvalidParameter)
	errZeroPowerGain    = fmt.Errorf("%w: taper has zero energy", core.ErrInvalidParameter)
	errMismatchedLength = fmt.Errorf("%w: samples, taper and destination differ in length", core.ErrInvalidParameter)
	errUnknownType      = fmt.Errorf("%w: unknown taper", core.ErrInvalidParameter)
)

// checkShape validates the length and shape parameter of a parametric taper.
func checkShape(t Type, size int, v float64) error {
	if size <= 0 {
		return fmt.Errorf("%w: taper length must be > 0: %d", core.ErrInvalidParameter, size)
	}

	switch t {
	case TypeKaiser:
		if v < 0 {
			return fmt.Errorf("%w: kaiser beta must be >= 0: %f", core.ErrInvalidParameter, v)
		}
	case TypeTukey:
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: tukey alpha must be in [0,1]: %f", core.ErrInvalidParameter, v)
		}
	}

	return nil
}
