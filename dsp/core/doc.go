// Package core holds the pieces shared by every spectral package: the error
// kinds reported by planners, estimators and integrators, and a handful of
// numeric helpers.
//
// Errors are sentinels meant for [errors.Is]. Each failure wraps exactly one
// of them together with the offending values:
//
//	psd, err := spectrum.Welch(sig, plan, 50, window.TypeHann)
//	if errors.Is(err, core.ErrInsufficientData) {
//		// lower the resolution and try again
//	}
package core
