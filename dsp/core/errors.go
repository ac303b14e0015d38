package core

import "errors"

var (
	// ErrInvalidParameter reports malformed or mutually inconsistent inputs:
	// non-positive rates or resolutions, overlap out of range, a transform
	// segment longer than the time window it summarizes.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInsufficientData reports a signal too short for the requested
	// operation, or an empty band or result set.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrRateMismatch reports an attempt to jointly process signals whose
	// sample rates differ.
	ErrRateMismatch = errors.New("sample rate mismatch")
)
