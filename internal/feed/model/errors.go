package model

import "errors"

var (
	// ErrSourceUnavailable indicates that the external source could not be
	// reached or kept failing after all retry attempts. Surfaced as a failed
	// sync run; the scheduler re-evaluates the tournament on its next tick.
	ErrSourceUnavailable = errors.New("schedule source unavailable")
	// ErrInvalidBundle indicates that the extractor returned a payload
	// without a tournament external id, so nothing can be reconciled.
	ErrInvalidBundle = errors.New("bundle is missing tournament external id")
)
