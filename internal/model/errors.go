package model

import "errors"

// Sentinel errors for the quote resolution contract. Callers classify with
// errors.Is; wrapped context travels alongside.
var (
	// ErrSymbolNotInUniverse means the symbol is well-formed but not part of
	// the current top-N universe.
	ErrSymbolNotInUniverse = errors.New("symbol not in tracked universe")

	// ErrSymbolNotFound means the symbol is tracked but the provider returned
	// no data for it.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrUpstreamUnavailable covers every infrastructure failure: provider
	// transport errors, cache backend failures, store failures.
	ErrUpstreamUnavailable = errors.New("upstream data source unavailable")
)
