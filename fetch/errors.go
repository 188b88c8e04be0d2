package fetch

import "errors"

// Sentinel errors for fetch operations.
var (
	// ErrDisabled indicates caching is turned off globally or for the
	// resource; callers go straight to the upstream.
	ErrDisabled = errors.New("fetch: caching disabled")

	// ErrNilFetch indicates a nil fetch function was supplied.
	ErrNilFetch = errors.New("fetch: fetch function is nil")
)
