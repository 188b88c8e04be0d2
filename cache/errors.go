package cache

import "errors"

// MaxKeyLength is the maximum allowed length for a key's canonical form.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	// ErrInvalidKey indicates a key could not be constructed from its inputs.
	ErrInvalidKey = errors.New("cache: key is invalid")

	// ErrKeyTooLong indicates a key's canonical form exceeds MaxKeyLength.
	ErrKeyTooLong = errors.New("cache: key exceeds max length")

	// ErrNotFound indicates no record exists for the key.
	ErrNotFound = errors.New("cache: not found")

	// ErrExpired indicates a record exists but its freshness window has
	// passed. Layers deciding on stale fallback use this to tell a stale
	// record apart from a missing one.
	ErrExpired = errors.New("cache: expired")
)
