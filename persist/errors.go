package persist

import "errors"

// Sentinel errors for persistent store operations.
var (
	// ErrNotFound indicates no record exists for the (collection, primary key) pair.
	ErrNotFound = errors.New("persist: not found")

	// ErrExpired indicates a record existed but its freshness window has
	// passed. The record is removed as a side effect of the read that
	// observed it.
	ErrExpired = errors.New("persist: expired")

	// ErrSerialize indicates an entity could not be encoded for storage.
	// The write did not happen.
	ErrSerialize = errors.New("persist: serialization failed")

	// ErrDeserialize indicates a stored record could not be decoded back
	// into the expected type. Surfaced to the reader, never treated as a
	// silent miss.
	ErrDeserialize = errors.New("persist: deserialization failed")

	// ErrInvalidRecord indicates an empty collection name or primary key.
	ErrInvalidRecord = errors.New("persist: collection and primary key are required")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("persist: store is closed")
)
