// Package fetch wires the cache tiers into API call paths.
//
// The Coordinator routes reads memory-first then persistent and writes to
// every enabled tier, resolving per-resource configuration against
// store-wide defaults. The Decorator wraps an upstream fetch with
// cache-first semantics for idempotent reads: live hits skip the network,
// successful fetches are written through, and transient failures can fall
// back to the last-known value even when it has expired.
package fetch
