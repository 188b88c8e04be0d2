// Package cache provides the in-memory tier of the caching engine.
//
// It provides canonical cache keys with order-independent parameters,
// expiration policies (never, after a duration, at an instant), and a
// bounded generic store with strict LRU eviction and lazy expiry.
package cache
