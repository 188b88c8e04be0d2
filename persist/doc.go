// Package persist provides the durable tier of the caching engine.
//
// Records live in a single SQLite table keyed by (collection, primary key),
// each carrying a creation time and an optional expiration time. Entities
// implementing Cacheable are stored as JSON through the generic Get/Put
// helpers. A Sweeper periodically reclaims expired records.
package persist
