// Package health reports the operational state of the cache tiers.
//
// A Checker probes one component and returns a Result with a Status of
// healthy, degraded, or unhealthy. StoreChecker verifies the persistent
// tier is reachable; SweeperChecker reports whether background maintenance
// is running. An Aggregator combines registered checkers into a single
// composite status for embedding applications to expose however they like.
package health
