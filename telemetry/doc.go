// Package telemetry provides observability for the caching engine.
//
// It bundles a structured JSON logger, OpenTelemetry metrics for cache
// operations (hits, misses, stale serves, fetch latency, sweeps), and an
// optional tracer, behind a single Observer configured with exporter
// names (otlp, prometheus, stdout, none).
package telemetry
