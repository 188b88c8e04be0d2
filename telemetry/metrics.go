package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache operation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly; recording is best-effort.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordHit records a cache hit for a resource in the given tier
	// ("memory" or "persistent").
	RecordHit(ctx context.Context, resource, tier string)

	// RecordMiss records a cache miss for a resource.
	RecordMiss(ctx context.Context, resource string)

	// RecordStale records a stale value served after a transient fetch failure.
	RecordStale(ctx context.Context, resource string)

	// RecordFetch records an upstream fetch with its duration and error status.
	RecordFetch(ctx context.Context, resource string, duration time.Duration, err error)

	// RecordSweep records a maintenance sweep with the number of records
	// removed and its error status.
	RecordSweep(ctx context.Context, removed int64, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	hits         metric.Int64Counter
	misses       metric.Int64Counter
	stale        metric.Int64Counter
	fetchTotal   metric.Int64Counter
	fetchErrors  metric.Int64Counter
	fetchLatency metric.Float64Histogram
	sweepRemoved metric.Int64Counter
	sweepErrors  metric.Int64Counter
}

// NewMetrics creates a Metrics instance backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &metricsImpl{}
	var err error

	if m.hits, err = meter.Int64Counter(
		"cache.hits",
		metric.WithDescription("Cache hits by resource and tier"),
		metric.WithUnit("{hit}"),
	); err != nil {
		return nil, err
	}

	if m.misses, err = meter.Int64Counter(
		"cache.misses",
		metric.WithDescription("Cache misses by resource"),
		metric.WithUnit("{miss}"),
	); err != nil {
		return nil, err
	}

	if m.stale, err = meter.Int64Counter(
		"cache.stale_served",
		metric.WithDescription("Stale values served after transient fetch failures"),
		metric.WithUnit("{hit}"),
	); err != nil {
		return nil, err
	}

	if m.fetchTotal, err = meter.Int64Counter(
		"cache.fetch.total",
		metric.WithDescription("Upstream fetches performed"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	if m.fetchErrors, err = meter.Int64Counter(
		"cache.fetch.errors",
		metric.WithDescription("Upstream fetch failures"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.fetchLatency, err = meter.Float64Histogram(
		"cache.fetch.duration_ms",
		metric.WithDescription("Upstream fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.sweepRemoved, err = meter.Int64Counter(
		"cache.sweep.removed",
		metric.WithDescription("Expired records removed by maintenance sweeps"),
		metric.WithUnit("{record}"),
	); err != nil {
		return nil, err
	}

	if m.sweepErrors, err = meter.Int64Counter(
		"cache.sweep.errors",
		metric.WithDescription("Maintenance sweep failures"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordHit(ctx context.Context, resource, tier string) {
	m.hits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.resource", resource),
		attribute.String("cache.tier", tier),
	))
}

func (m *metricsImpl) RecordMiss(ctx context.Context, resource string) {
	m.misses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.resource", resource),
	))
}

func (m *metricsImpl) RecordStale(ctx context.Context, resource string) {
	m.stale.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.resource", resource),
	))
}

func (m *metricsImpl) RecordFetch(ctx context.Context, resource string, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("cache.resource", resource))
	m.fetchTotal.Add(ctx, 1, opt)
	m.fetchLatency.Record(ctx, float64(duration.Milliseconds()), opt)
	if err != nil {
		m.fetchErrors.Add(ctx, 1, opt)
	}
}

func (m *metricsImpl) RecordSweep(ctx context.Context, removed int64, err error) {
	if removed > 0 {
		m.sweepRemoved.Add(ctx, removed)
	}
	if err != nil {
		m.sweepErrors.Add(ctx, 1)
	}
}

// nopMetrics discards every measurement.
type nopMetrics struct{}

// NopMetrics returns a Metrics that discards everything.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) RecordHit(context.Context, string, string)                 {}
func (nopMetrics) RecordMiss(context.Context, string)                        {}
func (nopMetrics) RecordStale(context.Context, string)                       {}
func (nopMetrics) RecordFetch(context.Context, string, time.Duration, error) {}
func (nopMetrics) RecordSweep(context.Context, int64, error)                 {}

var (
	_ Metrics = (*metricsImpl)(nil)
	_ Metrics = nopMetrics{}
)
