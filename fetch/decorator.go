package fetch

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/apicache/cache"
	"github.com/jonwraymond/apicache/telemetry"
)

// FetchFunc performs the real network operation.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Request describes one logical read against an upstream resource.
type Request struct {
	// Resource is the identifier resolved against the caching configuration.
	Resource string

	// Path is the logical resource path the cache key is built from.
	Path string

	// Params are the effective request parameters.
	Params map[string]string

	// Headers are representation-affecting headers (content negotiation).
	// They participate in the cache key so distinct representations cache
	// separately.
	Headers map[string]string

	// Idempotent marks the request as a safe read. Non-idempotent requests
	// bypass the cache entirely, on read and on write.
	Idempotent bool
}

// Decorator wraps fetch operations with cache-first semantics.
//
// Contract:
// - Concurrency: safe for concurrent use; concurrent fetches for the same
//   key are deduplicated.
// - Side effects: confined to cache mutation; the request is never altered.
// - Writes: happen only after the fetch has fully completed successfully,
//   so a cancelled fetch never leaves a partial cache write.
type Decorator struct {
	coord       *Coordinator
	isTransient func(error) bool
	tracer      trace.Tracer
	metrics     telemetry.Metrics
	logger      telemetry.Logger
	group       singleflight.Group
}

// DecoratorOption customizes a Decorator.
type DecoratorOption func(*Decorator)

// WithTransientClassifier overrides the transient-error classifier used to
// gate stale fallback. Default: IsTransient.
func WithTransientClassifier(fn func(error) bool) DecoratorOption {
	return func(d *Decorator) {
		if fn != nil {
			d.isTransient = fn
		}
	}
}

// WithTracer attaches a tracer; each real fetch runs in a span.
func WithTracer(t trace.Tracer) DecoratorOption {
	return func(d *Decorator) {
		if t != nil {
			d.tracer = t
		}
	}
}

// WithDecoratorMetrics attaches fetch metrics.
func WithDecoratorMetrics(m telemetry.Metrics) DecoratorOption {
	return func(d *Decorator) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithDecoratorLogger attaches a structured logger.
func WithDecoratorLogger(l telemetry.Logger) DecoratorOption {
	return func(d *Decorator) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDecorator creates a decorator over the given coordinator.
func NewDecorator(coord *Coordinator, opts ...DecoratorOption) *Decorator {
	d := &Decorator{
		coord:       coord,
		isTransient: IsTransient,
		tracer:      tracenoop.NewTracerProvider().Tracer("noop"),
		metrics:     telemetry.NopMetrics(),
		logger:      telemetry.NopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.WithComponent("decorator")
	return d
}

// Fetch performs req with cache-first semantics.
//
// A live cached value is returned without invoking fetch. On a miss the
// real fetch runs; its result is written through on success. On a transient
// failure, resources configured with StaleOnError serve the last-known
// value even if expired; in every other case the original fetch error
// propagates. A cache-layer error never masks it.
func (d *Decorator) Fetch(ctx context.Context, req Request, fetch FetchFunc) ([]byte, error) {
	if fetch == nil {
		return nil, ErrNilFetch
	}

	// Non-idempotent operations never touch the cache.
	if !req.Idempotent {
		return fetch(ctx)
	}
	if !d.coord.cfg.enabled(req.Resource) {
		return fetch(ctx)
	}

	key, err := cache.NewKey(req.Path, keyParams(req))
	if err != nil {
		// Malformed key: degrade to a plain fetch rather than failing the read.
		d.logger.Warn(ctx, "key construction failed",
			telemetry.F("resource", req.Resource),
			telemetry.F("error", err.Error()))
		return fetch(ctx)
	}

	if data, err := d.coord.Load(ctx, req.Resource, key); err == nil {
		return data, nil
	}

	return d.fetchAndCache(ctx, req, key, fetch)
}

// fetchAndCache performs the real fetch once per key, writes the result
// through, and applies stale fallback on transient failure.
func (d *Decorator) fetchAndCache(ctx context.Context, req Request, key cache.Key, fetch FetchFunc) ([]byte, error) {
	v, err, _ := d.group.Do(key.String(), func() (any, error) {
		data, fetchErr := d.doFetch(ctx, req, key, fetch)
		if fetchErr == nil {
			return data, nil
		}

		rc := d.coord.cfg.Resource(req.Resource)
		if rc.StaleOnError && d.isTransient(fetchErr) {
			if stale, ok := d.coord.LoadStale(ctx, req.Resource, key); ok {
				d.metrics.RecordStale(ctx, req.Resource)
				d.logger.Info(ctx, "serving stale value after transient failure",
					telemetry.F("resource", req.Resource),
					telemetry.F("key", key.String()))
				return stale, nil
			}
		}
		return nil, fetchErr
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// doFetch runs the real fetch in a span and writes the result through.
func (d *Decorator) doFetch(ctx context.Context, req Request, key cache.Key, fetch FetchFunc) ([]byte, error) {
	ctx, span := d.tracer.Start(ctx, "cache.fetch", trace.WithAttributes(
		attribute.String("cache.resource", req.Resource),
		attribute.String("cache.key", key.String()),
	))
	defer span.End()

	start := time.Now()
	data, err := fetch(ctx)
	d.metrics.RecordFetch(ctx, req.Resource, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if storeErr := d.coord.Store(ctx, req.Resource, key, data); storeErr != nil && !errors.Is(storeErr, ErrDisabled) {
		// The fetched value is still good; a failed cache write only costs
		// the next caller a fetch.
		d.logger.Warn(ctx, "cache write failed",
			telemetry.F("resource", req.Resource),
			telemetry.F("key", key.String()),
			telemetry.F("error", storeErr.Error()))
	}
	return data, nil
}

// keyParams merges request parameters with representation-affecting headers.
// Header names are prefixed so they cannot collide with parameters.
func keyParams(req Request) map[string]string {
	if len(req.Headers) == 0 {
		return req.Params
	}
	merged := make(map[string]string, len(req.Params)+len(req.Headers))
	for k, v := range req.Params {
		merged[k] = v
	}
	for k, v := range req.Headers {
		merged["hdr:"+k] = v
	}
	return merged
}
