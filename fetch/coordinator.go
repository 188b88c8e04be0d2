package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/apicache/cache"
	"github.com/jonwraymond/apicache/persist"
	"github.com/jonwraymond/apicache/telemetry"
)

// Coordinator routes cache operations across the memory and persistent
// tiers according to per-resource configuration.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Routing: reads consult memory first, then the persistent tier; writes
//   go to every enabled tier.
// - Warming: a persistent-tier hit does not warm the memory tier.
type Coordinator struct {
	cfg     Config
	mem     *cache.MemoryStore[string, []byte]
	disk    *persist.Store
	metrics telemetry.Metrics
	logger  telemetry.Logger
}

// CoordinatorOption customizes a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithPersistentStore attaches a persistent tier. Without one the
// coordinator is memory-only.
func WithPersistentStore(s *persist.Store) CoordinatorOption {
	return func(c *Coordinator) { c.disk = s }
}

// WithMetrics attaches cache operation metrics.
func WithMetrics(m telemetry.Metrics) CoordinatorOption {
	return func(c *Coordinator) { c.metrics = m }
}

// WithLogger attaches a structured logger.
func WithLogger(l telemetry.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator creates a coordinator with a fresh memory tier bounded by
// cfg.MaxMemoryEntries.
func NewCoordinator(cfg Config, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		cfg:     cfg,
		mem:     cache.NewMemoryStore[string, []byte](cfg.MaxMemoryEntries),
		metrics: telemetry.NopMetrics(),
		logger:  telemetry.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("coordinator")
	return c
}

// Load returns the freshest cached value for (resource, key).
//
// Misses are reported as cache.ErrNotFound; a record that exists in some
// tier but is past its freshness window is reported as cache.ErrExpired so
// callers can decide on stale fallback. For resources with stale fallback
// enabled the read is side-effect free, keeping the expired record around;
// otherwise expired records are reclaimed lazily as the tiers are read.
func (c *Coordinator) Load(ctx context.Context, resource string, key cache.Key) ([]byte, error) {
	if !c.cfg.enabled(resource) {
		return nil, ErrDisabled
	}
	rc := c.cfg.Resource(resource)
	k := key.String()
	now := time.Now()
	sawExpired := false

	if rc.StaleOnError {
		if rec, ok := c.mem.Entry(k); ok {
			if !rec.Expired(now) {
				c.metrics.RecordHit(ctx, resource, "memory")
				return rec.Value, nil
			}
			sawExpired = true
		}
	} else if v, ok := c.mem.Get(k); ok {
		c.metrics.RecordHit(ctx, resource, "memory")
		return v, nil
	}

	if c.disk != nil {
		data, expired, err := c.loadPersistent(ctx, resource, k, rc.StaleOnError, now)
		switch {
		case err == nil && !expired:
			c.metrics.RecordHit(ctx, resource, "persistent")
			return data, nil
		case err == nil && expired:
			sawExpired = true
		case errors.Is(err, persist.ErrExpired):
			sawExpired = true
		case errors.Is(err, persist.ErrNotFound):
			// fall through to miss
		default:
			return nil, err
		}
	}

	c.metrics.RecordMiss(ctx, resource)
	if sawExpired {
		return nil, cache.ErrExpired
	}
	return nil, cache.ErrNotFound
}

// loadPersistent reads the persistent tier. With keepStale the read is
// side-effect free and expired is reported through the bool; without it the
// store's lazy reclamation runs.
func (c *Coordinator) loadPersistent(ctx context.Context, resource, k string, keepStale bool, now time.Time) (data []byte, expired bool, err error) {
	if keepStale {
		rec, err := c.disk.Record(ctx, resource, k)
		if err != nil {
			return nil, false, err
		}
		if rec.Expired(now) {
			return nil, true, nil
		}
		return rec.Data, false, nil
	}

	data, err = c.disk.GetRecord(ctx, resource, k)
	return data, false, err
}

// LoadStale returns the last-known value for (resource, key) ignoring
// freshness, memory tier first. Used only on the stale-fallback path.
func (c *Coordinator) LoadStale(ctx context.Context, resource string, key cache.Key) ([]byte, bool) {
	k := key.String()

	if rec, ok := c.mem.Entry(k); ok {
		return rec.Value, true
	}
	if c.disk != nil {
		rec, err := c.disk.Record(ctx, resource, k)
		if err == nil {
			return rec.Data, true
		}
	}
	return nil, false
}

// Store writes the value into every enabled tier under the resource's
// effective expiration.
func (c *Coordinator) Store(ctx context.Context, resource string, key cache.Key, data []byte) error {
	if !c.cfg.enabled(resource) {
		return ErrDisabled
	}
	rc := c.cfg.Resource(resource)
	k := key.String()

	c.mem.Set(k, data, rc.Expiration)

	if c.disk != nil {
		if err := c.disk.PutRecord(ctx, resource, k, data, rc.Expiration); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the value for (resource, key) from every tier. Idempotent.
func (c *Coordinator) Remove(ctx context.Context, resource string, key cache.Key) error {
	k := key.String()
	c.mem.Remove(k)
	if c.disk != nil {
		return c.disk.Remove(ctx, resource, k)
	}
	return nil
}

// Clear empties every tier.
func (c *Coordinator) Clear(ctx context.Context) error {
	c.mem.Clear()
	if c.disk != nil {
		return c.disk.Clear(ctx)
	}
	return nil
}

// Memory exposes the memory tier, mainly for inspection in tests.
func (c *Coordinator) Memory() *cache.MemoryStore[string, []byte] {
	return c.mem
}
