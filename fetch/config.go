package fetch

import (
	"time"

	"github.com/jonwraymond/apicache/cache"
)

// ResourceConfig configures caching for one logical resource.
type ResourceConfig struct {
	// Enabled turns caching on for the resource.
	Enabled bool

	// Expiration applied to values cached for the resource.
	Expiration cache.Expiration

	// StaleOnError permits serving the last-known value, even expired,
	// when a fetch fails transiently.
	StaleOnError bool
}

// Config is the store-wide caching configuration consumed by the Coordinator.
type Config struct {
	// Enabled is the global switch. When false every resource bypasses
	// the cache regardless of per-resource settings.
	Enabled bool

	// DefaultExpiration applies to resources without an explicit entry.
	DefaultExpiration cache.Expiration

	// MaxMemoryEntries bounds the memory tier. Values below 1 fall back
	// to cache.DefaultMaxEntries.
	MaxMemoryEntries int

	// Resources maps resource identifiers to their explicit configuration,
	// overriding the store-wide defaults.
	Resources map[string]ResourceConfig
}

// DefaultConfig returns the default caching configuration: enabled, five
// minute expiration, default memory bound, no per-resource overrides.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		DefaultExpiration: cache.After(5 * time.Minute),
		MaxMemoryEntries:  cache.DefaultMaxEntries,
	}
}

// Resource resolves the effective configuration for a resource identifier.
// An explicit entry wins; unknown resources fall back to the store-wide
// defaults with stale fallback off.
func (c Config) Resource(name string) ResourceConfig {
	if rc, ok := c.Resources[name]; ok {
		return rc
	}
	return ResourceConfig{
		Enabled:    c.Enabled,
		Expiration: c.DefaultExpiration,
	}
}

// enabled reports whether caching is active for the resource, honoring the
// global switch.
func (c Config) enabled(name string) bool {
	return c.Enabled && c.Resource(name).Enabled
}
