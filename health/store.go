package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/apicache/persist"
)

// StoreChecker verifies the persistent cache tier is reachable.
type StoreChecker struct {
	name  string
	store *persist.Store
}

// NewStoreChecker creates a checker probing the given store.
func NewStoreChecker(name string, store *persist.Store) *StoreChecker {
	return &StoreChecker{name: name, store: store}
}

// Name identifies this checker.
func (c *StoreChecker) Name() string { return c.name }

// Check pings the store and reports the live record count as a detail.
func (c *StoreChecker) Check(ctx context.Context) Result {
	if err := c.store.Ping(ctx); err != nil {
		return Unhealthy("persistent tier unreachable", err)
	}

	result := Healthy("persistent tier reachable")
	if n, err := c.store.Count(ctx); err == nil {
		result = result.WithDetails(map[string]any{"records": n})
	}
	return result
}

// SweeperChecker reports whether background maintenance is running.
//
// A stopped sweeper is degraded, not unhealthy: reads still lazily reclaim
// expired records, but the store grows until sweeping resumes.
type SweeperChecker struct {
	name    string
	sweeper *persist.Sweeper
}

// NewSweeperChecker creates a checker observing the given sweeper.
func NewSweeperChecker(name string, sweeper *persist.Sweeper) *SweeperChecker {
	return &SweeperChecker{name: name, sweeper: sweeper}
}

// Name identifies this checker.
func (c *SweeperChecker) Name() string { return c.name }

// Check reports the sweeper's running state.
func (c *SweeperChecker) Check(_ context.Context) Result {
	if !c.sweeper.Running() {
		return Degraded("sweeper stopped")
	}
	return Healthy(fmt.Sprintf("sweeping every %s", c.sweeper.Interval()))
}

var (
	_ Checker = (*StoreChecker)(nil)
	_ Checker = (*SweeperChecker)(nil)
)
