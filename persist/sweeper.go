package persist

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/apicache/telemetry"
)

// DefaultSweepInterval is the sweep interval used when none is configured.
const DefaultSweepInterval = 5 * time.Minute

// SweeperConfig configures the maintenance sweeper.
type SweeperConfig struct {
	// Interval between sweeps. Default: DefaultSweepInterval.
	Interval time.Duration

	// Logger receives sweep outcomes. Default: discard.
	Logger telemetry.Logger

	// Metrics receives sweep counters. Default: discard.
	Metrics telemetry.Metrics

	// OnSweep is called after each successful sweep with the number of
	// records removed.
	OnSweep func(removed int64)

	// OnError is called when a sweep fails. The next interval is still
	// scheduled.
	OnError func(err error)
}

// Sweeper periodically reclaims expired records from a Store.
//
// Contract:
// - Concurrency: Start and Stop are safe to call from multiple goroutines.
// - Idempotence: Start while running is a no-op; Stop cancels the pending
//   wait without blocking and is safe to call repeatedly.
// - Failures: a failed sweep never terminates the loop.
type Sweeper struct {
	store *Store
	cfg   SweeperConfig

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSweeper creates a sweeper for the given store.
func NewSweeper(store *Store, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.NopLogger()
	}
	cfg.Logger = cfg.Logger.WithComponent("sweeper")
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NopMetrics()
	}
	return &Sweeper{store: store, cfg: cfg}
}

// Start launches the background sweep loop. No-op if already running.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)
}

// Stop cancels the pending wait. It does not block on an in-flight sweep;
// each sweep is a single atomic delete, so cancellation never leaves a sweep
// half-applied.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Interval returns the effective sweep interval.
func (s *Sweeper) Interval() time.Duration {
	return s.cfg.Interval
}

// Running reports whether the sweep loop is active.
func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.store.ClearExpired(ctx)
	s.cfg.Metrics.RecordSweep(ctx, removed, err)

	if err != nil {
		s.cfg.Logger.Warn(ctx, "sweep failed", telemetry.F("error", err.Error()))
		if s.cfg.OnError != nil {
			s.cfg.OnError(err)
		}
		return
	}

	if removed > 0 {
		s.cfg.Logger.Debug(ctx, "sweep complete", telemetry.F("removed", removed))
	}
	if s.cfg.OnSweep != nil {
		s.cfg.OnSweep(removed)
	}
}
