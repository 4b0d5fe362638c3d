package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/PeteE/elasticmq/internal/metrics"
)

// Sweeper periodically walks every queue so that visibility-timeout expiries
// and elapsed delays reach long-polling receivers, and (when enabled) drops
// messages older than the queue's retention period. Eligibility itself is
// computed lazily at inspection time; the sweep only exists to generate the
// wake-up events no operation would otherwise trigger.
type Sweeper struct {
	store            *MemoryStore
	interval         time.Duration
	enforceRetention bool
	stopCh           chan struct{}
}

// NewSweeper creates a sweeper over the given store. An interval of zero or
// less disables sweeping entirely, leaving expiry purely lazy.
func NewSweeper(store *MemoryStore, interval time.Duration, enforceRetention bool) *Sweeper {
	return &Sweeper{
		store:            store,
		interval:         interval,
		enforceRetention: enforceRetention,
		stopCh:           make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		slog.Info("sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("sweeper started", slog.Duration("interval", s.interval), slog.Bool("retention", s.enforceRetention))

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped", slog.String("reason", "context cancelled"))
			return

		case <-s.stopCh:
			slog.Info("sweeper stopped", slog.String("reason", "stop signal"))
			return

		case <-ticker.C:
			start := time.Now()
			expired := s.store.sweepQueues(s.enforceRetention)
			metrics.SweepDuration.Observe(time.Since(start).Seconds())
			if expired > 0 {
				metrics.MessagesExpired.Add(float64(expired))
				slog.Info("retention sweep dropped messages", slog.Int("count", expired))
			}
		}
	}
}

// Stop signals the sweep loop to exit.
func (s *Sweeper) Stop() {
	close(s.stopCh)
}
