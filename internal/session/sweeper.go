package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper runs a background loop that evicts expired in-memory sessions.
// Redis expires entries natively; this only matters for the memory backend.
type Sweeper struct {
	store    *MemoryStore
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a background expiry sweeper.
func NewSweeper(store *MemoryStore, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{store: store, interval: interval, logger: logger}
}

// Start begins the sweep loop. It runs until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("session sweeper started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if removed := s.store.Sweep(time.Now().UTC()); removed > 0 {
				s.logger.Info("expired sessions evicted", "count", removed)
			}
		}
	}
}
