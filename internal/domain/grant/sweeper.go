package grant

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically removes expired grants. Expired grants are already ignored by
// Check, so the sweep only keeps the table small.
type Sweeper struct {
	ledger   Ledger
	interval time.Duration
}

// NewSweeper creates a Sweeper running every interval
func NewSweeper(l Ledger, interval time.Duration) *Sweeper {
	return &Sweeper{ledger: l, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
// A non-positive interval disables the sweeper and Run returns at once.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		slog.Info("Grant sweeper disabled")
		return nil
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.ledger.SweepExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("Grant sweep failed", "error", err)
		}
		return
	}
	if n > 0 {
		slog.Info("Swept expired deletion grants", "count", n)
	}
}
