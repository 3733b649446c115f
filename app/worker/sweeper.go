package worker

import (
	"context"
	"log/slog"
	"time"

	"thrift-stock-service/app/domain"
)

// SweepFunc removes stale entries and reports how many it removed.
type SweepFunc func(ctx context.Context) (int, error)

// Sweeper runs a hygiene pass on a fixed interval until its context ends.
// Lazy expiry keeps reads correct without it; sweeping only bounds storage.
type Sweeper struct {
	name     string
	interval time.Duration
	sweep    SweepFunc
}

func NewSweeper(name string, interval time.Duration, sweep SweepFunc) *Sweeper {
	return &Sweeper{name: name, interval: interval, sweep: sweep}
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "[Sweeper] Run", "name", s.name, "interval", s.interval.String())
	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	removed, err := s.sweep(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "[Sweeper] "+s.name, "sweep", err, "removed", removed)
		return
	}
	if removed > 0 {
		slog.InfoContext(ctx, "[Sweeper] "+s.name, "removed", removed)
	}
}

// ReservationCleanup adapts the engine's expired-hold sweep to a SweepFunc.
// Per-product failures are logged by the engine; the count still reflects the
// products that were cleaned.
func ReservationCleanup(reservations domain.ReservationUsecase) SweepFunc {
	return func(ctx context.Context) (int, error) {
		result, err := reservations.CleanupExpiredReservations(ctx)
		return result.ClearedCount, err
	}
}
