package retry

import (
	"context"
	"log/slog"
	"time"

	"thrift-stock-service/pkg/clock"
)

type Policy struct {
	Attempts  int
	BaseDelay time.Duration
}

// Do runs fn up to p.Attempts times while retryable reports true for its error,
// sleeping BaseDelay, 2*BaseDelay, ... between attempts. The last error is
// returned unchanged.
func Do(ctx context.Context, clk clock.Clock, p Policy, name string, retryable func(error) bool, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := p.BaseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-clk.After(backoff):
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}

		slog.WarnContext(ctx, "[retry] "+name, "attempt", attempt+1, "error", err)
	}
	return lastErr
}
