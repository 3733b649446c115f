package usecase

import (
	"context"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/config"
	"thrift-stock-service/pkg/clock"
	"thrift-stock-service/pkg/errs"
	"thrift-stock-service/pkg/retry"
)

type retrier struct {
	clock  clock.Clock
	policy retry.Policy
}

func newRetrier(clk clock.Clock, cfg config.ReservationConfig) retrier {
	return retrier{
		clock:  clk,
		policy: retry.Policy{Attempts: cfg.RetryAttempts, BaseDelay: cfg.RetryBaseDelay},
	}
}

// do retries fn on transient store errors and lost CAS races. A race that
// outlasts every attempt is reported as ErrStoreTransient.
func (r retrier) do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	err := retry.Do(ctx, r.clock, r.policy, name, isRetryable, fn)
	if errs.Is(err, domain.ErrVersionMismatch) {
		return errs.Mark(err, domain.ErrStoreTransient)
	}
	return err
}

func isRetryable(err error) bool {
	return errs.Is(err, domain.ErrStoreTransient) || errs.Is(err, domain.ErrVersionMismatch)
}
