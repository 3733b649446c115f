package db

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// CounterStore keeps fixed-window rate-limit counters in Postgres so every
// instance shares them.
type CounterStore struct {
	conn *sql.DB
}

func NewCounterStore(db *sql.DB) *CounterStore {
	return &CounterStore{db}
}

func (s *CounterStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	query := `INSERT INTO rate_limit_counters (key, count, reset_at)
	VALUES ($1, 1, now() + make_interval(secs => $2::double precision / 1000))
	ON CONFLICT (key) DO UPDATE SET
		count = CASE WHEN rate_limit_counters.reset_at < now() THEN 1 ELSE rate_limit_counters.count + 1 END,
		reset_at = CASE WHEN rate_limit_counters.reset_at < now() THEN EXCLUDED.reset_at ELSE rate_limit_counters.reset_at END
	RETURNING count, reset_at`

	var count int64
	var resetAt time.Time
	err := s.conn.QueryRowContext(ctx, query, key, window.Milliseconds()).Scan(&count, &resetAt)
	if err != nil {
		slog.ErrorContext(ctx, "[counterStore] Increment", "queryRowContext", err)
		return 0, time.Time{}, classify(err)
	}
	return count, resetAt, nil
}

// Sweep deletes counters whose window has ended.
func (s *CounterStore) Sweep(ctx context.Context) (int, error) {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM rate_limit_counters WHERE reset_at < now()`)
	if err != nil {
		slog.ErrorContext(ctx, "[counterStore] Sweep", "execContext", err)
		return 0, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
