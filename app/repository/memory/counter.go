package memory

import (
	"context"
	"sync"
	"time"

	"thrift-stock-service/pkg/clock"
)

type window struct {
	count     int64
	resetTime time.Time
}

// CounterStore is a fixed-window counter map. It is only correct for a single
// server instance; several instances each count on their own.
type CounterStore struct {
	mu      sync.Mutex
	windows map[string]window
	clock   clock.Clock
}

func NewCounterStore(clk clock.Clock) *CounterStore {
	return &CounterStore{windows: make(map[string]window), clock: clk}
}

func (s *CounterStore) Increment(ctx context.Context, key string, d time.Duration) (int64, time.Time, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[key]
	if !ok || now.After(w.resetTime) {
		w = window{resetTime: now.Add(d)}
	}
	w.count++
	s.windows[key] = w
	return w.count, w.resetTime, nil
}

// Sweep drops windows that have ended and reports how many were removed.
func (s *CounterStore) Sweep(ctx context.Context) (int, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, w := range s.windows {
		if now.After(w.resetTime) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed, nil
}
