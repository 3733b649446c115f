package broker

import (
	"context"
	"log/slog"
	"sync"

	"thrift-stock-service/app/domain"
)

const subscriberBuffer = 16

// Hub fans stock snapshots out to in-process subscribers such as open SSE
// streams. A subscriber that falls behind loses messages instead of blocking
// the sender.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	closed bool
	subs   map[int]chan domain.StockMessage
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan domain.StockMessage)}
}

// Subscribe registers a listener. The returned cancel func unregisters it and
// closes the channel.
func (h *Hub) Subscribe() (<-chan domain.StockMessage, func()) {
	ch := make(chan domain.StockMessage, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(ch)
			}
		})
	}
}

// Close ends every subscription so long-lived streams return during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Broadcast(ctx context.Context, msg domain.StockMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			slog.WarnContext(ctx, "[Hub] Broadcast", "dropped", msg.ProductID, "subscriber", id)
		}
	}
}

// PublishStockAvailable lets the hub stand in for the JetStream publisher when
// the service runs without NATS.
func (h *Hub) PublishStockAvailable(ctx context.Context, msg domain.StockMessage) error {
	h.Broadcast(ctx, msg)
	return nil
}
