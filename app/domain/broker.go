package domain

import (
	"context"
	"time"
)

type StockMessage struct {
	ProductID string    `json:"product_id"`
	Stock     int64     `json:"stock"`
	Available int64     `json:"available"`
	Timestamp time.Time `json:"timestamp"`
}

type BrokerPublisher interface {
	PublishStockAvailable(ctx context.Context, data StockMessage) error
}

// StockStream hands out live stock snapshots. The cancel func stops delivery
// and closes the channel.
type StockStream interface {
	Subscribe() (<-chan StockMessage, func())
}
