package usecase

import (
	"context"
	"log/slog"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/pkg/clock"
)

// stockBroadcaster emits best-effort stock snapshots after mutations. Publish
// errors are logged and never reach the caller.
type stockBroadcaster struct {
	productRepo domain.ProductRepository
	publisher   domain.BrokerPublisher
	clock       clock.Clock
}

func (b stockBroadcaster) publish(ctx context.Context, product domain.Product) {
	if b.publisher == nil {
		return
	}

	now := b.clock.Now()
	availability := product.Availability(now, "")
	err := b.publisher.PublishStockAvailable(ctx, domain.StockMessage{
		ProductID: product.ID,
		Stock:     availability.Stock,
		Available: availability.Available,
		Timestamp: now,
	})
	if err != nil {
		slog.WarnContext(ctx, "[stockBroadcaster] publish", "publishStockAvailable", err, "productId", product.ID)
	}
}

func (b stockBroadcaster) publishByID(ctx context.Context, productID string) {
	if b.publisher == nil {
		return
	}

	product, err := b.productRepo.GetByID(ctx, productID)
	if err != nil {
		slog.WarnContext(ctx, "[stockBroadcaster] publishByID", "getProduct", err, "productId", productID)
		return
	}
	b.publish(ctx, product)
}
