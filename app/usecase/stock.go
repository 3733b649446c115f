package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/config"
	"thrift-stock-service/pkg/clock"
)

type stockUsecase struct {
	productRepo domain.ProductRepository
	broadcaster stockBroadcaster
	retrier     retrier
}

func NewStockUsecase(productRepo domain.ProductRepository, publisher domain.BrokerPublisher, clk clock.Clock, cfg *config.Config) domain.StockUsecase {
	return &stockUsecase{
		productRepo: productRepo,
		broadcaster: stockBroadcaster{productRepo: productRepo, publisher: publisher, clock: clk},
		retrier:     newRetrier(clk, cfg.Reservation),
	}
}

// DecrementStock permanently removes quantity units, flooring at zero. There is
// no automatic restock.
func (u *stockUsecase) DecrementStock(ctx context.Context, productID string, quantity int64) (domain.StockChange, error) {
	if productID == "" {
		return domain.StockChange{}, fmt.Errorf("%w: product_id is required", domain.ErrValidation)
	}
	if quantity <= 0 {
		return domain.StockChange{}, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}

	change, err := u.patch(ctx, "DecrementStock", productID, func(stock int64) (int64, error) {
		return max(stock-quantity, 0), nil
	})
	if err != nil {
		return change, err
	}

	if change.NewStock == 0 {
		slog.WarnContext(ctx, "[stockUsecase] DecrementStock", "outOfStock", productID,
			"message", "now permanently out of stock, manual restock required",
			"previousStock", change.PreviousStock)
	} else {
		slog.InfoContext(ctx, "[stockUsecase] DecrementStock", "productId", productID,
			"previousStock", change.PreviousStock, "newStock", change.NewStock)
	}
	return change, nil
}

func (u *stockUsecase) SetOutOfStock(ctx context.Context, productID string) (domain.StockChange, error) {
	if productID == "" {
		return domain.StockChange{}, fmt.Errorf("%w: product_id is required", domain.ErrValidation)
	}

	change, err := u.patch(ctx, "SetOutOfStock", productID, func(int64) (int64, error) {
		return 0, nil
	})
	if err != nil {
		return change, err
	}

	slog.WarnContext(ctx, "[stockUsecase] SetOutOfStock", "productId", productID, "previousStock", change.PreviousStock)
	return change, nil
}

func (u *stockUsecase) SetStock(ctx context.Context, productID string, stock int64) (domain.StockChange, error) {
	if productID == "" {
		return domain.StockChange{}, fmt.Errorf("%w: product_id is required", domain.ErrValidation)
	}
	if stock < 0 {
		return domain.StockChange{}, fmt.Errorf("%w: stock must not be negative", domain.ErrValidation)
	}

	change, err := u.patch(ctx, "SetStock", productID, func(int64) (int64, error) {
		return stock, nil
	})
	if err != nil {
		return change, err
	}

	slog.InfoContext(ctx, "[stockUsecase] SetStock", "productId", productID,
		"previousStock", change.PreviousStock, "newStock", change.NewStock)
	return change, nil
}

func (u *stockUsecase) patch(ctx context.Context, name, productID string, fn func(stock int64) (int64, error)) (domain.StockChange, error) {
	var change domain.StockChange
	err := u.retrier.do(ctx, name, func(ctx context.Context) error {
		var err error
		change, err = u.productRepo.PatchStock(ctx, productID, fn)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "[stockUsecase] "+name, "patchStock", err, "productId", productID)
		return domain.StockChange{}, err
	}

	u.broadcaster.publishByID(ctx, productID)
	return change, nil
}
