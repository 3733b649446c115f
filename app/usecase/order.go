package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"thrift-stock-service/app/domain"
)

type orderUsecase struct {
	orderRepo    domain.OrderRepository
	reservations domain.ReservationUsecase
	stock        domain.StockUsecase
	notifier     domain.OrderNotifier
}

func NewOrderUsecase(orderRepo domain.OrderRepository,
	reservations domain.ReservationUsecase,
	stock domain.StockUsecase,
	notifier domain.OrderNotifier) domain.OrderUsecase {
	return &orderUsecase{orderRepo, reservations, stock, notifier}
}

func (u *orderUsecase) PromoteOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.PromoteResult, error) {
	if orderID == "" {
		return domain.PromoteResult{}, fmt.Errorf("%w: order_id is required", domain.ErrValidation)
	}
	if !status.Valid() {
		return domain.PromoteResult{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] PromoteOrderStatus", "getOrder", err)
		return domain.PromoteResult{}, err
	}

	result := domain.PromoteResult{OrderID: order.ID, Status: status}
	if order.Status == status {
		result.Success = true
		return result, nil
	}

	if !order.Status.CanTransitionTo(status) {
		slog.WarnContext(ctx, "[orderUsecase] PromoteOrderStatus", "invalidTransition", orderID, "from", order.Status, "to", status)
		return domain.PromoteResult{}, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, order.Status, status)
	}

	// Only the caller that wins this update runs the side effects below.
	if err := u.orderRepo.UpdateStatus(ctx, order.ID, order.Status, status); err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] PromoteOrderStatus", "updateStatus", err)
		if errors.Is(err, domain.ErrVersionMismatch) {
			return domain.PromoteResult{}, fmt.Errorf("%w: order %s changed while updating", domain.ErrVersionMismatch, order.ID)
		}
		return domain.PromoteResult{}, err
	}

	switch status {
	case domain.OrderStatusPaymentConfirmed:
		result.Errors = u.commitStock(ctx, order)
	case domain.OrderStatusPaymentNotConfirmed, domain.OrderStatusCanceled:
		result.Errors = u.releaseSessionHolds(ctx, order)
	}

	sent, err := u.notifier.NotifyOrderStatus(ctx, order, status)
	if err != nil {
		slog.WarnContext(ctx, "[orderUsecase] PromoteOrderStatus", "notify", err, "orderId", order.ID)
	}
	result.EmailSent = sent

	result.Success = len(result.Errors) == 0
	slog.InfoContext(ctx, "[orderUsecase] PromoteOrderStatus", "orderId", order.ID, "from", order.Status, "to", status,
		"emailSent", sent, "errors", len(result.Errors))
	if !result.Success {
		return result, fmt.Errorf("%w: %d stock update(s) failed for order %s", domain.ErrPartialFailure, len(result.Errors), order.ID)
	}
	return result, nil
}

// commitStock turns the order into permanent stock: every hold on each line
// product is cleared and the product's stock drops by the ordered quantity.
func (u *orderUsecase) commitStock(ctx context.Context, order domain.Order) []domain.ItemError {
	var itemErrs []domain.ItemError
	for _, line := range mergeLines(order.Items) {
		if _, err := u.reservations.ClearReservation(ctx, line.ProductID, domain.AllSessions); err != nil {
			slog.ErrorContext(ctx, "[orderUsecase] commitStock", "clearReservation", err, "productId", line.ProductID)
			itemErrs = append(itemErrs, domain.ItemError{ProductID: line.ProductID, Error: err.Error()})
		}
		if _, err := u.stock.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			slog.ErrorContext(ctx, "[orderUsecase] commitStock", "decrementStock", err, "productId", line.ProductID)
			itemErrs = append(itemErrs, domain.ItemError{ProductID: line.ProductID, Error: err.Error()})
		}
	}
	return itemErrs
}

// releaseSessionHolds drops only the ordering session's holds.
func (u *orderUsecase) releaseSessionHolds(ctx context.Context, order domain.Order) []domain.ItemError {
	if order.SessionID == "" {
		return nil
	}

	var itemErrs []domain.ItemError
	for _, line := range mergeLines(order.Items) {
		if _, err := u.reservations.ClearReservation(ctx, line.ProductID, order.SessionID); err != nil {
			slog.ErrorContext(ctx, "[orderUsecase] releaseSessionHolds", "clearReservation", err, "productId", line.ProductID)
			itemErrs = append(itemErrs, domain.ItemError{ProductID: line.ProductID, Error: err.Error()})
		}
	}
	return itemErrs
}

// mergeLines sums quantities of lines for the same product, keeping first-seen order.
func mergeLines(items []domain.OrderItem) []domain.OrderItem {
	var merged []domain.OrderItem
	index := make(map[string]int)
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

func (u *orderUsecase) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] GetOrder", "getOrder", err)
		return domain.Order{}, err
	}
	return order, nil
}

func (u *orderUsecase) GetListOrder(ctx context.Context, param domain.GetListOrderRequest) ([]domain.Order, domain.Metadata, error) {
	if param.Status != "" && !domain.OrderStatus(param.Status).Valid() {
		return nil, domain.Metadata{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, param.Status)
	}
	if param.Page <= 0 {
		param.Page = 1
	}
	if param.Limit <= 0 {
		param.Limit = 10
	}
	if param.SortBy == "" {
		param.SortBy = "created_at"
	}
	if param.SortOrder == "" {
		param.SortOrder = "desc"
	}

	orders, err := u.orderRepo.GetListOrder(ctx, param)
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] GetListOrder", "getListOrder", err)
		return nil, domain.Metadata{}, err
	}

	count, err := u.orderRepo.GetListOrderCount(ctx, param)
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] GetListOrder", "getListOrderCount", err)
		return nil, domain.Metadata{}, err
	}

	return orders, domain.Metadata{
		TotalData: count,
		TotalPage: (count + param.Limit - 1) / param.Limit,
		Page:      param.Page,
		Limit:     param.Limit,
		SortBy:    param.SortBy,
		SortOrder: param.SortOrder,
	}, nil
}
