package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/pkg/clock"
	"thrift-stock-service/pkg/ctxutil"
)

type checkoutUsecase struct {
	productRepo     domain.ProductRepository
	orderRepo       domain.OrderRepository
	deliveryFeeRepo domain.DeliveryFeeRepository
	reservations    domain.ReservationUsecase
	sessions        domain.SessionValidator
	clock           clock.Clock
}

func NewCheckoutUsecase(productRepo domain.ProductRepository,
	orderRepo domain.OrderRepository,
	deliveryFeeRepo domain.DeliveryFeeRepository,
	reservations domain.ReservationUsecase,
	sessions domain.SessionValidator,
	clk clock.Clock) domain.CheckoutUsecase {
	return &checkoutUsecase{productRepo, orderRepo, deliveryFeeRepo, reservations, sessions, clk}
}

// CreateCheckout turns the session's holds into a payment_pending order. Every
// line must already be covered by an active hold; the holds are refreshed so
// they outlive the payment step.
func (u *checkoutUsecase) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (domain.Order, error) {
	if len(req.Items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: items are required", domain.ErrValidation)
	}
	validation := u.sessions.ValidateSession(ctx, req.SessionID, ctxutil.GetRequestMeta(ctx))
	if !validation.IsValid {
		return domain.Order{}, fmt.Errorf("%w: invalid session_id", domain.ErrValidation)
	}

	fee, err := u.deliveryFeeRepo.GetByRegion(ctx, req.DeliveryRegion)
	if err != nil {
		slog.ErrorContext(ctx, "[checkoutUsecase] CreateCheckout", "getDeliveryFee", err)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Order{}, fmt.Errorf("%w: unknown delivery region %q", domain.ErrValidation, req.DeliveryRegion)
		}
		return domain.Order{}, err
	}

	lines := mergeLines(req.Items)
	now := u.clock.Now()
	held := make(map[string]int64, len(lines))
	var missing []string
	var total int64
	for i, line := range lines {
		if line.Quantity <= 0 {
			return domain.Order{}, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
		}

		product, err := u.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			slog.ErrorContext(ctx, "[checkoutUsecase] CreateCheckout", "getProduct", err, "productId", line.ProductID)
			return domain.Order{}, err
		}

		own, _ := domain.PartitionReservations(product.ActiveReservations(now), req.SessionID)
		if own == nil || own.Quantity < line.Quantity {
			missing = append(missing, line.ProductID)
			continue
		}
		held[line.ProductID] = own.Quantity

		// prices come from the catalogue, never from the client
		lines[i].Name = product.Name
		lines[i].Price = product.Price
		total += product.Price * line.Quantity
	}
	if len(missing) > 0 {
		slog.WarnContext(ctx, "[checkoutUsecase] CreateCheckout", "reservationMissing", strings.Join(missing, ","))
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrReservationMissing, strings.Join(missing, ", "))
	}

	for _, line := range lines {
		_, err := u.reservations.Reserve(ctx, domain.ReservationRequest{
			ProductID: line.ProductID,
			SessionID: req.SessionID,
			Quantity:  held[line.ProductID],
		})
		if err != nil {
			slog.ErrorContext(ctx, "[checkoutUsecase] CreateCheckout", "refreshHold", err, "productId", line.ProductID)
			return domain.Order{}, err
		}
	}

	order := domain.Order{
		SessionID:      req.SessionID,
		Items:          lines,
		Status:         domain.OrderStatusPaymentPending,
		CustomerInfo:   req.CustomerInfo,
		DeliveryRegion: fee.Region,
		DeliveryFee:    fee.Fee,
		Total:          total + fee.Fee,
		ReceiptURL:     req.ReceiptURL,
	}
	if err := u.orderRepo.Create(ctx, &order); err != nil {
		slog.ErrorContext(ctx, "[checkoutUsecase] CreateCheckout", "createOrder", err)
		return domain.Order{}, err
	}

	slog.InfoContext(ctx, "[checkoutUsecase] CreateCheckout", "orderId", order.ID, "total", order.Total, "items", len(order.Items))
	return order, nil
}
