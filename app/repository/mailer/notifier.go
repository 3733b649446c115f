package mailer

import (
	"context"
	"log/slog"

	"thrift-stock-service/app/domain"
)

type orderNotifier struct {
	sender domain.EmailSender
}

func NewOrderNotifier(sender domain.EmailSender) domain.OrderNotifier {
	return &orderNotifier{sender}
}

func (n *orderNotifier) NotifyOrderStatus(ctx context.Context, order domain.Order, status domain.OrderStatus) (bool, error) {
	email, ok, err := OrderStatusEmail(order, status)
	if err != nil {
		slog.ErrorContext(ctx, "[orderNotifier] NotifyOrderStatus", "render", err, "orderId", order.ID)
		return false, err
	}
	if !ok {
		return false, nil
	}

	if err := n.sender.Send(ctx, email); err != nil {
		return false, err
	}
	return true, nil
}
