package domain

import "context"

type Email struct {
	To      string
	Subject string
	HTML    string
}

type EmailSender interface {
	Send(ctx context.Context, email Email) error
}

// OrderNotifier emails the customer about a status change. sent is false when
// the status has no notification or delivery failed.
type OrderNotifier interface {
	NotifyOrderStatus(ctx context.Context, order Order, status OrderStatus) (sent bool, err error)
}
