package domain

import (
	"context"
	"time"
)

type OrderStatus string

const (
	OrderStatusPaymentPending      OrderStatus = "payment_pending"
	OrderStatusPaymentConfirmed    OrderStatus = "payment_confirmed"
	OrderStatusPaymentNotConfirmed OrderStatus = "payment_not_confirmed"
	OrderStatusShipped             OrderStatus = "shipped"
	OrderStatusComplete            OrderStatus = "complete"
	OrderStatusCanceled            OrderStatus = "canceled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPaymentPending:      {OrderStatusPaymentConfirmed, OrderStatusPaymentNotConfirmed, OrderStatusCanceled},
	OrderStatusPaymentNotConfirmed: {OrderStatusPaymentConfirmed, OrderStatusCanceled},
	OrderStatusPaymentConfirmed:    {OrderStatusShipped},
	OrderStatusShipped:             {OrderStatusComplete},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPaymentPending, OrderStatusPaymentConfirmed, OrderStatusPaymentNotConfirmed,
		OrderStatusShipped, OrderStatusComplete, OrderStatusCanceled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusComplete || s == OrderStatusCanceled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Price     int64  `json:"price"`
	Size      string `json:"size"`
}

type CustomerInfo struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Address string `json:"address" validate:"required"`
}

type Order struct {
	ID             string       `json:"id"`
	SessionID      string       `json:"session_id"`
	Items          []OrderItem  `json:"items"`
	Status         OrderStatus  `json:"status"`
	CustomerInfo   CustomerInfo `json:"customer_info"`
	DeliveryRegion string       `json:"delivery_region"`
	DeliveryFee    int64        `json:"delivery_fee"`
	Total          int64        `json:"total"`
	ReceiptURL     string       `json:"receipt_url,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type OrderStatusUpdateRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=payment_pending payment_confirmed payment_not_confirmed shipped complete canceled"`
}

type PromoteResult struct {
	Success   bool        `json:"success"`
	OrderID   string      `json:"order_id"`
	Status    OrderStatus `json:"status"`
	EmailSent bool        `json:"email_sent"`
	Errors    []ItemError `json:"errors,omitempty"`
}

type CheckoutRequest struct {
	SessionID      string       `json:"session_id" validate:"required,sessionid"`
	Items          []OrderItem  `json:"items" validate:"required,min=1,dive"`
	CustomerInfo   CustomerInfo `json:"customer_info" validate:"required"`
	DeliveryRegion string       `json:"delivery_region" validate:"required"`
	ReceiptURL     string       `json:"receipt_url" validate:"omitempty,url"`
}

type GetListOrderRequest struct {
	Status    string `query:"status"`
	Page      int64  `query:"page" validate:"gte=0"`
	Limit     int64  `query:"limit" validate:"gte=0,lte=100"`
	SortBy    string `query:"sort_by" validate:"omitempty,oneof=created_at updated_at total status"`
	SortOrder string `query:"sort_order" validate:"omitempty,oneof=asc desc"`
}

type Metadata struct {
	TotalData int64  `json:"total_data"`
	TotalPage int64  `json:"total_page"`
	Page      int64  `json:"page"`
	Limit     int64  `json:"limit"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

// OrderRepository.UpdateStatus only succeeds while the stored status still
// equals from; a concurrent transition yields ErrVersionMismatch.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (Order, error)
	UpdateStatus(ctx context.Context, id string, from, to OrderStatus) error
	GetListOrder(ctx context.Context, param GetListOrderRequest) ([]Order, error)
	GetListOrderCount(ctx context.Context, param GetListOrderRequest) (int64, error)
}

type OrderUsecase interface {
	PromoteOrderStatus(ctx context.Context, orderID string, status OrderStatus) (PromoteResult, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	GetListOrder(ctx context.Context, param GetListOrderRequest) ([]Order, Metadata, error)
}

type CheckoutUsecase interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (Order, error)
}
