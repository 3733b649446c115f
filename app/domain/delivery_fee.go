package domain

import (
	"context"
	"time"
)

type DeliveryFee struct {
	Region    string    `json:"region"`
	Fee       int64     `json:"fee"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DeliveryFeeRepository interface {
	GetByRegion(ctx context.Context, region string) (DeliveryFee, error)
	GetList(ctx context.Context) ([]DeliveryFee, error)
}

type DeliveryFeeUsecase interface {
	GetByRegion(ctx context.Context, region string) (DeliveryFee, error)
	GetList(ctx context.Context) ([]DeliveryFee, error)
}
