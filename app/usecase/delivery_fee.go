package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"thrift-stock-service/app/domain"
)

type deliveryFeeUsecase struct {
	deliveryFeeRepo domain.DeliveryFeeRepository
}

func NewDeliveryFeeUsecase(deliveryFeeRepo domain.DeliveryFeeRepository) domain.DeliveryFeeUsecase {
	return &deliveryFeeUsecase{deliveryFeeRepo}
}

func (u *deliveryFeeUsecase) GetByRegion(ctx context.Context, region string) (domain.DeliveryFee, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return domain.DeliveryFee{}, fmt.Errorf("%w: region is required", domain.ErrValidation)
	}

	fee, err := u.deliveryFeeRepo.GetByRegion(ctx, region)
	if err != nil {
		slog.ErrorContext(ctx, "[deliveryFeeUsecase] GetByRegion", "getByRegion", err)
		return domain.DeliveryFee{}, err
	}
	return fee, nil
}

func (u *deliveryFeeUsecase) GetList(ctx context.Context) ([]domain.DeliveryFee, error) {
	fees, err := u.deliveryFeeRepo.GetList(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "[deliveryFeeUsecase] GetList", "getList", err)
		return nil, err
	}
	return fees, nil
}
