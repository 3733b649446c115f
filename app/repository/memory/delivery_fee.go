package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"thrift-stock-service/app/domain"
)

type DeliveryFeeRepository struct {
	mu   sync.RWMutex
	fees map[string]domain.DeliveryFee
}

func NewDeliveryFeeRepository(fees ...domain.DeliveryFee) *DeliveryFeeRepository {
	r := &DeliveryFeeRepository{fees: make(map[string]domain.DeliveryFee)}
	for _, f := range fees {
		r.fees[strings.ToLower(f.Region)] = f
	}
	return r
}

func (r *DeliveryFeeRepository) GetByRegion(ctx context.Context, region string) (domain.DeliveryFee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fees[strings.ToLower(region)]
	if !ok {
		return domain.DeliveryFee{}, domain.ErrNotFound
	}
	return f, nil
}

func (r *DeliveryFeeRepository) GetList(ctx context.Context) ([]domain.DeliveryFee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fees := make([]domain.DeliveryFee, 0, len(r.fees))
	for _, f := range r.fees {
		fees = append(fees, f)
	}
	slices.SortFunc(fees, func(a, b domain.DeliveryFee) int { return strings.Compare(a.Region, b.Region) })
	return fees, nil
}
