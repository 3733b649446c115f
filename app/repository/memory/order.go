package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"thrift-stock-service/app/domain"

	"github.com/gofrs/uuid/v5"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]domain.Order)}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		order.ID = id.String()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *order
	stored.Items = slices.Clone(order.Items)
	r.orders[order.ID] = stored
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	o.Items = slices.Clone(o.Items)
	return o, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if o.Status != from {
		return domain.ErrVersionMismatch
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	r.orders[id] = o
	return nil
}

func (r *OrderRepository) filter(param domain.GetListOrderRequest) []domain.Order {
	var orders []domain.Order
	for _, o := range r.orders {
		if param.Status != "" && string(o.Status) != param.Status {
			continue
		}
		orders = append(orders, o)
	}
	return orders
}

func (r *OrderRepository) GetListOrder(ctx context.Context, param domain.GetListOrderRequest) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	orders := r.filter(param)

	desc := strings.EqualFold(param.SortOrder, "desc")
	slices.SortFunc(orders, func(a, b domain.Order) int {
		var c int
		switch param.SortBy {
		case "total":
			c = cmp.Compare(a.Total, b.Total)
		case "status":
			c = strings.Compare(string(a.Status), string(b.Status))
		case "updated_at":
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if desc {
			return -c
		}
		return c
	})

	if param.Page > 0 && param.Limit > 0 {
		offset := (param.Page - 1) * param.Limit
		if offset >= int64(len(orders)) {
			return nil, nil
		}
		end := min(offset+param.Limit, int64(len(orders)))
		orders = orders[offset:end]
	}
	return orders, nil
}

func (r *OrderRepository) GetListOrderCount(ctx context.Context, param domain.GetListOrderRequest) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.filter(param))), nil
}
