package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"thrift-stock-service/app/domain"
)

// ProductRepository keeps products in process memory. Writes follow the same
// version check as the Postgres store, under a mutex.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]domain.Product)}
}

// Seed inserts or overwrites a product, keeping its version.
func (r *ProductRepository) Seed(p domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Reservations = slices.Clone(p.Reservations)
	r.products[p.ID] = p
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	p.Reservations = slices.Clone(p.Reservations)
	return p, nil
}

func (r *ProductRepository) ListWithReservations(ctx context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var products []domain.Product
	for _, p := range r.products {
		if len(p.Reservations) == 0 {
			continue
		}
		p.Reservations = slices.Clone(p.Reservations)
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int { return strings.Compare(a.ID, b.ID) })
	return products, nil
}

func (r *ProductRepository) ReplaceReservations(ctx context.Context, productID string, expectedVersion int64, reservations []domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Version != expectedVersion {
		return domain.ErrVersionMismatch
	}
	p.Reservations = slices.Clone(reservations)
	p.Version++
	p.UpdatedAt = time.Now()
	r.products[productID] = p
	return nil
}

func (r *ProductRepository) PatchStock(ctx context.Context, productID string, fn func(stock int64) (int64, error)) (domain.StockChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return domain.StockChange{}, domain.ErrNotFound
	}
	next, err := fn(p.Stock)
	if err != nil {
		return domain.StockChange{}, err
	}
	change := domain.StockChange{ProductID: productID, PreviousStock: p.Stock, NewStock: next}
	p.Stock = next
	p.Version++
	p.UpdatedAt = time.Now()
	r.products[productID] = p
	return change, nil
}
