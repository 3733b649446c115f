package domain

import (
	"context"
	"fmt"
	"time"
)

// AllSessions selects every reservation on a product in ClearReservation.
const AllSessions = "all"

type Product struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Price        int64         `json:"price"`
	Stock        int64         `json:"stock"`
	Reservations []Reservation `json:"reservations"`
	Version      int64         `json:"version"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Reservation is a soft hold of Quantity units for one shopper session. It is
// logically deleted once ReservedUntil has passed, whether or not a sweep has
// removed it yet.
type Reservation struct {
	SessionID     string    `json:"session_id"`
	Quantity      int64     `json:"quantity"`
	ReservedUntil time.Time `json:"reserved_until"`
}

func (r Reservation) Expired(now time.Time) bool {
	return r.ReservedUntil.Before(now)
}

// ActiveReservations filters out expired holds.
func (p Product) ActiveReservations(now time.Time) []Reservation {
	active := make([]Reservation, 0, len(p.Reservations))
	for _, r := range p.Reservations {
		if !r.Expired(now) {
			active = append(active, r)
		}
	}
	return active
}

// PartitionReservations splits active holds into the given session's entry (if
// any) and everyone else's.
func PartitionReservations(active []Reservation, sessionID string) (own *Reservation, others []Reservation) {
	others = make([]Reservation, 0, len(active))
	for i := range active {
		if active[i].SessionID == sessionID {
			r := active[i]
			own = &r
			continue
		}
		others = append(others, active[i])
	}
	return own, others
}

func SumQuantity(reservations []Reservation) int64 {
	var total int64
	for _, r := range reservations {
		total += r.Quantity
	}
	return total
}

// Availability computes the stock view for sessionID at now. Available is stock
// minus every other session's active holds; an empty sessionID counts all holds.
func (p Product) Availability(now time.Time, sessionID string) Availability {
	active := p.ActiveReservations(now)
	own, others := PartitionReservations(active, sessionID)

	a := Availability{
		ProductID: p.ID,
		Stock:     p.Stock,
		Reserved:  SumQuantity(active),
		Available: p.Stock - SumQuantity(others),
	}
	if own != nil {
		a.HeldBySession = own.Quantity
	}
	if a.Available < 0 {
		a.Available = 0
	}
	return a
}

type Availability struct {
	ProductID     string `json:"product_id"`
	Stock         int64  `json:"stock"`
	Reserved      int64  `json:"reserved"`
	Available     int64  `json:"available"`
	HeldBySession int64  `json:"held_by_session"`
}

type ReservationRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required,sessionid"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

func (r ReservationRequest) Validate() error {
	if r.ProductID == "" {
		return fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	if r.SessionID == "" {
		return fmt.Errorf("%w: session_id is required", ErrValidation)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	return nil
}

type ReservationResult struct {
	Success        bool      `json:"success"`
	ProductID      string    `json:"product_id"`
	SessionID      string    `json:"session_id"`
	Quantity       int64     `json:"quantity"`
	AvailableStock int64     `json:"available_stock"`
	ReservedUntil  time.Time `json:"reserved_until"`
}

type ReleaseResult struct {
	Success   bool   `json:"success"`
	ProductID string `json:"product_id"`
	SessionID string `json:"session_id"`
	Released  int64  `json:"released"`
	Remaining int64  `json:"remaining"`
}

type ReleaseItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

type BatchReleaseRequest struct {
	SessionID string        `json:"session_id" validate:"required,sessionid"`
	Items     []ReleaseItem `json:"items" validate:"required,min=1,dive"`
}

type ItemError struct {
	ProductID string `json:"product_id"`
	Error     string `json:"error"`
}

type BatchReleaseResult struct {
	Success       bool          `json:"success"`
	ReleasedItems []ReleaseItem `json:"released_items"`
	Errors        []ItemError   `json:"errors,omitempty"`
}

type ClearResult struct {
	Success   bool   `json:"success"`
	ProductID string `json:"product_id"`
	Removed   int    `json:"removed"`
}

type CleanupResult struct {
	Success         bool        `json:"success"`
	ClearedCount    int         `json:"cleared_count"`
	ProductsUpdated int         `json:"products_updated"`
	Errors          []ItemError `json:"errors,omitempty"`
}

type StockChange struct {
	ProductID     string `json:"product_id"`
	PreviousStock int64  `json:"previous_stock"`
	NewStock      int64  `json:"new_stock"`
}

type DecrementStockRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

type SetStockRequest struct {
	Stock int64 `json:"stock" validate:"gte=0"`
}

// ProductRepository is the reservation store accessor. ReplaceReservations
// writes the whole list and fails with ErrVersionMismatch when the product was
// written since expectedVersion was read. PatchStock runs fn against the
// current stock inside a single-document transaction.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (Product, error)
	ListWithReservations(ctx context.Context) ([]Product, error)
	ReplaceReservations(ctx context.Context, productID string, expectedVersion int64, reservations []Reservation) error
	PatchStock(ctx context.Context, productID string, fn func(stock int64) (int64, error)) (StockChange, error)
}

type ReservationUsecase interface {
	Reserve(ctx context.Context, req ReservationRequest) (ReservationResult, error)
	Release(ctx context.Context, req ReservationRequest) (ReleaseResult, error)
	BatchRelease(ctx context.Context, req BatchReleaseRequest) (BatchReleaseResult, error)
	RollbackRelease(ctx context.Context, req ReservationRequest) (ReservationResult, error)
	ClearReservation(ctx context.Context, productID, sessionID string) (ClearResult, error)
	CleanupExpiredReservations(ctx context.Context) (CleanupResult, error)
	GetAvailability(ctx context.Context, productID, sessionID string) (Availability, error)
}

type StockUsecase interface {
	DecrementStock(ctx context.Context, productID string, quantity int64) (StockChange, error)
	SetOutOfStock(ctx context.Context, productID string) (StockChange, error)
	SetStock(ctx context.Context, productID string, stock int64) (StockChange, error)
}
