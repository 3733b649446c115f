package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/config"
	"thrift-stock-service/pkg/clock"
	"thrift-stock-service/pkg/ctxutil"
)

type reservationUsecase struct {
	productRepo domain.ProductRepository
	sessions    domain.SessionValidator
	broadcaster stockBroadcaster
	retrier     retrier
	clock       clock.Clock
	cfg         config.ReservationConfig
}

func NewReservationUsecase(productRepo domain.ProductRepository, sessions domain.SessionValidator,
	publisher domain.BrokerPublisher, clk clock.Clock, cfg *config.Config) domain.ReservationUsecase {
	return &reservationUsecase{
		productRepo: productRepo,
		sessions:    sessions,
		broadcaster: stockBroadcaster{productRepo: productRepo, publisher: publisher, clock: clk},
		retrier:     newRetrier(clk, cfg.Reservation),
		clock:       clk,
		cfg:         cfg.Reservation,
	}
}

func (u *reservationUsecase) validateSession(ctx context.Context, sessionID string) error {
	if u.sessions == nil {
		return nil
	}
	result := u.sessions.ValidateSession(ctx, sessionID, ctxutil.GetRequestMeta(ctx))
	if !result.IsValid {
		return fmt.Errorf("%w: invalid session_id", domain.ErrValidation)
	}
	return nil
}

func (u *reservationUsecase) Reserve(ctx context.Context, req domain.ReservationRequest) (domain.ReservationResult, error) {
	if err := req.Validate(); err != nil {
		return domain.ReservationResult{}, err
	}
	if err := u.validateSession(ctx, req.SessionID); err != nil {
		return domain.ReservationResult{}, err
	}

	result, err := u.hold(ctx, "Reserve", req, u.cfg.Hold, false)
	if err != nil {
		slog.ErrorContext(ctx, "[reservationUsecase] Reserve", "hold", err, "productId", req.ProductID)
		return result, err
	}

	slog.InfoContext(ctx, "[reservationUsecase] Reserve", "productId", req.ProductID, "quantity", result.Quantity,
		"availableStock", result.AvailableStock)
	return result, nil
}

// hold sets the session's reservation on the product to req.Quantity, or adds
// req.Quantity to the active hold when additive is set. The check runs against
// a fresh read on every attempt.
func (u *reservationUsecase) hold(ctx context.Context, name string, req domain.ReservationRequest, holdFor time.Duration, additive bool) (domain.ReservationResult, error) {
	var result domain.ReservationResult
	var written domain.Product

	err := u.retrier.do(ctx, name, func(ctx context.Context) error {
		product, err := u.productRepo.GetByID(ctx, req.ProductID)
		if err != nil {
			return err
		}

		now := u.clock.Now()
		active := product.ActiveReservations(now)
		own, others := domain.PartitionReservations(active, req.SessionID)
		available := product.Stock - domain.SumQuantity(others)

		// compare before adding so a huge request cannot wrap the sum
		var held int64
		if additive && own != nil {
			held = own.Quantity
		}

		result = domain.ReservationResult{
			ProductID:      product.ID,
			SessionID:      req.SessionID,
			Quantity:       req.Quantity,
			AvailableStock: max(available, 0),
		}
		if req.Quantity > available-held {
			return fmt.Errorf("%w: only %d available", domain.ErrInsufficientStock, max(available-held, 0))
		}
		quantity := req.Quantity + held
		result.Quantity = quantity

		until := now.Add(holdFor)
		next := upsertReservation(active, domain.Reservation{
			SessionID:     req.SessionID,
			Quantity:      quantity,
			ReservedUntil: until,
		})
		if err := u.productRepo.ReplaceReservations(ctx, product.ID, product.Version, next); err != nil {
			return err
		}

		result.Success = true
		result.ReservedUntil = until
		result.AvailableStock = available - quantity
		written = product
		written.Reservations = next
		return nil
	})
	if err != nil {
		return result, err
	}

	u.broadcaster.publish(ctx, written)
	return result, nil
}

// upsertReservation replaces the session's entry in place or appends it.
func upsertReservation(active []domain.Reservation, r domain.Reservation) []domain.Reservation {
	next := make([]domain.Reservation, 0, len(active)+1)
	replaced := false
	for _, existing := range active {
		if existing.SessionID == r.SessionID {
			if !replaced {
				next = append(next, r)
				replaced = true
			}
			continue
		}
		next = append(next, existing)
	}
	if !replaced {
		next = append(next, r)
	}
	return next
}

func (u *reservationUsecase) Release(ctx context.Context, req domain.ReservationRequest) (domain.ReleaseResult, error) {
	if err := req.Validate(); err != nil {
		return domain.ReleaseResult{}, err
	}
	if err := u.validateSession(ctx, req.SessionID); err != nil {
		return domain.ReleaseResult{}, err
	}

	result, err := u.release(ctx, req.ProductID, req.SessionID, req.Quantity)
	if err != nil {
		slog.ErrorContext(ctx, "[reservationUsecase] Release", "release", err, "productId", req.ProductID)
		return result, err
	}
	return result, nil
}

// release drops quantity from the session's active hold. A missing hold is a
// successful no-op.
func (u *reservationUsecase) release(ctx context.Context, productID, sessionID string, quantity int64) (domain.ReleaseResult, error) {
	result := domain.ReleaseResult{ProductID: productID, SessionID: sessionID}
	if quantity <= 0 {
		return result, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	var written *domain.Product

	err := u.retrier.do(ctx, "Release", func(ctx context.Context) error {
		product, err := u.productRepo.GetByID(ctx, productID)
		if err != nil {
			return err
		}

		active := product.ActiveReservations(u.clock.Now())
		own, _ := domain.PartitionReservations(active, sessionID)
		if own == nil {
			result.Released, result.Remaining = 0, 0
			written = nil
			return nil
		}

		next := make([]domain.Reservation, 0, len(active))
		for _, r := range active {
			if r.SessionID != sessionID {
				next = append(next, r)
				continue
			}
			if quantity < r.Quantity {
				r.Quantity -= quantity
				next = append(next, r)
			}
		}

		if err := u.productRepo.ReplaceReservations(ctx, product.ID, product.Version, next); err != nil {
			return err
		}

		result.Released = min(quantity, own.Quantity)
		result.Remaining = own.Quantity - result.Released
		product.Reservations = next
		written = &product
		return nil
	})
	if err != nil {
		return result, err
	}

	result.Success = true
	if written != nil {
		u.broadcaster.publish(ctx, *written)
	}
	return result, nil
}

func (u *reservationUsecase) BatchRelease(ctx context.Context, req domain.BatchReleaseRequest) (domain.BatchReleaseResult, error) {
	if req.SessionID == "" || len(req.Items) == 0 {
		return domain.BatchReleaseResult{}, fmt.Errorf("%w: session_id and items are required", domain.ErrValidation)
	}

	// merge repeated products so each is checked and written once
	var items []domain.ReleaseItem
	index := make(map[string]int)
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return domain.BatchReleaseResult{}, fmt.Errorf("%w: each item needs product_id and a positive quantity", domain.ErrValidation)
		}
		if i, ok := index[item.ProductID]; ok {
			if items[i].Quantity > math.MaxInt64-item.Quantity {
				return domain.BatchReleaseResult{}, fmt.Errorf("%w: quantity for %s is out of range", domain.ErrValidation, item.ProductID)
			}
			items[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(items)
		items = append(items, item)
	}

	now := u.clock.Now()
	var validationErrs []domain.ItemError
	for _, item := range items {
		product, err := u.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			validationErrs = append(validationErrs, domain.ItemError{ProductID: item.ProductID, Error: err.Error()})
			continue
		}
		own, _ := domain.PartitionReservations(product.ActiveReservations(now), req.SessionID)
		switch {
		case own == nil:
			validationErrs = append(validationErrs, domain.ItemError{ProductID: item.ProductID, Error: domain.ErrReservationMissing.Error()})
		case own.Quantity < item.Quantity:
			validationErrs = append(validationErrs, domain.ItemError{
				ProductID: item.ProductID,
				Error:     fmt.Sprintf("only %d held, cannot release %d", own.Quantity, item.Quantity),
			})
		}
	}
	if len(validationErrs) > 0 {
		slog.WarnContext(ctx, "[reservationUsecase] BatchRelease", "validation", len(validationErrs))
		return domain.BatchReleaseResult{Success: false, Errors: validationErrs},
			fmt.Errorf("%w: %d item(s) cannot be released", domain.ErrValidation, len(validationErrs))
	}

	result := domain.BatchReleaseResult{ReleasedItems: []domain.ReleaseItem{}}
	for _, item := range items {
		if _, err := u.release(ctx, item.ProductID, req.SessionID, item.Quantity); err != nil {
			slog.ErrorContext(ctx, "[reservationUsecase] BatchRelease", "release", err, "productId", item.ProductID)
			result.Errors = append(result.Errors, domain.ItemError{ProductID: item.ProductID, Error: err.Error()})
			continue
		}
		result.ReleasedItems = append(result.ReleasedItems, item)
	}

	result.Success = len(result.Errors) == 0
	if !result.Success {
		return result, fmt.Errorf("%w: %d of %d item(s) failed", domain.ErrPartialFailure, len(result.Errors), len(items))
	}
	return result, nil
}

func (u *reservationUsecase) RollbackRelease(ctx context.Context, req domain.ReservationRequest) (domain.ReservationResult, error) {
	if err := req.Validate(); err != nil {
		return domain.ReservationResult{}, err
	}
	if err := u.validateSession(ctx, req.SessionID); err != nil {
		return domain.ReservationResult{}, err
	}

	if u.sessions != nil {
		limit := u.sessions.CheckRateLimit(ctx, req.SessionID, ctxutil.GetRequestMeta(ctx).IP)
		if !limit.Allowed {
			return domain.ReservationResult{}, &domain.RateLimitError{Result: limit}
		}
	}

	result, err := u.hold(ctx, "RollbackRelease", req, u.cfg.RollbackHold, true)
	if err != nil {
		slog.ErrorContext(ctx, "[reservationUsecase] RollbackRelease", "hold", err, "productId", req.ProductID)
		return result, err
	}

	slog.InfoContext(ctx, "[reservationUsecase] RollbackRelease", "productId", req.ProductID, "quantity", result.Quantity)
	return result, nil
}

func (u *reservationUsecase) ClearReservation(ctx context.Context, productID, sessionID string) (domain.ClearResult, error) {
	if productID == "" || sessionID == "" {
		return domain.ClearResult{}, fmt.Errorf("%w: product_id and session_id are required", domain.ErrValidation)
	}

	result := domain.ClearResult{ProductID: productID}
	var written *domain.Product

	err := u.retrier.do(ctx, "ClearReservation", func(ctx context.Context) error {
		product, err := u.productRepo.GetByID(ctx, productID)
		if err != nil {
			return err
		}

		var next []domain.Reservation
		if sessionID != domain.AllSessions {
			next = make([]domain.Reservation, 0, len(product.Reservations))
			for _, r := range product.Reservations {
				if r.SessionID != sessionID {
					next = append(next, r)
				}
			}
		}

		removed := len(product.Reservations) - len(next)
		if removed == 0 {
			result.Removed = 0
			written = nil
			return nil
		}

		if err := u.productRepo.ReplaceReservations(ctx, product.ID, product.Version, next); err != nil {
			return err
		}
		result.Removed = removed
		product.Reservations = next
		written = &product
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "[reservationUsecase] ClearReservation", "clear", err, "productId", productID)
		return result, err
	}

	result.Success = true
	if written != nil {
		u.broadcaster.publish(ctx, *written)
	}
	slog.InfoContext(ctx, "[reservationUsecase] ClearReservation", "productId", productID, "all", sessionID == domain.AllSessions,
		"removed", result.Removed)
	return result, nil
}

func (u *reservationUsecase) CleanupExpiredReservations(ctx context.Context) (domain.CleanupResult, error) {
	var products []domain.Product
	err := u.retrier.do(ctx, "CleanupExpiredReservations", func(ctx context.Context) error {
		var err error
		products, err = u.productRepo.ListWithReservations(ctx)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "[reservationUsecase] CleanupExpiredReservations", "listWithReservations", err)
		return domain.CleanupResult{}, err
	}

	var result domain.CleanupResult
	for _, listed := range products {
		if len(listed.ActiveReservations(u.clock.Now())) == len(listed.Reservations) {
			continue
		}

		cleared, written, err := u.dropExpired(ctx, listed.ID)
		if err != nil {
			slog.ErrorContext(ctx, "[reservationUsecase] CleanupExpiredReservations", "dropExpired", err, "productId", listed.ID)
			result.Errors = append(result.Errors, domain.ItemError{ProductID: listed.ID, Error: err.Error()})
			continue
		}
		if cleared > 0 {
			result.ClearedCount += cleared
			result.ProductsUpdated++
			u.broadcaster.publish(ctx, written)
		}
	}

	result.Success = len(result.Errors) == 0
	slog.InfoContext(ctx, "[reservationUsecase] CleanupExpiredReservations", "clearedCount", result.ClearedCount,
		"productsUpdated", result.ProductsUpdated, "errors", len(result.Errors))
	if !result.Success {
		return result, fmt.Errorf("%w: %d product(s) not cleaned", domain.ErrPartialFailure, len(result.Errors))
	}
	return result, nil
}

func (u *reservationUsecase) dropExpired(ctx context.Context, productID string) (int, domain.Product, error) {
	var cleared int
	var written domain.Product

	err := u.retrier.do(ctx, "dropExpired", func(ctx context.Context) error {
		product, err := u.productRepo.GetByID(ctx, productID)
		if err != nil {
			return err
		}

		active := product.ActiveReservations(u.clock.Now())
		cleared = len(product.Reservations) - len(active)
		if cleared == 0 {
			return nil
		}

		if err := u.productRepo.ReplaceReservations(ctx, product.ID, product.Version, active); err != nil {
			return err
		}
		product.Reservations = active
		written = product
		return nil
	})
	return cleared, written, err
}

func (u *reservationUsecase) GetAvailability(ctx context.Context, productID, sessionID string) (domain.Availability, error) {
	if productID == "" {
		return domain.Availability{}, fmt.Errorf("%w: product_id is required", domain.ErrValidation)
	}

	var product domain.Product
	err := u.retrier.do(ctx, "GetAvailability", func(ctx context.Context) error {
		var err error
		product, err = u.productRepo.GetByID(ctx, productID)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "[reservationUsecase] GetAvailability", "getProduct", err, "productId", productID)
		return domain.Availability{}, err
	}

	return product.Availability(u.clock.Now(), sessionID), nil
}
