package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrBadRequest      = errors.New("bad request")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrValidation      = errors.New("validation error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrVersionMismatch = errors.New("version mismatch")
	ErrInternal        = errors.New("internal server error")

	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrReservationMissing = errors.New("reservation missing")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrStoreTransient     = errors.New("service temporarily unavailable")
	ErrPartialFailure     = errors.New("partial failure")
)
