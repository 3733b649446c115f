package response

import (
	"errors"
	"time"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/pkg/errs"

	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Success  bool             `json:"success"`
	Metadata *domain.Metadata `json:"meta,omitempty"`
	Data     any              `json:"data,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type RateLimitBody struct {
	Remaining int64     `json:"remaining"`
	ResetTime time.Time `json:"reset_time"`
}

func Success(data any) *Response {
	return &Response{
		Success: true,
		Data:    data,
	}
}

func SuccessWithMetadata(data any, metadata domain.Metadata) *Response {
	return &Response{
		Success:  true,
		Data:     data,
		Metadata: &metadata,
	}
}

func Error(err error) *Response {
	return &Response{
		Success: false,
		Error:   err.Error(),
	}
}

func FromError(err error) (int, *Response) {
	var rateLimitErr *domain.RateLimitError
	switch {
	case errors.As(err, &rateLimitErr):
		res := Error(domain.ErrRateLimited)
		res.Data = RateLimitBody{Remaining: rateLimitErr.Result.Remaining, ResetTime: rateLimitErr.Result.ResetTime}
		return fiber.StatusTooManyRequests, res
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, Error(err)
	case errors.Is(err, domain.ErrInvalidRequest):
		return fiber.StatusBadRequest, Error(err)
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, Error(err)
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, Error(err)
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, Error(err)
	case errors.Is(err, domain.ErrBadRequest):
		return fiber.StatusBadRequest, Error(err)
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrReservationMissing),
		errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, Error(err)
	case errs.Is(err, domain.ErrStoreTransient):
		return fiber.StatusServiceUnavailable, Error(domain.ErrStoreTransient)
	case errors.Is(err, domain.ErrVersionMismatch):
		return fiber.StatusConflict, Error(err)
	case errors.Is(err, domain.ErrPartialFailure):
		// the independent writes that succeeded stay applied
		return fiber.StatusOK, Error(err)
	default:
		return fiber.StatusInternalServerError, Error(domain.ErrInternal)
	}
}

// FromErrorWithData is FromError for operations that return a structured
// outcome alongside the error, such as per-item failures or the stock still
// available.
func FromErrorWithData(err error, data any) (int, *Response) {
	status, res := FromError(err)
	if res.Data == nil && status < fiber.StatusInternalServerError {
		res.Data = data
	}
	return status, res
}
