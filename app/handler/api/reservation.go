package handler

import (
	"log/slog"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/app/handler/api/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type ReservationHandler struct {
	usecase   domain.ReservationUsecase
	validator *validator.Validate
}

func NewReservationHandler(usecase domain.ReservationUsecase, validator *validator.Validate) *ReservationHandler {
	return &ReservationHandler{
		usecase:   usecase,
		validator: validator,
	}
}

func (h *ReservationHandler) GetAvailability(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	if productID == "" {
		slog.ErrorContext(c.Context(), "[reservationHandler] GetAvailability", "productID", "missing")
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	availability, err := h.usecase.GetAvailability(c.Context(), productID, c.Query("session_id"))
	if err != nil {
		slog.ErrorContext(c.Context(), "[reservationHandler] GetAvailability", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(availability))
}

func (h *ReservationHandler) parseReservationRequest(c *fiber.Ctx, method string) (domain.ReservationRequest, error) {
	var req domain.ReservationRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[reservationHandler] "+method, "bodyParser", err)
		return req, domain.ErrBadRequest
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[reservationHandler] "+method, "validator", err)
		return req, domain.ErrValidation
	}
	return req, nil
}

func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	req, err := h.parseReservationRequest(c, "Reserve")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(err))
	}

	result, err := h.usecase.Reserve(c.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[reservationHandler] Reserve", "usecase", err)
		status, resp := response.FromErrorWithData(err, result)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(result))
}

func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	req, err := h.parseReservationRequest(c, "Release")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(err))
	}

	result, err := h.usecase.Release(c.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[reservationHandler] Release", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(result))
}

func (h *ReservationHandler) BatchRelease(c *fiber.Ctx) error {
	var req domain.BatchReleaseRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[reservationHandler] BatchRelease", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[reservationHandler] BatchRelease", "validator", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	result, err := h.usecase.BatchRelease(c.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[reservationHandler] BatchRelease", "usecase", err)
		status, resp := response.FromErrorWithData(err, result)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(result))
}

func (h *ReservationHandler) RollbackRelease(c *fiber.Ctx) error {
	req, err := h.parseReservationRequest(c, "RollbackRelease")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(err))
	}

	result, err := h.usecase.RollbackRelease(c.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[reservationHandler] RollbackRelease", "usecase", err)
		status, resp := response.FromErrorWithData(err, result)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(result))
}

func (h *ReservationHandler) ClearReservation(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	sessionID := c.Params("session_id")
	if productID == "" || sessionID == "" {
		slog.ErrorContext(c.Context(), "[reservationHandler] ClearReservation", "params", "missing")
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	result, err := h.usecase.ClearReservation(c.Context(), productID, sessionID)
	if err != nil {
		slog.ErrorContext(c.Context(), "[reservationHandler] ClearReservation", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(result))
}

func (h *ReservationHandler) CleanupExpired(c *fiber.Ctx) error {
	result, err := h.usecase.CleanupExpiredReservations(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[reservationHandler] CleanupExpired", "usecase", err)
		status, resp := response.FromErrorWithData(err, result)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(result))
}
