package handler

import (
	"log/slog"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/app/handler/api/response"

	"github.com/gofiber/fiber/v2"
)

type DeliveryFeeHandler struct {
	usecase domain.DeliveryFeeUsecase
}

func NewDeliveryFeeHandler(usecase domain.DeliveryFeeUsecase) *DeliveryFeeHandler {
	return &DeliveryFeeHandler{usecase: usecase}
}

func (h *DeliveryFeeHandler) GetList(c *fiber.Ctx) error {
	fees, err := h.usecase.GetList(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[deliveryFeeHandler] GetList", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(fees))
}

func (h *DeliveryFeeHandler) GetByRegion(c *fiber.Ctx) error {
	region := c.Params("region")
	if region == "" {
		slog.ErrorContext(c.Context(), "[deliveryFeeHandler] GetByRegion", "region", "missing")
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	fee, err := h.usecase.GetByRegion(c.Context(), region)
	if err != nil {
		slog.ErrorContext(c.Context(), "[deliveryFeeHandler] GetByRegion", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(fee))
}
