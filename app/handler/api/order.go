package handler

import (
	"log/slog"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/app/handler/api/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	usecase   domain.OrderUsecase
	validator *validator.Validate
}

func NewOrderHandler(usecase domain.OrderUsecase, validator *validator.Validate) *OrderHandler {
	return &OrderHandler{
		usecase:   usecase,
		validator: validator,
	}
}

func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	orderID := c.Params("order_id")
	if orderID == "" {
		slog.ErrorContext(c.Context(), "[orderHandler] GetByID", "orderID", "missing")
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	order, err := h.usecase.GetOrder(c.Context(), orderID)
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] GetByID", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(order))
}

func (h *OrderHandler) GetList(c *fiber.Ctx) error {
	var req domain.GetListOrderRequest
	if err := c.QueryParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] GetList", "queryParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] GetList", "validator", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	orders, metadata, err := h.usecase.GetListOrder(c.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] GetList", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.SuccessWithMetadata(orders, metadata))
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	orderID := c.Params("order_id")
	if orderID == "" {
		slog.ErrorContext(c.Context(), "[orderHandler] UpdateStatus", "orderID", "missing")
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	var req domain.OrderStatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] UpdateStatus", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] UpdateStatus", "validator", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	result, err := h.usecase.PromoteOrderStatus(c.Context(), orderID, req.Status)
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] UpdateStatus", "usecase", err)
		status, resp := response.FromErrorWithData(err, result)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(result))
}
