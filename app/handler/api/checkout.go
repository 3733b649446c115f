package handler

import (
	"log/slog"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/app/handler/api/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type CheckoutHandler struct {
	usecase   domain.CheckoutUsecase
	validator *validator.Validate
}

func NewCheckoutHandler(usecase domain.CheckoutUsecase, validator *validator.Validate) *CheckoutHandler {
	return &CheckoutHandler{
		usecase:   usecase,
		validator: validator,
	}
}

func (h *CheckoutHandler) Create(c *fiber.Ctx) error {
	var req domain.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[checkoutHandler] Create", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[checkoutHandler] Create", "validator", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	order, err := h.usecase.CreateCheckout(c.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[checkoutHandler] Create", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusCreated).JSON(response.Success(order))
}
