package handler

import (
	"log/slog"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/app/handler/api/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	usecase   domain.AuthUsecase
	validator *validator.Validate
}

func NewAuthHandler(usecase domain.AuthUsecase, validator *validator.Validate) *AuthHandler {
	return &AuthHandler{
		usecase:   usecase,
		validator: validator,
	}
}

func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req domain.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[authHandler] AdminLogin", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[authHandler] AdminLogin", "validator", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	res, err := h.usecase.AdminLogin(c.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[authHandler] AdminLogin", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(res))
}
