package handler

import (
	"thrift-stock-service/app/domain"
	"thrift-stock-service/app/middleware"
	"thrift-stock-service/config"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Reservation *ReservationHandler
	Stock       *StockHandler
	Order       *OrderHandler
	Checkout    *CheckoutHandler
	DeliveryFee *DeliveryFeeHandler
	Auth        *AuthHandler
	Stream      *StreamHandler
}

func SetupRouter(app *fiber.App, h Handlers, limiter domain.RateLimiter, cfg *config.Config) {
	stockLimit := middleware.RateLimit(limiter, cfg.RateLimit.Stock(), middleware.KeyByIP("stock"))
	adminLimit := middleware.RateLimit(limiter, cfg.RateLimit.Admin(), middleware.KeyByIP("admin"))
	checkoutLimit := middleware.RateLimit(limiter, cfg.RateLimit.Checkout(), middleware.KeyByIP("checkout"))
	deliveryFeeLimit := middleware.RateLimit(limiter, cfg.RateLimit.DeliveryFee(), middleware.KeyByIP("delivery-fee"))

	adminOnly := middleware.Authorize(cfg, domain.RoleAdmin)
	adminOrService := middleware.Authorize(cfg, domain.RoleAdmin, domain.RoleService)

	api := app.Group("/api")

	api.Get("/products/:product_id/stock", h.Reservation.GetAvailability)
	api.Get("/stock/stream", h.Stream.StockStream)

	api.Post("/reservations", stockLimit, h.Reservation.Reserve)
	api.Post("/reservations/release", stockLimit, h.Reservation.Release)
	api.Post("/reservations/batch-release", stockLimit, h.Reservation.BatchRelease)
	// rollback is limited per session inside the engine
	api.Post("/reservations/rollback", h.Reservation.RollbackRelease)

	api.Delete("/products/:product_id/reservations/:session_id", adminLimit, adminOrService, h.Reservation.ClearReservation)
	api.Post("/products/:product_id/decrement", adminOrService, h.Stock.DecrementStock)
	api.Post("/products/:product_id/out-of-stock", adminOnly, h.Stock.SetOutOfStock)
	api.Put("/products/:product_id/stock", adminOnly, h.Stock.SetStock)

	api.Post("/checkout", checkoutLimit, h.Checkout.Create)

	api.Get("/delivery-fees", deliveryFeeLimit, h.DeliveryFee.GetList)
	api.Get("/delivery-fees/:region", deliveryFeeLimit, h.DeliveryFee.GetByRegion)

	api.Get("/orders", adminOnly, h.Order.GetList)
	api.Get("/orders/:order_id", adminOnly, h.Order.GetByID)
	api.Patch("/orders/:order_id/status", adminOnly, h.Order.UpdateStatus)

	admin := api.Group("/admin", adminLimit)
	admin.Post("/login", h.Auth.AdminLogin)
	admin.Post("/reservations/cleanup", adminOnly, h.Reservation.CleanupExpired)
}
