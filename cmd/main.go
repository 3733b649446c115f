package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"thrift-stock-service/app/domain"
	handler "thrift-stock-service/app/handler/api"
	"thrift-stock-service/app/middleware"
	"thrift-stock-service/app/repository/broker"
	"thrift-stock-service/app/repository/db"
	"thrift-stock-service/app/repository/mailer"
	"thrift-stock-service/app/repository/memory"
	"thrift-stock-service/app/usecase"
	"thrift-stock-service/app/worker"
	"thrift-stock-service/config"
	"thrift-stock-service/pkg/clock"
	"thrift-stock-service/pkg/logger"
	"thrift-stock-service/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	slogfiber "github.com/samber/slog-fiber"
	"golang.org/x/sync/errgroup"
)

func main() {
	// init logger
	logger.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// init config
	cfg, err := config.InitConfig(ctx)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		return
	}
	level := logger.ParseLevel(cfg.LogLevel)
	slog.SetDefault(logger.New(os.Stdout, level))

	// init database
	dbConn, err := db.NewPostgres(cfg.Db)
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		return
	}
	defer dbConn.Close()

	if err := db.Migrate(ctx, dbConn); err != nil {
		slog.Error("DB migration failed", "error", err)
		return
	}

	// Connect to NATS server
	nc, err := nats.Connect(cfg.Nats.Url) // default is nats://localhost:4222
	if err != nil {
		slog.Error("Error connecting to NATS", "error", err)
		return
	}
	defer nc.Drain()

	js, err := jetstream.New(nc)
	if err != nil {
		slog.Error("Error creating JetStream context", "error", err)
		return
	}
	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:     strings.ToUpper(cfg.Nats.StreamName),
		Subjects: []string{fmt.Sprintf("%s.*", strings.ToLower(cfg.Nats.StreamName))},
		Storage:  jetstream.FileStorage,
	})
	if err != nil && !errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
		slog.Error("create STOCK stream failed", "error", err)
		return
	}

	clk := clock.NewRealClock()
	reqValidator := validation.New()

	productRepo := db.NewProductRepository(dbConn)
	orderRepo := db.NewOrderRepository(dbConn)
	deliveryFeeRepo := db.NewDeliveryFeeRepository(dbConn)

	var counterStore domain.CounterStore
	var sweepCounters worker.SweepFunc
	switch cfg.RateLimit.Store {
	case "postgres":
		store := db.NewCounterStore(dbConn)
		counterStore, sweepCounters = store, store.Sweep
	default:
		slog.Warn("rate limit counters are kept in memory; limits are per instance")
		store := memory.NewCounterStore(clk)
		counterStore, sweepCounters = store, store.Sweep
	}

	hub := broker.NewHub()
	stockBroker := broker.NewStockBrokerPublisher(js, cfg.Nats.StreamName)
	stockSubscriber := broker.NewStockSubscriber(js, cfg.Nats.StreamName, hub)
	notifier := mailer.NewOrderNotifier(mailer.NewSMTPSender(cfg.Smtp))

	rateLimiter := usecase.NewRateLimiter(counterStore, clk)
	sessionValidator := usecase.NewSessionValidator(rateLimiter, cfg.RateLimit.Rollback(), cfg.Session.BindingTTL, clk)
	reservationUsecase := usecase.NewReservationUsecase(productRepo, sessionValidator, stockBroker, clk, cfg)
	stockUsecase := usecase.NewStockUsecase(productRepo, stockBroker, clk, cfg)
	orderUsecase := usecase.NewOrderUsecase(orderRepo, reservationUsecase, stockUsecase, notifier)
	checkoutUsecase := usecase.NewCheckoutUsecase(productRepo, orderRepo, deliveryFeeRepo, reservationUsecase, sessionValidator, clk)
	deliveryFeeUsecase := usecase.NewDeliveryFeeUsecase(deliveryFeeRepo)
	authUsecase := usecase.NewAuthUsecase(cfg, clk)

	handlers := handler.Handlers{
		Reservation: handler.NewReservationHandler(reservationUsecase, reqValidator),
		Stock:       handler.NewStockHandler(stockUsecase, reqValidator),
		Order:       handler.NewOrderHandler(orderUsecase, reqValidator),
		Checkout:    handler.NewCheckoutHandler(checkoutUsecase, reqValidator),
		DeliveryFee: handler.NewDeliveryFeeHandler(deliveryFeeUsecase),
		Auth:        handler.NewAuthHandler(authUsecase, reqValidator),
		Stream:      handler.NewStreamHandler(hub),
	}

	// Initialize HTTP web framework
	app := fiber.New()
	app.Use(healthcheck.New(healthcheck.Config{
		LivenessProbe: func(c *fiber.Ctx) bool {
			return true
		},
		LivenessEndpoint: "/live",
		ReadinessProbe: func(c *fiber.Ctx) bool {
			return nc.IsConnected() && dbConn.PingContext(c.Context()) == nil
		},
		ReadinessEndpoint: "/ready",
	}))
	webLogger := logger.New(os.Stdout, level)
	app.Use(slogfiber.New(webLogger))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.RequestMetaMiddleware())

	handler.SetupRouter(app, handlers, rateLimiter, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Failed to listen", "port", cfg.Port, "error", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		// the stream is best-effort; the API keeps serving without it
		if err := stockSubscriber.Run(gctx); err != nil {
			slog.Warn("stock stream consumer stopped", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		return worker.NewSweeper("reservations", cfg.Reservation.CleanupInterval, worker.ReservationCleanup(reservationUsecase)).Run(gctx)
	})
	g.Go(func() error {
		return worker.NewSweeper("sessions", cfg.Session.SweepInterval, sessionValidator.Sweep).Run(gctx)
	})
	g.Go(func() error {
		return worker.NewSweeper("rateLimitCounters", cfg.Session.SweepInterval, sweepCounters).Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Gracefully shutdown")
		hub.Close()
		if err := app.Shutdown(); err != nil {
			slog.Warn("Unfortunately the shutdown wasn't smooth", "err", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("service stopped with error", "error", err)
	}
}
