package usecase_test

import (
	"context"
	"sync"
	"time"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/app/repository/broker"
	"thrift-stock-service/app/repository/memory"
	"thrift-stock-service/app/usecase"
	"thrift-stock-service/config"
	"thrift-stock-service/pkg/clock"

	"github.com/stretchr/testify/mock"
)

const (
	sessionA = "session-a-0001"
	sessionB = "session-b-0002"
	sessionC = "session-c-0003"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	cfg          *config.Config
	clock        *clock.MockClock
	products     *memory.ProductRepository
	orders       *memory.OrderRepository
	fees         *memory.DeliveryFeeRepository
	hub          *broker.Hub
	limiter      domain.RateLimiter
	sessions     *usecase.SessionValidator
	reservations domain.ReservationUsecase
	stock        domain.StockUsecase
}

func newFixture() *fixture {
	f := &fixture{
		cfg:      config.NewTestConfig(),
		clock:    clock.NewMockClock(testNow),
		products: memory.NewProductRepository(),
		orders:   memory.NewOrderRepository(),
		fees: memory.NewDeliveryFeeRepository(
			domain.DeliveryFee{Region: "jakarta", Fee: 500},
			domain.DeliveryFee{Region: "bandung", Fee: 900},
		),
		hub: broker.NewHub(),
	}
	f.limiter = usecase.NewRateLimiter(memory.NewCounterStore(f.clock), f.clock)
	f.sessions = usecase.NewSessionValidator(f.limiter, f.cfg.RateLimit.Rollback(), f.cfg.Session.BindingTTL, f.clock)
	f.reservations = usecase.NewReservationUsecase(f.products, f.sessions, f.hub, f.clock, f.cfg)
	f.stock = usecase.NewStockUsecase(f.products, f.hub, f.clock, f.cfg)
	return f
}

func (f *fixture) seed(id string, stock int64, reservations ...domain.Reservation) {
	f.products.Seed(domain.Product{ID: id, Name: "item " + id, Price: 1000, Stock: stock, Reservations: reservations})
}

func (f *fixture) product(id string) domain.Product {
	p, err := f.products.GetByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return p
}

// flakyProductRepo fails the first `failures` reservation writes with err.
type flakyProductRepo struct {
	domain.ProductRepository

	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (r *flakyProductRepo) ReplaceReservations(ctx context.Context, productID string, expectedVersion int64, reservations []domain.Reservation) error {
	r.mu.Lock()
	r.calls++
	if r.failures > 0 {
		r.failures--
		r.mu.Unlock()
		return r.err
	}
	r.mu.Unlock()
	return r.ProductRepository.ReplaceReservations(ctx, productID, expectedVersion, reservations)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyOrderStatus(ctx context.Context, order domain.Order, status domain.OrderStatus) (bool, error) {
	args := m.Called(ctx, order.ID, status)
	return args.Bool(0), args.Error(1)
}

type mockCounterStore struct {
	mock.Mock
}

func (m *mockCounterStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	args := m.Called(ctx, key, window)
	return args.Get(0).(int64), args.Get(1).(time.Time), args.Error(2)
}
