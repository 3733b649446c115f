package usecase_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/app/usecase"
	"thrift-stock-service/pkg/errs"

	"github.com/stretchr/testify/suite"
)

type ReservationUsecaseTestSuite struct {
	suite.Suite
	ctx context.Context
	f   *fixture
}

func (s *ReservationUsecaseTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.f = newFixture()
}

func TestReservationUsecaseSuite(t *testing.T) {
	suite.Run(t, new(ReservationUsecaseTestSuite))
}

func (s *ReservationUsecaseTestSuite) reserve(productID, sessionID string, qty int64) (domain.ReservationResult, error) {
	return s.f.reservations.Reserve(s.ctx, domain.ReservationRequest{ProductID: productID, SessionID: sessionID, Quantity: qty})
}

func (s *ReservationUsecaseTestSuite) activeTotal(productID string) int64 {
	p := s.f.product(productID)
	return domain.SumQuantity(p.ActiveReservations(s.f.clock.Now()))
}

func (s *ReservationUsecaseTestSuite) TestReserve() {
	s.Run("success: holds quantity and reports what is left", func() {
		s.f.seed("p1", 5)
		res, err := s.reserve("p1", sessionA, 2)
		s.Require().NoError(err)
		s.True(res.Success)
		s.Equal(int64(3), res.AvailableStock)
		s.Equal(testNow.Add(10*time.Minute), res.ReservedUntil)
	})

	s.Run("error: validation rejects bad input before touching the store", func() {
		_, err := s.reserve("p1", sessionA, 0)
		s.ErrorIs(err, domain.ErrValidation)

		_, err = s.reserve("", sessionA, 1)
		s.ErrorIs(err, domain.ErrValidation)

		_, err = s.reserve("p1", "bad id!", 1)
		s.ErrorIs(err, domain.ErrValidation)
	})

	s.Run("error: unknown product", func() {
		_, err := s.reserve("missing", sessionA, 1)
		s.ErrorIs(err, domain.ErrNotFound)
	})
}

func (s *ReservationUsecaseTestSuite) TestCapacityInvariant() {
	s.f.seed("p1", 5)
	steps := []struct {
		session string
		qty     int64
	}{
		{sessionA, 2}, {sessionB, 2}, {sessionC, 2}, {sessionA, 3}, {sessionC, 1},
		{sessionB, 5}, {sessionA, 1}, {sessionB, 4}, {sessionC, 3},
	}

	for _, step := range steps {
		_, err := s.reserve("p1", step.session, step.qty)
		if err != nil {
			s.ErrorIs(err, domain.ErrInsufficientStock)
		}
		s.LessOrEqual(s.activeTotal("p1"), int64(5))
	}
}

func (s *ReservationUsecaseTestSuite) TestSessionUpsert() {
	s.f.seed("p1", 10)

	_, err := s.reserve("p1", sessionA, 2)
	s.Require().NoError(err)
	_, err = s.reserve("p1", sessionA, 5)
	s.Require().NoError(err)

	p := s.f.product("p1")
	s.Require().Len(p.Reservations, 1)
	s.Equal(sessionA, p.Reservations[0].SessionID)
	s.Equal(int64(5), p.Reservations[0].Quantity)
}

func (s *ReservationUsecaseTestSuite) TestLazyExpiry() {
	s.f.seed("p1", 5, domain.Reservation{SessionID: sessionB, Quantity: 5, ReservedUntil: testNow.Add(-time.Second)})

	availability, err := s.f.reservations.GetAvailability(s.ctx, "p1", sessionA)
	s.Require().NoError(err)
	s.Equal(int64(5), availability.Available)
	s.Equal(int64(0), availability.Reserved)

	// the expired hold no longer counts as B's
	rel, err := s.f.reservations.Release(s.ctx, domain.ReservationRequest{ProductID: "p1", SessionID: sessionB, Quantity: 1})
	s.Require().NoError(err)
	s.Equal(int64(0), rel.Released)

	res, err := s.reserve("p1", sessionA, 5)
	s.Require().NoError(err)
	s.Equal(int64(0), res.AvailableStock)
}

func (s *ReservationUsecaseTestSuite) TestInsufficientStock() {
	s.f.seed("p1", 5)
	_, err := s.reserve("p1", sessionA, 5)
	s.Require().NoError(err)

	res, err := s.reserve("p1", sessionB, 1)
	s.ErrorIs(err, domain.ErrInsufficientStock)
	s.False(res.Success)
	s.Equal(int64(0), res.AvailableStock)

	s.Run("succeeds once the other hold expires", func() {
		s.f.clock.Add(11 * time.Minute)
		res, err := s.reserve("p1", sessionB, 1)
		s.Require().NoError(err)
		s.True(res.Success)
		s.Equal(int64(4), res.AvailableStock)
	})
}

func (s *ReservationUsecaseTestSuite) TestInsufficientStockAfterRelease() {
	s.f.seed("p1", 5)
	_, err := s.reserve("p1", sessionA, 5)
	s.Require().NoError(err)

	_, err = s.f.reservations.Release(s.ctx, domain.ReservationRequest{ProductID: "p1", SessionID: sessionA, Quantity: 5})
	s.Require().NoError(err)

	res, err := s.reserve("p1", sessionB, 1)
	s.Require().NoError(err)
	s.True(res.Success)
}

func (s *ReservationUsecaseTestSuite) TestRelease() {
	s.Run("idempotent: second release is a successful no-op", func() {
		s.f.seed("p1", 5)
		_, err := s.reserve("p1", sessionA, 2)
		s.Require().NoError(err)

		req := domain.ReservationRequest{ProductID: "p1", SessionID: sessionA, Quantity: 2}
		first, err := s.f.reservations.Release(s.ctx, req)
		s.Require().NoError(err)
		s.True(first.Success)
		s.Equal(int64(2), first.Released)

		second, err := s.f.reservations.Release(s.ctx, req)
		s.Require().NoError(err)
		s.True(second.Success)
		s.Equal(int64(0), second.Released)
		s.Empty(s.f.product("p1").Reservations)
	})

	s.Run("partial: decrements in place", func() {
		s.f.seed("p2", 5)
		_, err := s.reserve("p2", sessionA, 4)
		s.Require().NoError(err)

		res, err := s.f.reservations.Release(s.ctx, domain.ReservationRequest{ProductID: "p2", SessionID: sessionA, Quantity: 1})
		s.Require().NoError(err)
		s.Equal(int64(3), res.Remaining)
		s.Equal(int64(3), s.f.product("p2").Reservations[0].Quantity)
	})
}

func (s *ReservationUsecaseTestSuite) TestBatchRelease() {
	s.Run("all-or-nothing at validation", func() {
		s.f.seed("p1", 5)
		s.f.seed("p2", 5)
		_, err := s.reserve("p1", sessionA, 2)
		s.Require().NoError(err)

		res, err := s.f.reservations.BatchRelease(s.ctx, domain.BatchReleaseRequest{
			SessionID: sessionA,
			Items: []domain.ReleaseItem{
				{ProductID: "p1", Quantity: 2},
				{ProductID: "p2", Quantity: 1},
			},
		})
		s.ErrorIs(err, domain.ErrValidation)
		s.False(res.Success)
		s.Require().Len(res.Errors, 1)
		s.Equal("p2", res.Errors[0].ProductID)

		s.Equal(int64(2), s.f.product("p1").Reservations[0].Quantity)
		s.Empty(s.f.product("p2").Reservations)
	})

	s.Run("over-release is rejected", func() {
		s.f.seed("p3", 5)
		_, err := s.reserve("p3", sessionA, 1)
		s.Require().NoError(err)

		res, err := s.f.reservations.BatchRelease(s.ctx, domain.BatchReleaseRequest{
			SessionID: sessionA,
			Items:     []domain.ReleaseItem{{ProductID: "p3", Quantity: 2}},
		})
		s.ErrorIs(err, domain.ErrValidation)
		s.Len(res.Errors, 1)
		s.Equal(int64(1), s.f.product("p3").Reservations[0].Quantity)
	})

	s.Run("success: releases every item", func() {
		s.f.seed("p4", 5)
		s.f.seed("p5", 5)
		_, err := s.reserve("p4", sessionB, 2)
		s.Require().NoError(err)
		_, err = s.reserve("p5", sessionB, 3)
		s.Require().NoError(err)

		res, err := s.f.reservations.BatchRelease(s.ctx, domain.BatchReleaseRequest{
			SessionID: sessionB,
			Items: []domain.ReleaseItem{
				{ProductID: "p4", Quantity: 2},
				{ProductID: "p5", Quantity: 1},
			},
		})
		s.Require().NoError(err)
		s.True(res.Success)
		s.Len(res.ReleasedItems, 2)
		s.Empty(s.f.product("p4").Reservations)
		s.Equal(int64(2), s.f.product("p5").Reservations[0].Quantity)
	})
}

func (s *ReservationUsecaseTestSuite) TestRollbackRelease() {
	s.f.seed("p1", 10)
	_, err := s.reserve("p1", sessionA, 3)
	s.Require().NoError(err)
	_, err = s.f.reservations.Release(s.ctx, domain.ReservationRequest{ProductID: "p1", SessionID: sessionA, Quantity: 2})
	s.Require().NoError(err)

	res, err := s.f.reservations.RollbackRelease(s.ctx, domain.ReservationRequest{ProductID: "p1", SessionID: sessionA, Quantity: 2})
	s.Require().NoError(err)
	s.Equal(int64(3), res.Quantity)
	s.Equal(testNow.Add(30*time.Minute), res.ReservedUntil)

	s.Run("rate limited per session", func() {
		req := domain.ReservationRequest{ProductID: "p1", SessionID: sessionB, Quantity: 1}
		limit := s.f.cfg.RateLimit.RollbackMax
		for i := int64(0); i < limit; i++ {
			_, err := s.f.reservations.RollbackRelease(s.ctx, req)
			if err != nil {
				s.ErrorIs(err, domain.ErrInsufficientStock)
			}
		}

		_, err := s.f.reservations.RollbackRelease(s.ctx, req)
		s.ErrorIs(err, domain.ErrRateLimited)
		var rateErr *domain.RateLimitError
		s.Require().True(errors.As(err, &rateErr))
		s.Equal(int64(0), rateErr.Result.Remaining)
	})
}

func (s *ReservationUsecaseTestSuite) TestQuantityBounds() {
	huge := int64(math.MaxInt64)

	testCases := []struct {
		name    string
		held    int64
		call    func() error
		wantErr error
	}{
		{
			name: "rollback cannot wrap the existing hold",
			held: 1,
			call: func() error {
				_, err := s.f.reservations.RollbackRelease(s.ctx, domain.ReservationRequest{ProductID: "p1", SessionID: sessionA, Quantity: huge})
				return err
			},
			wantErr: domain.ErrInsufficientStock,
		},
		{
			name: "rollback just past remaining stock",
			held: 1,
			call: func() error {
				_, err := s.f.reservations.RollbackRelease(s.ctx, domain.ReservationRequest{ProductID: "p1", SessionID: sessionA, Quantity: 5})
				return err
			},
			wantErr: domain.ErrInsufficientStock,
		},
		{
			name: "reserve far beyond stock",
			held: 2,
			call: func() error {
				_, err := s.reserve("p1", sessionA, huge)
				return err
			},
			wantErr: domain.ErrInsufficientStock,
		},
		{
			name: "batch merge overflow is rejected",
			held: 2,
			call: func() error {
				_, err := s.f.reservations.BatchRelease(s.ctx, domain.BatchReleaseRequest{
					SessionID: sessionA,
					Items: []domain.ReleaseItem{
						{ProductID: "p1", Quantity: huge},
						{ProductID: "p1", Quantity: huge},
					},
				})
				return err
			},
			wantErr: domain.ErrValidation,
		},
		{
			name: "batch release beyond hold",
			held: 2,
			call: func() error {
				_, err := s.f.reservations.BatchRelease(s.ctx, domain.BatchReleaseRequest{
					SessionID: sessionA,
					Items:     []domain.ReleaseItem{{ProductID: "p1", Quantity: huge}},
				})
				return err
			},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.f = newFixture()
			s.f.seed("p1", 5)
			_, err := s.reserve("p1", sessionA, tc.held)
			s.Require().NoError(err)

			s.ErrorIs(tc.call(), tc.wantErr)

			reservations := s.f.product("p1").Reservations
			s.Require().Len(reservations, 1)
			s.Equal(tc.held, reservations[0].Quantity)

			_, err = s.reserve("p1", sessionB, 5-tc.held)
			s.NoError(err)
		})
	}

	s.Run("release of a huge quantity drops the hold", func() {
		s.f = newFixture()
		s.f.seed("p1", 5)
		_, err := s.reserve("p1", sessionA, 2)
		s.Require().NoError(err)

		res, err := s.f.reservations.Release(s.ctx, domain.ReservationRequest{ProductID: "p1", SessionID: sessionA, Quantity: huge})
		s.Require().NoError(err)
		s.Equal(int64(2), res.Released)
		s.Equal(int64(0), res.Remaining)
		s.Empty(s.f.product("p1").Reservations)
	})
}

func (s *ReservationUsecaseTestSuite) TestReleaseValidatesSession() {
	s.f.seed("p1", 5)
	_, err := s.reserve("p1", sessionA, 2)
	s.Require().NoError(err)

	_, err = s.f.reservations.Release(s.ctx, domain.ReservationRequest{ProductID: "p1", SessionID: "bad id!", Quantity: 1})
	s.ErrorIs(err, domain.ErrValidation)
	s.Equal(int64(2), s.f.product("p1").Reservations[0].Quantity)
}

func (s *ReservationUsecaseTestSuite) TestClearReservation() {
	s.f.seed("p1", 10)
	_, _ = s.reserve("p1", sessionA, 1)
	_, _ = s.reserve("p1", sessionB, 2)
	_, _ = s.reserve("p1", sessionC, 3)

	res, err := s.f.reservations.ClearReservation(s.ctx, "p1", sessionB)
	s.Require().NoError(err)
	s.Equal(1, res.Removed)
	s.Len(s.f.product("p1").Reservations, 2)

	res, err = s.f.reservations.ClearReservation(s.ctx, "p1", domain.AllSessions)
	s.Require().NoError(err)
	s.Equal(2, res.Removed)
	s.Empty(s.f.product("p1").Reservations)

	res, err = s.f.reservations.ClearReservation(s.ctx, "p1", domain.AllSessions)
	s.Require().NoError(err)
	s.True(res.Success)
	s.Equal(0, res.Removed)
}

func (s *ReservationUsecaseTestSuite) TestCleanupExpiredReservations() {
	past := testNow.Add(-time.Minute)
	future := testNow.Add(time.Minute)
	s.f.seed("p1", 5,
		domain.Reservation{SessionID: sessionA, Quantity: 1, ReservedUntil: past},
		domain.Reservation{SessionID: sessionB, Quantity: 1, ReservedUntil: future})
	s.f.seed("p2", 5, domain.Reservation{SessionID: sessionA, Quantity: 2, ReservedUntil: past})
	s.f.seed("p3", 5, domain.Reservation{SessionID: sessionC, Quantity: 2, ReservedUntil: future})
	untouched := s.f.product("p3").Version

	res, err := s.f.reservations.CleanupExpiredReservations(s.ctx)
	s.Require().NoError(err)
	s.True(res.Success)
	s.Equal(2, res.ClearedCount)
	s.Equal(2, res.ProductsUpdated)

	s.Len(s.f.product("p1").Reservations, 1)
	s.Empty(s.f.product("p2").Reservations)
	s.Equal(untouched, s.f.product("p3").Version)
}

func (s *ReservationUsecaseTestSuite) TestRetry() {
	s.Run("lost CAS race is retried with a fresh read", func() {
		s.f.seed("p1", 5)
		flaky := &flakyProductRepo{ProductRepository: s.f.products, failures: 2, err: domain.ErrVersionMismatch}
		reservations := usecase.NewReservationUsecase(flaky, s.f.sessions, nil, s.f.clock, s.f.cfg)

		res, err := reservations.Reserve(s.ctx, domain.ReservationRequest{ProductID: "p1", SessionID: sessionA, Quantity: 1})
		s.Require().NoError(err)
		s.True(res.Success)
		s.Equal(3, flaky.calls)
	})

	s.Run("exhausted retries surface as transient", func() {
		s.f.seed("p2", 5)
		flaky := &flakyProductRepo{
			ProductRepository: s.f.products,
			failures:          100,
			err:               errs.Mark(errors.New("connection reset"), domain.ErrStoreTransient),
		}
		reservations := usecase.NewReservationUsecase(flaky, s.f.sessions, nil, s.f.clock, s.f.cfg)

		_, err := reservations.Reserve(s.ctx, domain.ReservationRequest{ProductID: "p2", SessionID: sessionA, Quantity: 1})
		s.True(errs.Is(err, domain.ErrStoreTransient))
		s.Equal(s.f.cfg.Reservation.RetryAttempts, flaky.calls)
		s.Empty(s.f.product("p2").Reservations)
	})

	s.Run("business failures are not retried", func() {
		s.f.seed("p3", 1)
		flaky := &flakyProductRepo{ProductRepository: s.f.products}
		reservations := usecase.NewReservationUsecase(flaky, s.f.sessions, nil, s.f.clock, s.f.cfg)

		_, err := reservations.Reserve(s.ctx, domain.ReservationRequest{ProductID: "p3", SessionID: sessionA, Quantity: 2})
		s.ErrorIs(err, domain.ErrInsufficientStock)
		s.Equal(0, flaky.calls)
	})
}

func (s *ReservationUsecaseTestSuite) TestBroadcast() {
	s.f.seed("p1", 4)
	messages, cancel := s.f.hub.Subscribe()
	defer cancel()

	_, err := s.reserve("p1", sessionA, 3)
	s.Require().NoError(err)

	select {
	case msg := <-messages:
		s.Equal("p1", msg.ProductID)
		s.Equal(int64(4), msg.Stock)
		s.Equal(int64(1), msg.Available)
	case <-time.After(time.Second):
		s.Fail("no stock broadcast")
	}
}
