package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"resident-manager/internal/payment/models"
	"resident-manager/internal/payment/store/memory"
	"resident-manager/internal/payment/vnpay"
)

type SettlementServiceSuite struct {
	suite.Suite
	store   *memory.Store
	service *Service
}

func TestSettlementServiceSuite(t *testing.T) {
	suite.Run(t, new(SettlementServiceSuite))
}

func (s *SettlementServiceSuite) SetupTest() {
	s.store = memory.New()

	var err error
	s.service, err = New(s.store, s.store, WithPageSize(5))
	s.Require().NoError(err)
}

func (s *SettlementServiceSuite) TestNew() {
	_, err := New(nil, s.store)
	s.Error(err)

	_, err = New(s.store, nil)
	s.Error(err)
}

func (s *SettlementServiceSuite) TestApplyIsIdempotent() {
	ctx := context.Background()
	ref := vnpay.Ref{Room: 12, FeeID: 3, Amount: 500000, Nonce: 77}

	first, err := s.service.Apply(ctx, ref)
	s.Require().NoError(err)
	s.Equal(models.Applied, first)

	second, err := s.service.Apply(ctx, ref)
	s.Require().NoError(err)
	s.Equal(models.AlreadyApplied, second)

	s.Equal(1, s.store.SettlementCount(), "a single credit per reference")
}

func (s *SettlementServiceSuite) TestApplyDistinguishesNonces() {
	ctx := context.Background()

	first, err := s.service.Apply(ctx, vnpay.Ref{Room: 12, FeeID: 3, Amount: 500000, Nonce: 1})
	s.Require().NoError(err)
	s.Equal(models.Applied, first)

	// Same room, fee and amount but a different nonce is a distinct payment.
	second, err := s.service.Apply(ctx, vnpay.Ref{Room: 12, FeeID: 3, Amount: 500000, Nonce: 2})
	s.Require().NoError(err)
	s.Equal(models.Applied, second)

	s.Equal(2, s.store.SettlementCount())
}

func (s *SettlementServiceSuite) TestConcurrentDuplicatesSingleCredit() {
	ctx := context.Background()
	ref := vnpay.Ref{Room: 9, FeeID: 1, Amount: 120000, Nonce: 5}

	const attempts = 16
	outcomes := make(chan models.Outcome, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := s.service.Apply(ctx, ref)
			s.NoError(err)
			outcomes <- outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	applied := 0
	for outcome := range outcomes {
		if outcome == models.Applied {
			applied++
		}
	}
	s.Equal(1, applied)
	s.Equal(1, s.store.SettlementCount())
}

func (s *SettlementServiceSuite) TestFeeQueriesForRoom() {
	ctx := context.Background()
	now := time.Now()

	desc := "electricity"
	s.store.AddFee(&models.Fee{ID: 1, Name: "electricity", Lower: 100, Upper: 200, Date: now.Add(-48 * time.Hour), Description: &desc})
	s.store.AddFee(&models.Fee{ID: 2, Name: "water", Lower: 50, Upper: 80, Date: now.Add(-24 * time.Hour)})
	s.store.AddFee(&models.Fee{ID: 3, Name: "maintenance", Lower: 10, Upper: 10, Date: now})

	_, err := s.service.Apply(ctx, vnpay.Ref{Room: 12, FeeID: 2, Amount: 60, Nonce: 1})
	s.Require().NoError(err)

	window := func(paid *bool) (int, error) {
		return s.service.CountFeesForRoom(ctx, 12, paid, now.Add(-72*time.Hour), now)
	}

	all, err := window(nil)
	s.Require().NoError(err)
	s.Equal(3, all)

	paid := true
	paidCount, err := window(&paid)
	s.Require().NoError(err)
	s.Equal(1, paidCount)

	unpaid := false
	unpaidCount, err := window(&unpaid)
	s.Require().NoError(err)
	s.Equal(2, unpaidCount)

	// The window bounds are inclusive filters on the effective date.
	narrow, err := s.service.CountFeesForRoom(ctx, 12, nil, now.Add(-time.Hour), now)
	s.Require().NoError(err)
	s.Equal(1, narrow)

	fees, err := s.service.ListFeesForRoom(ctx, 12, nil, now.Add(-72*time.Hour), now, 0)
	s.Require().NoError(err)
	s.Require().Len(fees, 3)
	s.Equal(uint64(3), fees[0].ID, "newest first")
}

func (s *SettlementServiceSuite) TestListFeesPaginates() {
	ctx := context.Background()
	now := time.Now()

	for i := 1; i <= 7; i++ {
		s.store.AddFee(&models.Fee{ID: uint64(i), Name: "fee", Date: now.Add(time.Duration(i) * time.Minute)})
	}

	page1, err := s.service.ListFees(ctx, 0)
	s.Require().NoError(err)
	s.Len(page1, 5)

	page2, err := s.service.ListFees(ctx, 5)
	s.Require().NoError(err)
	s.Len(page2, 2)
}
