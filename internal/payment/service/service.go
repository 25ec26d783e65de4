// Package service owns settlement policy: a verified notification is credited
// exactly once per transaction reference, duplicates are acknowledged without
// a second credit. The exactly-once property rests on the store's conditional
// insert, not on in-process state.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"resident-manager/internal/payment/models"
	"resident-manager/internal/payment/vnpay"
	"resident-manager/internal/platform/metrics"
)

// SettlementStore persists applied notifications. ApplyOnce must be atomic
// with respect to concurrent calls for the same settlement key.
type SettlementStore interface {
	ApplyOnce(ctx context.Context, st models.Settlement) (bool, error)
}

// FeeStore reads fee rows.
type FeeStore interface {
	List(ctx context.Context, offset, limit int) ([]*models.Fee, error)
	ListForRoom(ctx context.Context, room int, paid *bool, after, before time.Time, offset, limit int) ([]*models.Fee, error)
	CountForRoom(ctx context.Context, room int, paid *bool, after, before time.Time) (int, error)
}

type Service struct {
	settlements SettlementStore
	fees        FeeStore
	pageSize    int
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

const defaultPageSize = 50

func New(settlements SettlementStore, fees FeeStore, opts ...Option) (*Service, error) {
	if settlements == nil {
		return nil, fmt.Errorf("settlement store is required")
	}
	if fees == nil {
		return nil, fmt.Errorf("fee store is required")
	}

	svc := &Service{
		settlements: settlements,
		fees:        fees,
		pageSize:    defaultPageSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Apply credits the payment identified by the transaction reference. Under
// concurrent duplicates exactly one call returns Applied; the rest return
// AlreadyApplied and leave state untouched.
func (s *Service) Apply(ctx context.Context, ref vnpay.Ref) (models.Outcome, error) {
	applied, err := s.settlements.ApplyOnce(ctx, models.Settlement{
		Room:   ref.Room,
		FeeID:  ref.FeeID,
		Amount: ref.Amount,
		Nonce:  ref.Nonce,
	})
	if err != nil {
		return 0, err
	}

	if !applied {
		if s.metrics != nil {
			s.metrics.SettlementsReplayed.Inc()
		}
		return models.AlreadyApplied, nil
	}

	if s.metrics != nil {
		s.metrics.SettlementsApplied.Inc()
	}
	s.logger.InfoContext(ctx, "payment settled",
		"room", ref.Room,
		"fee_id", ref.FeeID,
		"amount", ref.Amount,
	)
	return models.Applied, nil
}

// ListFees returns a page of all fees.
func (s *Service) ListFees(ctx context.Context, offset int) ([]*models.Fee, error) {
	if offset < 0 {
		offset = 0
	}
	return s.fees.List(ctx, offset, s.pageSize)
}

// ListFeesForRoom returns the fees visible to a resident's room within the
// window, optionally narrowed by paid status.
func (s *Service) ListFeesForRoom(ctx context.Context, room int, paid *bool, after, before time.Time, offset int) ([]*models.Fee, error) {
	if offset < 0 {
		offset = 0
	}
	return s.fees.ListForRoom(ctx, room, paid, after, before, offset, s.pageSize)
}

// CountFeesForRoom mirrors ListFeesForRoom's filter semantics.
func (s *Service) CountFeesForRoom(ctx context.Context, room int, paid *bool, after, before time.Time) (int, error) {
	return s.fees.CountForRoom(ctx, room, paid, after, before)
}
