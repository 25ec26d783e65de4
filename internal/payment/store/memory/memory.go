// Package memory implements the payment stores over in-process maps for
// service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"resident-manager/internal/payment/models"
)

type Store struct {
	mu          sync.Mutex
	settlements map[models.Settlement]struct{}
	fees        map[uint64]*models.Fee
}

func New() *Store {
	return &Store{
		settlements: make(map[models.Settlement]struct{}),
		fees:        make(map[uint64]*models.Fee),
	}
}

func (s *Store) ApplyOnce(_ context.Context, st models.Settlement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.settlements[st]; exists {
		return false, nil
	}
	s.settlements[st] = struct{}{}
	return true, nil
}

// SettlementCount is a test helper.
func (s *Store) SettlementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.settlements)
}

// AddFee seeds a fee row for tests.
func (s *Store) AddFee(fee *models.Fee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *fee
	s.fees[fee.ID] = &cp
}

func (s *Store) List(_ context.Context, offset, limit int) ([]*models.Fee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.sorted(), offset, limit), nil
}

func (s *Store) ListForRoom(_ context.Context, room int, paid *bool, after, before time.Time, offset, limit int) ([]*models.Fee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Fee
	for _, fee := range s.sorted() {
		if s.matchesRoom(fee, room, paid, after, before) {
			matched = append(matched, fee)
		}
	}
	return page(matched, offset, limit), nil
}

func (s *Store) CountForRoom(_ context.Context, room int, paid *bool, after, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, fee := range s.fees {
		if s.matchesRoom(fee, room, paid, after, before) {
			count++
		}
	}
	return count, nil
}

func (s *Store) matchesRoom(fee *models.Fee, room int, paid *bool, after, before time.Time) bool {
	if fee.Date.Before(after) || fee.Date.After(before) {
		return false
	}
	if paid == nil {
		return true
	}
	isPaid := false
	for st := range s.settlements {
		if st.FeeID == fee.ID && st.Room == room {
			isPaid = true
			break
		}
	}
	return isPaid == *paid
}

func (s *Store) sorted() []*models.Fee {
	out := make([]*models.Fee, 0, len(s.fees))
	for _, fee := range s.fees {
		cp := *fee
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func page(fees []*models.Fee, offset, limit int) []*models.Fee {
	if offset >= len(fees) {
		return nil
	}
	fees = fees[offset:]
	if len(fees) > limit {
		fees = fees[:limit]
	}
	return fees
}
