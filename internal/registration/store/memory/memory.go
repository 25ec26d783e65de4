// Package memory implements the registration stores over in-process maps.
// One Store backs both tables so the cross-table username guard behaves like
// the database's: a username belongs to at most one row across queue and
// residents.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"resident-manager/internal/registration/models"
)

type Store struct {
	mu        sync.Mutex
	queue     map[uint64]*models.RegistrationRequest
	residents map[uint64]*models.Resident
}

func New() *Store {
	return &Store{
		queue:     make(map[uint64]*models.RegistrationRequest),
		residents: make(map[uint64]*models.Resident),
	}
}

func (s *Store) CreateIfUsernameFree(_ context.Context, req *models.RegistrationRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.queue {
		if r.Username == req.Username {
			return false, nil
		}
	}
	for _, r := range s.residents {
		if r.Username == req.Username {
			return false, nil
		}
	}

	cp := *req
	s.queue[req.ID] = &cp
	return true, nil
}

func (s *Store) Query(_ context.Context, f models.Filter, offset, limit int, orderBy models.OrderBy, ascending bool) ([]*models.RegistrationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.RegistrationRequest
	for _, r := range s.queue {
		if matches(r, f) {
			cp := *r
			matched = append(matched, &cp)
		}
	}

	if !orderBy.Valid() {
		orderBy = models.OrderByID
	}
	sort.Slice(matched, func(i, j int) bool {
		less := lessBy(matched[i], matched[j], orderBy)
		if ascending {
			return less
		}
		return lessBy(matched[j], matched[i], orderBy)
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Store) Count(_ context.Context, f models.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, r := range s.queue {
		if matches(r, f) {
			count++
		}
	}
	return count, nil
}

func (s *Store) AcceptMany(_ context.Context, admissions []models.Admission) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := 0
	for _, a := range admissions {
		req, ok := s.queue[a.RequestID]
		if !ok {
			continue
		}
		delete(s.queue, a.RequestID)
		s.residents[a.ResidentID] = &models.Resident{
			ID:             a.ResidentID,
			Name:           req.Name,
			Room:           req.Room,
			Birthday:       req.Birthday,
			Phone:          req.Phone,
			Email:          req.Email,
			Username:       req.Username,
			HashedPassword: req.HashedPassword,
		}
		moved++
	}
	return moved, nil
}

func (s *Store) RejectMany(_ context.Context, ids []uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := s.queue[id]; ok {
			delete(s.queue, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) FindByUsername(_ context.Context, username string) (*models.Resident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.residents {
		if r.Username == username {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) CountResidents(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.residents), nil
}

// ResidentByID is a test helper for asserting on admission outcomes.
func (s *Store) ResidentByID(_ context.Context, id uint64) (*models.Resident, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.residents[id]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

func matches(r *models.RegistrationRequest, f models.Filter) bool {
	if f.ID != nil && r.ID != *f.ID {
		return false
	}
	if f.Name != nil && !strings.Contains(r.Name, *f.Name) {
		return false
	}
	if f.Room != nil && r.Room != *f.Room {
		return false
	}
	if f.Username != nil && r.Username != *f.Username {
		return false
	}
	return true
}

func lessBy(a, b *models.RegistrationRequest, orderBy models.OrderBy) bool {
	switch orderBy {
	case models.OrderByName:
		if a.Name != b.Name {
			return a.Name < b.Name
		}
	case models.OrderByRoom:
		if a.Room != b.Room {
			return a.Room < b.Room
		}
	case models.OrderByUsername:
		if a.Username != b.Username {
			return a.Username < b.Username
		}
	}
	return a.ID < b.ID
}
