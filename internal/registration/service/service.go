// Package service owns registration-request policy: intake validation and
// normalization, the username uniqueness result codes, and bulk admission.
// Atomicity itself is delegated to the store's conditional writes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"resident-manager/internal/platform/metrics"
	"resident-manager/internal/registration/models"
	"resident-manager/internal/registration/validate"
	"resident-manager/pkg/snowflake"
)

// QueueStore is the persistence the service needs. Implementations must make
// CreateIfUsernameFree and AcceptMany atomic with respect to concurrent calls.
type QueueStore interface {
	CreateIfUsernameFree(ctx context.Context, req *models.RegistrationRequest) (bool, error)
	Query(ctx context.Context, f models.Filter, offset, limit int, orderBy models.OrderBy, ascending bool) ([]*models.RegistrationRequest, error)
	Count(ctx context.Context, f models.Filter) (int, error)
	AcceptMany(ctx context.Context, admissions []models.Admission) (int, error)
	RejectMany(ctx context.Context, ids []uint64) (int, error)
}

type Service struct {
	store    QueueStore
	ids      *snowflake.Allocator
	pageSize int
	logger   *slog.Logger
	metrics  *metrics.Metrics
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

func New(store QueueStore, ids *snowflake.Allocator, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("queue store is required")
	}
	if ids == nil {
		return nil, fmt.Errorf("id allocator is required")
	}

	svc := &Service{
		store:    store,
		ids:      ids,
		pageSize: defaultPageSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateInput carries the raw intake fields. Optional strings may be empty;
// empty values are normalized to absent before storage.
type CreateInput struct {
	Name     string
	Room     int
	Birthday *time.Time
	Phone    string
	Email    string
	Username string
	Password string
}

// CreateResult is the typed outcome of intake. Code is zero on success;
// otherwise one of the models.Code* values and Request is nil.
type CreateResult struct {
	Code    int
	Request *models.RegistrationRequest
}

// Create validates the input in a fixed order, hashes the password, allocates
// an id and performs the atomic check-and-insert. A username already present
// in either table yields CodeUsernameTaken; validation failures yield the
// per-field codes. The returned error is reserved for infrastructure faults.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if code := s.validateInput(&in); code != 0 {
		return &CreateResult{Code: code}, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	req := &models.RegistrationRequest{
		ID:             s.ids.Next(),
		Name:           in.Name,
		Room:           in.Room,
		Birthday:       in.Birthday,
		Username:       in.Username,
		HashedPassword: string(hashed),
	}
	if in.Phone != "" {
		req.Phone = &in.Phone
	}
	if in.Email != "" {
		req.Email = &in.Email
	}

	inserted, err := s.store.CreateIfUsernameFree(ctx, req)
	if err != nil {
		return nil, err
	}
	if !inserted {
		if s.metrics != nil {
			s.metrics.RegistrationConflicts.Inc()
		}
		return &CreateResult{Code: models.CodeUsernameTaken}, nil
	}

	if s.metrics != nil {
		s.metrics.RegistrationsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "registration request queued",
		"request_id", req.ID,
		"room", req.Room,
	)
	return &CreateResult{Request: req}, nil
}

// validateInput normalizes optional fields and runs the validators in intake
// order, returning the first failing field's code.
func (s *Service) validateInput(in *CreateInput) int {
	fail := func(field string, code int) int {
		if s.metrics != nil {
			s.metrics.RegistrationsRejectedBy.WithLabelValues(field).Inc()
		}
		return code
	}

	if !validate.Name(in.Name) {
		return fail("name", models.CodeBadName)
	}
	if !validate.Room(in.Room) {
		return fail("room", models.CodeBadRoom)
	}
	if in.Phone != "" && !validate.Phone(in.Phone) {
		return fail("phone", models.CodeBadPhone)
	}
	if in.Email != "" && !validate.Email(in.Email) {
		return fail("email", models.CodeBadEmail)
	}
	if !validate.Username(in.Username) {
		return fail("username", models.CodeBadUsername)
	}
	if !validate.Password(in.Password) {
		return fail("password", models.CodeWeakPassword)
	}
	return 0
}

// Query returns a page of pending requests. Any filter value that fails
// validation short-circuits to an empty result without touching the store.
func (s *Service) Query(ctx context.Context, f models.Filter, offset int, orderBy models.OrderBy, ascending bool) ([]*models.RegistrationRequest, error) {
	if !validFilter(f) {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Query(ctx, f, offset, s.pageSize, orderBy, ascending)
}

// Count mirrors Query's filter semantics.
func (s *Service) Count(ctx context.Context, f models.Filter) (int, error) {
	if !validFilter(f) {
		return 0, nil
	}
	return s.store.Count(ctx, f)
}

func validFilter(f models.Filter) bool {
	if f.Name != nil && !validate.Name(*f.Name) {
		return false
	}
	if f.Room != nil && !validate.Room(*f.Room) {
		return false
	}
	if f.Username != nil && !validate.Username(*f.Username) {
		return false
	}
	return true
}

// Accept admits the identified queue rows, allocating a fresh resident id for
// each. Ids not present in the queue are skipped; re-submitting already
// processed ids is a no-op. The move itself is one atomic store operation.
func (s *Service) Accept(ctx context.Context, ids []uint64) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}

	admissions := make([]models.Admission, len(ids))
	for i, id := range ids {
		admissions[i] = models.Admission{RequestID: id, ResidentID: s.ids.Next()}
	}

	moved, err := s.store.AcceptMany(ctx, admissions)
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RequestsAccepted.Add(float64(moved))
	}
	s.logger.InfoContext(ctx, "registration requests accepted",
		"requested", len(ids),
		"moved", moved,
	)
	return nil
}

// Reject deletes the identified queue rows. Unknown ids are skipped.
func (s *Service) Reject(ctx context.Context, ids []uint64) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}

	deleted, err := s.store.RejectMany(ctx, ids)
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RequestsRejected.Add(float64(deleted))
	}
	s.logger.InfoContext(ctx, "registration requests rejected",
		"requested", len(ids),
		"deleted", deleted,
	)
	return nil
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
