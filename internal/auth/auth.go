// Package auth issues and enforces resident access tokens. Admin credentials
// are handled separately in internal/admin; this package covers the resident
// login flow and the bearer middleware in front of resident routes.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"resident-manager/internal/jwttoken"
	"resident-manager/internal/registration/models"
	dErrors "resident-manager/pkg/domain-errors"
)

// ResidentStore looks up residents by username. A missing row is (nil, nil).
type ResidentStore interface {
	FindByUsername(ctx context.Context, username string) (*models.Resident, error)
}

type Service struct {
	residents ResidentStore
	tokens    *jwttoken.Service
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(residents ResidentStore, tokens *jwttoken.Service, opts ...Option) (*Service, error) {
	if residents == nil {
		return nil, fmt.Errorf("resident store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}

	svc := &Service{residents: residents, tokens: tokens, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// LoginResult carries the signed token plus the resident it belongs to.
type LoginResult struct {
	Token    string
	Resident *models.Resident
}

// Login verifies the credential against the resident table and signs an
// access token. Unknown usernames burn a bcrypt comparison anyway so the
// two failure paths take comparable time.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	resident, err := s.residents.FindByUsername(ctx, username)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up resident")
	}
	if resident == nil {
		_ = bcrypt.CompareHashAndPassword(decoyHash, []byte(password))
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	if subtle.ConstantTimeCompare([]byte(resident.Username), []byte(username)) != 1 ||
		bcrypt.CompareHashAndPassword([]byte(resident.HashedPassword), []byte(password)) != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.Generate(resident.ID, resident.Username, resident.Room)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "sign token")
	}

	s.logger.InfoContext(ctx, "resident logged in", "username", resident.Username, "room", resident.Room)
	return &LoginResult{Token: token, Resident: resident}, nil
}

// decoyHash is a bcrypt hash of an unguessable throwaway value, used to keep
// the unknown-username path from returning faster than the wrong-password one.
var decoyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("decoy-credential-timing-pad"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()
