package admin

import (
	"context"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"

	dErrors "resident-manager/pkg/domain-errors"
	"resident-manager/pkg/platform/sentinel"
)

// Service checks submitted admin credentials against the stored ones.
type Service struct {
	store CredentialStore
}

func NewService(store CredentialStore) (*Service, error) {
	if store == nil {
		return nil, errors.New("credential store is required")
	}
	return &Service{store: store}, nil
}

// Verify returns nil when username and password match the seeded credential.
// Bad credentials map to CodeUnauthorized; a corrupt config table is an
// internal fault and must not be reported as an auth failure.
func (s *Service) Verify(ctx context.Context, username, password string) error {
	cred, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrIntegrity) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "admin credential store is corrupt")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin credential")
	}

	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(cred.Username)) == 1
	passwordErr := bcrypt.CompareHashAndPassword([]byte(cred.HashedPassword), []byte(password))
	if !usernameOK || passwordErr != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid admin credentials")
	}
	return nil
}
