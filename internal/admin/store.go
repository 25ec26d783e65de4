// Package admin verifies the administrator credential seeded into the config
// table and guards the admin HTTP surface.
package admin

import (
	"context"
	"database/sql"
	"fmt"

	"resident-manager/pkg/platform/sentinel"
)

// Credential is the stored admin identity: a username and a bcrypt hash.
type Credential struct {
	Username       string
	HashedPassword string
}

// CredentialStore loads the admin credential.
type CredentialStore interface {
	Load(ctx context.Context) (Credential, error)
}

// PostgresCredentialStore reads the credential from the config key-value
// table seeded at first initialization.
type PostgresCredentialStore struct {
	db *sql.DB
}

func NewPostgresCredentialStore(db *sql.DB) *PostgresCredentialStore {
	return &PostgresCredentialStore{db: db}
}

// Load returns the seeded credential. Missing or duplicated rows mean the
// store is corrupt; that is an integrity fault, not an auth failure.
func (s *PostgresCredentialStore) Load(ctx context.Context) (Credential, error) {
	query := `SELECT name, value FROM config WHERE name = 'admin_username' OR name = 'admin_hashed_password'`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return Credential{}, fmt.Errorf("load admin credential: %w", err)
	}
	defer rows.Close()

	var cred Credential
	seen := 0
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Credential{}, fmt.Errorf("scan admin credential: %w", err)
		}
		switch name {
		case "admin_username":
			cred.Username = value
		case "admin_hashed_password":
			cred.HashedPassword = value
		}
		seen++
	}
	if err := rows.Err(); err != nil {
		return Credential{}, fmt.Errorf("iterate admin credential: %w", err)
	}
	if seen != 2 || cred.Username == "" || cred.HashedPassword == "" {
		return Credential{}, fmt.Errorf("config table holds %d admin rows: %w", seen, sentinel.ErrIntegrity)
	}
	return cred, nil
}

// StaticCredentialStore serves a fixed credential; used in tests.
type StaticCredentialStore struct {
	Credential Credential
	Err        error
}

func (s *StaticCredentialStore) Load(context.Context) (Credential, error) {
	if s.Err != nil {
		return Credential{}, s.Err
	}
	return s.Credential, nil
}
