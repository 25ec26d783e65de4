package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"resident-manager/internal/registration/models"
)

// ResidentStore reads the resident table. Rows are only ever written by the
// queue store's atomic admission move.
type ResidentStore struct {
	db *sql.DB
}

// NewResidentStore constructs a PostgreSQL-backed resident store.
func NewResidentStore(db *sql.DB) *ResidentStore {
	return &ResidentStore{db: db}
}

// FindByUsername returns the resident with the given username, or nil when no
// such resident exists.
func (s *ResidentStore) FindByUsername(ctx context.Context, username string) (*models.Resident, error) {
	query := `
		SELECT resident_id, name, room, birthday, phone, email, username, hashed_password
		FROM residents
		WHERE username = $1
	`
	var r models.Resident
	var id int64
	var birthday sql.NullTime
	var phone, email sql.NullString
	err := s.db.QueryRowContext(ctx, query, username).Scan(&id, &r.Name, &r.Room, &birthday, &phone, &email, &r.Username, &r.HashedPassword)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find resident by username: %w", err)
	}
	r.ID = uint64(id)
	if birthday.Valid {
		r.Birthday = &birthday.Time
	}
	if phone.Valid {
		r.Phone = &phone.String
	}
	if email.Valid {
		r.Email = &email.String
	}
	return &r, nil
}

// Count returns the number of residents.
func (s *ResidentStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(resident_id) FROM residents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count residents: %w", err)
	}
	return count, nil
}
