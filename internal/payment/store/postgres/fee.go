package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"resident-manager/internal/payment/models"
)

// FeeStore reads fee rows. Fees are owned by an external fee-management
// collaborator; this service never writes them.
type FeeStore struct {
	db *sql.DB
}

// NewFeeStore constructs a PostgreSQL-backed fee store.
func NewFeeStore(db *sql.DB) *FeeStore {
	return &FeeStore{db: db}
}

// List returns a page of fees ordered by effective date, newest first.
func (s *FeeStore) List(ctx context.Context, offset, limit int) ([]*models.Fee, error) {
	query := `
		SELECT fee_id, name, lower, upper, date, description
		FROM fee
		ORDER BY date DESC, fee_id DESC
		OFFSET $1 LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list fees: %w", err)
	}
	defer rows.Close()

	var out []*models.Fee
	for rows.Next() {
		fee, err := scanFee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fee: %w", err)
		}
		out = append(out, fee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fees: %w", err)
	}
	return out, nil
}

// ListForRoom returns fees effective within [after, before], optionally
// narrowed to those the room has or has not settled.
func (s *FeeStore) ListForRoom(ctx context.Context, room int, paid *bool, after, before time.Time, offset, limit int) ([]*models.Fee, error) {
	query := `
		SELECT f.fee_id, f.name, f.lower, f.upper, f.date, f.description
		FROM fee f
		WHERE f.date >= $2 AND f.date <= $3
		  AND ($4::boolean IS NULL
		       OR EXISTS (SELECT 1 FROM payments p WHERE p.fee_id = f.fee_id AND p.room = $1) = $4)
		ORDER BY f.date DESC, f.fee_id DESC
		OFFSET $5 LIMIT $6
	`
	rows, err := s.db.QueryContext(ctx, query, room, after, before, nullBool(paid), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list fees for room: %w", err)
	}
	defer rows.Close()

	var out []*models.Fee
	for rows.Next() {
		fee, err := scanFee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fee: %w", err)
		}
		out = append(out, fee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fees for room: %w", err)
	}
	return out, nil
}

// CountForRoom mirrors ListForRoom's filter semantics.
func (s *FeeStore) CountForRoom(ctx context.Context, room int, paid *bool, after, before time.Time) (int, error) {
	query := `
		SELECT COUNT(f.fee_id)
		FROM fee f
		WHERE f.date >= $2 AND f.date <= $3
		  AND ($4::boolean IS NULL
		       OR EXISTS (SELECT 1 FROM payments p WHERE p.fee_id = f.fee_id AND p.room = $1) = $4)
	`
	var count int
	if err := s.db.QueryRowContext(ctx, query, room, after, before, nullBool(paid)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count fees for room: %w", err)
	}
	return count, nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

type feeRow interface {
	Scan(dest ...any) error
}

func scanFee(row feeRow) (*models.Fee, error) {
	var fee models.Fee
	var id int64
	var description sql.NullString
	if err := row.Scan(&id, &fee.Name, &fee.Lower, &fee.Upper, &fee.Date, &description); err != nil {
		return nil, err
	}
	fee.ID = uint64(id)
	if description.Valid {
		fee.Description = &description.String
	}
	return &fee, nil
}
