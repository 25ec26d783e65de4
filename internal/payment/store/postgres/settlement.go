// Package postgres persists settlements and reads fee rows. Stores are pure
// I/O; replay policy and response codes live in the service layer.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"resident-manager/internal/payment/models"
)

// SettlementStore records applied payment notifications.
type SettlementStore struct {
	db *sql.DB
}

// NewSettlementStore constructs a PostgreSQL-backed settlement store.
func NewSettlementStore(db *sql.DB) *SettlementStore {
	return &SettlementStore{db: db}
}

// ApplyOnce records the settlement unless a row with the same idempotency key
// already exists. The conditional insert is a single statement, so concurrent
// duplicates resolve at the unique index: exactly one caller sees true.
func (s *SettlementStore) ApplyOnce(ctx context.Context, st models.Settlement) (bool, error) {
	query := `
		INSERT INTO payments (room, fee_id, amount, nonce)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (room, fee_id, amount, nonce) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query, st.Room, int64(st.FeeID), st.Amount, st.Nonce)
	if err != nil {
		return false, fmt.Errorf("apply settlement: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply settlement rows affected: %w", err)
	}
	return rows > 0, nil
}
