package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// Open connects to Postgres and caps the pool. Callers beyond the cap queue
// for a connection, which is the service's backpressure mechanism.
func Open(url string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS residents (
		resident_id BIGINT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		room SMALLINT NOT NULL,
		birthday TIMESTAMPTZ,
		phone VARCHAR(15),
		email VARCHAR(255),
		username VARCHAR(255) UNIQUE NOT NULL,
		hashed_password VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS register_queue (
		request_id BIGINT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		room SMALLINT NOT NULL,
		birthday TIMESTAMPTZ,
		phone VARCHAR(15),
		email VARCHAR(255),
		username VARCHAR(255) UNIQUE NOT NULL,
		hashed_password VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS config (
		name VARCHAR(255) PRIMARY KEY,
		value VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fee (
		fee_id BIGINT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		lower INT NOT NULL,
		upper INT NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		description VARCHAR(255),
		CHECK (lower <= upper)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		room SMALLINT NOT NULL,
		fee_id BIGINT NOT NULL,
		amount BIGINT NOT NULL,
		nonce BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (room, fee_id, amount, nonce)
	)`,
}

// Migrate creates the schema and seeds the admin credential on first run.
// A missing or corrupt seed detected later is fatal, so this runs before the
// server accepts traffic.
func Migrate(ctx context.Context, db *sql.DB, adminUsername, adminPassword string) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash bootstrap admin password: %w", err)
	}

	// Seed only when absent so a restart never rotates a changed credential.
	seed := `
		INSERT INTO config (name, value)
		VALUES ('admin_username', $1), ('admin_hashed_password', $2)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := db.ExecContext(ctx, seed, adminUsername, string(hashed)); err != nil {
		return fmt.Errorf("seed admin credential: %w", err)
	}
	return nil
}
