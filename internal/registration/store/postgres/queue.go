// Package postgres persists the pending queue and resident table. Stores are
// pure I/O; validation and result-code policy live in the service layer.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"resident-manager/internal/registration/models"
)

// QueueStore persists pending registration requests.
type QueueStore struct {
	db *sql.DB
}

// NewQueueStore constructs a PostgreSQL-backed queue store.
func NewQueueStore(db *sql.DB) *QueueStore {
	return &QueueStore{db: db}
}

// CreateIfUsernameFree inserts the request only if its username exists in
// neither the resident table nor the queue. The conditional insert handles
// the same-table race (concurrent creates collapse onto the unique index via
// ON CONFLICT DO NOTHING), but its NOT EXISTS subquery is evaluated in the
// statement-start snapshot: a create racing an admission of the same username
// can pass the stale residents check and then succeed on the queue index once
// the admission's DELETE commits. The transaction re-checks residents after
// the insert in a fresh snapshot; an admission that committed mid-insert is
// visible there, and the rollback withdraws the row.
func (s *QueueStore) CreateIfUsernameFree(ctx context.Context, req *models.RegistrationRequest) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin create registration request: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO register_queue (request_id, name, room, birthday, phone, email, username, hashed_password)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8
		WHERE NOT EXISTS (SELECT 1 FROM residents WHERE username = $7)
		ON CONFLICT (username) DO NOTHING
	`
	res, err := tx.ExecContext(ctx, query,
		int64(req.ID),
		req.Name,
		req.Room,
		req.Birthday,
		req.Phone,
		req.Email,
		req.Username,
		req.HashedPassword,
	)
	if err != nil {
		return false, fmt.Errorf("create registration request: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create registration request rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	// Once our insert holds the queue index entry, no other queue row shares
	// the username, so this one re-check decides the race for good.
	var taken bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM residents WHERE username = $1)`, req.Username).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("re-check resident username: %w", err)
	}
	if taken {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit create registration request: %w", err)
	}
	return true, nil
}

// Query returns a page of queue rows matching the filter. Filters are assumed
// pre-validated by the caller; limit is the fixed server-side page size.
func (s *QueueStore) Query(ctx context.Context, f models.Filter, offset, limit int, orderBy models.OrderBy, ascending bool) ([]*models.RegistrationRequest, error) {
	where, params := buildFilter(f)

	if !orderBy.Valid() {
		orderBy = models.OrderByID
	}
	direction := "ASC"
	if !ascending {
		direction = "DESC"
	}

	var b strings.Builder
	b.WriteString(`SELECT request_id, name, room, birthday, phone, email, username, hashed_password FROM register_queue`)
	b.WriteString(where)
	fmt.Fprintf(&b, " ORDER BY %s %s OFFSET $%d LIMIT $%d", orderBy, direction, len(params)+1, len(params)+2)
	params = append(params, offset, limit)

	rows, err := s.db.QueryContext(ctx, b.String(), params...)
	if err != nil {
		return nil, fmt.Errorf("query register queue: %w", err)
	}
	defer rows.Close()

	var out []*models.RegistrationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate register queue: %w", err)
	}
	return out, nil
}

// Count mirrors Query's filter semantics, returning a cardinality.
func (s *QueueStore) Count(ctx context.Context, f models.Filter) (int, error) {
	where, params := buildFilter(f)

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(request_id) FROM register_queue`+where, params...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count register queue: %w", err)
	}
	return count, nil
}

// AcceptMany moves the given queue rows into the resident table in a single
// data-modifying statement, so a row can never exist in both tables or be
// lost between the delete and the insert. Ids absent from the queue are
// skipped. Returns the number of rows moved.
func (s *QueueStore) AcceptMany(ctx context.Context, admissions []models.Admission) (int, error) {
	if len(admissions) == 0 {
		return 0, nil
	}

	values := make([]string, 0, len(admissions))
	params := make([]any, 0, 2*len(admissions))
	for i, a := range admissions {
		values = append(values, fmt.Sprintf("($%d::bigint, $%d::bigint)", 2*i+1, 2*i+2))
		params = append(params, int64(a.ResidentID), int64(a.RequestID))
	}

	query := fmt.Sprintf(`
		WITH ids (resident_id, request_id) AS (VALUES %s),
		moved AS (
			DELETE FROM register_queue q
			USING ids
			WHERE q.request_id = ids.request_id
			RETURNING ids.resident_id, q.name, q.room, q.birthday, q.phone, q.email, q.username, q.hashed_password
		)
		INSERT INTO residents (resident_id, name, room, birthday, phone, email, username, hashed_password)
		SELECT resident_id, name, room, birthday, phone, email, username, hashed_password FROM moved
	`, strings.Join(values, ", "))

	res, err := s.db.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, fmt.Errorf("accept registration requests: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("accept registration requests rows affected: %w", err)
	}
	return int(rows), nil
}

// RejectMany deletes the given queue rows. Ids absent from the queue are
// skipped. Returns the number of rows deleted.
func (s *QueueStore) RejectMany(ctx context.Context, ids []uint64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	signed := make([]int64, len(ids))
	for i, id := range ids {
		signed[i] = int64(id)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM register_queue WHERE request_id = ANY($1)`, pq.Array(signed))
	if err != nil {
		return 0, fmt.Errorf("reject registration requests: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reject registration requests rows affected: %w", err)
	}
	return int(rows), nil
}

func buildFilter(f models.Filter) (string, []any) {
	var where []string
	var params []any

	add := func(clause string, value any) {
		params = append(params, value)
		where = append(where, fmt.Sprintf(clause, len(params)))
	}

	if f.ID != nil {
		add("request_id = $%d", int64(*f.ID))
	}
	if f.Name != nil {
		// Case-sensitive substring match, per the underlying collation.
		add("strpos(name, $%d) > 0", *f.Name)
	}
	if f.Room != nil {
		add("room = $%d", *f.Room)
	}
	if f.Username != nil {
		add("username = $%d", *f.Username)
	}

	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), params
}

type requestRow interface {
	Scan(dest ...any) error
}

func scanRequest(row requestRow) (*models.RegistrationRequest, error) {
	var req models.RegistrationRequest
	var id int64
	var birthday sql.NullTime
	var phone, email sql.NullString
	if err := row.Scan(&id, &req.Name, &req.Room, &birthday, &phone, &email, &req.Username, &req.HashedPassword); err != nil {
		return nil, err
	}
	req.ID = uint64(id)
	if birthday.Valid {
		req.Birthday = &birthday.Time
	}
	if phone.Valid {
		req.Phone = &phone.String
	}
	if email.Valid {
		req.Email = &email.String
	}
	return &req, nil
}
