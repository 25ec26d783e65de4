package models

import "time"

// Result codes for registration intake. Callers branch on these rather than
// on errors; each field failure has its own code so clients can highlight the
// offending input.
const (
	CodeBadName       = 101
	CodeBadRoom       = 102
	CodeBadPhone      = 103
	CodeBadEmail      = 104
	CodeBadUsername   = 105
	CodeWeakPassword  = 106
	CodeUsernameTaken = 107
)

// RegistrationRequest is a row in the pending queue. Immutable once created;
// it leaves the queue exactly once, by admission or rejection.
type RegistrationRequest struct {
	ID             uint64
	Name           string
	Room           int
	Birthday       *time.Time
	Phone          *string
	Email          *string
	Username       string
	HashedPassword string
}

// Resident is a row in the resident table, created only via admission. The
// resident id is a fresh allocation, distinct from the request id.
type Resident struct {
	ID             uint64
	Name           string
	Room           int
	Birthday       *time.Time
	Phone          *string
	Email          *string
	Username       string
	HashedPassword string
}

// PublicInfo is the client-facing projection of a request or resident.
// The hashed password never leaves the service layer.
type PublicInfo struct {
	ID       uint64     `json:"id"`
	Name     string     `json:"name"`
	Room     int        `json:"room"`
	Birthday *time.Time `json:"birthday,omitempty"`
	Phone    *string    `json:"phone,omitempty"`
	Email    *string    `json:"email,omitempty"`
	Username string     `json:"username"`
}

// Public returns the request's public projection.
func (r *RegistrationRequest) Public() PublicInfo {
	return PublicInfo{
		ID:       r.ID,
		Name:     r.Name,
		Room:     r.Room,
		Birthday: r.Birthday,
		Phone:    r.Phone,
		Email:    r.Email,
		Username: r.Username,
	}
}

// Public returns the resident's public projection.
func (r *Resident) Public() PublicInfo {
	return PublicInfo{
		ID:       r.ID,
		Name:     r.Name,
		Room:     r.Room,
		Birthday: r.Birthday,
		Phone:    r.Phone,
		Email:    r.Email,
		Username: r.Username,
	}
}

// Admission maps a queue row onto its freshly allocated resident id.
type Admission struct {
	RequestID  uint64
	ResidentID uint64
}

// Filter narrows admin queries over the pending queue. Nil fields match all
// rows; a field that fails validation short-circuits the query to an empty
// result instead of erroring.
type Filter struct {
	ID       *uint64
	Name     *string
	Room     *int
	Username *string
}

// OrderBy names the columns admin queries may sort on. Anything outside the
// allow-list silently falls back to OrderByID.
type OrderBy string

const (
	OrderByID       OrderBy = "request_id"
	OrderByName     OrderBy = "name"
	OrderByRoom     OrderBy = "room"
	OrderByUsername OrderBy = "username"
)

// Valid reports whether o is in the allow-list.
func (o OrderBy) Valid() bool {
	switch o {
	case OrderByID, OrderByName, OrderByRoom, OrderByUsername:
		return true
	}
	return false
}
