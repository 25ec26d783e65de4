package models

import "time"

// Fee is a billable item. Rows are owned by an external fee-management
// collaborator; this service only reads them. Amount bounds are inclusive
// with Lower <= Upper, enforced by a table CHECK.
type Fee struct {
	ID          uint64    `json:"fee_id"`
	Name        string    `json:"name"`
	Lower       int64     `json:"lower"`
	Upper       int64     `json:"upper"`
	Date        time.Time `json:"date"`
	Description *string   `json:"description,omitempty"`
}

// Settlement records that one gateway notification has been credited. The
// composite key (room, fee id, amount, nonce) is the idempotency key: at most
// one settlement exists per distinct key.
type Settlement struct {
	Room   int
	FeeID  uint64
	Amount int64
	Nonce  int64
}

// Outcome is the result of applying a verified notification.
type Outcome int

const (
	// Applied means this call recorded the payment.
	Applied Outcome = iota
	// AlreadyApplied means an earlier notification with the same transaction
	// reference was credited; state was not mutated.
	AlreadyApplied
)
