package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: entity does not exist in store
//   - ErrConflict: a uniqueness guard rejected the write
//   - ErrIntegrity: stored data violates an expected shape (e.g. the seeded
//     admin credential rows are missing or malformed)
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrIntegrity = errors.New("integrity violation")
)
