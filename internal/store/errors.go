package store

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound indicates a referenced row is absent at time of use.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness constraint was violated.
	ErrConflict = errors.New("conflict")
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation. The matcher relies on constraint violations being expected
// behavior, so callers use this to turn them into no-ops.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}
