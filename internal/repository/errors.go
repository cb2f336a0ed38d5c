package repository

import (
	"database/sql/driver"
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors surfaced by the scheduling repositories. Services translate
// these into API error kinds.
var (
	// ErrWindowTaken is returned when the conditional Free→Booked update
	// matched zero rows, meaning another booking committed first.
	ErrWindowTaken = errors.New("availability window already booked")

	// ErrOverlap is returned when a window insert would intersect an existing
	// window owned by the same professor.
	ErrOverlap = errors.New("availability window overlaps an existing one")
)

const (
	pqSerializationFailure = "40001"
	pqUniqueViolation      = "23505"
)

// isSerializationFailure reports whether err is a Postgres serializable
// transaction conflict, which is safe to retry.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqSerializationFailure
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

// IsUnavailable reports whether err looks like a transient infrastructure
// failure (lost connection, server shutdown) rather than a query error.
func IsUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08: connection exception. Class 57: operator intervention.
		class := pqErr.Code.Class()
		return class == "08" || class == "57"
	}
	return false
}
