package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors forming the storage error taxonomy. Repositories translate
// driver errors into these so callers can branch without importing pgx.
var (
	// ErrNotFound means no matching, non-tombstoned row exists.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable means the underlying store cannot be opened or
	// written. Writes that fail with it are retryable.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrStaleWrite means an update carried a last_modified older than the
	// stored row. The caller should merge per last-write-wins instead of
	// overwriting.
	ErrStaleWrite = errors.New("stale write")
)

// ConstraintError reports a foreign-key reference to a missing parent or
// catalog row, or a uniqueness violation, with enough detail for a
// field-level error message.
type ConstraintError struct {
	Field  string
	Reason string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violation on %s: %s", e.Field, e.Reason)
}

// NewConstraintError builds a ConstraintError for the given field.
func NewConstraintError(field, reason string) *ConstraintError {
	return &ConstraintError{Field: field, Reason: reason}
}

// IsConstraint reports whether err is (or wraps) a ConstraintError.
func IsConstraint(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce)
}

// Postgres error codes for constraint classes.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// MapError translates a pgx error into the taxonomy. Unknown errors pass
// through unchanged so nothing is swallowed.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return NewConstraintError(pgErr.ConstraintName, "referenced row does not exist")
		case pgUniqueViolation:
			return NewConstraintError(pgErr.ConstraintName, "value already exists")
		}
	}
	return err
}
