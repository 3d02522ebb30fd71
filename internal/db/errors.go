package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrConflict is returned by repositories when a write violates a unique constraint.
	ErrConflict = errors.New("unique constraint violation")
	// ErrNotFound is returned by repositories when an update or delete matched no row.
	ErrNotFound = errors.New("record not found")
)

const uniqueViolation = "23505"

// ConflictError is a unique violation on a named constraint. It matches
// ErrConflict with errors.Is.
type ConflictError struct {
	Constraint string
	Err        error // driver error, nil for in-memory stores
}

func (e *ConflictError) Error() string {
	return ErrConflict.Error() + ": " + e.Constraint
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func (e *ConflictError) Unwrap() error { return e.Err }

// MapError converts Postgres unique violations into a *ConflictError. Other
// errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &ConflictError{Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}

// ConflictOn reports whether err, or any error it wraps, is a unique violation
// on the named constraint.
func ConflictOn(err error, constraint string) bool {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Constraint == constraint
	}
	return false
}

// Conflict returns a *ConflictError for constraint. In-memory repositories use
// it so callers see the same error shape as from Postgres.
func Conflict(constraint string) error {
	return &ConflictError{Constraint: constraint}
}
