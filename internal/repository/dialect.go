package repository

import (
	"errors"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
)

// translateConstraintViolation maps unique failures of either driver to
// ErrConflict and check failures to ErrInvalid.
func translateConstraintViolation(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return ErrConflict
		case pqCheckViolation:
			return errors.Join(ErrInvalid, err)
		}
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ErrConflict
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return errors.Join(ErrInvalid, err)
		}
	}

	return err
}
