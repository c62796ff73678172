package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/mattn/go-sqlite3"
)

//ErrConnectionNotSet is returned (wrapped in a DataAccessError) when an operation is invoked
//before a connection has been handed to the store
var ErrConnectionNotSet = errors.New("connection not set")

//DataAccessError is the single error kind returned by the store. It names the failed operation
//and the key it was called with, and wraps the underlying cause.
type DataAccessError struct {
	Op  string
	Key string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("%s failed for %s: %s", e.Op, e.Key, e.Err.Error())
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

func newDataAccessError(op, key string, err error) error {
	return &DataAccessError{Op: op, Key: key, Err: err}
}

//IsConstraintViolation reports whether err was caused by the database rejecting a statement
//because of an integrity constraint (unique, foreign key, not null or check)
func IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// SQLSTATE class 23: integrity constraint violation
		return strings.HasPrefix(pgErr.Code, "23")
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}

	return false
}
