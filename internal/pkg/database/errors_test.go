package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDataAccessErrorMessageNamesOperationAndKey(t *testing.T) {
	cause := errors.New("boom")
	err := newDataAccessError("registerVehicle", "FZ_ID=7", cause)

	assert.Equal(t, "registerVehicle failed for FZ_ID=7: boom", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestIsConstraintViolation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"postgres foreign key violation", &pgconn.PgError{Code: "23503"}, true},
		{"postgres undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, true},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, false},
		{"wrapped postgres error", newDataAccessError("deleteVehicle", "FZ_ID=1", fmt.Errorf("delete from FAHRZEUG: %w", &pgconn.PgError{Code: "23503"})), true},
		{"plain error", errors.New("connection refused"), false},
		{"missing connection", newDataAccessError("getUserNumber", "MAUT_ID=1", ErrConnectionNotSet), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsConstraintViolation(tc.err))
		})
	}
}

func TestOperationOutcomesAreCounted(t *testing.T) {
	before := testutil.ToFloat64(storeOperations.WithLabelValues("getUserNumber", "no_connection"))

	store := NewTollManagementStore(discardLogger())
	_, err := store.GetUserNumber(1)
	assert.Error(t, err)

	after := testutil.ToFloat64(storeOperations.WithLabelValues("getUserNumber", "no_connection"))
	assert.Equal(t, before+1, after)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, "ok", outcomeOf(nil))
	assert.Equal(t, "no_connection", outcomeOf(newDataAccessError("op", "key", ErrConnectionNotSet)))
	assert.Equal(t, "constraint_violation", outcomeOf(newDataAccessError("op", "key", sqlite3.Error{Code: sqlite3.ErrConstraint})))
	assert.Equal(t, "error", outcomeOf(errors.New("disk full")))
}
