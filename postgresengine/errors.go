package postgresengine

import (
	"errors"
)

var (
	// ErrNilDatabaseConnection is returned when a store is created without a connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableName is returned by WithTableName for an empty name.
	ErrEmptyTableName = errors.New("table name must not be empty")

	// ErrBuildingQueryFailed is returned when goqu cannot build a statement.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrQueryingFailed is returned when a select fails.
	ErrQueryingFailed = errors.New("querying failed")

	// ErrExecutingFailed is returned when an insert, update or DDL statement fails.
	ErrExecutingFailed = errors.New("executing statement failed")

	// ErrScanningRowFailed is returned when a row cannot be scanned.
	ErrScanningRowFailed = errors.New("scanning db row failed")

	// ErrRowsAffectedFailed is returned when the driver cannot report rows affected.
	ErrRowsAffectedFailed = errors.New("getting rows affected failed")
)
