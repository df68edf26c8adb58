package adapters

import (
	"context"
)

// DBAdapter runs fully interpolated SQL.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows is the row iterator of a query.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult is the outcome of a statement.
type DBResult interface {
	RowsAffected() (int64, error)
}
