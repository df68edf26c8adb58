package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration

	"github.com/AntonStoeckl/library-inventory/postgresengine/internal/adapters"
	"github.com/AntonStoeckl/library-inventory/shell"
)

const (
	dialectPostgres = "postgres"

	logMsgBuildQueryFailed   = "failed to build query"
	logMsgDBQueryFailed      = "database query failed"
	logMsgDBExecFailed       = "database statement failed"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgSQLExecuted        = "executed sql for: "
	logAttrQuery             = "query"
	logAttrTable             = "table"
)

// engine is the SQL plumbing shared by the stores.
type engine struct {
	db    adapters.DBAdapter
	table string
	obs   shell.Observability
}

func newEngine(db adapters.DBAdapter, defaultTable string, options []Option) (engine, error) {
	e := engine{db: db, table: defaultTable}

	for _, option := range options {
		if err := option(&e); err != nil {
			return engine{}, err
		}
	}

	return e, nil
}

func (e engine) dialect() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func (e engine) build(ctx context.Context, builder sqlBuilder) (string, error) {
	query, _, err := builder.ToSQL()
	if err != nil {
		e.obs.Error(ctx, logMsgBuildQueryFailed, shell.LogAttrError, err.Error(), logAttrTable, e.table)
		return "", errors.Join(ErrBuildingQueryFailed, err)
	}

	return query, nil
}

// query builds and runs a select and calls scan for every row.
func (e engine) query(ctx context.Context, action string, builder sqlBuilder, scan func(rows adapters.DBRows) error) error {
	query, err := e.build(ctx, builder)
	if err != nil {
		return err
	}

	start := time.Now()
	rows, err := e.db.Query(ctx, query)
	e.logQuery(ctx, action, query, time.Since(start))

	if err != nil {
		e.obs.Error(ctx, logMsgDBQueryFailed, shell.LogAttrError, err.Error(), logAttrQuery, query)
		return errors.Join(ErrQueryingFailed, err)
	}
	defer e.closeRows(ctx, rows)

	for rows.Next() {
		if err := scan(rows); err != nil {
			e.obs.Error(ctx, logMsgScanRowFailed, shell.LogAttrError, err.Error(), logAttrTable, e.table)
			return errors.Join(ErrScanningRowFailed, err)
		}
	}

	if err := rows.Err(); err != nil {
		e.obs.Error(ctx, logMsgDBQueryFailed, shell.LogAttrError, err.Error(), logAttrQuery, query)
		return errors.Join(ErrQueryingFailed, err)
	}

	return nil
}

// exec builds and runs a statement and returns the number of affected rows.
func (e engine) exec(ctx context.Context, action string, builder sqlBuilder) (int64, error) {
	query, err := e.build(ctx, builder)
	if err != nil {
		return 0, err
	}

	return e.execSQL(ctx, action, query)
}

func (e engine) execSQL(ctx context.Context, action, query string) (int64, error) {
	start := time.Now()
	result, err := e.db.Exec(ctx, query)
	e.logQuery(ctx, action, query, time.Since(start))

	if err != nil {
		e.obs.Error(ctx, logMsgDBExecFailed, shell.LogAttrError, err.Error(), logAttrQuery, query)
		return 0, errors.Join(ErrExecutingFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		e.obs.Error(ctx, logMsgRowsAffectedFailed, shell.LogAttrError, err.Error())
		return 0, errors.Join(ErrRowsAffectedFailed, err)
	}

	return rowsAffected, nil
}

func (e engine) closeRows(ctx context.Context, rows adapters.DBRows) {
	if err := rows.Close(); err != nil {
		e.obs.Warn(ctx, logMsgCloseRowsFailed, shell.LogAttrError, err.Error())
	}
}

func (e engine) logQuery(ctx context.Context, action, query string, duration time.Duration) {
	e.obs.Debug(ctx, logMsgSQLExecuted+action,
		logAttrQuery, query,
		shell.LogAttrDurationMS, shell.DurationToMilliseconds(duration),
	)
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}

	return *v
}
