package postgresengine

import (
	"github.com/AntonStoeckl/library-inventory/shell"
)

// Option configures a store.
type Option func(*engine) error

// WithTableName overrides the default table name of a store.
func WithTableName(tableName string) Option {
	return func(e *engine) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		e.table = tableName

		return nil
	}
}

// WithLogger sets the logger of a store.
// SQL statements and their durations go to Debug, failures to Error.
func WithLogger(logger shell.Logger) Option {
	return func(e *engine) error {
		e.obs.Logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger of a store. It takes precedence over WithLogger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(e *engine) error {
		e.obs.ContextualLogger = logger
		return nil
	}
}
