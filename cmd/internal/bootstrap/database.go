package bootstrap

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-inventory/postgresengine"
	"github.com/AntonStoeckl/library-inventory/shell/config"
)

// Database is an open connection of the adapter type chosen by DB_ADAPTER.
type Database struct {
	pool   *pgxpool.Pool
	sqlDB  *sql.DB
	sqlxDB *sqlx.DB
}

// OpenDatabase connects to DATABASE_URL using the configured adapter.
func OpenDatabase(ctx context.Context, cfg config.Config) (*Database, error) {
	var (
		db  Database
		err error
	)

	switch cfg.DBAdapter {
	case config.AdapterSQLDB:
		db.sqlDB, err = config.NewSQLDB(ctx, cfg.DatabaseURL)
	case config.AdapterSQLX:
		db.sqlxDB, err = config.NewSQLX(ctx, cfg.DatabaseURL)
	default:
		db.pool, err = config.NewPGXPool(ctx, cfg.DatabaseURL)
	}

	if err != nil {
		return nil, err
	}

	return &db, nil
}

// Close closes the underlying connection.
func (d *Database) Close() {
	switch {
	case d.pool != nil:
		d.pool.Close()
	case d.sqlDB != nil:
		_ = d.sqlDB.Close()
	case d.sqlxDB != nil:
		_ = d.sqlxDB.Close()
	}
}

// StoreFactories are the three postgresengine constructors of one store type.
type StoreFactories[S any] struct {
	FromPGXPool func(*pgxpool.Pool, ...postgresengine.Option) (S, error)
	FromSQLDB   func(*sql.DB, ...postgresengine.Option) (S, error)
	FromSQLX    func(*sqlx.DB, ...postgresengine.Option) (S, error)
}

// NewStore creates a store on whichever connection d holds.
func NewStore[S any](d *Database, factories StoreFactories[S], options ...postgresengine.Option) (S, error) {
	switch {
	case d.sqlDB != nil:
		return factories.FromSQLDB(d.sqlDB, options...)
	case d.sqlxDB != nil:
		return factories.FromSQLX(d.sqlxDB, options...)
	default:
		return factories.FromPGXPool(d.pool, options...)
	}
}

// CopyStores, RentalStores and ReservationStores list the constructors of the three stores.
var (
	CopyStores = StoreFactories[*postgresengine.CopyStore]{
		FromPGXPool: postgresengine.NewCopyStoreFromPGXPool,
		FromSQLDB:   postgresengine.NewCopyStoreFromSQLDB,
		FromSQLX:    postgresengine.NewCopyStoreFromSQLX,
	}
	RentalStores = StoreFactories[*postgresengine.RentalStore]{
		FromPGXPool: postgresengine.NewRentalStoreFromPGXPool,
		FromSQLDB:   postgresengine.NewRentalStoreFromSQLDB,
		FromSQLX:    postgresengine.NewRentalStoreFromSQLX,
	}
	ReservationStores = StoreFactories[*postgresengine.ReservationStore]{
		FromPGXPool: postgresengine.NewReservationStoreFromPGXPool,
		FromSQLDB:   postgresengine.NewReservationStoreFromSQLDB,
		FromSQLX:    postgresengine.NewReservationStoreFromSQLX,
	}
)

// StoreOptions returns the postgresengine logging options for obs.
func StoreOptions(obs *Observability) []postgresengine.Option {
	options := []postgresengine.Option{postgresengine.WithLogger(obs.Logger)}
	if obs.ContextualLogger != nil {
		options = append(options, postgresengine.WithContextualLogger(obs.ContextualLogger))
	}

	return options
}
