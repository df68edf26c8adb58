package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-inventory/postgresengine"
	"github.com/AntonStoeckl/library-inventory/shell/config"
)

// Environment variables read by the wrapper.
const (
	EnvAdapterType = "ADAPTER_TYPE"
	EnvDSN         = "POSTGRES_TEST_DSN"
)

// Adapter type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

// Wrapper holds the three stores on freshly created tables of one test.
type Wrapper struct {
	Copies       *postgresengine.CopyStore
	Rentals      *postgresengine.RentalStore
	Reservations *postgresengine.ReservationStore

	exec   func(ctx context.Context, statement string) error
	close  func()
	tables []string
}

// AdapterTypeFromEnv returns the normalized ADAPTER_TYPE. It panics on an unknown value.
func AdapterTypeFromEnv() string {
	adapterType := strings.ToLower(os.Getenv(EnvAdapterType))

	switch adapterType {
	case "":
		return typePGXPool
	case typePGXPool, typeSQLDB, typeSQLXDB:
		return adapterType
	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterType))
	}
}

// CreateWrapperWithTestConfig connects with the adapter selected by ADAPTER_TYPE, creates uniquely named
// tables and registers their removal with t.Cleanup. It skips the test if POSTGRES_TEST_DSN is not set.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) *Wrapper {
	t.Helper()

	adapterType := AdapterTypeFromEnv()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s is not set", EnvDSN)
	}

	ctx := context.Background()
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	w := &Wrapper{
		tables: []string{"copies_" + suffix, "rentals_" + suffix, "reservations_" + suffix},
	}

	copyOptions := append([]postgresengine.Option{postgresengine.WithTableName(w.tables[0])}, options...)
	rentalOptions := append([]postgresengine.Option{postgresengine.WithTableName(w.tables[1])}, options...)
	reservationOptions := append([]postgresengine.Option{postgresengine.WithTableName(w.tables[2])}, options...)

	var err error

	switch adapterType {
	case typePGXPool:
		pool, connErr := config.NewPGXPool(ctx, dsn)
		require.NoError(t, connErr, "error connecting to DB pool in test setup")

		w.exec = func(ctx context.Context, statement string) error {
			_, execErr := pool.Exec(ctx, statement)
			return execErr
		}
		w.close = pool.Close

		w.Copies, err = postgresengine.NewCopyStoreFromPGXPool(pool, copyOptions...)
		require.NoError(t, err)
		w.Rentals, err = postgresengine.NewRentalStoreFromPGXPool(pool, rentalOptions...)
		require.NoError(t, err)
		w.Reservations, err = postgresengine.NewReservationStoreFromPGXPool(pool, reservationOptions...)
		require.NoError(t, err)

	case typeSQLDB:
		db, connErr := config.NewSQLDB(ctx, dsn)
		require.NoError(t, connErr, "error connecting to DB in test setup")

		w.exec = sqlExec(db)
		w.close = func() { _ = db.Close() }

		w.Copies, err = postgresengine.NewCopyStoreFromSQLDB(db, copyOptions...)
		require.NoError(t, err)
		w.Rentals, err = postgresengine.NewRentalStoreFromSQLDB(db, rentalOptions...)
		require.NoError(t, err)
		w.Reservations, err = postgresengine.NewReservationStoreFromSQLDB(db, reservationOptions...)
		require.NoError(t, err)

	case typeSQLXDB:
		db, connErr := config.NewSQLX(ctx, dsn)
		require.NoError(t, connErr, "error connecting to DB in test setup")

		w.exec = sqlxExec(db)
		w.close = func() { _ = db.Close() }

		w.Copies, err = postgresengine.NewCopyStoreFromSQLX(db, copyOptions...)
		require.NoError(t, err)
		w.Rentals, err = postgresengine.NewRentalStoreFromSQLX(db, rentalOptions...)
		require.NoError(t, err)
		w.Reservations, err = postgresengine.NewReservationStoreFromSQLX(db, reservationOptions...)
		require.NoError(t, err)
	}

	t.Cleanup(w.Close)

	require.NoError(t, w.Copies.CreateTable(ctx))
	require.NoError(t, w.Rentals.CreateTable(ctx))
	require.NoError(t, w.Reservations.CreateTable(ctx))

	return w
}

// Close drops the test tables and closes the connection.
func (w *Wrapper) Close() {
	if w.close == nil {
		return
	}

	for _, table := range w.tables {
		_ = w.exec(context.Background(), "DROP TABLE IF EXISTS "+table)
	}

	w.close()
	w.close = nil
}

func sqlExec(db *sql.DB) func(ctx context.Context, statement string) error {
	return func(ctx context.Context, statement string) error {
		_, err := db.ExecContext(ctx, statement)
		return err
	}
}

func sqlxExec(db *sqlx.DB) func(ctx context.Context, statement string) error {
	return sqlExec(db.DB)
}
