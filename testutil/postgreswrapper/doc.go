// Package postgreswrapper connects the postgresengine integration tests to a real Postgres database.
//
// The adapter under test is selected with the ADAPTER_TYPE environment variable (pgx.pool, sql.db, sqlx.db;
// empty means pgx.pool). Tests are skipped unless POSTGRES_TEST_DSN is set. Each wrapper creates its own
// uniquely named tables and drops them when the test finishes, so tests can run in parallel on one database.
package postgreswrapper
