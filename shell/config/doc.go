// Package config builds the runtime configuration of the three service binaries.
//
// Settings come from environment variables with defaults. Required variables are named by the caller
// of Load; all missing or malformed variables are reported together in one joined error.
//
// The package also owns the construction of infrastructure clients: Postgres pools for each supported
// adapter (pgx pool, database/sql via lib/pq, sqlx), the Redis client for the catalog cache, and the
// OpenTelemetry providers exporting traces, metrics and logs over OTLP gRPC.
package config
