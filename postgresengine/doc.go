// Package postgresengine stores the copy records and both ledgers in PostgreSQL.
//
// SQL is built with goqu's postgres dialect and runs fully interpolated through one of three adapters,
// selected by the constructor: pgxpool.Pool, sql.DB (lib/pq) or sqlx.DB.
//
// Conditional updates carry their guard in the WHERE clause and report through rows affected whether they applied:
// CopyStore.Save compares the version, RentalStore.MarkReturned and Extend re-check the status and the extension flag,
// ReservationStore.ResolveIfActive re-checks that the reservation is still ACTIVE.
package postgresengine
