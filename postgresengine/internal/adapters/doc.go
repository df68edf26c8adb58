// Package adapters lets the stores run on pgxpool.Pool, sql.DB or sqlx.DB through one small interface.
package adapters
