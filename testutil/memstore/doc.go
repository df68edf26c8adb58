// Package memstore provides in-memory implementations of the store ports.
// They honor the same conditional-update semantics as the postgres stores,
// so service tests exercise the real guards without a database.
package memstore
