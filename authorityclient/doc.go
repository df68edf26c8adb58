// Package authorityclient calls the Inventory Authority's internal HTTP API on behalf of both ledgers.
//
// Every Do... method returns a Result that carries the error kind next to the value, so callers can
// switch over the kinds exhaustively. The plain methods satisfy rental.Authority and reservation.Authority.
package authorityclient
