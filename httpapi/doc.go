// Package httpapi exposes the services over HTTP with echo.
//
// The Inventory Authority's routes are internal and require the shared service credential in the
// X-Internal-Auth header. The ledger routes are public and require a bearer JWT whose "sub" claim
// is the user ID. Errors are answered as {"code": ..., "message": ...} where code is the error kind.
package httpapi
