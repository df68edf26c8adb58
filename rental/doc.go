// Package rental implements the Rental Ledger: one durable entry per rental attempt, and the
// orchestration of rent, return and extend against the Inventory Authority.
//
// Every operation first loads the authority's record of the copy and runs the authority's own guard on it,
// so a request the authority would reject fails without a ledger write. Return and extend act only for the
// user the authority has the copy rented to. Then the local ledger is written and the authority called.
// If that remote call fails, the ledger entry is kept and the returned error wraps core.ErrLedgerAhead
// together with the remote failure. Nothing is rolled back and nothing is retried automatically.
package rental
