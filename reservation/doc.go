// Package reservation implements the Reservation Ledger and its Expiry Sweeper.
//
// Like the rental ledger it checks the Inventory Authority's current record first, then writes locally
// and calls the authority, without rollback. Cancellation and expiry release a copy only while the
// authority holds it for the entry's user. Terminal statuses are set with a conditional update that only matches ACTIVE entries,
// so an entry is resolved exactly once even if two sweeps, or a sweep and a cancellation, race.
package reservation
