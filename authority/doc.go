// Package authority implements the Inventory Authority: the single record per copy
// (item at a branch) that decides whether the copy is usable right now.
//
// Transitions are pure Decide functions over the current CopyRecord. The Service loads the record,
// decides, and saves the next record conditionally on the version it has read. Concurrent writers
// therefore cannot both succeed against a stale guard; the loser gets core.ErrConcurrencyConflict
// and is retried with exponential backoff, re-evaluating the guard against the fresh record.
package authority
