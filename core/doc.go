// Package core holds the vocabulary shared by the inventory authority and both ledgers:
// the error taxonomy, item kinds with their rental durations, ID generation, and the
// decision result returned by pure transition functions.
//
// Nothing in here performs I/O.
package core
