// Package testdoubles provides spies and stubs for the observability interfaces
// and the cross-service ports, for use in tests across the module.
package testdoubles
