// Package bootstrap holds the process wiring shared by the service binaries:
// signal handling, logging and OpenTelemetry setup, database and catalog connections,
// and running an echo server until shutdown.
package bootstrap
