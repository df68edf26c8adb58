// Package shell contains the infrastructure shared by all services: the dependency-free
// observability interfaces, operation instrumentation, and retry with exponential backoff
// for optimistic concurrency conflicts.
package shell
