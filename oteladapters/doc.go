// Package oteladapters implements the shell observability interfaces on top of OpenTelemetry.
//
// Services wire them through their WithContextualLogger, WithMetrics and WithTracing options.
// Instruments and tracers come from the global providers that shell/config installs.
package oteladapters
