// Package otelhandlers provides OpenTelemetry-backed implementations of the
// observation.Handler interface. These handlers enable plug-and-play tracing,
// metrics, and logging for observed operations without instrumented code
// depending on any backend.
package otelhandlers
