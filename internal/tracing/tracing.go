// Package tracing exposes the OpenTelemetry tracer used by handlers.
package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a named tracer from the globally registered provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
