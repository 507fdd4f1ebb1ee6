package services

import "go.opentelemetry.io/otel"

// tracer late-binds to whatever provider the running binary installed. With no
// provider set, every span is a noop.
var tracer = otel.Tracer("futurestate.services")
