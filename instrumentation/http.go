package instrumentation

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// HTTPMiddleware wraps a handler with otelhttp server spans and metrics bound to
// the providers of inst instead of the global ones.
//
// Spans start out as "<operation> <method>" because the route is unknown until
// the mux has matched. NameServerSpan renames them to the route template. The
// raw URL path never becomes part of a span name.
func HTTPMiddleware(inst *Instrumentation, operation string) func(http.Handler) http.Handler {
	return httpMiddleware(inst.TracerProvider(), inst.MeterProvider(), operation)
}

func httpMiddleware(tp trace.TracerProvider, mp metric.MeterProvider, operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, operation,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithMeterProvider(mp),
			otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
			otelhttp.WithSpanNameFormatter(func(op string, r *http.Request) string {
				return op + " " + r.Method
			}),
		)
	}
}

// NameServerSpan renames the server span in ctx to "<method> <route>" and tags it
// with the route name. Call it once the route table matched.
func NameServerSpan(ctx context.Context, method, route, name string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetName(method + " " + route)
	span.SetAttributes(attribute.String(AttrHTTPRoute, name))
}
