// Package instrumentation provides OpenTelemetry (OTEL) instrumentation for the session
// authentication server.
//
// Metrics are recorded through an OTEL meter provider backed by a private Prometheus
// registry, exposed via MetricsHandler. Traces are exported over OTLP/HTTP when a
// TraceEndpoint is configured; otherwise a no-op tracer provider is used.
//
// # Quick Start
//
//	inst, err := instrumentation.New(instrumentation.Config{
//		ServiceName:   "sessionauth",
//		Enabled:       true,
//		TraceEndpoint: "http://otel-collector:4318",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer inst.Shutdown(context.Background())
//
//	mux.Handle("GET /metrics", inst.MetricsHandler())
//
// # Available Metrics
//
// HTTP Layer:
//   - sessionauth.http.requests.total{method, route, status}
//   - sessionauth.http.request.duration{route}
//
// Authentication:
//   - sessionauth.login.started{provider}
//   - sessionauth.callback.processed{provider, success, reason}
//   - sessionauth.logout.total{had_user}
//   - sessionauth.registration.total{result}
//
// Security:
//   - sessionauth.access.denied{required_role}
//   - sessionauth.rate_limit.exceeded{limiter_type}
//   - sessionauth.rate_limit.active_limiters
//   - sessionauth.audit.events.total{event_type}
//
// Storage:
//   - sessionauth.storage.operation.total{storage, operation, result}
//   - sessionauth.storage.operation.duration{storage, operation}
//   - sessionauth.storage.sessions
//
// Provider:
//   - sessionauth.provider.api.calls.total{provider, operation, status}
//   - sessionauth.provider.api.duration{provider, operation}
//   - sessionauth.provider.api.errors.total{provider, operation, error_type}
//
// # Security
//
// Never attach credentials, password hashes or session identifiers to spans or metric
// labels. User identifiers are hashed before they reach a span.
package instrumentation
