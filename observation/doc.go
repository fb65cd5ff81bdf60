// Package observation provides an in-process instrumentation core: it lets
// application code mark the start and end of a logical operation exactly
// once while an arbitrary, dynamically-configured set of handlers (metrics
// recorders, tracers, loggers) reacts to that operation's lifecycle without
// the instrumented code knowing which handlers exist.
//
// The package deliberately does not decide what to record. It guarantees
// when and in what order registered handlers are invoked, and how contextual
// data flows to them.
//
// Key types:
//   - Registry: holds the ordered handlers and global key-values providers
//   - Observation: the per-occurrence state machine driving the handler fan-out
//   - Context: the typed data bag owned by one Observation
//   - KeyValue / KeyValues: ordered, deduplicated tag collections
//   - Scope: makes an Observation discoverable by nested code via context.Context
//
// Common usage pattern:
//
//	registry := observation.NewRegistry(
//		observation.WithHandler(otelhandlers.NewTracingHandler(tracer)),
//		observation.WithKeyValuesProvider(envProvider),
//	)
//
//	obs := observation.CreateNotStarted(registry, "checkout.place-order")
//	err := obs.Observe(ctx, func(ctx context.Context) error {
//		// nested code can reach the observation:
//		//   current := observation.CurrentObservation(ctx)
//		return placeOrder(ctx)
//	})
//
// Handlers implementing the Handler interface register with a Registry before
// any observation they should see is started; the applicable-handler set is
// frozen when an Observation starts. The subpackage otelhandlers ships
// OpenTelemetry-backed implementations for tracing, metrics, and logging.
package observation
