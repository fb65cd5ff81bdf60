package observation

// Handler is a lifecycle listener invoked synchronously on the goroutine
// driving the Observation, in registration order.
//
// SupportsContext is evaluated once, when the Observation starts; the
// resulting applicable-handler set is fixed for the Observation's entire
// lifetime, so handlers registered later never apply retroactively.
//
// Handlers are not isolated from each other or from the instrumented code: a
// panic inside a callback propagates to the caller of the triggering
// Observation method. Broken handlers fail loudly instead of silently
// degrading observability.
type Handler interface {
	// OnStart is called after the Observation transitioned to started.
	OnStart(c *Context)

	// OnError is called when the first error is recorded on the Observation.
	OnError(c *Context)

	// OnEvent is called for every event emitted while the Observation runs.
	OnEvent(c *Context, e Event)

	// OnStop is called when the Observation transitioned to stopped.
	OnStop(c *Context)

	// SupportsContext reports whether this handler wants to observe
	// operations carrying the given Context. Must be pure and cheap.
	SupportsContext(c *Context) bool
}
