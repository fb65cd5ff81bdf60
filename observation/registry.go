package observation

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Registry holds the scope-wide observation configuration: the ordered list
// of handlers, the ordered list of global key-values providers, and the
// enabled switch.
//
// A Registry is configured during application wiring and read concurrently
// for the life of the process. Registration is append-only; registration
// order is invocation order. The read path is lock-free: every registration
// swaps in a new immutable configuration snapshot.
type Registry struct {
	writeMu sync.Mutex
	config  atomic.Pointer[registryConfig]
	enabled atomic.Bool
}

// registryConfig is an immutable snapshot of the registered handlers and
// providers. Observations capture one snapshot when they start.
type registryConfig struct {
	handlers  []Handler
	providers []KeyValuesProvider
}

// RegistryOption defines a functional option for configuring a Registry.
type RegistryOption func(*Registry)

// WithHandler registers a lifecycle handler during construction.
func WithHandler(h Handler) RegistryOption {
	return func(r *Registry) {
		r.RegisterHandler(h)
	}
}

// WithKeyValuesProvider registers a global key-values provider during
// construction.
func WithKeyValuesProvider(p KeyValuesProvider) RegistryOption {
	return func(r *Registry) {
		r.RegisterKeyValuesProvider(p)
	}
}

// WithEnabled sets the initial enabled state. Registries are enabled by
// default.
func WithEnabled(enabled bool) RegistryOption {
	return func(r *Registry) {
		r.SetEnabled(enabled)
	}
}

// NewRegistry creates a Registry, enabled by default, and applies the given
// options in order.
func NewRegistry(opts ...RegistryOption) *Registry {
	registry := &Registry{}
	registry.config.Store(&registryConfig{})
	registry.enabled.Store(true)

	for _, opt := range opts {
		opt(registry)
	}

	return registry
}

// RegisterHandler appends a handler to the invocation chain. Handlers
// registered after an Observation has started never apply to it.
func (r *Registry) RegisterHandler(h Handler) {
	if h == nil {
		return
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	current := r.config.Load()
	next := &registryConfig{
		handlers:  append(slices.Clone(current.handlers), h),
		providers: current.providers,
	}
	r.config.Store(next)
}

// RegisterKeyValuesProvider appends a provider to the global provider chain.
func (r *Registry) RegisterKeyValuesProvider(p KeyValuesProvider) {
	if p == nil {
		return
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	current := r.config.Load()
	next := &registryConfig{
		handlers:  current.handlers,
		providers: append(slices.Clone(current.providers), p),
	}
	r.config.Store(next)
}

// IsEnabled reports whether new Observations will fan out to handlers.
func (r *Registry) IsEnabled() bool {
	return r.enabled.Load()
}

// SetEnabled switches observation creation on or off. When disabled,
// CreateNotStarted returns no-op Observations whose lifecycle methods are
// cheap no-ops. Already-created Observations are unaffected.
func (r *Registry) SetEnabled(enabled bool) {
	r.enabled.Store(enabled)
}

func (r *Registry) configSnapshot() *registryConfig {
	return r.config.Load()
}
