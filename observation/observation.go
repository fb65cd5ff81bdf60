package observation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrIllegalStateTransition is returned when a lifecycle method is called out
// of order, e.g. Start on a started Observation or Stop before Start.
var ErrIllegalStateTransition = errors.New("illegal observation state transition")

// State describes where an Observation is in its lifecycle.
type State uint8

const (
	StateNotStarted State = iota
	StateStarted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Observation represents one occurrence of a logical operation being tracked
// through its start/stop lifecycle.
//
// An Observation exclusively owns its Context and fans every lifecycle
// transition out to the handlers that declared support for that Context when
// the Observation started. It must be driven by a single goroutine:
// Start, followed by any number of Event calls and at most one effective
// Error call, followed by Stop. Observe wraps that sequence.
type Observation struct {
	registry *Registry
	ctx      *Context
	state    State
	noop     bool

	activeHandlers   []Handler
	overrideProvider KeyValuesProvider
}

// createConfig collects the creation options before they are applied, so
// their effect does not depend on the order they are passed in.
type createConfig struct {
	ctx              *Context
	contextualName   string
	parent           *Observation
	overrideProvider KeyValuesProvider
}

// CreateOption defines a functional option for CreateNotStarted.
type CreateOption func(*createConfig)

// WithContext binds a caller-built Context to the Observation instead of an
// empty one. The Observation takes exclusive ownership of it.
func WithContext(c *Context) CreateOption {
	return func(cfg *createConfig) {
		if c != nil {
			cfg.ctx = c
		}
	}
}

// WithContextualName sets the human-readable name for this occurrence.
func WithContextualName(contextualName string) CreateOption {
	return func(cfg *createConfig) {
		cfg.contextualName = contextualName
	}
}

// WithKeyValuesProviderOverride sets the per-observation override provider.
// Its output is composed after the registry's global providers, so it wins on
// key collision.
func WithKeyValuesProviderOverride(p KeyValuesProvider) CreateOption {
	return func(cfg *createConfig) {
		cfg.overrideProvider = p
	}
}

// WithParent records the given observation as the parent of this one.
func WithParent(parent *Observation) CreateOption {
	return func(cfg *createConfig) {
		cfg.parent = parent
	}
}

// WithParentFromContext records the currently scoped observation, if any, as
// the parent of this one.
func WithParentFromContext(ctx context.Context) CreateOption {
	return func(cfg *createConfig) {
		if parent := CurrentObservation(ctx); parent != nil {
			cfg.parent = parent
		}
	}
}

// CreateNotStarted creates an Observation in the not-started state, bound to
// the given registry and named after the operation it tracks.
//
// When the registry is nil or disabled, the returned Observation is a no-op:
// all lifecycle methods are callable, cheap, and side-effect-free.
func CreateNotStarted(registry *Registry, name string, opts ...CreateOption) *Observation {
	o := &Observation{
		registry: registry,
		ctx:      NewContext(),
	}
	o.ctx.setName(name)

	if registry == nil || !registry.IsEnabled() {
		o.noop = true
		return o
	}

	var cfg createConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.ctx != nil {
		o.ctx = cfg.ctx
		o.ctx.setName(name)
	}
	if cfg.contextualName != "" {
		o.ctx.SetContextualName(cfg.contextualName)
	}
	if cfg.parent != nil {
		o.ctx.setParent(cfg.parent)
	}
	o.overrideProvider = cfg.overrideProvider
	o.ctx.observationID = uuid.NewString()

	return o
}

// Context returns the Context exclusively owned by this Observation.
func (o *Observation) Context() *Context {
	return o.ctx
}

// State returns the current lifecycle state.
func (o *Observation) State() State {
	return o.state
}

// IsNoop reports whether this Observation was created against a nil or
// disabled registry.
func (o *Observation) IsNoop() bool {
	return o.noop
}

// Start transitions the Observation to started.
//
// It freezes the applicable-handler set by testing every registered handler
// against the Context, composes the key-values of the global providers and
// the override provider into the Context, records the start timestamp, and
// invokes OnStart on every applicable handler in registration order.
//
// Returns ErrIllegalStateTransition when called from any state other than
// not-started.
func (o *Observation) Start() error {
	if o.noop {
		return nil
	}

	if o.state != StateNotStarted {
		return fmt.Errorf("%w: start called in state %s", ErrIllegalStateTransition, o.state)
	}

	config := o.registry.configSnapshot()

	for _, handler := range config.handlers {
		if handler.SupportsContext(o.ctx) {
			o.activeHandlers = append(o.activeHandlers, handler)
		}
	}

	low, high := composeKeyValues(config.providers, o.overrideProvider, o.ctx)
	o.ctx.AddLowCardinalityKeyValues(low)
	o.ctx.AddHighCardinalityKeyValues(high)

	o.ctx.startedAt = time.Now()
	o.state = StateStarted

	for _, handler := range o.activeHandlers {
		handler.OnStart(o.ctx)
	}

	return nil
}

// Error records the operation's failure on the Context and invokes OnError on
// every applicable handler.
//
// The first error wins: later calls are silent no-ops and do not reach the
// handlers. A nil cause is ignored. Returns ErrIllegalStateTransition when
// the Observation is not started.
func (o *Observation) Error(cause error) error {
	if o.noop {
		return nil
	}

	if o.state != StateStarted {
		return fmt.Errorf("%w: error called in state %s", ErrIllegalStateTransition, o.state)
	}

	if !o.ctx.SetError(cause) {
		return nil
	}

	for _, handler := range o.activeHandlers {
		handler.OnError(o.ctx)
	}

	return nil
}

// Event invokes OnEvent on every applicable handler and records the event on
// the Context. Events are purely informational and may be emitted any number
// of times while the Observation is started.
//
// Returns ErrIllegalStateTransition when the Observation is not started.
func (o *Observation) Event(e Event) error {
	if o.noop {
		return nil
	}

	if o.state != StateStarted {
		return fmt.Errorf("%w: event called in state %s", ErrIllegalStateTransition, o.state)
	}

	o.ctx.addEvent(e)

	for _, handler := range o.activeHandlers {
		handler.OnEvent(o.ctx, e)
	}

	return nil
}

// Stop transitions the Observation to stopped, records the stop timestamp,
// and invokes OnStop on every applicable handler in registration order.
//
// Stop is idempotent: a second call is a no-op, tolerating defensive double
// cleanup in caller code. Note the asymmetry with Error, whose repeated calls
// are also no-ops but only after a first error was recorded. Stop before
// Start returns ErrIllegalStateTransition.
func (o *Observation) Stop() error {
	if o.noop {
		return nil
	}

	switch o.state {
	case StateNotStarted:
		return fmt.Errorf("%w: stop called before start", ErrIllegalStateTransition)
	case StateStopped:
		return nil
	case StateStarted:
		// fall through to the actual transition
	}

	o.ctx.stoppedAt = time.Now()
	o.state = StateStopped

	for _, handler := range o.activeHandlers {
		handler.OnStop(o.ctx)
	}

	return nil
}

// Observe runs the action inside this Observation's lifecycle.
//
// It starts the Observation, opens a Scope so that nested code can discover
// it via CurrentObservation, runs the action with the scoped context, records
// a returned failure via Error, and guarantees Stop on every exit path,
// including panics in the action. The action's own error is returned
// unchanged after cleanup.
func (o *Observation) Observe(ctx context.Context, action func(ctx context.Context) error) error {
	if err := o.Start(); err != nil {
		return err
	}

	scopedCtx, scope := o.OpenScope(ctx)
	defer func() {
		scope.Close()
		_ = o.Stop() // cannot fail after a successful Start
	}()

	actionErr := action(scopedCtx)
	if actionErr != nil {
		_ = o.Error(actionErr)
	}

	return actionErr
}
