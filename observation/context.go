package observation

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingContextValue is returned when a required context value is absent.
var ErrMissingContextValue = errors.New("required context value is missing")

// Context is the typed data bag scoped to one Observation.
//
// It carries a few fixed slots (name, contextual name, error, parent) plus a
// generic key/value store for extension data that handlers and key-values
// providers agree on out of band.
//
// A Context is single-writer by convention: only the goroutine driving the
// owning Observation may mutate it before Stop. After Stop it is read-only in
// spirit and safe for concurrent readers, e.g. handlers reporting
// asynchronously.
type Context struct {
	name           string
	contextualName string
	observationID  string
	err            error
	parent         *Observation

	startedAt time.Time
	stoppedAt time.Time

	lowCardinalityKeyValues  KeyValues
	highCardinalityKeyValues KeyValues
	events                   []Event

	store map[any]any
}

// NewContext creates an empty Context to be bound to an Observation.
//
// Instrumented code usually pre-populates it with domain data via Put before
// handing it to CreateNotStarted with WithContext.
func NewContext() *Context {
	return &Context{}
}

// Name returns the low-cardinality identifier of the observed operation.
func (c *Context) Name() string {
	return c.name
}

func (c *Context) setName(name string) {
	c.name = name
}

// ContextualName returns the human-readable name of this particular
// occurrence, falling back to Name when none was set.
func (c *Context) ContextualName() string {
	if c.contextualName == "" {
		return c.name
	}

	return c.contextualName
}

// SetContextualName overrides the human-readable name for this occurrence.
func (c *Context) SetContextualName(contextualName string) {
	c.contextualName = contextualName
}

// ObservationID returns the unique identifier of the owning Observation,
// usable for log and trace correlation. It is empty for no-op observations.
func (c *Context) ObservationID() string {
	return c.observationID
}

// Parent returns the observation that was current when this one was created,
// or nil. The link is informational; it never transfers ownership.
func (c *Context) Parent() *Observation {
	return c.parent
}

func (c *Context) setParent(parent *Observation) {
	c.parent = parent
}

// Error returns the failure captured for this operation, or nil.
func (c *Context) Error() error {
	return c.err
}

// SetError captures the operation's failure. The first error wins; later
// calls are no-ops. It reports whether the error was recorded.
func (c *Context) SetError(err error) bool {
	if c.err != nil || err == nil {
		return false
	}

	c.err = err

	return true
}

// Put stores a value in the generic store, overwriting any previous value for
// the key. Unexported key types are the recommended way to avoid collisions
// between independent handlers.
func (c *Context) Put(key any, value any) {
	if c.store == nil {
		c.store = make(map[any]any)
	}

	c.store[key] = value
}

// Get reads a value from the generic store.
func (c *Context) Get(key any) (any, bool) {
	value, ok := c.store[key]

	return value, ok
}

// GetRequired reads a value from the generic store and fails with
// ErrMissingContextValue if it is absent.
func (c *Context) GetRequired(key any) (any, error) {
	value, ok := c.store[key]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrMissingContextValue, key)
	}

	return value, nil
}

// AddLowCardinalityKeyValues merges key-values that are safe for backends
// with dimensionality limits, e.g. metrics systems. Same-keyed entries are
// overridden by the new ones.
func (c *Context) AddLowCardinalityKeyValues(kvs KeyValues) {
	c.lowCardinalityKeyValues = c.lowCardinalityKeyValues.And(kvs)
}

// AddHighCardinalityKeyValues merges key-values that are only safe for
// unlimited-dimension backends, e.g. trace systems.
func (c *Context) AddHighCardinalityKeyValues(kvs KeyValues) {
	c.highCardinalityKeyValues = c.highCardinalityKeyValues.And(kvs)
}

// LowCardinalityKeyValues returns the accumulated low-cardinality key-values.
func (c *Context) LowCardinalityKeyValues() KeyValues {
	return c.lowCardinalityKeyValues
}

// HighCardinalityKeyValues returns the accumulated high-cardinality key-values.
func (c *Context) HighCardinalityKeyValues() KeyValues {
	return c.highCardinalityKeyValues
}

// AllKeyValues returns low- and high-cardinality key-values combined, with
// high-cardinality entries winning on key collision.
func (c *Context) AllKeyValues() KeyValues {
	return c.lowCardinalityKeyValues.And(c.highCardinalityKeyValues)
}

func (c *Context) addEvent(e Event) {
	c.events = append(c.events, e)
}

// Events returns the events recorded so far, in emission order.
func (c *Context) Events() []Event {
	return c.events
}

// StartedAt returns when the owning Observation was started. The zero value
// means it has not been started.
func (c *Context) StartedAt() time.Time {
	return c.startedAt
}

// StoppedAt returns when the owning Observation was stopped. The zero value
// means it has not been stopped.
func (c *Context) StoppedAt() time.Time {
	return c.stoppedAt
}

// Duration returns the time between start and stop. While the Observation is
// still running it returns the time elapsed since start.
func (c *Context) Duration() time.Duration {
	if c.startedAt.IsZero() {
		return 0
	}

	if c.stoppedAt.IsZero() {
		return time.Since(c.startedAt)
	}

	return c.stoppedAt.Sub(c.startedAt)
}
