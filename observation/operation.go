package observation

import (
	"errors"
	"slices"
)

// ErrEmptyOperationName is returned when an OperationSpec is built without a
// name.
var ErrEmptyOperationName = errors.New("operation name must not be empty")

// OperationSpec is read-only metadata statically declared for a well-known
// operation kind: its observation name, the prefix for contextual names, and
// the key and event names instrumentation of this kind may emit.
//
// External documentation tooling can introspect these values; this package
// only exposes them and seeds observations from them.
type OperationSpec struct {
	name                    string
	contextualNamePrefix    string
	lowCardinalityKeyNames  []string
	highCardinalityKeyNames []string
	eventNames              []string
}

// OperationSpecOption defines a functional option for BuildOperationSpec.
type OperationSpecOption func(*OperationSpec)

// WithContextualNamePrefix declares the prefix prepended to the operation
// name to form the default contextual name.
func WithContextualNamePrefix(prefix string) OperationSpecOption {
	return func(spec *OperationSpec) {
		spec.contextualNamePrefix = prefix
	}
}

// WithLowCardinalityKeyNames declares the low-cardinality keys this operation
// kind may emit.
func WithLowCardinalityKeyNames(names ...string) OperationSpecOption {
	return func(spec *OperationSpec) {
		spec.lowCardinalityKeyNames = sanitizeNames(names)
	}
}

// WithHighCardinalityKeyNames declares the high-cardinality keys this
// operation kind may emit.
func WithHighCardinalityKeyNames(names ...string) OperationSpecOption {
	return func(spec *OperationSpec) {
		spec.highCardinalityKeyNames = sanitizeNames(names)
	}
}

// WithEventNames declares the events this operation kind may emit.
func WithEventNames(names ...string) OperationSpecOption {
	return func(spec *OperationSpec) {
		spec.eventNames = sanitizeNames(names)
	}
}

// sanitizeNames removes empty entries and duplicates, keeping declaration
// order.
func sanitizeNames(names []string) []string {
	sanitized := make([]string, 0, len(names))

	for _, name := range names {
		if name == "" || slices.Contains(sanitized, name) {
			continue
		}

		sanitized = append(sanitized, name)
	}

	return slices.Clip(sanitized)
}

// BuildOperationSpec is a factory method for OperationSpec.
//
// Returns ErrEmptyOperationName if the name is empty.
func BuildOperationSpec(name string, opts ...OperationSpecOption) (OperationSpec, error) {
	if name == "" {
		return OperationSpec{}, ErrEmptyOperationName
	}

	spec := OperationSpec{name: name}

	for _, opt := range opts {
		opt(&spec)
	}

	return spec, nil
}

func (spec OperationSpec) Name() string {
	return spec.name
}

func (spec OperationSpec) ContextualNamePrefix() string {
	return spec.contextualNamePrefix
}

// LowCardinalityKeyNames returns the declared low-cardinality keys. The
// returned slice is a copy; the spec stays immutable.
func (spec OperationSpec) LowCardinalityKeyNames() []string {
	return slices.Clone(spec.lowCardinalityKeyNames)
}

// HighCardinalityKeyNames returns the declared high-cardinality keys. The
// returned slice is a copy; the spec stays immutable.
func (spec OperationSpec) HighCardinalityKeyNames() []string {
	return slices.Clone(spec.highCardinalityKeyNames)
}

// EventNames returns the declared event names. The returned slice is a copy;
// the spec stays immutable.
func (spec OperationSpec) EventNames() []string {
	return slices.Clone(spec.eventNames)
}

// CreateNotStartedFromSpec creates an Observation named after the spec, with
// the contextual name seeded from the spec's prefix unless an option already
// set one.
func CreateNotStartedFromSpec(registry *Registry, spec OperationSpec, opts ...CreateOption) *Observation {
	o := CreateNotStarted(registry, spec.name, opts...)

	if !o.noop && spec.contextualNamePrefix != "" && o.ctx.contextualName == "" {
		o.ctx.SetContextualName(spec.contextualNamePrefix + spec.name)
	}

	return o
}
