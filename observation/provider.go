package observation

// KeyValuesProvider derives descriptive key-values from a Context.
//
// Low-cardinality key-values are safe for backends with dimensionality
// limits (metrics); high-cardinality key-values are only safe for
// unlimited-dimension backends (traces).
//
// A provider that does not support a Context is skipped silently.
// SupportsContext must be pure and cheap; it is evaluated for every provider
// when an Observation starts.
type KeyValuesProvider interface {
	SupportsContext(c *Context) bool
	LowCardinalityKeyValues(c *Context) KeyValues
	HighCardinalityKeyValues(c *Context) KeyValues
}

// composeKeyValues runs the global providers in registration order, then the
// per-observation override provider, merging with And so that later output
// wins on key collision.
func composeKeyValues(globals []KeyValuesProvider, override KeyValuesProvider, c *Context) (KeyValues, KeyValues) {
	var low, high KeyValues

	for _, provider := range globals {
		if !provider.SupportsContext(c) {
			continue
		}

		low = low.And(provider.LowCardinalityKeyValues(c))
		high = high.And(provider.HighCardinalityKeyValues(c))
	}

	if override != nil && override.SupportsContext(c) {
		low = low.And(override.LowCardinalityKeyValues(c))
		high = high.And(override.HighCardinalityKeyValues(c))
	}

	return low, high
}
