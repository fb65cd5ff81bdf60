package observation

import (
	"context"
	"sync/atomic"
)

type scopeContextKey struct{}

// Scope is a lexically-bounded activation making an Observation "current" for
// nested code that has no way to receive it as a parameter.
//
// Scopes nest strictly LIFO within one logical task. Closing a scope restores
// the previously current observation regardless of how the scoped extent
// exits; CurrentObservation skips closed scopes, so the restore works even
// when nested code keeps reading from the innermost derived context.
type Scope struct {
	observation *Observation
	previous    *Scope
	closed      atomic.Bool
}

// OpenScope makes this Observation the current one within the returned
// context and hands back the Scope to close when the extent ends.
//
// For no-op observations the context is returned unchanged, so the previously
// current observation stays visible.
func (o *Observation) OpenScope(ctx context.Context) (context.Context, *Scope) {
	scope := &Scope{
		observation: o,
		previous:    scopeFromContext(ctx),
	}

	if o.noop {
		return ctx, scope
	}

	return context.WithValue(ctx, scopeContextKey{}, scope), scope
}

// Observation returns the observation this scope activates.
func (s *Scope) Observation() *Observation {
	return s.observation
}

// Close deactivates the scope, restoring the previously current observation.
// Closing twice is harmless.
func (s *Scope) Close() {
	if s != nil {
		s.closed.Store(true)
	}
}

// CurrentObservation returns the observation currently scoped in ctx, walking
// past closed scopes to the enclosing one. Absence is a valid state: it
// returns nil when no observation is current.
func CurrentObservation(ctx context.Context) *Observation {
	for scope := scopeFromContext(ctx); scope != nil; scope = scope.previous {
		if !scope.closed.Load() {
			return scope.observation
		}
	}

	return nil
}

func scopeFromContext(ctx context.Context) *Scope {
	if ctx == nil {
		return nil
	}

	scope, _ := ctx.Value(scopeContextKey{}).(*Scope)

	return scope
}
