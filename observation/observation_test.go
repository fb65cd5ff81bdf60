package observation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/observekit/observation-go/observation"
)

func Test_Observation_Lifecycle_HandlerCallOrder(t *testing.T) {
	handler := &recordingHandler{}
	provider := &staticProvider{
		low: observation.BuildKeyValues(observation.KV("env", "prod")),
	}
	registry := observation.NewRegistry(
		observation.WithHandler(handler),
		observation.WithKeyValuesProvider(provider),
	)

	o := observation.CreateNotStarted(registry, "op.a")

	require.NoError(t, o.Start())
	require.NoError(t, o.Event(observation.NewEvent("checkpoint")))
	require.NoError(t, o.Stop())

	assert.Equal(t, []string{"onStart", "onEvent(checkpoint)", "onStop"}, handler.calls)

	env, ok := o.Context().LowCardinalityKeyValues().Value("env")
	require.True(t, ok)
	assert.Equal(t, "prod", env)
}

func Test_Observation_Start_Twice(t *testing.T) {
	registry := observation.NewRegistry()
	o := observation.CreateNotStarted(registry, "op.a")

	require.NoError(t, o.Start())

	err := o.Start()

	assert.ErrorIs(t, err, observation.ErrIllegalStateTransition)
	assert.Equal(t, observation.StateStarted, o.State())
}

func Test_Observation_Stop_BeforeStart(t *testing.T) {
	registry := observation.NewRegistry()
	o := observation.CreateNotStarted(registry, "op.a")

	err := o.Stop()

	assert.ErrorIs(t, err, observation.ErrIllegalStateTransition)
	assert.Equal(t, observation.StateNotStarted, o.State())
}

func Test_Observation_Stop_IsIdempotent(t *testing.T) {
	handler := &recordingHandler{}
	registry := observation.NewRegistry(observation.WithHandler(handler))
	o := observation.CreateNotStarted(registry, "op.a")

	require.NoError(t, o.Start())
	require.NoError(t, o.Stop())
	require.NoError(t, o.Stop())

	assert.Equal(t, []string{"onStart", "onStop"}, handler.calls)
	assert.Equal(t, observation.StateStopped, o.State())
}

func Test_Observation_Event_OutsideStartedState(t *testing.T) {
	registry := observation.NewRegistry()

	notStarted := observation.CreateNotStarted(registry, "op.a")
	assert.ErrorIs(t, notStarted.Event(observation.NewEvent("checkpoint")), observation.ErrIllegalStateTransition)

	stopped := observation.CreateNotStarted(registry, "op.b")
	require.NoError(t, stopped.Start())
	require.NoError(t, stopped.Stop())
	assert.ErrorIs(t, stopped.Event(observation.NewEvent("checkpoint")), observation.ErrIllegalStateTransition)
}

func Test_Observation_Error_FirstErrorWins(t *testing.T) {
	handler := &recordingHandler{}
	registry := observation.NewRegistry(observation.WithHandler(handler))
	o := observation.CreateNotStarted(registry, "op.a")
	first := errors.New("first failure")
	second := errors.New("second failure")

	require.NoError(t, o.Start())
	require.NoError(t, o.Error(first))
	require.NoError(t, o.Error(second)) // silent no-op
	require.NoError(t, o.Stop())

	assert.Same(t, first, o.Context().Error())
	assert.Equal(t, []string{"onStart", "onError", "onStop"}, handler.calls)
}

func Test_Observation_Error_OutsideStartedState(t *testing.T) {
	registry := observation.NewRegistry()
	o := observation.CreateNotStarted(registry, "op.a")

	err := o.Error(errors.New("too early"))

	assert.ErrorIs(t, err, observation.ErrIllegalStateTransition)
}

func Test_Observation_ApplicableHandlerSet_FrozenAtStart(t *testing.T) {
	early := &recordingHandler{}
	registry := observation.NewRegistry(observation.WithHandler(early))

	o := observation.CreateNotStarted(registry, "op.a")
	require.NoError(t, o.Start())

	late := &recordingHandler{}
	registry.RegisterHandler(late)

	require.NoError(t, o.Event(observation.NewEvent("checkpoint")))
	require.NoError(t, o.Stop())

	assert.Equal(t, []string{"onStart", "onEvent(checkpoint)", "onStop"}, early.calls)
	assert.Empty(t, late.calls, "handler registered after start must not apply retroactively")
}

func Test_Observation_UnsupportedHandler_IsSkipped(t *testing.T) {
	supported := &recordingHandler{}
	unsupported := &recordingHandler{
		supports: func(*observation.Context) bool { return false },
	}
	registry := observation.NewRegistry(
		observation.WithHandler(unsupported),
		observation.WithHandler(supported),
	)

	o := observation.CreateNotStarted(registry, "op.a")
	require.NoError(t, o.Start())
	require.NoError(t, o.Stop())

	assert.Equal(t, []string{"onStart", "onStop"}, supported.calls)
	assert.Empty(t, unsupported.calls)
}

func Test_Observation_DisabledRegistry_ProducesNoop(t *testing.T) {
	handler := &recordingHandler{}
	registry := observation.NewRegistry(
		observation.WithHandler(handler),
		observation.WithEnabled(false),
	)

	o := observation.CreateNotStarted(registry, "op.a")

	assert.True(t, o.IsNoop())
	assert.NoError(t, o.Start())
	assert.NoError(t, o.Event(observation.NewEvent("checkpoint")))
	assert.NoError(t, o.Error(errors.New("ignored")))
	assert.NoError(t, o.Stop())
	assert.NoError(t, o.Stop())
	assert.Empty(t, handler.calls)
}

func Test_Observation_NilRegistry_ProducesNoop(t *testing.T) {
	o := observation.CreateNotStarted(nil, "op.a")

	assert.True(t, o.IsNoop())
	assert.NoError(t, o.Start())
	assert.NoError(t, o.Stop())
	assert.Empty(t, o.Context().ObservationID())
}

func Test_Observation_ObservationID_IsUUID(t *testing.T) {
	registry := observation.NewRegistry()
	o := observation.CreateNotStarted(registry, "op.a")

	id := o.Context().ObservationID()

	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func Test_Observation_ProviderComposition_OverrideWinsOnCollision(t *testing.T) {
	global := &staticProvider{
		low: observation.BuildKeyValues(observation.KV("region", "us")),
	}
	override := &staticProvider{
		low: observation.BuildKeyValues(
			observation.KV("region", "eu"),
			observation.KV("tier", "gold"),
		),
	}
	registry := observation.NewRegistry(observation.WithKeyValuesProvider(global))

	o := observation.CreateNotStarted(registry, "op.a",
		observation.WithKeyValuesProviderOverride(override))
	require.NoError(t, o.Start())
	require.NoError(t, o.Stop())

	low := o.Context().LowCardinalityKeyValues()
	assert.Equal(t, 2, low.Len())

	region, _ := low.Value("region")
	assert.Equal(t, "eu", region)

	tier, _ := low.Value("tier")
	assert.Equal(t, "gold", tier)
}

func Test_Observation_UnsupportedProvider_IsSkippedSilently(t *testing.T) {
	provider := &staticProvider{
		low:      observation.BuildKeyValues(observation.KV("env", "prod")),
		supports: func(*observation.Context) bool { return false },
	}
	registry := observation.NewRegistry(observation.WithKeyValuesProvider(provider))

	o := observation.CreateNotStarted(registry, "op.a")
	require.NoError(t, o.Start())
	require.NoError(t, o.Stop())

	assert.Zero(t, o.Context().LowCardinalityKeyValues().Len())
}

func Test_Observation_Observe_Success(t *testing.T) {
	handler := &recordingHandler{}
	registry := observation.NewRegistry(observation.WithHandler(handler))
	o := observation.CreateNotStarted(registry, "op.a")

	var sawCurrent *observation.Observation
	err := o.Observe(context.Background(), func(ctx context.Context) error {
		sawCurrent = observation.CurrentObservation(ctx)
		return nil
	})

	require.NoError(t, err)
	assert.Same(t, o, sawCurrent, "action must see the observation as current")
	assert.Equal(t, []string{"onStart", "onStop"}, handler.calls)
	assert.Equal(t, observation.StateStopped, o.State())
}

func Test_Observation_Observe_FailureIsRecordedAndReraised(t *testing.T) {
	handler := &recordingHandler{}
	registry := observation.NewRegistry(observation.WithHandler(handler))
	o := observation.CreateNotStarted(registry, "op.a")
	boom := errors.New("boom")

	err := o.Observe(context.Background(), func(context.Context) error {
		return boom
	})

	assert.Same(t, boom, err, "the original failure must be returned unchanged")
	assert.Same(t, boom, o.Context().Error())
	assert.Equal(t, []string{"onStart", "onError", "onStop"}, handler.calls)
}

func Test_Observation_Observe_PanicStillStops(t *testing.T) {
	handler := &recordingHandler{}
	registry := observation.NewRegistry(observation.WithHandler(handler))
	o := observation.CreateNotStarted(registry, "op.a")

	require.Panics(t, func() {
		_ = o.Observe(context.Background(), func(context.Context) error {
			panic("kaboom")
		})
	})

	assert.Equal(t, []string{"onStart", "onStop"}, handler.calls)
	assert.Equal(t, observation.StateStopped, o.State())
}

func Test_Observation_Observe_AlreadyStarted(t *testing.T) {
	registry := observation.NewRegistry()
	o := observation.CreateNotStarted(registry, "op.a")
	require.NoError(t, o.Start())

	err := o.Observe(context.Background(), func(context.Context) error {
		t.Fatal("action must not run when start fails")
		return nil
	})

	assert.ErrorIs(t, err, observation.ErrIllegalStateTransition)
}

func Test_Observation_WithParentFromContext(t *testing.T) {
	registry := observation.NewRegistry()

	parent := observation.CreateNotStarted(registry, "op.parent")
	require.NoError(t, parent.Start())

	ctx, scope := parent.OpenScope(context.Background())
	defer scope.Close()

	child := observation.CreateNotStarted(registry, "op.child",
		observation.WithParentFromContext(ctx))

	assert.Same(t, parent, child.Context().Parent())

	require.NoError(t, parent.Stop())
}

func Test_Observation_WithParentFromContext_NoCurrentObservation(t *testing.T) {
	registry := observation.NewRegistry()

	child := observation.CreateNotStarted(registry, "op.child",
		observation.WithParentFromContext(context.Background()))

	assert.Nil(t, child.Context().Parent())
}

func Test_Observation_WithContext_BindsCallerContext(t *testing.T) {
	registry := observation.NewRegistry()
	c := observation.NewContext()
	c.Put(testContextKey{}, "domain data")

	o := observation.CreateNotStarted(registry, "op.a", observation.WithContext(c))

	assert.Same(t, c, o.Context())
	assert.Equal(t, "op.a", c.Name())
	assert.NotEmpty(t, c.ObservationID())
}

func Test_Observation_CreateOptions_OrderIndependent(t *testing.T) {
	registry := observation.NewRegistry()
	parent := observation.CreateNotStarted(registry, "op.parent")
	c := observation.NewContext()

	o := observation.CreateNotStarted(registry, "op.a",
		observation.WithContextualName("processing order #42"),
		observation.WithParent(parent),
		observation.WithContext(c),
	)

	assert.Same(t, c, o.Context())
	assert.Equal(t, "processing order #42", c.ContextualName())
	assert.Same(t, parent, c.Parent())
}

func Test_Observation_WithContextualName(t *testing.T) {
	registry := observation.NewRegistry()

	o := observation.CreateNotStarted(registry, "op.a",
		observation.WithContextualName("processing order #42"))

	assert.Equal(t, "processing order #42", o.Context().ContextualName())
}

func Test_Observation_Timestamps_RecordedAcrossLifecycle(t *testing.T) {
	registry := observation.NewRegistry()
	o := observation.CreateNotStarted(registry, "op.a")

	require.NoError(t, o.Start())
	require.NoError(t, o.Stop())

	c := o.Context()
	assert.False(t, c.StartedAt().IsZero())
	assert.False(t, c.StoppedAt().IsZero())
	assert.False(t, c.StoppedAt().Before(c.StartedAt()))
	assert.Equal(t, c.StoppedAt().Sub(c.StartedAt()), c.Duration())
}

func Test_State_String(t *testing.T) {
	assert.Equal(t, "not_started", observation.StateNotStarted.String())
	assert.Equal(t, "started", observation.StateStarted.String())
	assert.Equal(t, "stopped", observation.StateStopped.String())
}
