package otelhandlers_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/observekit/observation-go/observation"
	"github.com/observekit/observation-go/observation/otelhandlers"
)

// capturingLogger records every log call with its level and message.
type capturingLogger struct {
	entries []logEntry
}

type logEntry struct {
	level string
	msg   string
	args  map[string]any
}

func (l *capturingLogger) record(level, msg string, args ...any) {
	entry := logEntry{level: level, msg: msg, args: make(map[string]any)}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			entry.args[key] = args[i+1]
		}
	}

	l.entries = append(l.entries, entry)
}

func (l *capturingLogger) DebugContext(_ context.Context, msg string, args ...any) {
	l.record("debug", msg, args...)
}

func (l *capturingLogger) InfoContext(_ context.Context, msg string, args ...any) {
	l.record("info", msg, args...)
}

func (l *capturingLogger) WarnContext(_ context.Context, msg string, args ...any) {
	l.record("warn", msg, args...)
}

func (l *capturingLogger) ErrorContext(_ context.Context, msg string, args ...any) {
	l.record("error", msg, args...)
}

func Test_LoggingHandler_LogsFullLifecycle(t *testing.T) {
	logger := &capturingLogger{}
	registry := observation.NewRegistry(
		observation.WithHandler(otelhandlers.NewLoggingHandler(logger)))

	o := observation.CreateNotStarted(registry, "checkout.place-order",
		observation.WithContextualName("placing order"))

	require.NoError(t, o.Start())
	require.NoError(t, o.Event(observation.NewEvent("payment.authorized")))
	require.NoError(t, o.Error(errors.New("stock exhausted")))
	require.NoError(t, o.Stop())

	require.Len(t, logger.entries, 4)

	started := logger.entries[0]
	assert.Equal(t, "debug", started.level)
	assert.Equal(t, "observation started", started.msg)
	assert.Equal(t, "placing order", started.args["name"])
	assert.Equal(t, o.Context().ObservationID(), started.args["observation_id"])

	event := logger.entries[1]
	assert.Equal(t, "debug", event.level)
	assert.Equal(t, "observation event", event.msg)
	assert.Equal(t, "payment.authorized", event.args["event"])

	failed := logger.entries[2]
	assert.Equal(t, "error", failed.level)
	assert.Equal(t, "observation failed", failed.msg)
	assert.Equal(t, "stock exhausted", failed.args["error"])

	stopped := logger.entries[3]
	assert.Equal(t, "info", stopped.level)
	assert.Equal(t, "observation stopped", stopped.msg)

	durationMS, ok := stopped.args["duration_ms"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, durationMS, 0.0)
}

func Test_LoggingHandler_SuccessfulObservation_LogsNoError(t *testing.T) {
	logger := &capturingLogger{}
	registry := observation.NewRegistry(
		observation.WithHandler(otelhandlers.NewLoggingHandler(logger)))

	o := observation.CreateNotStarted(registry, "checkout.place-order")
	require.NoError(t, o.Start())
	require.NoError(t, o.Stop())

	require.Len(t, logger.entries, 2)
	assert.Equal(t, "observation started", logger.entries[0].msg)
	assert.Equal(t, "observation stopped", logger.entries[1].msg)
}

func Test_LoggingHandler_SupportsContext_Filter(t *testing.T) {
	logger := &capturingLogger{}
	handler := otelhandlers.NewLoggingHandler(logger,
		otelhandlers.WithSupportsContext(func(*observation.Context) bool {
			return false
		}))
	registry := observation.NewRegistry(observation.WithHandler(handler))

	o := observation.CreateNotStarted(registry, "checkout.place-order")
	require.NoError(t, o.Start())
	require.NoError(t, o.Stop())

	assert.Empty(t, logger.entries)
}

func Test_SlogBridgeLoggerWithHandler_WritesThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := otelhandlers.NewSlogBridgeLoggerWithHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	registry := observation.NewRegistry(
		observation.WithHandler(otelhandlers.NewLoggingHandler(logger)))

	o := observation.CreateNotStarted(registry, "checkout.place-order")
	require.NoError(t, o.Start())
	require.NoError(t, o.Stop())

	output := buf.String()
	assert.Contains(t, output, "observation started")
	assert.Contains(t, output, "observation stopped")
	assert.Contains(t, output, "name=checkout.place-order")
	assert.Contains(t, output, "observation_id="+o.Context().ObservationID())
}
