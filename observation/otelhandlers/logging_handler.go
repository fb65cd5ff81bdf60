package otelhandlers

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/observekit/observation-go/observation"
)

const (
	logMsgStarted = "observation started"
	logMsgEvent   = "observation event"
	logMsgFailed  = "observation failed"
	logMsgStopped = "observation stopped"

	logAttrName          = "name"
	logAttrObservationID = "observation_id"
	logAttrEvent         = "event"
	logAttrError         = "error"
	logAttrDurationMS    = "duration_ms"
)

// LoggingHandler implements observation.Handler by writing lifecycle
// transitions to a ContextualLogger. Start and events are logged at debug
// level, errors at error level, and stop at info level with the measured
// duration.
//
// When a TracingHandler runs ahead of this handler for the same observation,
// log records are emitted with the observation's span in the context, so
// correlating loggers pick up the trace and span IDs automatically.
type LoggingHandler struct {
	logger   ContextualLogger
	supports func(c *observation.Context) bool
}

// NewLoggingHandler creates a logging handler writing to the given logger.
func NewLoggingHandler(logger ContextualLogger, opts ...HandlerOption) *LoggingHandler {
	cfg := buildHandlerConfig(opts...)

	return &LoggingHandler{
		logger:   logger,
		supports: cfg.supports,
	}
}

// OnStart logs the start of the observed operation at debug level.
func (h *LoggingHandler) OnStart(c *observation.Context) {
	h.logger.DebugContext(correlatedContext(c), logMsgStarted,
		logAttrName, c.ContextualName(),
		logAttrObservationID, c.ObservationID(),
	)
}

// OnError logs the captured failure at error level.
func (h *LoggingHandler) OnError(c *observation.Context) {
	err := c.Error()
	if err == nil {
		return
	}

	h.logger.ErrorContext(correlatedContext(c), logMsgFailed,
		logAttrName, c.ContextualName(),
		logAttrObservationID, c.ObservationID(),
		logAttrError, err.Error(),
	)
}

// OnEvent logs the emitted event at debug level.
func (h *LoggingHandler) OnEvent(c *observation.Context, e observation.Event) {
	h.logger.DebugContext(correlatedContext(c), logMsgEvent,
		logAttrName, c.ContextualName(),
		logAttrObservationID, c.ObservationID(),
		logAttrEvent, e.ContextualName(),
	)
}

// OnStop logs the completion with the measured duration at info level.
func (h *LoggingHandler) OnStop(c *observation.Context) {
	h.logger.InfoContext(correlatedContext(c), logMsgStopped,
		logAttrName, c.ContextualName(),
		logAttrObservationID, c.ObservationID(),
		logAttrDurationMS, durationToMilliseconds(c.Duration()),
	)
}

// SupportsContext reports whether this handler observes operations carrying
// the given context.
func (h *LoggingHandler) SupportsContext(c *observation.Context) bool {
	return h.supports(c)
}

// correlatedContext returns a context carrying the observation's span when a
// TracingHandler opened one, enabling automatic trace correlation in the
// logging backend.
func correlatedContext(c *observation.Context) context.Context {
	ctx := context.Background()

	if span, ok := SpanFromObservationContext(c); ok {
		ctx = trace.ContextWithSpan(ctx, span)
	}

	return ctx
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// Ensure LoggingHandler implements observation.Handler.
var _ observation.Handler = (*LoggingHandler)(nil)
