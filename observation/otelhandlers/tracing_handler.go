package otelhandlers

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/observekit/observation-go/observation"
)

// spanKey is the context-store key under which the handler keeps its span.
type spanKey struct{}

// TracingHandler implements observation.Handler using the OpenTelemetry
// tracing API. It opens one span per observation, named after the
// observation's contextual name, and closes it when the observation stops.
//
// When the observed operation has a parent observation that also carries a
// span, the new span is created as its child, so nested observations form a
// trace tree.
type TracingHandler struct {
	tracer   trace.Tracer
	supports func(c *observation.Context) bool
}

// NewTracingHandler creates a tracing handler. The tracer should be created
// from your OpenTelemetry TracerProvider.
func NewTracingHandler(tracer trace.Tracer, opts ...HandlerOption) *TracingHandler {
	cfg := buildHandlerConfig(opts...)

	return &TracingHandler{
		tracer:   tracer,
		supports: cfg.supports,
	}
}

// OnStart opens a span for the observed operation and stores it in the
// observation Context for the other callbacks and for correlation.
func (h *TracingHandler) OnStart(c *observation.Context) {
	ctx := context.Background()

	if parent := c.Parent(); parent != nil {
		if parentSpan, ok := SpanFromObservationContext(parent.Context()); ok {
			ctx = trace.ContextWithSpan(ctx, parentSpan)
		}
	}

	_, span := h.tracer.Start(ctx, c.ContextualName())

	if id := c.ObservationID(); id != "" {
		span.SetAttributes(attribute.String("observation.id", id))
	}

	c.Put(spanKey{}, span)
}

// OnError records the captured failure on the span.
func (h *TracingHandler) OnError(c *observation.Context) {
	span, ok := SpanFromObservationContext(c)
	if !ok {
		return
	}

	if err := c.Error(); err != nil {
		span.RecordError(err)
	}
}

// OnEvent records the event as a span event.
func (h *TracingHandler) OnEvent(c *observation.Context, e observation.Event) {
	span, ok := SpanFromObservationContext(c)
	if !ok {
		return
	}

	span.AddEvent(e.ContextualName())
}

// OnStop sets the observation's key-values as span attributes, derives the
// span status from the captured error, and ends the span. Both cardinality
// classes are safe here: trace backends have no dimensionality limits.
func (h *TracingHandler) OnStop(c *observation.Context) {
	span, ok := SpanFromObservationContext(c)
	if !ok {
		return
	}

	for _, kv := range c.AllKeyValues().Items() {
		span.SetAttributes(attribute.String(kv.Key(), kv.Val()))
	}

	if err := c.Error(); err != nil {
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// SupportsContext reports whether this handler observes operations carrying
// the given context.
func (h *TracingHandler) SupportsContext(c *observation.Context) bool {
	return h.supports(c)
}

// SpanFromObservationContext returns the span the TracingHandler opened for
// the observation owning c, if any. Other handlers can use it for trace
// correlation.
func SpanFromObservationContext(c *observation.Context) (trace.Span, bool) {
	value, ok := c.Get(spanKey{})
	if !ok {
		return nil, false
	}

	span, ok := value.(trace.Span)

	return span, ok
}

// Ensure TracingHandler implements observation.Handler.
var _ observation.Handler = (*TracingHandler)(nil)
