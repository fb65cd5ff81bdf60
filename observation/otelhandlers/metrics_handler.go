package otelhandlers

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/observekit/observation-go/observation"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	attrStatus = "status"
)

// MetricsHandler implements observation.Handler using the OpenTelemetry
// metrics API. For every stopped observation it records:
//   - a duration histogram "<name>_duration_seconds"
//   - a completion counter "<name>_total"
//
// both labeled with the observation's low-cardinality key-values plus a
// status label derived from the captured error. High-cardinality key-values
// are deliberately never recorded: metrics backends have dimensionality
// limits.
//
// Instruments are created on demand and cached per metric name.
type MetricsHandler struct {
	meter    metric.Meter
	supports func(c *observation.Context) bool

	mu         sync.Mutex
	histograms map[string]metric.Float64Histogram
	counters   map[string]metric.Int64Counter
}

// NewMetricsHandler creates a metrics handler. The meter should be created
// from your OpenTelemetry MeterProvider.
func NewMetricsHandler(meter metric.Meter, opts ...HandlerOption) *MetricsHandler {
	cfg := buildHandlerConfig(opts...)

	return &MetricsHandler{
		meter:      meter,
		supports:   cfg.supports,
		histograms: make(map[string]metric.Float64Histogram),
		counters:   make(map[string]metric.Int64Counter),
	}
}

// OnStart records nothing; duration-based metrics need the full lifecycle.
func (h *MetricsHandler) OnStart(_ *observation.Context) {}

// OnError records nothing; the error surfaces as the status label on stop.
func (h *MetricsHandler) OnError(_ *observation.Context) {}

// OnEvent records nothing.
func (h *MetricsHandler) OnEvent(_ *observation.Context, _ observation.Event) {}

// OnStop records the duration histogram and the completion counter for the
// observed operation.
func (h *MetricsHandler) OnStop(c *observation.Context) {
	status := statusSuccess
	if c.Error() != nil {
		status = statusError
	}

	attrs := make([]attribute.KeyValue, 0, c.LowCardinalityKeyValues().Len()+1)
	for _, kv := range c.LowCardinalityKeyValues().Items() {
		attrs = append(attrs, attribute.String(kv.Key(), kv.Val()))
	}
	attrs = append(attrs, attribute.String(attrStatus, status))

	metricName := sanitizeMetricName(c.Name())

	if histogram := h.getOrCreateHistogram(metricName + "_duration_seconds"); histogram != nil {
		// Record duration in seconds (OpenTelemetry convention)
		histogram.Record(context.Background(), c.Duration().Seconds(), metric.WithAttributes(attrs...))
	}

	if counter := h.getOrCreateCounter(metricName + "_total"); counter != nil {
		counter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	}
}

// SupportsContext reports whether this handler observes operations carrying
// the given context.
func (h *MetricsHandler) SupportsContext(c *observation.Context) bool {
	return h.supports(c)
}

// sanitizeMetricName turns an observation name like "checkout.place-order"
// into a metric-friendly name like "checkout_place_order".
func sanitizeMetricName(name string) string {
	replacer := strings.NewReplacer(".", "_", "-", "_", " ", "_")

	return replacer.Replace(name)
}

// getOrCreateHistogram gets an existing histogram or creates a new one for the given metric name.
func (h *MetricsHandler) getOrCreateHistogram(name string) metric.Float64Histogram {
	h.mu.Lock()
	defer h.mu.Unlock()

	if histogram, exists := h.histograms[name]; exists {
		return histogram
	}

	histogram, err := h.meter.Float64Histogram(
		name,
		metric.WithDescription("Observed operation duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil
	}

	h.histograms[name] = histogram

	return histogram
}

// getOrCreateCounter gets an existing counter or creates a new one for the given metric name.
func (h *MetricsHandler) getOrCreateCounter(name string) metric.Int64Counter {
	h.mu.Lock()
	defer h.mu.Unlock()

	if counter, exists := h.counters[name]; exists {
		return counter
	}

	counter, err := h.meter.Int64Counter(
		name,
		metric.WithDescription("Observed operation completions"),
	)
	if err != nil {
		return nil
	}

	h.counters[name] = counter

	return counter
}

// Ensure MetricsHandler implements observation.Handler.
var _ observation.Handler = (*MetricsHandler)(nil)
