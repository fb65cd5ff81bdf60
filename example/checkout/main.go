// Demonstrates wiring a Registry with the OpenTelemetry handlers and
// instrumenting a small checkout flow with nested observations.
//
// Run it with:
//
//	go run ./example/checkout
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/observekit/observation-go/observation"
	"github.com/observekit/observation-go/observation/otelhandlers"
)

// tenantProvider tags every observation with deployment-wide key-values.
type tenantProvider struct{}

func (tenantProvider) SupportsContext(_ *observation.Context) bool { return true }

func (tenantProvider) LowCardinalityKeyValues(_ *observation.Context) observation.KeyValues {
	return observation.BuildKeyValues(
		observation.KV("env", "demo"),
		observation.KV("region", "eu-central"),
	)
}

func (tenantProvider) HighCardinalityKeyValues(_ *observation.Context) observation.KeyValues {
	return observation.KeyValues{}
}

func main() {
	spanExporter := tracetest.NewInMemoryExporter()
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spanExporter))
	defer func() { _ = tracerProvider.Shutdown(context.Background()) }()

	metricReader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	logger := otelhandlers.NewSlogBridgeLoggerWithHandler(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	registry := observation.NewRegistry(
		observation.WithHandler(otelhandlers.NewTracingHandler(tracerProvider.Tracer("checkout"))),
		observation.WithHandler(otelhandlers.NewMetricsHandler(meterProvider.Meter("checkout"))),
		observation.WithHandler(otelhandlers.NewLoggingHandler(logger)),
		observation.WithKeyValuesProvider(tenantProvider{}),
	)

	if err := placeOrder(context.Background(), registry, "order-42"); err != nil {
		fmt.Println("checkout failed:", err)
	}

	printCollectedTelemetry(spanExporter, metricReader)
}

func placeOrder(ctx context.Context, registry *observation.Registry, orderID string) error {
	o := observation.CreateNotStarted(registry, "checkout.place-order",
		observation.WithContextualName("placing order "+orderID))
	o.Context().AddHighCardinalityKeyValues(
		observation.BuildKeyValues(observation.KV("order_id", orderID)))

	return o.Observe(ctx, func(ctx context.Context) error {
		if err := reserveStock(ctx, registry, orderID); err != nil {
			return err
		}

		_ = o.Event(observation.NewEvent("stock.reserved"))

		return chargePayment(ctx, registry, orderID)
	})
}

func reserveStock(ctx context.Context, registry *observation.Registry, orderID string) error {
	o := observation.CreateNotStarted(registry, "inventory.reserve-stock",
		observation.WithParentFromContext(ctx))
	o.Context().AddHighCardinalityKeyValues(
		observation.BuildKeyValues(observation.KV("order_id", orderID)))

	return o.Observe(ctx, func(context.Context) error {
		time.Sleep(5 * time.Millisecond)

		return nil
	})
}

func chargePayment(ctx context.Context, registry *observation.Registry, orderID string) error {
	o := observation.CreateNotStarted(registry, "payment.charge",
		observation.WithParentFromContext(ctx))

	return o.Observe(ctx, func(context.Context) error {
		time.Sleep(3 * time.Millisecond)

		if orderID == "order-13" {
			return errors.New("payment declined")
		}

		return nil
	})
}

func printCollectedTelemetry(spanExporter *tracetest.InMemoryExporter, reader *sdkmetric.ManualReader) {
	fmt.Println("\ncollected spans:")
	for _, span := range spanExporter.GetSpans() {
		fmt.Printf("  %s (%s, parent=%s)\n",
			span.Name, span.EndTime.Sub(span.StartTime), span.Parent.SpanID())
	}

	var resourceMetrics metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &resourceMetrics); err != nil {
		fmt.Println("collecting metrics:", err)

		return
	}

	fmt.Println("\ncollected metrics:")
	for _, scope := range resourceMetrics.ScopeMetrics {
		for _, m := range scope.Metrics {
			fmt.Printf("  %s\n", m.Name)
		}
	}
}
