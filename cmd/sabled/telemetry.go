package main

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// setupMeterProvider installs the global MeterProvider the sable.gossip.*
// counters in internal/gossip report to. Those instruments are created
// via otel.Meter at package-init time, before this runs; the otel global
// package delegates them to whatever provider is installed later, so
// install order here doesn't matter.
//
// A stdout exporter, not a collector push, matches the spec's
// metrics-only non-goal for tracing infrastructure: an operator gets a
// periodic JSON dump on the process's own stderr rather than standing up
// a collector, which this module has no business depending on.
func setupMeterProvider() (*sdkmetric.MeterProvider, error) {
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
	if err != nil {
		return nil, err
	}
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(time.Minute))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	return provider, nil
}

func shutdownMeterProvider(provider *sdkmetric.MeterProvider) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = provider.Shutdown(shutdownCtx)
}
