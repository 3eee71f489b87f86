package scenario

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/joeycumines/scenario-fragments/internal/scenario"

// telemetry holds the instruments of a run. Nil providers fall back to the
// global ones, which are no-ops unless the process installs an SDK.
type telemetry struct {
	tracer trace.Tracer
	ticks  metric.Int64Counter
	runs   metric.Int64Counter
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*telemetry, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	t := &telemetry{tracer: tp.Tracer(instrumentationName)}
	var err error
	t.ticks, err = meter.Int64Counter(
		"scenario.ticks",
		metric.WithDescription("Behaviour tree ticks executed"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ticks counter: %w", err)
	}
	t.runs, err = meter.Int64Counter(
		"scenario.runs",
		metric.WithDescription("Scenario runs completed, by result"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create runs counter: %w", err)
	}
	return t, nil
}
