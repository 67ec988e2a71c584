package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "planvault"

// Metrics holds all planvault metric instruments.
type Metrics struct {
	OpsStarted   metric.Int64Counter
	OpsSucceeded metric.Int64Counter
	OpsFailed    metric.Int64Counter
	OpDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.OpsStarted, err = meter.Int64Counter("planvault.operations.started",
		metric.WithDescription("Number of operations dispatched"))
	if err != nil {
		return nil, err
	}

	m.OpsSucceeded, err = meter.Int64Counter("planvault.operations.succeeded",
		metric.WithDescription("Number of operations that returned ok"))
	if err != nil {
		return nil, err
	}

	m.OpsFailed, err = meter.Int64Counter("planvault.operations.failed",
		metric.WithDescription("Number of operations that returned an error envelope"))
	if err != nil {
		return nil, err
	}

	m.OpDuration, err = meter.Float64Histogram("planvault.operation.duration_seconds",
		metric.WithDescription("Operation duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
