// Package telemetry records ledger counters through OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/rpggio/accord"

// Metrics implements the counters the instance and report services record.
type Metrics struct {
	generated   metric.Int64Counter
	failures    metric.Int64Counter
	completions metric.Int64Counter
	reports     metric.Int64Counter
}

// NewMetrics creates the counters on a meter of mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(instrumentationName)

	generated, err := meter.Int64Counter("accord.instances.generated",
		metric.WithDescription("Obligation instances materialized"),
		metric.WithUnit("{instance}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create generated counter: %w", err)
	}
	failures, err := meter.Int64Counter("accord.generation.failures",
		metric.WithDescription("Templates skipped during generation"),
		metric.WithUnit("{template}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create failure counter: %w", err)
	}
	completions, err := meter.Int64Counter("accord.completions.toggled",
		metric.WithDescription("Completion state changes"),
		metric.WithUnit("{toggle}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion counter: %w", err)
	}
	reports, err := meter.Int64Counter("accord.reports.built",
		metric.WithDescription("Status reports built"),
		metric.WithUnit("{report}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create report counter: %w", err)
	}

	return &Metrics{
		generated:   generated,
		failures:    failures,
		completions: completions,
		reports:     reports,
	}, nil
}

func (m *Metrics) InstancesGenerated(ctx context.Context, contractID string, n int) {
	m.generated.Add(ctx, int64(n))
}

func (m *Metrics) GenerationFailed(ctx context.Context, contractID string, n int) {
	m.failures.Add(ctx, int64(n))
}

func (m *Metrics) CompletionToggled(ctx context.Context, completed bool) {
	m.completions.Add(ctx, 1, metric.WithAttributes(attribute.Bool("completed", completed)))
}

func (m *Metrics) ReportBuilt(ctx context.Context, weeksAgo int) {
	m.reports.Add(ctx, 1, metric.WithAttributes(attribute.Int("weeks_ago", weeksAgo)))
}
