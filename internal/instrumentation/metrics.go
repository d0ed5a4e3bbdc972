package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrAction = "action"
	attrStatus = "status"
)

// Status values for metric labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics records the application's observability metrics. The zero
// value is a no-op recorder.
type Metrics struct {
	turnsTotal   metric.Int64Counter
	turnDuration metric.Float64Histogram

	actionsTotal   metric.Int64Counter
	actionDuration metric.Float64Histogram
}

// NewMetrics creates a Metrics instance with all instruments
// initialized on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.turnsTotal, err = meter.Int64Counter(
		"agent_turns_total",
		metric.WithDescription("Total number of processed agent turns"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_turns_total counter: %w", err)
	}

	m.turnDuration, err = meter.Float64Histogram(
		"agent_turn_duration_seconds",
		metric.WithDescription("Agent turn duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_turn_duration_seconds histogram: %w", err)
	}

	m.actionsTotal, err = meter.Int64Counter(
		"calendar_actions_total",
		metric.WithDescription("Total number of executed calendar actions"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_actions_total counter: %w", err)
	}

	m.actionDuration, err = meter.Float64Histogram(
		"calendar_action_duration_seconds",
		metric.WithDescription("Calendar action duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_action_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordTurn records one completed agent turn.
func (m *Metrics) RecordTurn(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.turnsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.turnsTotal.Add(ctx, 1, attrs)
	m.turnDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAction records one executed calendar action.
func (m *Metrics) RecordAction(ctx context.Context, action string, duration time.Duration) {
	if m == nil || m.actionsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrAction, action))
	m.actionsTotal.Add(ctx, 1, attrs)
	m.actionDuration.Record(ctx, duration.Seconds(), attrs)
}
