// Package observe holds the OpenTelemetry instruments of the assistant and
// the Prometheus bridge that exposes them on /metrics.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "voice-assistant"

// Metrics is safe for concurrent use; the OTel instruments synchronise
// themselves.
type Metrics struct {
	// Resolutions counts routed utterances by winning stage:
	//   attribute.String("stage", ...)
	Resolutions metric.Int64Counter

	// SkillFailures counts skill and intent handler failures:
	//   attribute.String("skill", ...)
	SkillFailures metric.Int64Counter

	// ResolveDuration tracks the time one utterance takes to resolve.
	ResolveDuration metric.Float64Histogram

	// GamesStarted counts tic-tac-toe sessions.
	GamesStarted metric.Int64Counter

	// RemindersFired counts one-shot reminders delivered to a chat.
	RemindersFired metric.Int64Counter
}

var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates the instruments on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Resolutions, err = m.Int64Counter("assistant.resolutions",
		metric.WithDescription("Utterances resolved, by winning dispatch stage."),
	); err != nil {
		return nil, err
	}
	if met.SkillFailures, err = m.Int64Counter("assistant.skill.failures",
		metric.WithDescription("Skill executions that returned an error or panicked."),
	); err != nil {
		return nil, err
	}
	if met.ResolveDuration, err = m.Float64Histogram("assistant.resolve.duration",
		metric.WithDescription("Latency of resolving one utterance."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.GamesStarted, err = m.Int64Counter("assistant.games.started",
		metric.WithDescription("Tic-tac-toe sessions started."),
	); err != nil {
		return nil, err
	}
	if met.RemindersFired, err = m.Int64Counter("assistant.reminders.fired",
		metric.WithDescription("Reminders delivered."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// Nop returns instruments that record nothing.
func Nop() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}

func (m *Metrics) RecordResolution(ctx context.Context, stage string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("stage", stage))
	m.Resolutions.Add(ctx, 1, attrs)
	m.ResolveDuration.Record(ctx, seconds, attrs)
}

func (m *Metrics) RecordSkillFailure(ctx context.Context, skill string) {
	m.SkillFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("skill", skill)))
}
