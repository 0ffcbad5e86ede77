package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const automationScopeName = instrumentationScope + "/automation"

// Evaluation outcomes.
const (
	OutcomeTransitioned = "transitioned"
	OutcomeNoop         = "noop"
	OutcomeFailed       = "failed"
)

// AutomationMetrics records one span and a set of counters per evaluation.
type AutomationMetrics struct {
	tracer      trace.Tracer
	evaluations metric.Int64Counter
	transitions metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewAutomationMetrics builds instruments from the global providers.
func NewAutomationMetrics() *AutomationMetrics {
	return NewAutomationMetricsWith(Tracer(automationScopeName), Meter(automationScopeName))
}

// NewAutomationMetricsWith builds instruments from an explicit tracer and meter.
func NewAutomationMetricsWith(tracer trace.Tracer, m metric.Meter) *AutomationMetrics {
	evaluations, _ := m.Int64Counter("automation.evaluations",
		metric.WithDescription("Work item evaluations by outcome"),
	)
	transitions, _ := m.Int64Counter("automation.transitions",
		metric.WithDescription("Status transitions applied by automation"),
	)
	duration, _ := m.Float64Histogram("automation.evaluation.duration",
		metric.WithDescription("Evaluation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	return &AutomationMetrics{
		tracer:      tracer,
		evaluations: evaluations,
		transitions: transitions,
		duration:    duration,
	}
}

// Evaluation is an in-flight evaluation started by Start.
type Evaluation struct {
	m          *AutomationMetrics
	span       trace.Span
	start      time.Time
	entityType string
}

// Start opens a span for evaluating one work item.
func (m *AutomationMetrics) Start(ctx context.Context, entityType string, id uint) (context.Context, *Evaluation) {
	ctx, span := m.tracer.Start(ctx, "automation.evaluate",
		trace.WithAttributes(
			attribute.String("entity.type", entityType),
			attribute.Int64("entity.id", int64(id)),
		),
	)
	return ctx, &Evaluation{m: m, span: span, start: time.Now(), entityType: entityType}
}

// End records the outcome and closes the span. err is only set for
// OutcomeFailed.
func (e *Evaluation) End(ctx context.Context, outcome string, err error) {
	attrs := metric.WithAttributes(
		attribute.String("entity.type", e.entityType),
		attribute.String("outcome", outcome),
	)
	e.m.evaluations.Add(ctx, 1, attrs)
	e.m.duration.Record(ctx, float64(time.Since(e.start).Microseconds())/1000, attrs)

	e.span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		e.span.RecordError(err)
		e.span.SetStatus(codes.Error, err.Error())
	}
	e.span.End()
}

// Transitioned counts an applied transition.
func (e *Evaluation) Transitioned(ctx context.Context, from, to string) {
	e.m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity.type", e.entityType),
		attribute.String("to_status", to),
	))
	e.span.AddEvent("status.transition", trace.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
