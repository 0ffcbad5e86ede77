package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingMetrics(t *testing.T) (*AutomationMetrics, *sdkmetric.ManualReader, *tracetest.SpanRecorder) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
		_ = tp.Shutdown(context.Background())
	})
	return NewAutomationMetricsWith(tp.Tracer("test"), mp.Meter("test")), reader, recorder
}

func sumByAttr(t *testing.T, reader *sdkmetric.ManualReader, name, key string) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key(key))
				out[v.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestAutomationMetrics_Outcomes(t *testing.T) {
	metrics, reader, recorder := newRecordingMetrics(t)
	ctx := context.Background()

	_, ev := metrics.Start(ctx, "issue", 1)
	ev.Transitioned(ctx, "In Progress", "Done")
	ev.End(ctx, OutcomeTransitioned, nil)

	_, ev = metrics.Start(ctx, "issue", 2)
	ev.End(ctx, OutcomeNoop, nil)

	_, ev = metrics.Start(ctx, "action_item", 3)
	ev.End(ctx, OutcomeFailed, errors.New("boom"))

	assert.Equal(t, map[string]int64{
		OutcomeTransitioned: 1,
		OutcomeNoop:         1,
		OutcomeFailed:       1,
	}, sumByAttr(t, reader, "automation.evaluations", "outcome"))
	assert.Equal(t, map[string]int64{"Done": 1}, sumByAttr(t, reader, "automation.transitions", "to_status"))

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "automation.evaluate", spans[0].Name())
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "status.transition", spans[0].Events()[0].Name)
	assert.Equal(t, codes.Error, spans[2].Status().Code)
}

func TestInit_DisabledInstallsNoop(t *testing.T) {
	require.NoError(t, Init(context.Background(), config.TelemetryConfig{}))
	Shutdown(context.Background())

	// Instruments from a no-op provider accept recordings.
	metrics := NewAutomationMetrics()
	ctx, ev := metrics.Start(context.Background(), "issue", 1)
	ev.End(ctx, OutcomeNoop, nil)
}

func TestInit_EnabledWithoutExporters(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})

	require.NoError(t, Init(context.Background(), config.TelemetryConfig{Enabled: true}))
	_, ok := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, ok, "expected an SDK meter provider")
	Shutdown(context.Background())
}
