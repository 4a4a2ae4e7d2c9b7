package xmetrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/omeyang/telelog/pkg/observability/xcomponent"
)

// ============================================================================
// 测试辅助函数
// ============================================================================

func newTestTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exporter
}

func newTestMeterProvider(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func newTestObserver(t *testing.T) (*OTelObserver, *sdkmetric.ManualReader, *tracetest.InMemoryExporter) {
	t.Helper()
	tp, exporter := newTestTracerProvider(t)
	mp, reader := newTestMeterProvider(t)
	obs, err := NewOTelObserver(WithTracerProvider(tp), WithMeterProvider(mp))
	require.NoError(t, err)
	return obs, reader, exporter
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func attrValue(set attribute.Set, key string) string {
	v, ok := set.Value(attribute.Key(key))
	if !ok {
		return ""
	}
	return v.Emit()
}

// ============================================================================
// NewOTelObserver
// ============================================================================

func TestNewOTelObserver_Default(t *testing.T) {
	obs, err := NewOTelObserver()
	require.NoError(t, err)
	require.NotNil(t, obs)
}

func TestNewOTelObserver_Options(t *testing.T) {
	tp, _ := newTestTracerProvider(t)
	mp, _ := newTestMeterProvider(t)

	obs, err := NewOTelObserver(
		WithInstrumentationName("test-instrumentation"),
		WithInstrumentationName(""),
		WithTracerProvider(tp),
		WithTracerProvider(nil),
		WithMeterProvider(mp),
		WithMeterProvider(nil),
		WithDurationBuckets(1, 5, 10, 50),
	)
	require.NoError(t, err)
	require.NotNil(t, obs)
}

func TestNewOTelObserver_Errors(t *testing.T) {
	_, err := NewOTelObserver(nil)
	require.ErrorIs(t, err, ErrNilOption)

	_, err = NewOTelObserver(WithDurationBuckets(10, 5))
	require.ErrorIs(t, err, ErrInvalidBuckets)

	_, err = NewOTelObserver(WithDurationBuckets(1, 1, 2))
	require.ErrorIs(t, err, ErrInvalidBuckets)
}

// ============================================================================
// 剖析
// ============================================================================

func TestOTelObserver_ProfileCompleted(t *testing.T) {
	obs, reader, _ := newTestObserver(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	obs.ProfileCompleted(ctx, Profile{
		Logger:    "app",
		Operation: "db_query",
		Elapsed:   1500 * time.Microsecond,
		Attrs:     []Attr{String("table", "users"), String("", "skipped")},
	})

	m, ok := collect(t, reader)[metricProfileDuration]
	require.True(t, ok)
	assert.Equal(t, "ms", m.Unit)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(1), dp.Count)
	assert.InDelta(t, 1.5, dp.Sum, 1e-9)
	assert.Equal(t, "app", attrValue(dp.Attributes, "logger"))
	assert.Equal(t, "db_query", attrValue(dp.Attributes, "operation"))
	assert.Equal(t, "users", attrValue(dp.Attributes, "table"))
}

// ============================================================================
// 组件
// ============================================================================

func TestOTelObserver_ComponentSpans(t *testing.T) {
	obs, reader, exporter := newTestObserver(t)
	tracker := xcomponent.NewTracker(xcomponent.WithHook(obs))
	ctx := context.Background()

	parent := tracker.Track(ctx, "WebServer")
	child := tracker.Track(ctx, "Database")
	child.Annotate("memory", "12MB")
	child.Release()
	parent.Release()

	assert.Zero(t, obs.OpenSpans())

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	byName := make(map[string]tracetest.SpanStub, len(spans))
	for _, s := range spans {
		byName[s.Name] = s
	}
	ws, db := byName["WebServer"], byName["Database"]
	assert.Equal(t, ws.SpanContext.SpanID(), db.Parent.SpanID())
	assert.Equal(t, ws.SpanContext.TraceID(), db.SpanContext.TraceID())
	assert.Equal(t, codes.Ok, db.Status.Code)

	nodes := tracker.Components()
	assert.True(t, ws.StartTime.Equal(nodes[0].Start))
	assert.True(t, ws.EndTime.Equal(nodes[0].End))

	var sawMemory bool
	for _, kv := range db.Attributes {
		if kv.Key == "component.meta.memory" {
			sawMemory = true
			assert.Equal(t, "12MB", kv.Value.AsString())
		}
	}
	assert.True(t, sawMemory)

	metrics := collect(t, reader)
	total, ok := metrics[metricComponentTotal].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var sum int64
	for _, dp := range total.DataPoints {
		sum += dp.Value
	}
	assert.Equal(t, int64(2), sum)

	active, ok := metrics[metricComponentActive].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	for _, dp := range active.DataPoints {
		assert.Zero(t, dp.Value, attrValue(dp.Attributes, "component"))
	}

	dur, ok := metrics[metricComponentDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, dur.DataPoints, 2)
}

func TestOTelObserver_ActiveComponent(t *testing.T) {
	obs, reader, exporter := newTestObserver(t)
	tracker := xcomponent.NewTracker(xcomponent.WithHook(obs))

	g := tracker.Track(context.Background(), "long-running")
	assert.Equal(t, 1, obs.OpenSpans())
	assert.Empty(t, exporter.GetSpans())

	active, ok := collect(t, reader)[metricComponentActive].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(1), active.DataPoints[0].Value)

	g.Release()
	assert.Len(t, exporter.GetSpans(), 1)
}

func TestOTelObserver_Discard(t *testing.T) {
	obs, _, exporter := newTestObserver(t)
	tracker := xcomponent.NewTracker(xcomponent.WithHook(obs))

	tracker.Track(context.Background(), "orphan")
	tracker.Reset()
	obs.Discard()
	assert.Zero(t, obs.OpenSpans())
	assert.Empty(t, exporter.GetSpans())
}

func TestOTelObserver_CompletedWithoutStart(t *testing.T) {
	obs, reader, exporter := newTestObserver(t)
	now := time.Now()
	//nolint:staticcheck // nil ctx 容错
	obs.ComponentCompleted(nil, xcomponent.Node{ID: 42, Name: "late", Start: now, End: now.Add(time.Millisecond)})

	assert.Empty(t, exporter.GetSpans())
	_, ok := collect(t, reader)[metricComponentTotal]
	assert.True(t, ok)
}
