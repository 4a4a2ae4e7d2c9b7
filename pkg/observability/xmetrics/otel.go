package xmetrics

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/telelog/pkg/observability/xcomponent"
)

const (
	defaultInstrumentationName = "github.com/omeyang/telelog/xmetrics"

	metricProfileDuration   = "telelog.profile.duration"
	metricComponentTotal    = "telelog.component.total"
	metricComponentActive   = "telelog.component.active"
	metricComponentDuration = "telelog.component.duration"
)

type otelConfig struct {
	instrumentationName string
	tracerProvider      trace.TracerProvider
	meterProvider       metric.MeterProvider
	buckets             []float64
}

// Option 定义 OTel Observer 的配置选项。
type Option func(*otelConfig)

// WithInstrumentationName 设置 OTel instrumentation 名称。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithTracerProvider 设置 TracerProvider。
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.tracerProvider = provider
		}
	}
}

// WithMeterProvider 设置 MeterProvider。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// WithDurationBuckets 设置两个耗时直方图的桶边界（毫秒），必须严格递增。
func WithDurationBuckets(bounds ...float64) Option {
	return func(cfg *otelConfig) {
		cfg.buckets = append([]float64(nil), bounds...)
	}
}

// OTelObserver 基于 OpenTelemetry 的 Observer。
type OTelObserver struct {
	tracer            trace.Tracer
	profileDuration   metric.Float64Histogram
	componentTotal    metric.Int64Counter
	componentActive   metric.Int64UpDownCounter
	componentDuration metric.Float64Histogram

	mu    sync.Mutex
	spans map[uint64]trace.Span // 活跃组件 ID → span
}

// NewOTelObserver 创建基于 OpenTelemetry 的 Observer。
//
// 未指定 provider 时使用 otel 全局 provider。
func NewOTelObserver(opts ...Option) (*OTelObserver, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		tracerProvider:      otel.GetTracerProvider(),
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt == nil {
			return nil, ErrNilOption
		}
		opt(cfg)
	}
	if !sort.Float64sAreSorted(cfg.buckets) || hasDuplicate(cfg.buckets) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBuckets, cfg.buckets)
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)
	histOpts := func(desc string) []metric.Float64HistogramOption {
		o := []metric.Float64HistogramOption{
			metric.WithDescription(desc),
			metric.WithUnit("ms"),
		}
		if len(cfg.buckets) > 0 {
			o = append(o, metric.WithExplicitBucketBoundaries(cfg.buckets...))
		}
		return o
	}

	profileDuration, err := meter.Float64Histogram(metricProfileDuration, histOpts("profiled operation duration")...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateHistogram, err)
	}
	componentDuration, err := meter.Float64Histogram(metricComponentDuration, histOpts("component duration")...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateHistogram, err)
	}
	componentTotal, err := meter.Int64Counter(
		metricComponentTotal,
		metric.WithDescription("completed components"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}
	componentActive, err := meter.Int64UpDownCounter(
		metricComponentActive,
		metric.WithDescription("components currently running"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}

	return &OTelObserver{
		tracer:            cfg.tracerProvider.Tracer(cfg.instrumentationName),
		profileDuration:   profileDuration,
		componentTotal:    componentTotal,
		componentActive:   componentActive,
		componentDuration: componentDuration,
		spans:             make(map[uint64]trace.Span),
	}, nil
}

func hasDuplicate(sorted []float64) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return true
		}
	}
	return false
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// ProfileCompleted 记录剖析耗时
func (o *OTelObserver) ProfileCompleted(ctx context.Context, p Profile) {
	attrs := make([]attribute.KeyValue, 0, 2+len(p.Attrs))
	attrs = append(attrs,
		attribute.String("logger", p.Logger),
		attribute.String("operation", p.Operation),
	)
	attrs = append(attrs, attrsToOTel(p.Attrs)...)
	// 指标记录不受请求 context 取消影响
	o.profileDuration.Record(context.WithoutCancel(ctx), milliseconds(p.Elapsed), metric.WithAttributes(attrs...))
}

// ComponentStarted 为组件开启 span
//
// 父组件仍有活跃 span 时以它为父 span，否则沿用 ctx 中的 span。
func (o *OTelObserver) ComponentStarted(ctx context.Context, n xcomponent.Node) {
	if ctx == nil {
		ctx = context.Background()
	}
	o.mu.Lock()
	parent, ok := o.spans[n.ParentID]
	o.mu.Unlock()
	if ok && n.ParentID != 0 {
		ctx = trace.ContextWithSpan(ctx, parent)
	}

	_, span := o.tracer.Start(ctx, n.Name,
		trace.WithTimestamp(n.Start),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("component.id", strconv.FormatUint(n.ID, 10)),
			attribute.String("component.parent_id", strconv.FormatUint(n.ParentID, 10)),
			attribute.String("component.chain", n.Chain.String()),
		),
	)

	o.mu.Lock()
	o.spans[n.ID] = span
	o.mu.Unlock()

	o.componentActive.Add(context.WithoutCancel(ctx), 1,
		metric.WithAttributes(attribute.String("component", n.Name)))
}

// ComponentCompleted 结束组件 span 并记录指标
func (o *OTelObserver) ComponentCompleted(ctx context.Context, n xcomponent.Node) {
	if ctx == nil {
		ctx = context.Background()
	}
	o.mu.Lock()
	span, ok := o.spans[n.ID]
	delete(o.spans, n.ID)
	o.mu.Unlock()

	metricsCtx := context.WithoutCancel(ctx)
	attrs := metric.WithAttributes(attribute.String("component", n.Name))
	o.componentTotal.Add(metricsCtx, 1, attrs)
	o.componentDuration.Record(metricsCtx, milliseconds(n.Duration()), attrs)

	if !ok {
		return
	}
	o.componentActive.Add(metricsCtx, -1, attrs)
	if len(n.Metadata) > 0 {
		keys := make([]string, 0, len(n.Metadata))
		for k := range n.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		kvs := make([]attribute.KeyValue, 0, len(keys))
		for _, k := range keys {
			kvs = append(kvs, attribute.String("component.meta."+k, n.Metadata[k]))
		}
		span.SetAttributes(kvs...)
	}
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(n.End))
}

// OpenSpans 返回尚未结束的组件 span 数量
func (o *OTelObserver) OpenSpans() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.spans)
}

// Discard 丢弃所有未结束的 span 而不导出，通常在 Tracker.Reset 之后调用
func (o *OTelObserver) Discard() {
	o.mu.Lock()
	o.spans = make(map[uint64]trace.Span)
	o.mu.Unlock()
}
