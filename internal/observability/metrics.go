package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// MeterName is the instrumentation scope used for ledger metrics.
const MeterName = "github.com/cimillas/shelfkeeper"

// MetricsCollector records ledger counters and durations on OpenTelemetry
// instruments. Instruments are created lazily per metric name.
type MetricsCollector struct {
	meter metric.Meter
	log   *zap.Logger

	mu         sync.Mutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

func NewMetricsCollector(meter metric.Meter, logger *zap.Logger) *MetricsCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsCollector{
		meter:      meter,
		log:        logger,
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

func (m *MetricsCollector) IncrementCounter(ctx context.Context, name string, labels map[string]string) {
	counter := m.counter(name)
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attributes(labels)...))
}

// RecordDuration records d in seconds.
func (m *MetricsCollector) RecordDuration(ctx context.Context, name string, d time.Duration, labels map[string]string) {
	histogram := m.histogram(name)
	if histogram == nil {
		return
	}
	histogram.Record(ctx, d.Seconds(), metric.WithAttributes(attributes(labels)...))
}

func (m *MetricsCollector) counter(name string) metric.Int64Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.counters[name]; ok {
		return c
	}
	c, err := m.meter.Int64Counter(name, metric.WithDescription("Loan ledger operations"))
	if err != nil {
		m.log.Warn("create counter", zap.String("metric", name), zap.Error(err))
		return nil
	}
	m.counters[name] = c
	return c
}

func (m *MetricsCollector) histogram(name string) metric.Float64Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.histograms[name]; ok {
		return h
	}
	h, err := m.meter.Float64Histogram(name,
		metric.WithDescription("Loan ledger operation duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		m.log.Warn("create histogram", zap.String("metric", name), zap.Error(err))
		return nil
	}
	m.histograms[name] = h
	return h
}

func attributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}
