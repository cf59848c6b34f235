package bucket

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	RecordRemaining bool `mapstructure:"record_remaining"`
}

// Metrics 桶的 OTel 指标（实现 component.MetricsProvider）
type Metrics struct {
	config     MetricsConfig
	registered bool
	mu         sync.RWMutex

	acquiredTotal metric.Int64Counter
	tokensTotal   metric.Int64Counter
	rejectedTotal metric.Int64Counter
	waitTotal     metric.Int64Counter
	waitSeconds   metric.Float64Histogram
	remaining     metric.Int64ObservableGauge

	source func() []Snapshot
}

// NewMetrics 创建指标；需调用 RegisterMetrics 后才开始记录
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{config: cfg}
}

func (m *Metrics) MetricsName() string { return "throttle_bucket" }

func (m *Metrics) IsMetricsEnabled() bool { return m.config.Enabled }

// RegisterMetrics 注册所有仪表，重复调用无副作用
func (m *Metrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	var err error
	if m.acquiredTotal, err = meter.Int64Counter(
		"throttle_bucket_acquired_total",
		metric.WithDescription("Total number of successful acquisitions"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}
	if m.tokensTotal, err = meter.Int64Counter(
		"throttle_bucket_tokens_total",
		metric.WithDescription("Total number of tokens consumed"),
		metric.WithUnit("{token}"),
	); err != nil {
		return err
	}
	if m.rejectedTotal, err = meter.Int64Counter(
		"throttle_bucket_rejected_total",
		metric.WithDescription("Total number of rejected acquisitions"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}
	if m.waitTotal, err = meter.Int64Counter(
		"throttle_bucket_wait_total",
		metric.WithDescription("Total number of acquisitions that had to wait"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}
	if m.waitSeconds, err = meter.Float64Histogram(
		"throttle_bucket_wait_seconds",
		metric.WithDescription("Time spent waiting for tokens"),
		metric.WithUnit("s"),
	); err != nil {
		return err
	}

	if m.config.RecordRemaining {
		if m.remaining, err = meter.Int64ObservableGauge(
			"throttle_bucket_remaining",
			metric.WithDescription("Current remaining tokens"),
			metric.WithUnit("{token}"),
			metric.WithInt64Callback(m.collectRemaining),
		); err != nil {
			return err
		}
	}

	m.registered = true
	return nil
}

// IsRegistered 是否已注册
func (m *Metrics) IsRegistered() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registered
}

func (m *Metrics) observe(source func() []Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = source
}

func (m *Metrics) collectRemaining(_ context.Context, observer metric.Int64Observer) error {
	m.mu.RLock()
	source := m.source
	m.mu.RUnlock()
	if source == nil {
		return nil
	}

	for _, s := range source() {
		observer.Observe(s.Remaining, metric.WithAttributes(attribute.String("bucket_id", s.ID)))
	}
	return nil
}

func (m *Metrics) record(ctx context.Context, ev Event) {
	if !m.IsRegistered() {
		return
	}

	attrs := metric.WithAttributes(attribute.String("bucket_id", ev.BucketID()))
	switch e := ev.(type) {
	case *AcquiredEvent:
		m.acquiredTotal.Add(ctx, 1, attrs)
		m.tokensTotal.Add(ctx, e.Tokens, attrs)
		if e.Waited > 0 {
			m.waitSeconds.Record(ctx, e.Waited.Seconds(), attrs)
		}
	case *RejectedEvent:
		m.rejectedTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("bucket_id", e.BucketID()),
			attribute.String("reason", e.Reason),
		))
	case *WaitEvent:
		if e.Type() == EventWaitStart {
			m.waitTotal.Add(ctx, 1, attrs)
		}
	}
}
