package bucket

import (
	"context"
	"sort"
	"sync"

	"github.com/KOMKZ/go-yogan-throttle/logger"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Registry 进程内桶注册表（按 ID 惰性创建）
// 同一 ID 以首次配置为准，后续不同配置被忽略
type Registry struct {
	mu      sync.RWMutex
	buckets map[string]*TokenBucket

	clock   clockwork.Clock
	bus     EventBus
	metrics *Metrics
	logger  *logger.CtxZapLogger
}

// Option 注册表选项
type Option func(*Registry)

// WithClock 注入时钟（测试用 clockwork.NewFakeClock）
func WithClock(clock clockwork.Clock) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithEventBus 发布桶事件
func WithEventBus(bus EventBus) Option {
	return func(r *Registry) { r.bus = bus }
}

// WithMetrics 记录 OTel 指标
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithLogger 指定日志
func WithLogger(l *logger.CtxZapLogger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry 创建空注册表
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{buckets: make(map[string]*TokenBucket)}
	for _, opt := range opts {
		opt(r)
	}
	if r.clock == nil {
		r.clock = clockwork.NewRealClock()
	}
	if r.logger == nil {
		r.logger = logger.GetLogger("throttle")
	}
	if r.metrics != nil {
		r.metrics.observe(r.Snapshots)
	}
	return r
}

// GetOrCreate 获取或创建桶
// 新建时校验配置（零值字段先填默认值）；已存在时忽略 cfg
func (r *Registry) GetOrCreate(id string, cfg Config) (*TokenBucket, error) {
	r.mu.RLock()
	b, ok := r.buckets[id]
	r.mu.RUnlock()
	if ok {
		r.warnMismatch(b, cfg)
		return b, nil
	}

	cfg.ApplyDefaults()
	if err := (Spec{ID: id, Config: cfg}).Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.buckets[id]; ok {
		r.warnMismatch(b, cfg)
		return b, nil
	}

	b = newTokenBucket(id, cfg, r.clock, r.emit)
	r.buckets[id] = b

	r.logger.DebugCtx(context.Background(), "bucket created",
		zap.String("bucket_id", id),
		zap.Int64("capacity", cfg.Capacity),
		zap.Int64("refill_amount", cfg.RefillAmount),
		zap.Duration("refill_interval", cfg.RefillInterval),
	)
	return b, nil
}

// Register 按 Spec 批量创建
func (r *Registry) Register(specs ...Spec) error {
	for _, s := range specs {
		if _, err := r.GetOrCreate(s.ID, s.Config); err != nil {
			return err
		}
	}
	return nil
}

// Get 获取已存在的桶
func (r *Registry) Get(id string) (*TokenBucket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.buckets[id]
	return b, ok
}

// IDs 所有桶 ID（排序）
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.buckets))
	for id := range r.buckets {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Snapshots 所有桶的当前状态（按 ID 排序）
func (r *Registry) Snapshots() []Snapshot {
	ids := r.IDs()
	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		if b, ok := r.Get(id); ok {
			out = append(out, b.Read())
		}
	}
	return out
}

// Dispose 释放并移除桶（测试和运维使用），正在等待的调用返回 ErrBucketDisposed
func (r *Registry) Dispose(id string) bool {
	r.mu.Lock()
	b, ok := r.buckets[id]
	delete(r.buckets, id)
	r.mu.Unlock()

	if ok {
		b.dispose()
	}
	return ok
}

func (r *Registry) emit(ctx context.Context, ev Event) {
	if r.metrics != nil {
		r.metrics.record(ctx, ev)
	}
	if r.bus != nil {
		r.bus.Publish(ev)
	}
}

func (r *Registry) warnMismatch(b *TokenBucket, cfg Config) {
	cfg.ApplyDefaults()
	if cfg == b.cfg {
		return
	}
	r.logger.DebugCtx(context.Background(), "bucket config ignored, first config wins",
		zap.String("bucket_id", b.id),
		zap.Int64("capacity", b.cfg.Capacity),
		zap.Int64("ignored_capacity", cfg.Capacity),
	)
}

// Close 关闭事件总线，已缓冲的事件分发完毕后返回
func (r *Registry) Close() {
	if r.bus != nil {
		r.bus.Close()
	}
}

// Shutdown 实现 do.Shutdowner
func (r *Registry) Shutdown() {
	r.Close()
}
