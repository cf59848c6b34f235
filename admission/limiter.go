// Package admission 多桶组合准入
//
// 一次外呼可能同时计入多个桶（全局 + 业务线）。同步准入按顺序对每个桶做非阻塞扣减，
// 任一失败即返回，之前已扣减的桶不退还；异步准入用于响应后补扣，阻塞直到令牌足够。
package admission

import (
	"context"

	"github.com/KOMKZ/go-yogan-throttle/bucket"
	"github.com/KOMKZ/go-yogan-throttle/classify"
	"github.com/KOMKZ/go-yogan-throttle/logger"
	"go.uber.org/zap"
)

// DefaultMaxWeightFactor 单次权重上限 = 容量 * K
const DefaultMaxWeightFactor int64 = 10

// Charge 对单个桶的一次扣减
// Config 非空时按需创建桶，为空时桶必须已注册
type Charge struct {
	BucketID string
	Weight   int64
	Config   *bucket.Config
}

// Limiter 组合准入器
type Limiter struct {
	registry        *bucket.Registry
	maxWeightFactor int64
	logger          *logger.CtxZapLogger
}

// Option 准入器选项
type Option func(*Limiter)

// WithMaxWeightFactor 设置权重上限系数（<=0 使用默认值）
func WithMaxWeightFactor(k int64) Option {
	return func(l *Limiter) {
		if k > 0 {
			l.maxWeightFactor = k
		}
	}
}

// WithLogger 指定日志
func WithLogger(log *logger.CtxZapLogger) Option {
	return func(l *Limiter) { l.logger = log }
}

// NewLimiter 创建准入器
func NewLimiter(registry *bucket.Registry, opts ...Option) *Limiter {
	l := &Limiter{
		registry:        registry,
		maxWeightFactor: DefaultMaxWeightFactor,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.GetLogger("throttle")
	}
	return l
}

// Registry 底层桶注册表
func (l *Limiter) Registry() *bucket.Registry {
	return l.registry
}

// MaxWeightFactor 权重上限系数
func (l *Limiter) MaxWeightFactor() int64 {
	return l.maxWeightFactor
}

// AdmitSync 按顺序非阻塞扣减所有桶
// 第一个失败的桶决定返回的错误，之前成功的扣减不退还
func (l *Limiter) AdmitSync(ctx context.Context, rc classify.RequestContext, charges ...Charge) error {
	for _, c := range charges {
		b, err := l.resolve(c)
		if err != nil {
			return newError(rc, c.BucketID, c.Weight, err)
		}
		if err := l.normalize(b, c.Weight); err != nil {
			return newError(rc, c.BucketID, c.Weight, err)
		}
		if err := b.TryAcquire(ctx, c.Weight); err != nil {
			l.logger.DebugCtx(ctx, "admission rejected",
				zap.String("bucket_id", c.BucketID),
				zap.Int64("weight", c.Weight),
				zap.String("path", rc.Path),
				zap.String("sub_type", rc.SubType),
				zap.Error(err),
			)
			return newError(rc, c.BucketID, c.Weight, err)
		}
	}
	return nil
}

// AdmitAsync 阻塞扣减单个已注册的桶
// 权重大于容量时按容量分块依次获取；ctx 取消时已获取的分块不退还
func (l *Limiter) AdmitAsync(ctx context.Context, rc classify.RequestContext, bucketID string, weight int64) error {
	return l.AdmitAsyncCharge(ctx, rc, Charge{BucketID: bucketID, Weight: weight})
}

// AdmitAsyncCharge 同 AdmitAsync，桶不存在时可按 Charge.Config 创建
func (l *Limiter) AdmitAsyncCharge(ctx context.Context, rc classify.RequestContext, c Charge) error {
	b, err := l.resolve(c)
	if err != nil {
		return newError(rc, c.BucketID, c.Weight, err)
	}
	if err := l.normalize(b, c.Weight); err != nil {
		return newError(rc, c.BucketID, c.Weight, err)
	}

	capacity := b.Config().Capacity
	for remaining := c.Weight; remaining > 0; {
		chunk := min(capacity, remaining)
		if err := b.Acquire(ctx, chunk); err != nil {
			return newError(rc, c.BucketID, chunk, err)
		}
		remaining -= chunk
	}
	return nil
}

func (l *Limiter) resolve(c Charge) (*bucket.TokenBucket, error) {
	if c.Config != nil {
		return l.registry.GetOrCreate(c.BucketID, *c.Config)
	}
	b, ok := l.registry.Get(c.BucketID)
	if !ok {
		return nil, bucket.ErrBucketNotFound
	}
	return b, nil
}

// normalize 权重必须在 (0, 容量*K] 之内
func (l *Limiter) normalize(b *bucket.TokenBucket, weight int64) error {
	capacity := b.Config().Capacity
	if weight > 0 && weight <= capacity*l.maxWeightFactor {
		return nil
	}
	return &bucket.AcquireError{
		BucketID:  b.ID(),
		Requested: weight,
		Remaining: b.Read().Remaining,
		Capacity:  capacity,
		Err:       bucket.ErrExcessiveWeight.WithMsgf("weight %d out of range (0, %d]", weight, capacity*l.maxWeightFactor),
	}
}
