// Package gateway 外呼网关
//
// 一次调用依次经过：分类 → 计权（基础 + 估算）→ 多桶准入 → 发送（直接或经流控队列）
// → 按响应补扣额外权重 → 返回响应。
package gateway

import (
	"context"

	"github.com/KOMKZ/go-yogan-throttle/admission"
	"github.com/KOMKZ/go-yogan-throttle/bucket"
	"github.com/KOMKZ/go-yogan-throttle/classify"
	"github.com/KOMKZ/go-yogan-throttle/flowqueue"
	"github.com/KOMKZ/go-yogan-throttle/logger"
	"github.com/KOMKZ/go-yogan-throttle/transport"
	"github.com/KOMKZ/go-yogan-throttle/weight"
	"go.uber.org/zap"
)

// Gateway 外呼网关
type Gateway struct {
	profile   Profile
	limiter   *admission.Limiter
	transport transport.Transport
	queues    *flowqueue.Manager
	logger    *logger.CtxZapLogger
	blocking  bool
}

// Option 网关选项
type Option func(*Gateway)

// WithFlowQueue 流控队列管理器
func WithFlowQueue(m *flowqueue.Manager) Option {
	return func(g *Gateway) { g.queues = m }
}

// WithBlocking 准入时阻塞等待令牌
func WithBlocking(blocking bool) Option {
	return func(g *Gateway) { g.blocking = blocking }
}

// WithLogger 指定日志
func WithLogger(log *logger.CtxZapLogger) Option {
	return func(g *Gateway) { g.logger = log }
}

// New 创建网关并注册 profile 的预置桶
func New(profile Profile, limiter *admission.Limiter, tr transport.Transport, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		profile:   profile,
		limiter:   limiter,
		transport: tr,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logger.GetLogger("throttle")
	}
	if err := limiter.Registry().Register(profile.Buckets()...); err != nil {
		return nil, err
	}
	return g, nil
}

// Profile 当前 provider 规则
func (g *Gateway) Profile() Profile {
	return g.profile
}

// Snapshots 所有桶状态
func (g *Gateway) Snapshots() []bucket.Snapshot {
	return g.limiter.Registry().Snapshots()
}

// Call 发起一次受限流保护的外呼
// 准入失败返回 *admission.Error，不会发送请求
func (g *Gateway) Call(ctx context.Context, method, path string, body any) (any, error) {
	rc := g.profile.Classify(method, path, body)
	model := g.profile.Model()
	est := model.Estimate(rc)
	charges := g.profile.Charges(rc, est.Total())

	if err := g.admit(ctx, rc, charges); err != nil {
		g.logger.DebugCtx(ctx, "call rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("sub_type", rc.SubType),
			zap.Int64("weight", est.Total()),
			zap.Error(err),
		)
		return nil, err
	}

	resp, err := g.send(ctx, rc, body)
	if err != nil {
		return nil, err
	}

	if len(charges) > 0 {
		actual := model.ActualExtra(rc, resp)
		ids := make([]string, len(charges))
		for i, c := range charges {
			ids[i] = c.BucketID
		}
		// 响应已拿到，补扣不受调用方取消影响
		_ = weight.Reconcile(context.WithoutCancel(ctx), g.limiter, g.logger, rc, ids, est.Extra, actual)
	}
	return resp, nil
}

func (g *Gateway) admit(ctx context.Context, rc classify.RequestContext, charges []admission.Charge) error {
	if len(charges) == 0 {
		return nil
	}
	if !g.blocking {
		return g.limiter.AdmitSync(ctx, rc, charges...)
	}
	for _, c := range charges {
		if err := g.limiter.AdmitAsyncCharge(ctx, rc, c); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gateway) send(ctx context.Context, rc classify.RequestContext, body any) (any, error) {
	params := body
	if pm, ok := g.profile.(ParamsMapper); ok {
		params = pm.Params(body)
	}

	key, cfg, ok := g.profile.FlowControl(rc)
	if !ok {
		resp, err := g.transport.Send(ctx, rc.Method, rc.Path, params)
		if err != nil {
			return nil, ErrSendFailed.Wrap(err).WithData("path", rc.Path)
		}
		return resp, nil
	}

	if g.queues == nil {
		return nil, ErrNoFlowQueue.WithData("path", rc.Path)
	}
	if err := g.queues.Queue(key, cfg); err != nil {
		return nil, err
	}
	id, err := g.queues.EnqueueTo(key, rc.Method, rc.Path, params)
	if err != nil {
		return nil, err
	}
	return g.queues.Await(ctx, id, 0)
}
