package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/KOMKZ/go-yogan-throttle/admission"
	"github.com/KOMKZ/go-yogan-throttle/bucket"
	"github.com/KOMKZ/go-yogan-throttle/component"
	"github.com/KOMKZ/go-yogan-throttle/flowqueue"
	"github.com/KOMKZ/go-yogan-throttle/logger"
	"github.com/KOMKZ/go-yogan-throttle/transport"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ProfileResolver 按配置选择 Profile（provider.Lookup）
type ProfileResolver func(cfg Config) (Profile, error)

// Component 限流组件
//
// 实现 component.Component 和 component.MetricsProvider
// 依赖：config, logger
type Component struct {
	resolve   ProfileResolver
	transport transport.Transport

	config   Config
	metrics  *bucket.Metrics
	registry *bucket.Registry
	limiter  *admission.Limiter
	queues   *flowqueue.Manager
	gateway  *Gateway
}

// NewComponent 创建限流组件
func NewComponent(resolve ProfileResolver, tr transport.Transport) *Component {
	return &Component{resolve: resolve, transport: tr}
}

// Name 组件名称
func (c *Component) Name() string {
	return component.ComponentThrottle
}

// DependsOn 依赖配置和日志组件
func (c *Component) DependsOn() []string {
	return []string{component.ComponentConfig, component.ComponentLogger}
}

// Init 读取并校验 throttle 配置
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	log := logger.GetLogger("throttle")

	var cfg Config
	if err := loader.Unmarshal(ConfigKey, &cfg); err != nil {
		return fmt.Errorf("读取限流配置失败: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.config = cfg
	c.metrics = bucket.NewMetrics(cfg.Metrics)

	log.DebugCtx(ctx, "✅ 限流配置已加载",
		zap.String("provider", cfg.Provider),
		zap.Int("buckets", len(cfg.Buckets)),
		zap.Int("queues", len(cfg.Queues)),
		zap.Bool("blocking", cfg.Blocking),
	)
	return nil
}

// Start 创建桶注册表、准入器、流控队列和网关
func (c *Component) Start(ctx context.Context) error {
	log := logger.GetLogger("throttle")

	profile, err := c.resolve(c.config)
	if err != nil {
		return err
	}

	regOpts := []bucket.Option{bucket.WithLogger(log)}
	if c.metrics != nil && c.metrics.IsMetricsEnabled() {
		regOpts = append(regOpts, bucket.WithMetrics(c.metrics))
	}
	if c.config.LogEvents {
		bus := bucket.NewEventBus(0)
		bus.Subscribe(bucket.LogListener(log))
		regOpts = append(regOpts, bucket.WithEventBus(bus))
	}
	c.registry = bucket.NewRegistry(regOpts...)
	if err := c.registry.Register(c.config.Buckets...); err != nil {
		return err
	}

	c.limiter = admission.NewLimiter(c.registry,
		admission.WithMaxWeightFactor(c.config.MaxWeightFactor),
		admission.WithLogger(log),
	)

	c.queues, err = flowqueue.NewManager(c.transport,
		flowqueue.WithPoolSize(c.config.PoolSize),
		flowqueue.WithResultTTL(c.config.ResultTTL),
		flowqueue.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("创建流控队列失败: %w", err)
	}
	for _, q := range c.config.Queues {
		if err := c.queues.Queue(flowqueue.Key("", q.Path), q.Config); err != nil {
			_ = c.queues.Close()
			return err
		}
	}

	c.gateway, err = New(profile, c.limiter, c.transport,
		WithFlowQueue(c.queues),
		WithBlocking(c.config.Blocking),
		WithLogger(log),
	)
	if err != nil {
		_ = c.queues.Close()
		return err
	}

	log.DebugCtx(ctx, "✅ 限流组件启动成功",
		zap.String("provider", profile.Name()),
		zap.Strings("buckets", c.registry.IDs()),
	)
	return nil
}

// Stop 关闭流控队列和桶事件总线
func (c *Component) Stop(ctx context.Context) error {
	if c.registry != nil {
		c.registry.Close()
	}
	if c.queues == nil {
		return nil
	}
	if err := c.queues.Close(); err != nil {
		return fmt.Errorf("关闭流控队列失败: %w", err)
	}
	return nil
}

// GetGateway 获取网关（Start 之后可用）
func (c *Component) GetGateway() *Gateway {
	return c.gateway
}

// GetConfig 已加载的配置
func (c *Component) GetConfig() Config {
	return c.config
}

// Check 实现 component.HealthChecker
func (c *Component) Check(ctx context.Context) error {
	if c.gateway == nil {
		return errors.New("throttle component not started")
	}
	return c.gateway.HealthCheck(ctx)
}

func (c *Component) MetricsName() string { return "throttle" }

func (c *Component) IsMetricsEnabled() bool {
	return c.metrics != nil && c.metrics.IsMetricsEnabled()
}

// RegisterMetrics 注册桶指标
func (c *Component) RegisterMetrics(meter metric.Meter) error {
	if c.metrics == nil {
		return nil
	}
	return c.metrics.RegisterMetrics(meter)
}

var (
	_ component.Component       = (*Component)(nil)
	_ component.MetricsProvider = (*Component)(nil)
	_ component.HealthChecker   = (*Component)(nil)
)
