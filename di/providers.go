package di

import (
	"github.com/KOMKZ/go-yogan-throttle/admission"
	"github.com/KOMKZ/go-yogan-throttle/bucket"
	"github.com/KOMKZ/go-yogan-throttle/config"
	"github.com/KOMKZ/go-yogan-throttle/flowqueue"
	"github.com/KOMKZ/go-yogan-throttle/gateway"
	"github.com/KOMKZ/go-yogan-throttle/health"
	"github.com/KOMKZ/go-yogan-throttle/logger"
	"github.com/KOMKZ/go-yogan-throttle/provider"
	"github.com/KOMKZ/go-yogan-throttle/transport"
	"github.com/KOMKZ/go-yogan-throttle/validator"
	"github.com/samber/do/v2"
)

// ============================================
// 基础组件 Provider（Config, Logger）
// ============================================

// ConfigOptions 配置组件选项
type ConfigOptions struct {
	ConfigPath   string // 配置目录路径
	ConfigPrefix string // 环境变量前缀，空表示不读取环境变量
	Env          string // 环境名，空时取 APP_ENV / ENV
}

// ProvideConfigLoader 创建 config.Loader 的 Provider，无依赖
func ProvideConfigLoader(opts ConfigOptions) func(do.Injector) (*config.Loader, error) {
	return func(i do.Injector) (*config.Loader, error) {
		if opts.ConfigPath == "" {
			opts.ConfigPath = "configs"
		}
		return config.NewLoaderBuilder().
			WithConfigPath(opts.ConfigPath).
			WithEnvPrefix(opts.ConfigPrefix).
			WithEnv(opts.Env).
			Build()
	}
}

// ProvideLoggerManager 创建 logger.Manager 的 Provider
// 依赖：config.Loader，读取失败时使用默认配置，配置非法时返回错误
func ProvideLoggerManager(i do.Injector) (*logger.Manager, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return logger.NewManager(logger.DefaultManagerConfig()), nil
	}

	var loggerCfg logger.ManagerConfig
	if err := loader.Unmarshal("logger", &loggerCfg); err != nil {
		return logger.NewManager(logger.DefaultManagerConfig()), nil
	}
	loggerCfg.ApplyDefaults()
	if err := validator.ValidateAll(nil, loggerCfg); err != nil {
		return nil, err
	}
	return logger.NewManager(loggerCfg), nil
}

// ProvideCtxLogger 创建命名 CtxZapLogger 的 Provider 工厂
func ProvideCtxLogger(moduleName string) func(do.Injector) (*logger.CtxZapLogger, error) {
	return func(i do.Injector) (*logger.CtxZapLogger, error) {
		mgr, err := do.Invoke[*logger.Manager](i)
		if err != nil {
			return logger.GetLogger(moduleName), nil
		}
		return mgr.GetLogger(moduleName), nil
	}
}

// ============================================
// 限流 Provider
// 依赖：Config, Logger；Transport 由调用方 ProvideValue
// ============================================

// ProvideThrottleConfig 读取、填充默认值并校验 throttle 配置
func ProvideThrottleConfig(i do.Injector) (gateway.Config, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return gateway.Config{}, err
	}

	var cfg gateway.Config
	if err := loader.Unmarshal(gateway.ConfigKey, &cfg); err != nil {
		return gateway.Config{}, err
	}
	cfg.ApplyDefaults()
	if err := validator.ValidateAll(nil, cfg); err != nil {
		return gateway.Config{}, err
	}
	return cfg, nil
}

// ProvideBucketMetrics 桶指标（未启用时仍返回实例，由 IsMetricsEnabled 判断）
func ProvideBucketMetrics(i do.Injector) (*bucket.Metrics, error) {
	cfg, err := do.Invoke[gateway.Config](i)
	if err != nil {
		return nil, err
	}
	return bucket.NewMetrics(cfg.Metrics), nil
}

// ProvideBucketRegistry 创建桶注册表并注册配置中的桶，注入器关闭时关闭事件总线
func ProvideBucketRegistry(i do.Injector) (*bucket.Registry, error) {
	cfg, err := do.Invoke[gateway.Config](i)
	if err != nil {
		return nil, err
	}
	log := do.MustInvoke[*logger.CtxZapLogger](i)

	opts := []bucket.Option{bucket.WithLogger(log)}
	if m, err := do.Invoke[*bucket.Metrics](i); err == nil && m.IsMetricsEnabled() {
		opts = append(opts, bucket.WithMetrics(m))
	}
	if cfg.LogEvents {
		bus := bucket.NewEventBus(0)
		bus.Subscribe(bucket.LogListener(log))
		opts = append(opts, bucket.WithEventBus(bus))
	}
	reg := bucket.NewRegistry(opts...)
	if err := reg.Register(cfg.Buckets...); err != nil {
		return nil, err
	}
	return reg, nil
}

// ProvideLimiter 创建准入器
func ProvideLimiter(i do.Injector) (*admission.Limiter, error) {
	cfg, err := do.Invoke[gateway.Config](i)
	if err != nil {
		return nil, err
	}
	reg, err := do.Invoke[*bucket.Registry](i)
	if err != nil {
		return nil, err
	}
	return admission.NewLimiter(reg,
		admission.WithMaxWeightFactor(cfg.MaxWeightFactor),
		admission.WithLogger(do.MustInvoke[*logger.CtxZapLogger](i)),
	), nil
}

// ProvideFlowQueueManager 创建流控队列管理器，注入器关闭时调用 Shutdown
func ProvideFlowQueueManager(i do.Injector) (*flowqueue.Manager, error) {
	cfg, err := do.Invoke[gateway.Config](i)
	if err != nil {
		return nil, err
	}
	tr, err := do.Invoke[transport.Transport](i)
	if err != nil {
		return nil, err
	}

	m, err := flowqueue.NewManager(tr,
		flowqueue.WithPoolSize(cfg.PoolSize),
		flowqueue.WithResultTTL(cfg.ResultTTL),
		flowqueue.WithLogger(do.MustInvoke[*logger.CtxZapLogger](i)),
	)
	if err != nil {
		return nil, err
	}
	for _, q := range cfg.Queues {
		if err := m.Queue(flowqueue.Key("", q.Path), q.Config); err != nil {
			_ = m.Close()
			return nil, err
		}
	}
	return m, nil
}

// ProvideProfile 按 throttle.provider 选择 Profile
func ProvideProfile(i do.Injector) (gateway.Profile, error) {
	cfg, err := do.Invoke[gateway.Config](i)
	if err != nil {
		return nil, err
	}
	return provider.Lookup(cfg)
}

// ProvideGateway 组装网关
func ProvideGateway(i do.Injector) (*gateway.Gateway, error) {
	cfg, err := do.Invoke[gateway.Config](i)
	if err != nil {
		return nil, err
	}
	profile, err := do.Invoke[gateway.Profile](i)
	if err != nil {
		return nil, err
	}
	limiter, err := do.Invoke[*admission.Limiter](i)
	if err != nil {
		return nil, err
	}
	tr, err := do.Invoke[transport.Transport](i)
	if err != nil {
		return nil, err
	}
	queues, err := do.Invoke[*flowqueue.Manager](i)
	if err != nil {
		return nil, err
	}

	return gateway.New(profile, limiter, tr,
		gateway.WithFlowQueue(queues),
		gateway.WithBlocking(cfg.Blocking),
		gateway.WithLogger(do.MustInvoke[*logger.CtxZapLogger](i)),
	)
}

// ProvideHealthAggregator 注册网关健康检查
func ProvideHealthAggregator(i do.Injector) (*health.Aggregator, error) {
	gw, err := do.Invoke[*gateway.Gateway](i)
	if err != nil {
		return nil, err
	}
	agg := health.NewAggregator(health.DefaultTimeout)
	agg.Register(gw.Checker())
	agg.SetMetadata("provider", gw.Profile().Name())
	return agg, nil
}
