package di

import "github.com/samber/do/v2"

// RegisterCoreProviders 按依赖层级注册 Provider，全部懒加载
// transport.Transport 需由调用方通过 do.ProvideValue 提供
func RegisterCoreProviders(injector *do.RootScope, opts ConfigOptions) {
	// ═══════════════════════════════════════════════════════════
	// Layer 0: Config
	// ═══════════════════════════════════════════════════════════
	do.Provide(injector, ProvideConfigLoader(opts))

	// ═══════════════════════════════════════════════════════════
	// Layer 1: Logger
	// ═══════════════════════════════════════════════════════════
	do.Provide(injector, ProvideLoggerManager)
	do.Provide(injector, ProvideCtxLogger("throttle"))

	// ═══════════════════════════════════════════════════════════
	// Layer 2: 桶与准入
	// ═══════════════════════════════════════════════════════════
	do.Provide(injector, ProvideThrottleConfig)
	do.Provide(injector, ProvideBucketMetrics)
	do.Provide(injector, ProvideBucketRegistry)
	do.Provide(injector, ProvideLimiter)

	// ═══════════════════════════════════════════════════════════
	// Layer 3: 流控队列与网关
	// ═══════════════════════════════════════════════════════════
	do.Provide(injector, ProvideFlowQueueManager)
	do.Provide(injector, ProvideProfile)
	do.Provide(injector, ProvideGateway)
	do.Provide(injector, ProvideHealthAggregator)
}
