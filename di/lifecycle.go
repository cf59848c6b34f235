package di

import (
	"context"

	"github.com/KOMKZ/go-yogan-throttle/gateway"
	"github.com/KOMKZ/go-yogan-throttle/health"
	"github.com/KOMKZ/go-yogan-throttle/logger"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// ComponentError 核心组件无法创建
type ComponentError struct {
	Name string
	Err  error
}

func (e *ComponentError) Error() string {
	return "component " + e.Name + " unavailable: " + e.Err.Error()
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

// StartCoreComponents 触发懒加载，提前暴露配置和依赖错误
func StartCoreComponents(ctx context.Context, injector *do.RootScope, log *logger.CtxZapLogger) error {
	gw, err := do.Invoke[*gateway.Gateway](injector)
	if err != nil {
		return &ComponentError{Name: "gateway", Err: err}
	}
	if _, err := do.Invoke[*health.Aggregator](injector); err != nil {
		return &ComponentError{Name: "health", Err: err}
	}
	log.DebugCtx(ctx, "✅ Throttle 网关已就绪",
		zap.String("provider", gw.Profile().Name()),
		zap.Int("buckets", len(gw.Snapshots())),
	)
	return nil
}
