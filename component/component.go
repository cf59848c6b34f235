// Package component 组件生命周期接口
// 最底层的包，不依赖任何业务包
package component

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// 组件名称
const (
	ComponentConfig   = "config"
	ComponentLogger   = "logger"
	ComponentThrottle = "throttle"
)

// Component 组件生命周期：Init → Start → Stop
type Component interface {
	// Name 组件唯一名称
	Name() string

	// DependsOn 依赖的组件名称，"optional:" 前缀表示可选依赖
	DependsOn() []string

	// Init 读取配置并创建资源，不启动后台任务
	Init(ctx context.Context, loader ConfigLoader) error

	// Start 启动后台任务（调度器、协程池等）
	Start(ctx context.Context) error

	// Stop 释放资源，允许重复调用
	Stop(ctx context.Context) error
}

// ConfigLoader 组件读取配置的统一入口
type ConfigLoader interface {
	Get(key string) interface{}

	// Unmarshal 将 key 下的配置解析到结构体
	//
	//	var cfg throttle.Config
	//	if err := loader.Unmarshal("throttle", &cfg); err != nil {
	//	    return err
	//	}
	Unmarshal(key string, v interface{}) error

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	IsSet(key string) bool
}

// MetricsProvider 可选接口：组件向外部 Meter 注册自己的指标
type MetricsProvider interface {
	// MetricsName 指标分组名，如 "throttle"
	MetricsName() string

	// RegisterMetrics 在组件 Init 之后调用
	RegisterMetrics(meter metric.Meter) error

	// IsMetricsEnabled 是否启用指标
	IsMetricsEnabled() bool
}

// HealthChecker 可选接口：组件健康检查
type HealthChecker interface {
	Name() string

	// Check 返回 nil 表示健康
	Check(ctx context.Context) error
}
