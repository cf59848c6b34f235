// Package health 健康检查聚合
package health

import (
	"context"
	"errors"
	"time"

	"github.com/KOMKZ/go-yogan-throttle/component"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ErrDegraded 检查项返回包装了它的错误时记为降级而不是不健康
var ErrDegraded = errors.New("degraded")

// Checker 即 component.HealthChecker
type Checker = component.HealthChecker

// CheckerFunc 函数形式的检查项
type CheckerFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

func (c CheckerFunc) Name() string                    { return c.CheckName }
func (c CheckerFunc) Check(ctx context.Context) error { return c.Fn(ctx) }

// CheckResult 单个检查项的结果
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Response 整体结果
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Duration  time.Duration          `json:"duration"`
	Checks    map[string]CheckResult `json:"checks"`
	Metadata  map[string]any         `json:"metadata,omitempty"`
}

func (r *Response) IsHealthy() bool { return r.Status == StatusHealthy }

func (r *Response) IsDegraded() bool { return r.Status == StatusDegraded }
