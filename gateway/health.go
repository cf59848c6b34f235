package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/KOMKZ/go-yogan-throttle/health"
)

// HealthCheck 流控队列已关闭为不健康；存在耗尽的桶为降级
func (g *Gateway) HealthCheck(ctx context.Context) error {
	if g.queues != nil && g.queues.Closed() {
		return errors.New("flow queue manager closed")
	}

	var exhausted []string
	for _, s := range g.Snapshots() {
		if s.Remaining == 0 {
			exhausted = append(exhausted, s.ID)
		}
	}
	if len(exhausted) > 0 {
		return fmt.Errorf("%w: exhausted buckets %v", health.ErrDegraded, exhausted)
	}
	return ctx.Err()
}

// Checker 以 profile 名称注册的健康检查项
func (g *Gateway) Checker() health.Checker {
	return health.CheckerFunc{CheckName: "throttle." + g.profile.Name(), Fn: g.HealthCheck}
}
