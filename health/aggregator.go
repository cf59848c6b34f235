package health

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout 单次聚合检查超时
const DefaultTimeout = 5 * time.Second

// Aggregator 并发执行所有检查项，取最差状态为整体状态
type Aggregator struct {
	timeout time.Duration
	clock   clockwork.Clock

	mu       sync.RWMutex
	checkers []Checker
	metadata map[string]any
}

// NewAggregator timeout<=0 时使用 DefaultTimeout
func NewAggregator(timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Aggregator{
		timeout:  timeout,
		clock:    clockwork.NewRealClock(),
		metadata: make(map[string]any),
	}
}

// Register 注册检查项
func (a *Aggregator) Register(checkers ...Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkers = append(a.checkers, checkers...)
}

// SetMetadata 附加到每次结果中的元数据
func (a *Aggregator) SetMetadata(key string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metadata[key] = value
}

// Check 执行全部检查项
func (a *Aggregator) Check(ctx context.Context) *Response {
	start := a.clock.Now()
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.mu.RLock()
	checkers := append([]Checker(nil), a.checkers...)
	metadata := maps.Clone(a.metadata)
	a.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var g errgroup.Group
	for i, c := range checkers {
		i, c := i, c
		g.Go(func() error {
			results[i] = a.checkOne(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	checks := make(map[string]CheckResult, len(results))
	overall := StatusHealthy
	for _, r := range results {
		checks[r.Name] = r
		overall = worse(overall, r.Status)
	}

	return &Response{
		Status:    overall,
		Timestamp: a.clock.Now(),
		Duration:  a.clock.Since(start),
		Checks:    checks,
		Metadata:  metadata,
	}
}

func (a *Aggregator) checkOne(ctx context.Context, c Checker) CheckResult {
	start := a.clock.Now()
	err := c.Check(ctx)
	r := CheckResult{
		Name:      c.Name(),
		Status:    StatusHealthy,
		Timestamp: start,
		Duration:  a.clock.Since(start),
	}
	if err != nil {
		r.Error = err.Error()
		r.Status = StatusUnhealthy
		if errors.Is(err, ErrDegraded) {
			r.Status = StatusDegraded
		}
	}
	return r
}

func worse(a, b Status) Status {
	rank := map[Status]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
