// Package flowqueue 按路径的周期性批量发送队列
//
// 每个路径一个队列，调度器每个周期取出至多 Limit 个任务并发交给传输层；
// 每个队列使用独立的非阻塞协程池，慢队列不会拖住其他队列的出队。
// 调用方拿到关联 ID 后通过 Await 取回结果。结果句柄在取走后立即删除，
// 从未被取走的已完成句柄在 ResultTTL 之后清理。
package flowqueue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KOMKZ/go-yogan-throttle/logger"
	"github.com/KOMKZ/go-yogan-throttle/transport"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// PublicPrefix 无凭证队列的 key 前缀
const PublicPrefix = "PUBLIC:"

// DefaultPoolSize 单个队列同时在途的发送数上限
const DefaultPoolSize = 64

type result struct {
	resp any
	err  error
}

// handle 单次结果句柄
type handle struct {
	path      string
	ch        chan result
	timeout   time.Duration
	ttl       time.Duration
	settledAt time.Time
}

// Manager 流控队列管理器
type Manager struct {
	transport transport.Transport
	scheduler gocron.Scheduler
	clock     clockwork.Clock
	logger    *logger.CtxZapLogger

	poolSize  int
	resultTTL time.Duration
	defaults  Config
	manual    bool

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	queues  map[string]*queue
	handles map[string]*handle
	closed  bool
}

// Option 管理器选项
type Option func(*Manager)

// WithClock 注入时钟（同时用于调度器）
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithPoolSize 单个队列同时在途的发送数上限，Limit 更大时以 Limit 为准
func WithPoolSize(size int) Option {
	return func(m *Manager) {
		if size > 0 {
			m.poolSize = size
		}
	}
}

// WithLogger 指定日志
func WithLogger(log *logger.CtxZapLogger) Option {
	return func(m *Manager) { m.logger = log }
}

// WithResultTTL 未取走结果的保留时长（默认 2 倍 Timeout）
func WithResultTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.resultTTL = ttl }
}

// WithDefaults 未显式配置的路径使用的配置
func WithDefaults(cfg Config) Option {
	return func(m *Manager) { m.defaults = cfg }
}

// withManualDrain 不注册定时任务，由测试直接调用 drain
func withManualDrain() Option {
	return func(m *Manager) { m.manual = true }
}

// NewManager 创建管理器并启动调度器
func NewManager(tr transport.Transport, opts ...Option) (*Manager, error) {
	m := &Manager{
		transport: tr,
		poolSize:  DefaultPoolSize,
		defaults:  DefaultConfig(),
		queues:    make(map[string]*queue),
		handles:   make(map[string]*handle),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.logger == nil {
		m.logger = logger.GetLogger("throttle")
	}
	m.defaults.ApplyDefaults()
	if err := m.defaults.Validate(); err != nil {
		return nil, err
	}

	scheduler, err := gocron.NewScheduler(gocron.WithClock(m.clock))
	if err != nil {
		return nil, err
	}
	scheduler.Start()

	m.scheduler = scheduler
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m, nil
}

// Queue 获取或创建队列，同一 key 以首次配置为准
// key 由 Key 生成
func (m *Manager) Queue(key string, cfg Config) error {
	_, err := m.queue(key, &cfg)
	return err
}

// Key 队列 key：无凭证时为 "PUBLIC:路径"，否则为 "凭证:路径"
func Key(credential, path string) string {
	if credential == "" {
		return PublicPrefix + path
	}
	return credential + ":" + path
}

// Paths 已创建的队列 key
func (m *Manager) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.queues))
	for p := range m.queues {
		paths = append(paths, p)
	}
	return paths
}

// Pending 队列中尚未发送的任务数
func (m *Manager) Pending(key string) int {
	m.mu.Lock()
	q, ok := m.queues[key]
	m.mu.Unlock()
	if !ok {
		return 0
	}
	return q.len()
}

// Enqueue 追加到路径的公共队列并立即返回关联 ID，不阻塞
// 路径没有队列时按默认配置创建
func (m *Manager) Enqueue(method, path string, params any) (string, error) {
	return m.EnqueueTo(Key("", path), method, path, params)
}

// EnqueueTo 追加到指定 key 的队列（如按凭证区分同一路径）
func (m *Manager) EnqueueTo(key, method, path string, params any) (string, error) {
	q, err := m.queue(key, nil)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	h := &handle{
		path:    path,
		ch:      make(chan result, 1),
		timeout: q.cfg.Timeout,
		ttl:     m.resultTTL,
	}
	if h.ttl <= 0 {
		h.ttl = 2 * q.cfg.Timeout
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrQueueClosed
	}
	m.handles[id] = h
	q.push(&task{id: id, method: method, path: path, params: params, handle: h})
	m.mu.Unlock()

	return id, nil
}

// Await 等待关联 ID 的结果
// timeout<=0 使用队列配置；超时返回 ErrTimeout，此时任务可能仍会发送。
// 句柄在进入 Await 时即被取走，同一 ID 只能等待一次。
func (m *Manager) Await(ctx context.Context, id string, timeout time.Duration) (any, error) {
	m.mu.Lock()
	h, ok := m.handles[id]
	delete(m.handles, id)
	m.mu.Unlock()
	if !ok {
		return nil, ErrUnknownTicket.WithData("id", id)
	}

	if timeout <= 0 {
		timeout = h.timeout
	}
	timer := m.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-h.ch:
		return r.resp, r.err
	case <-timer.Chan():
		return nil, ErrTimeout.WithData("id", id).WithData("path", h.path)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do Enqueue + Await
func (m *Manager) Do(ctx context.Context, method, path string, params any) (any, error) {
	id, err := m.Enqueue(method, path, params)
	if err != nil {
		return nil, err
	}
	return m.Await(ctx, id, 0)
}

// Close 取消正在发送的任务并停止调度，未发送的任务以 ErrQueueClosed 结束
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	queues := make([]*queue, 0, len(m.queues))
	for _, q := range m.queues {
		queues = append(queues, q)
	}
	m.mu.Unlock()

	m.cancel()
	err := m.scheduler.Shutdown()

	for _, q := range queues {
		for _, t := range q.take(0) {
			m.settle(t.id, t.handle, result{err: ErrQueueClosed})
		}
		if releaseErr := q.pool.ReleaseTimeout(5 * time.Second); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}

	m.logger.DebugCtx(context.Background(), "flow queue manager closed", zap.Int("queues", len(queues)))
	return err
}

// Closed 是否已关闭
func (m *Manager) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Shutdown 实现 do.ShutdownerWithError
func (m *Manager) Shutdown() error {
	return m.Close()
}

func (m *Manager) queue(key string, cfg *Config) (*queue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrQueueClosed
	}
	if q, ok := m.queues[key]; ok {
		return q, nil
	}

	c := m.defaults
	if cfg != nil {
		c = *cfg
		c.ApplyDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}

	// Limit=0 不限制出队条数，协程池也不设上限
	size := 0
	if c.Limit > 0 {
		size = max(m.poolSize, c.Limit)
	}
	pool, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	q := &queue{key: key, cfg: c, pool: pool}
	if !m.manual {
		_, err := m.scheduler.NewJob(
			gocron.DurationJob(c.Period),
			gocron.NewTask(m.tick, q),
			gocron.WithStartAt(gocron.WithStartImmediately()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithName("flowqueue:"+key),
		)
		if err != nil {
			pool.Release()
			return nil, err
		}
	}
	m.queues[key] = q

	m.logger.DebugCtx(context.Background(), "flow queue created",
		zap.String("key", key),
		zap.Duration("period", c.Period),
		zap.Int("limit", c.Limit),
		zap.Duration("timeout", c.Timeout),
	)
	return q, nil
}

func (m *Manager) tick(q *queue) {
	m.drain(q)
	m.sweep()
}

// drain 取出至多 Limit 个任务并提交到队列自己的协程池，返回提交数
// 协程池满时剩余任务按原顺序放回队首，留到下个周期，不阻塞调度
func (m *Manager) drain(q *queue) int {
	tasks := q.take(q.cfg.Limit)
	n := 0
	for i, t := range tasks {
		t := t
		err := q.pool.Submit(func() { m.dispatch(t) })
		if errors.Is(err, ants.ErrPoolOverload) {
			q.pushFront(tasks[i:])
			m.logger.WarnCtx(m.ctx, "flow queue saturated, deferring tasks",
				zap.String("key", q.key),
				zap.Int("in_flight", q.pool.Running()),
				zap.Int("deferred", len(tasks)-i),
			)
			break
		}
		if err != nil {
			m.settle(t.id, t.handle, result{err: &DispatchError{ID: t.id, Method: t.method, Path: t.path, Err: err}})
			continue
		}
		n++
	}
	if n > 0 {
		m.logger.DebugCtx(m.ctx, "flow queue drained",
			zap.String("key", q.key),
			zap.Int("dispatched", n),
			zap.Int("pending", q.len()),
		)
	}
	return n
}

func (m *Manager) dispatch(t *task) {
	resp, err := m.transport.Send(m.ctx, t.method, t.path, t.params)
	if err != nil {
		m.logger.WarnCtx(m.ctx, "flow queue dispatch failed",
			zap.String("id", t.id),
			zap.String("method", t.method),
			zap.String("path", t.path),
			zap.Error(err),
		)
		err = &DispatchError{ID: t.id, Method: t.method, Path: t.path, Err: err}
	}
	m.settle(t.id, t.handle, result{resp: resp, err: err})
}

// settle 写入结果；句柄只会被写入一次
func (m *Manager) settle(id string, h *handle, r result) {
	h.ch <- r

	m.mu.Lock()
	if _, ok := m.handles[id]; ok {
		h.settledAt = m.clock.Now()
	}
	m.mu.Unlock()
}

// sweep 清理已完成但超过 TTL 未取走的句柄
func (m *Manager) sweep() int {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, h := range m.handles {
		if h.settledAt.IsZero() || now.Sub(h.settledAt) < h.ttl {
			continue
		}
		delete(m.handles, id)
		n++
	}
	if n > 0 {
		m.logger.DebugCtx(m.ctx, "flow queue results expired", zap.Int("count", n))
	}
	return n
}
