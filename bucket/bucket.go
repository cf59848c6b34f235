// Package bucket 令牌桶与进程内桶注册表
//
// 补充采用惰性策略：每次访问时按已经过去的整周期数补充令牌，
// 不超过容量，不需要后台协程。
package bucket

import (
	"context"
	"sync"
	"time"

	"github.com/KOMKZ/go-yogan-throttle/errcode"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/semaphore"
)

// Snapshot 桶状态快照
type Snapshot struct {
	ID           string
	Capacity     int64
	Remaining    int64
	LastRefillAt time.Time
}

// TokenBucket 计数型令牌桶
//
// TryAcquire 不等待；Acquire 阻塞直到令牌足够，等待者按 FIFO 顺序服务。
// TryAcquire 不参与排队，可以在等待者之前拿走令牌。
type TokenBucket struct {
	id    string
	cfg   Config
	clock clockwork.Clock
	emit  func(context.Context, Event)

	mu           sync.Mutex
	remaining    int64
	lastRefillAt time.Time
	disposed     bool

	// turn 队首令牌，同一时刻只有一个阻塞等待者在计时
	turn *semaphore.Weighted
	done chan struct{}
}

func newTokenBucket(id string, cfg Config, clock clockwork.Clock, emit func(context.Context, Event)) *TokenBucket {
	if emit == nil {
		emit = func(context.Context, Event) {}
	}
	return &TokenBucket{
		id:           id,
		cfg:          cfg,
		clock:        clock,
		emit:         emit,
		remaining:    cfg.Capacity,
		lastRefillAt: clock.Now(),
		turn:         semaphore.NewWeighted(1),
		done:         make(chan struct{}),
	}
}

// ID 桶 ID
func (b *TokenBucket) ID() string { return b.id }

// Config 桶配置
func (b *TokenBucket) Config() Config { return b.cfg }

// Read 补充后的当前状态
func (b *TokenBucket) Read() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(b.clock.Now())
	return b.snapshot()
}

// TryAcquire 非阻塞获取 n 个令牌
// n<=0 或 n>容量返回 ErrExcessiveWeight；令牌不足返回 ErrInsufficientTokens，且不改变状态
func (b *TokenBucket) TryAcquire(ctx context.Context, n int64) error {
	if err := b.checkWeight(ctx, n); err != nil {
		return err
	}

	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return b.fail(ErrBucketDisposed, n, 0)
	}
	now := b.clock.Now()
	b.refill(now)
	if b.remaining < n {
		remaining := b.remaining
		b.mu.Unlock()

		b.emit(ctx, &RejectedEvent{
			BaseEvent: newBaseEvent(ctx, EventRejected, b.id, now),
			Tokens:    n,
			Remaining: remaining,
			Reason:    "insufficient_tokens",
		})
		return b.fail(ErrInsufficientTokens, n, remaining)
	}
	b.remaining -= n
	remaining := b.remaining
	b.mu.Unlock()

	b.emit(ctx, &AcquiredEvent{
		BaseEvent: newBaseEvent(ctx, EventAcquired, b.id, now),
		Tokens:    n,
		Remaining: remaining,
	})
	return nil
}

// Acquire 阻塞获取 n 个令牌，直到成功、ctx 取消或桶被释放
// ctx 取消时不消耗任何令牌，返回 ctx.Err()
func (b *TokenBucket) Acquire(ctx context.Context, n int64) error {
	if err := b.checkWeight(ctx, n); err != nil {
		return err
	}

	if err := b.turn.Acquire(ctx, 1); err != nil {
		return err
	}
	defer b.turn.Release(1)

	start := b.clock.Now()
	waiting := false
	for {
		wait, remaining, err := b.take(n)
		if err != nil {
			return err
		}
		if wait == 0 {
			if waiting {
				b.emit(ctx, &WaitEvent{
					BaseEvent: newBaseEvent(ctx, EventWaitDone, b.id, b.clock.Now()),
					Tokens:    n,
					Waited:    b.clock.Since(start),
				})
			}
			b.emit(ctx, &AcquiredEvent{
				BaseEvent: newBaseEvent(ctx, EventAcquired, b.id, b.clock.Now()),
				Tokens:    n,
				Remaining: remaining,
				Waited:    b.clock.Since(start),
			})
			return nil
		}

		if !waiting {
			waiting = true
			b.emit(ctx, &WaitEvent{
				BaseEvent: newBaseEvent(ctx, EventWaitStart, b.id, b.clock.Now()),
				Tokens:    n,
			})
		}

		timer := b.clock.NewTimer(wait)
		select {
		case <-timer.Chan():
		case <-b.done:
			timer.Stop()
			return b.fail(ErrBucketDisposed, n, 0)
		case <-ctx.Done():
			timer.Stop()
			b.emit(ctx, &WaitEvent{
				BaseEvent: newBaseEvent(ctx, EventWaitCancelled, b.id, b.clock.Now()),
				Tokens:    n,
				Waited:    b.clock.Since(start),
			})
			return ctx.Err()
		}
	}
}

// take 补充后尝试扣减；不足时返回距离足量补充的等待时长
func (b *TokenBucket) take(n int64) (time.Duration, int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return 0, 0, b.fail(ErrBucketDisposed, n, 0)
	}

	now := b.clock.Now()
	b.refill(now)
	if b.remaining >= n {
		b.remaining -= n
		return 0, b.remaining, nil
	}

	deficit := n - b.remaining
	periods := (deficit + b.cfg.RefillAmount - 1) / b.cfg.RefillAmount
	next := b.lastRefillAt.Add(time.Duration(periods) * b.cfg.RefillInterval)
	wait := next.Sub(now)
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, b.remaining, nil
}

// refill 按整周期补充，调用方持有 mu
func (b *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefillAt)
	if elapsed < b.cfg.RefillInterval {
		return
	}

	periods := int64(elapsed / b.cfg.RefillInterval)
	b.lastRefillAt = b.lastRefillAt.Add(time.Duration(periods) * b.cfg.RefillInterval)

	// 先判断是否必然补满，避免乘法溢出
	missing := b.cfg.Capacity - b.remaining
	if periods >= (missing+b.cfg.RefillAmount-1)/b.cfg.RefillAmount {
		b.remaining = b.cfg.Capacity
		return
	}
	b.remaining += periods * b.cfg.RefillAmount
}

func (b *TokenBucket) checkWeight(ctx context.Context, n int64) error {
	if n > 0 && n <= b.cfg.Capacity {
		return nil
	}
	b.emit(ctx, &RejectedEvent{
		BaseEvent: newBaseEvent(ctx, EventRejected, b.id, b.clock.Now()),
		Tokens:    n,
		Reason:    "excessive_weight",
	})
	return b.fail(ErrExcessiveWeight, n, -1)
}

// fail remaining<0 表示需要读取当前值
func (b *TokenBucket) fail(err *errcode.LayeredError, n, remaining int64) error {
	if remaining < 0 {
		remaining = b.Read().Remaining
	}
	return &AcquireError{
		BucketID:  b.id,
		Requested: n,
		Remaining: remaining,
		Capacity:  b.cfg.Capacity,
		Err:       err,
	}
}

func (b *TokenBucket) snapshot() Snapshot {
	return Snapshot{
		ID:           b.id,
		Capacity:     b.cfg.Capacity,
		Remaining:    b.remaining,
		LastRefillAt: b.lastRefillAt,
	}
}

// dispose 释放桶，唤醒所有等待者
func (b *TokenBucket) dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return
	}
	b.disposed = true
	close(b.done)
}
