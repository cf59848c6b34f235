package bucket

import (
	"sync"

	"github.com/KOMKZ/go-yogan-throttle/logger"
	"go.uber.org/zap"
)

type eventBus struct {
	listeners []EventListener
	events    chan Event
	closed    bool
	mu        sync.RWMutex
	wg        sync.WaitGroup
}

// NewEventBus 异步事件总线
// 发布不阻塞，缓冲区满时丢弃事件；监听器 panic 不影响其他监听器
func NewEventBus(bufferSize int) EventBus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	b := &eventBus{events: make(chan Event, bufferSize)}

	b.wg.Add(1)
	go b.dispatch()
	return b
}

func (b *eventBus) Subscribe(listener EventListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.listeners = append(b.listeners, listener)
	}
}

func (b *eventBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.events <- event:
	default:
		// 缓冲区满，丢弃
	}
}

// Close 关闭并等待已缓冲的事件分发完毕，可重复调用
func (b *eventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *eventBus) dispatch() {
	defer b.wg.Done()

	for event := range b.events {
		b.mu.RLock()
		listeners := append([]EventListener(nil), b.listeners...)
		b.mu.RUnlock()

		for _, l := range listeners {
			notify(l, event)
		}
	}
}

func notify(l EventListener, event Event) {
	defer func() { _ = recover() }()
	l.OnEvent(event)
}

// LogListener 把拒绝和等待事件写入 debug 日志
func LogListener(log *logger.CtxZapLogger) EventListener {
	return EventListenerFunc(func(event Event) {
		switch ev := event.(type) {
		case *RejectedEvent:
			log.DebugCtx(ev.Context(), "bucket rejected",
				zap.String("bucket_id", ev.BucketID()),
				zap.Int64("tokens", ev.Tokens),
				zap.Int64("remaining", ev.Remaining),
				zap.String("reason", ev.Reason),
			)
		case *WaitEvent:
			log.DebugCtx(ev.Context(), "bucket "+string(ev.Type()),
				zap.String("bucket_id", ev.BucketID()),
				zap.Int64("tokens", ev.Tokens),
				zap.Duration("waited", ev.Waited),
			)
		}
	})
}
