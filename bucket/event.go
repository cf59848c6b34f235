package bucket

import (
	"context"
	"time"
)

// EventType 桶事件类型
type EventType string

const (
	EventAcquired      EventType = "acquired"
	EventRejected      EventType = "rejected"
	EventWaitStart     EventType = "wait_start"
	EventWaitDone      EventType = "wait_done"
	EventWaitCancelled EventType = "wait_cancelled"
)

// Event 桶事件
type Event interface {
	Type() EventType
	BucketID() string
	Context() context.Context
	Timestamp() time.Time
}

// BaseEvent 事件公共字段
type BaseEvent struct {
	eventType EventType
	bucketID  string
	ctx       context.Context
	timestamp time.Time
}

func newBaseEvent(ctx context.Context, eventType EventType, bucketID string, at time.Time) BaseEvent {
	return BaseEvent{eventType: eventType, bucketID: bucketID, ctx: ctx, timestamp: at}
}

func (e *BaseEvent) Type() EventType          { return e.eventType }
func (e *BaseEvent) BucketID() string         { return e.bucketID }
func (e *BaseEvent) Context() context.Context { return e.ctx }
func (e *BaseEvent) Timestamp() time.Time     { return e.timestamp }

// AcquiredEvent 获取成功（含等待后成功）
type AcquiredEvent struct {
	BaseEvent
	Tokens    int64
	Remaining int64
	Waited    time.Duration
}

// RejectedEvent 同步获取被拒绝
type RejectedEvent struct {
	BaseEvent
	Tokens    int64
	Remaining int64
	Reason    string // insufficient_tokens / excessive_weight
}

// WaitEvent 阻塞等待开始或取消
type WaitEvent struct {
	BaseEvent
	Tokens int64
	Waited time.Duration
}

// EventListener 事件监听器
type EventListener interface {
	OnEvent(event Event)
}

// EventListenerFunc 函数形式的监听器
type EventListenerFunc func(event Event)

func (f EventListenerFunc) OnEvent(event Event) {
	f(event)
}

// EventBus 事件总线
type EventBus interface {
	Subscribe(listener EventListener)
	Publish(event Event)
	Close()
}
