package flowqueue

import (
	"fmt"
	"net/http"

	"github.com/KOMKZ/go-yogan-throttle/errcode"
)

var (
	// ErrTimeout 等待结果超时，任务可能仍会被发送（结果未知）
	ErrTimeout = errcode.Register(errcode.New(
		errcode.ModuleFlowQueue, 1, "flowqueue", "error.flowqueue.timeout",
		"await result timeout", http.StatusGatewayTimeout,
	))

	// ErrDispatchFailure 传输层调用失败
	ErrDispatchFailure = errcode.Register(errcode.New(
		errcode.ModuleFlowQueue, 2, "flowqueue", "error.flowqueue.dispatch_failure",
		"dispatch failure", http.StatusBadGateway,
	))

	// ErrUnknownTicket 凭证未发放或已被取走
	ErrUnknownTicket = errcode.Register(errcode.New(
		errcode.ModuleFlowQueue, 3, "flowqueue", "error.flowqueue.unknown_ticket",
		"unknown ticket", http.StatusNotFound,
	))

	// ErrQueueClosed 管理器已关闭
	ErrQueueClosed = errcode.Register(errcode.New(
		errcode.ModuleFlowQueue, 4, "flowqueue", "error.flowqueue.closed",
		"flow queue closed", http.StatusServiceUnavailable,
	))

	// ErrInvalidConfig 队列配置非法
	ErrInvalidConfig = errcode.Register(errcode.New(
		errcode.ModuleFlowQueue, 5, "flowqueue", "error.flowqueue.invalid_config",
		"invalid flow queue config", http.StatusBadRequest,
	))
)

// DispatchError 单个任务发送失败
// errors.Is 同时匹配 ErrDispatchFailure 和传输层原始错误
type DispatchError struct {
	ID     string
	Method string
	Path   string
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: %s %s (id=%s): %v", ErrDispatchFailure.Message(), e.Method, e.Path, e.ID, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func (e *DispatchError) Is(target error) bool {
	return ErrDispatchFailure.Is(target)
}
