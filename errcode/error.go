// Package errcode 分层错误码
// 错误码格式：MMBBBB（MM = 模块码，BBBB = 业务码）
package errcode

import (
	"errors"
	"fmt"
	"net/http"
)

// LayeredError 分层错误
// 支持错误链、动态消息、上下文数据和 HTTP 状态码映射
type LayeredError struct {
	module     string
	code       int
	msgKey     string
	msg        string
	httpStatus int
	retryable  bool
	data       map[string]interface{}
	cause      error
}

// New 创建分层错误
// moduleCode: 模块码（10-99）
// businessCode: 业务码（1-9999）
// httpStatus: 可选，默认 200
func New(moduleCode, businessCode int, module, msgKey, msg string, httpStatus ...int) *LayeredError {
	status := http.StatusOK
	if len(httpStatus) > 0 {
		status = httpStatus[0]
	}
	return &LayeredError{
		module:     module,
		code:       moduleCode*10000 + businessCode,
		msgKey:     msgKey,
		msg:        msg,
		httpStatus: status,
		data:       make(map[string]interface{}),
	}
}

func (e *LayeredError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Code 完整错误码
func (e *LayeredError) Code() int { return e.code }

// Module 模块名
func (e *LayeredError) Module() string { return e.module }

// MsgKey 消息键（国际化）
func (e *LayeredError) MsgKey() string { return e.msgKey }

// Message 错误消息
func (e *LayeredError) Message() string { return e.msg }

// HTTPStatus HTTP 状态码
func (e *LayeredError) HTTPStatus() int { return e.httpStatus }

// Retryable 调用方是否可以稍后重试
func (e *LayeredError) Retryable() bool { return e.retryable }

// Data 上下文数据
func (e *LayeredError) Data() map[string]interface{} { return e.data }

// Unwrap 支持 errors.Is / errors.As
func (e *LayeredError) Unwrap() error { return e.cause }

// Is 按错误码比较
func (e *LayeredError) Is(target error) bool {
	t, ok := target.(*LayeredError)
	if !ok {
		return false
	}
	return e.code == t.code
}

// AsRetryable 标记为可重试（返回新实例）
func (e *LayeredError) AsRetryable() *LayeredError {
	clone := *e
	clone.retryable = true
	return &clone
}

// WithMsg 替换消息（返回新实例）
func (e *LayeredError) WithMsg(msg string) *LayeredError {
	clone := *e
	clone.msg = msg
	return &clone
}

// WithMsgf 格式化替换消息（返回新实例）
func (e *LayeredError) WithMsgf(format string, args ...interface{}) *LayeredError {
	return e.WithMsg(fmt.Sprintf(format, args...))
}

// WithData 追加单个上下文字段（返回新实例）
func (e *LayeredError) WithData(key string, value interface{}) *LayeredError {
	clone := *e
	clone.data = e.cloneData()
	clone.data[key] = value
	return &clone
}

// WithFields 批量追加上下文字段（返回新实例）
func (e *LayeredError) WithFields(fields map[string]interface{}) *LayeredError {
	clone := *e
	clone.data = e.cloneData()
	for k, v := range fields {
		clone.data[k] = v
	}
	return &clone
}

// Wrap 包装原始错误（返回新实例）
func (e *LayeredError) Wrap(cause error) *LayeredError {
	if cause == nil {
		return e
	}
	clone := *e
	clone.cause = cause
	return &clone
}

// Wrapf 包装原始错误并格式化消息
func (e *LayeredError) Wrapf(cause error, format string, args ...interface{}) *LayeredError {
	return e.Wrap(cause).WithMsgf(format, args...)
}

func (e *LayeredError) cloneData() map[string]interface{} {
	data := make(map[string]interface{}, len(e.data)+1)
	for k, v := range e.data {
		data[k] = v
	}
	return data
}

// String 调试输出
func (e *LayeredError) String() string {
	if e.cause != nil {
		return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s, cause:%v}", e.code, e.module, e.msg, e.cause)
	}
	return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s}", e.code, e.module, e.msg)
}

// CodeOf 提取错误链中第一个 LayeredError 的错误码，没有则返回 0
func CodeOf(err error) int {
	var le *LayeredError
	if errors.As(err, &le) {
		return le.code
	}
	return 0
}

// IsRetryable 错误链中是否存在可重试的 LayeredError
func IsRetryable(err error) bool {
	var le *LayeredError
	if errors.As(err, &le) {
		return le.retryable
	}
	return false
}
