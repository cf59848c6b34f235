// Package transport 外呼传输协作方
//
// 限流核心只依赖 Transport 接口；签名、重试、结果映射由具体实现负责。
package transport

import "context"

// Transport 发送一次外呼并返回已解码的响应
type Transport interface {
	Send(ctx context.Context, method, path string, params any) (any, error)
}

// Func 函数形式的 Transport
type Func func(ctx context.Context, method, path string, params any) (any, error)

func (f Func) Send(ctx context.Context, method, path string, params any) (any, error) {
	return f(ctx, method, path, params)
}
