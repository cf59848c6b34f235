package gateway

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-throttle/errcode"
)

var (
	// ErrSendFailed 直接发送失败（原始错误可通过 errors.Is 判断）
	ErrSendFailed = errcode.Register(errcode.New(
		errcode.ModuleGateway, 1, "gateway", "error.gateway.send_failed",
		"send failed", http.StatusBadGateway,
	))

	// ErrNoFlowQueue 接口需要流控但未配置队列管理器
	ErrNoFlowQueue = errcode.Register(errcode.New(
		errcode.ModuleGateway, 2, "gateway", "error.gateway.no_flow_queue",
		"flow queue manager not configured", http.StatusInternalServerError,
	))

	// ErrInvalidConfig 配置非法
	ErrInvalidConfig = errcode.Register(errcode.New(
		errcode.ModuleGateway, 3, "gateway", "error.gateway.invalid_config",
		"invalid throttle config", http.StatusBadRequest,
	))

	// ErrUnknownProvider 未知 provider
	ErrUnknownProvider = errcode.Register(errcode.New(
		errcode.ModuleGateway, 4, "gateway", "error.gateway.unknown_provider",
		"unknown provider", http.StatusBadRequest,
	))
)
