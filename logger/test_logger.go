package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NewTestLogger 测试用 Logger，日志记录到内存
// 用法：
//
//	log, logs := logger.NewTestLogger("bucket")
//	reg := bucket.NewRegistry(bucket.WithLogger(log))
//	assert.Equal(t, 1, logs.FilterMessage("bucket created").Len())
func NewTestLogger(module string) (*CtxZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := DefaultManagerConfig()
	cfg.EnableStacktrace = false
	return &CtxZapLogger{
		base:   zap.New(core).With(zap.String("module", module)),
		module: module,
		config: &cfg,
	}, logs
}

// NewNopLogger 丢弃所有输出
func NewNopLogger() *CtxZapLogger {
	return &CtxZapLogger{base: zap.NewNop(), module: "nop"}
}
