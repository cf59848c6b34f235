package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CtxZapLogger Context-Aware 的 zap 包装
// module 在创建时绑定，调用时只需传 ctx
type CtxZapLogger struct {
	base   *zap.Logger
	module string
	config *ManagerConfig
}

// Module 绑定的模块名
func (l *CtxZapLogger) Module() string {
	return l.module
}

// InfoCtx 记录 Info 日志（自动提取 TraceID）
func (l *CtxZapLogger) InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Info(msg, l.enrich(ctx, fields)...)
}

// DebugCtx 记录 Debug 日志
func (l *CtxZapLogger) DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Debug(msg, l.enrich(ctx, fields)...)
}

// WarnCtx 记录 Warn 日志
func (l *CtxZapLogger) WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Warn(msg, l.enrich(ctx, fields)...)
}

// ErrorCtx 记录 Error 日志，按配置附带受控深度的堆栈
func (l *CtxZapLogger) ErrorCtx(ctx context.Context, msg string, fields ...zap.Field) {
	enriched := l.enrich(ctx, fields)

	if l.config != nil && shouldCaptureStacktrace("error", *l.config) {
		depth := l.config.StacktraceDepth
		if depth <= 0 {
			depth = 10
		}
		// runtime.Callers(0) -> CaptureStacktrace(1) -> ErrorCtx(2) -> 调用者(3)
		if stack := CaptureStacktrace(3, depth); stack != "" {
			enriched = append(enriched, zap.String("stack", stack))
		}
	}

	l.base.Error(msg, enriched...)
}

// With 返回带预设字段的新 Logger
func (l *CtxZapLogger) With(fields ...zap.Field) *CtxZapLogger {
	return &CtxZapLogger{
		base:   l.base.With(fields...),
		module: l.module,
		config: l.config,
	}
}

// GetZapLogger 底层 *zap.Logger（第三方库集成用）
func (l *CtxZapLogger) GetZapLogger() *zap.Logger {
	return l.base
}

func (l *CtxZapLogger) enrich(ctx context.Context, fields []zap.Field) []zap.Field {
	if l.config == nil {
		return fields
	}

	enriched := make([]zap.Field, 0, len(fields)+2)
	if l.config.AppName != "" {
		enriched = append(enriched, zap.String("app_name", l.config.AppName))
	}
	if l.config.EnableTraceID {
		if traceID := extractTraceID(ctx, l.config.TraceIDKey); traceID != "" {
			enriched = append(enriched, zap.String(l.config.TraceIDFieldName, traceID))
		}
	}
	return append(enriched, fields...)
}

// extractTraceID 优先级：OpenTelemetry Span > 配置的 ctx key > "trace_id"
func extractTraceID(ctx context.Context, key string) string {
	if ctx == nil {
		return ""
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		return sc.TraceID().String()
	}
	for _, k := range []string{key, "trace_id"} {
		if k == "" {
			continue
		}
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			return v
		}
	}
	return ""
}
