package logger

import (
	"fmt"
	"runtime"
	"strings"
)

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3, "fatal": 4}

// CaptureStacktrace 采集调用栈
// skip: 跳过的栈帧数；depth: 最大深度（<=0 时 32）
func CaptureStacktrace(skip, depth int) string {
	if depth <= 0 {
		depth = 32
	}

	pcs := make([]uintptr, depth)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	lines := make([]string, 0, n)
	for {
		f, more := frames.Next()
		lines = append(lines, fmt.Sprintf("%s\n\t%s:%d", f.Function, f.File, f.Line))
		if !more || len(lines) >= depth {
			break
		}
	}
	return strings.Join(lines, "\n")
}

func shouldCaptureStacktrace(level string, cfg ManagerConfig) bool {
	return cfg.EnableStacktrace && levelRank[level] >= levelRank[cfg.StacktraceLevel]
}
