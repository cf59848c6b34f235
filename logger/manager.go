package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Manager Logger 管理器（按模块名缓存 Logger）
type Manager struct {
	cfg     ManagerConfig
	loggers map[string]*CtxZapLogger
	writers map[string][]*lumberjack.Logger
	mu      sync.RWMutex
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// NewManager 创建独立的 Manager，零值字段自动填充默认值
func NewManager(cfg ManagerConfig) *Manager {
	cfg.ApplyDefaults()
	return &Manager{
		cfg:     cfg,
		loggers: make(map[string]*CtxZapLogger),
		writers: make(map[string][]*lumberjack.Logger),
	}
}

// InitManager 初始化全局 Manager（只生效一次）
func InitManager(cfg ManagerConfig) {
	managerOnce.Do(func() {
		globalManager = NewManager(cfg)
	})
}

// GetLogger 获取模块 Logger（线程安全，按需创建）
// 返回的 Logger 已包含 module 字段
func (m *Manager) GetLogger(module string) *CtxZapLogger {
	m.mu.RLock()
	if l, ok := m.loggers[module]; ok {
		m.mu.RUnlock()
		return l
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.loggers[module]; ok {
		return l
	}

	base := m.build(module).
		With(zap.String("module", module)).
		WithOptions(zap.AddCallerSkip(1))

	l := &CtxZapLogger{base: base, module: module, config: &m.cfg}
	m.loggers[module] = l
	return l
}

// build console + info/error 文件三路输出
func (m *Manager) build(module string) *zap.Logger {
	level := ParseLevel(m.cfg.Level)
	encoder := newEncoder(m.cfg.Encoding)
	var cores []zapcore.Core

	if m.cfg.EnableConsole {
		consoleEncoder := encoder
		if m.cfg.ConsoleEncoding != "" && m.cfg.ConsoleEncoding != m.cfg.Encoding {
			consoleEncoder = newEncoder(m.cfg.ConsoleEncoding)
		}
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level))
	}

	if !m.cfg.DisableFile {
		infoWriter := m.openFile(module, "info")
		errorWriter := m.openFile(module, "error")

		// info 文件只收 [配置级别, error)
		cores = append(cores,
			zapcore.NewCore(encoder, zapcore.AddSync(infoWriter), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lvl >= level && lvl < zapcore.ErrorLevel
			})),
			zapcore.NewCore(encoder, zapcore.AddSync(errorWriter), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lvl >= zapcore.ErrorLevel
			})),
		)
	}

	var opts []zap.Option
	if m.cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	// 堆栈由 CtxZapLogger.ErrorCtx 按深度自行采集，不使用 zap.AddStacktrace
	return zap.New(zapcore.NewTee(cores...), opts...)
}

func (m *Manager) openFile(module, level string) *lumberjack.Logger {
	path := m.cfg.filePath(module, level)
	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    m.cfg.MaxSize,
		MaxBackups: m.cfg.MaxBackups,
		MaxAge:     m.cfg.MaxAge,
		Compress:   m.cfg.Compress,
		LocalTime:  true,
	}
	m.writers[module] = append(m.writers[module], w)
	return w
}

// CloseAll 刷新缓冲并关闭所有文件句柄（进程退出时调用）
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.loggers {
		_ = l.base.Sync()
	}
	for _, ws := range m.writers {
		for _, w := range ws {
			_ = w.Close()
		}
	}
	m.loggers = make(map[string]*CtxZapLogger)
	m.writers = make(map[string][]*lumberjack.Logger)
}

func newEncoder(encoding string) zapcore.Encoder {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		CallerKey:      "caller",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if encoding == "console" {
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

// GetLogger 从全局 Manager 获取模块 Logger，未初始化时使用默认配置
func GetLogger(module string) *CtxZapLogger {
	InitManager(DefaultManagerConfig())
	return globalManager.GetLogger(module)
}

// CloseAll 关闭全局 Manager
func CloseAll() {
	if globalManager != nil {
		globalManager.CloseAll()
	}
}
