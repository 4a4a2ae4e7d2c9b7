package xlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// =============================================================================
// 全局 Logger
//
// 适用于脚本、示例程序等简单场景；服务端推荐显式持有 Logger。
// =============================================================================

// DefaultName 默认 logger 的名称
const DefaultName = "telelog"

var (
	globalLogger atomic.Pointer[LoggerWithLevel]
	// globalMu 保护 globalOnce（ResetDefault 会重置它）
	globalMu   sync.Mutex
	globalOnce sync.Once
)

// defaultLogger 惰性创建默认 Logger
//
// 在持锁状态下执行 once.Do，避免与 ResetDefault 重置 globalOnce 发生竞争。
func defaultLogger() LoggerWithLevel {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalOnce.Do(func() {
		logger, _, err := New().SetName(DefaultName).Build()
		if err != nil {
			// 默认参数不应失败；失败时降级为只写 stderr 的最小 logger，不 panic
			fmt.Fprintf(os.Stderr, "xlog: failed to build default logger: %v, using fallback\n", err)
			logger = fallbackLogger()
		}
		globalLogger.Store(&logger)
	})
	return *globalLogger.Load()
}

func fallbackLogger() LoggerWithLevel {
	lv := new(slog.LevelVar)
	s := newState(DefaultName, lv)
	return &xlogger{handler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}), s: s}
}

// Default 返回全局默认 Logger
//
// 首次调用时创建：stderr、Info 级别、text 格式、启用组件追踪。
func Default() LoggerWithLevel {
	if l := globalLogger.Load(); l != nil {
		return *l
	}
	return defaultLogger()
}

// SetDefault 替换全局默认 Logger，nil 被忽略
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	globalLogger.Store(&l)
}

// ResetDefault 重置全局 Logger 为未初始化状态（仅用于测试）
func ResetDefault() {
	globalMu.Lock()
	globalLogger.Store(nil)
	globalOnce = sync.Once{}
	globalMu.Unlock()
}

// globalLog 全局函数比实例方法多一层调用，需要额外跳过 1 帧
func globalLog(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		xl.logWithSkip(ctx, level, msg, attrs, 1)
		return
	}
	l.Log(ctx, Level(level), msg, attrs...)
}

// Debug 使用全局 Logger 记录 Debug 级别日志
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelDebug, msg, attrs)
}

// Info 使用全局 Logger 记录 Info 级别日志
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelInfo, msg, attrs)
}

// Warning 使用全局 Logger 记录 Warning 级别日志
func Warning(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelWarn, msg, attrs)
}

// Error 使用全局 Logger 记录 Error 级别日志
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelError, msg, attrs)
}

// Critical 使用全局 Logger 记录 Critical 级别日志
func Critical(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.Level(LevelCritical), msg, attrs)
}

// Stack 使用全局 Logger 记录带堆栈的错误日志
func Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		// 与实例方法 Stack 的调用深度相同
		xl.stackWithSkip(ctx, msg, attrs, 0)
		return
	}
	l.Stack(ctx, msg, attrs...)
}
