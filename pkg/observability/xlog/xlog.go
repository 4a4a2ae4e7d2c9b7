// xlog.go 定义核心接口：Logger、Leveler、LoggerWithLevel
//
// 设计要点：
//   - 强制 context 传递
//   - 级别过滤是热路径上的第一步，被过滤的记录不产生任何分配
//   - Clone/With 得到的句柄共享同一份上下文、剖析配置、组件追踪器与输出
//   - Build() 返回 cleanup 函数，负责生成图表并关闭输出
package xlog

import (
	"context"
	"log/slog"

	"github.com/omeyang/telelog/pkg/observability/xchart"
	"github.com/omeyang/telelog/pkg/observability/xcomponent"
)

// Logger 日志接口
//
// 方法签名只接受 slog.Attr，字段按传入顺序输出。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warning(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)
	Critical(ctx context.Context, msg string, attrs ...slog.Attr)

	// Log 以任意级别记录日志
	Log(ctx context.Context, level Level, msg string, attrs ...slog.Attr)

	// Stack 记录带当前 goroutine 调用栈的 Error 日志
	Stack(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带额外属性的派生 Logger，与原 Logger 共享全部状态
	With(attrs ...slog.Attr) Logger

	// WithGroup 返回带分组的派生 Logger
	WithGroup(name string) Logger

	// Clone 返回共享全部状态的新句柄
	Clone() Logger

	// Name 返回 logger 名称
	Name() string

	ContextStore
	Profiler
	ComponentTracking
}

// ContextStore 全局共享的键值上下文，附加到之后的每条记录
type ContextStore interface {
	// AddContext 设置 key，覆盖已有值
	AddContext(key, value string)
	// RemoveContext 删除 key，不存在时无效果
	RemoveContext(key string)
	// ClearContext 清空所有 key
	ClearContext()
	// ScopedContext 设置 key 并返回作用域守卫，Release 时删除该 key
	// （前提是该 key 没有被之后的写入覆盖）
	ScopedContext(key, value string) *ContextGuard
	// ContextSnapshot 返回当前上下文的副本
	ContextSnapshot() map[string]string
}

// Profiler 操作耗时剖析
type Profiler interface {
	// Profile 开始剖析 op，返回的守卫 End 时记录一条 Info 日志
	Profile(ctx context.Context, op string) *ProfileGuard
}

// ComponentTracking 组件追踪与图表生成
type ComponentTracking interface {
	// TrackComponent 开始一个组件，父组件为当前调用链上最近的活跃组件
	TrackComponent(ctx context.Context, name string) *xcomponent.Guard
	// ComponentTracker 返回共享的追踪器
	ComponentTracker() *xcomponent.Tracker
	// GenerateVisualization 按配置生成 chartType 类型的图表文本；
	// path 非空时同时保存，渲染器不可用时保存为同名 .mmd 文件
	GenerateVisualization(ctx context.Context, chartType xchart.ChartType, path string) (string, error)
}

// Leveler 级别控制接口
type Leveler interface {
	// SetLevel 动态设置日志级别，对所有共享状态的句柄生效
	SetLevel(level Level)

	// GetLevel 获取当前日志级别
	GetLevel() Level

	// Enabled 检查指定级别是否启用
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 组合接口：Logger + Leveler
//
// Build() 返回此接口。
type LoggerWithLevel interface {
	Logger
	Leveler
}
