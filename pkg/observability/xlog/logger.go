package xlog

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/telelog/pkg/observability/xchart"
	"github.com/omeyang/telelog/pkg/observability/xcomponent"
	"github.com/omeyang/telelog/pkg/observability/xmetrics"
)

// 编译时接口检查
var (
	_ Logger          = (*xlogger)(nil)
	_ Leveler         = (*xlogger)(nil)
	_ LoggerWithLevel = (*xlogger)(nil)
)

// stackPool 堆栈缓冲区池，避免每次 Stack 调用都分配内存
var stackPool = sync.Pool{
	New: func() any {
		buf := make([]byte, initialStackSize)
		return &buf
	},
}

const (
	// initialStackSize 初始堆栈缓冲区大小
	initialStackSize = 4096
	// maxStackSize 最大堆栈缓冲区大小（64KB）
	maxStackSize = 64 * 1024
)

// state 所有句柄共享的状态
type state struct {
	name     string
	session  string
	levelVar *slog.LevelVar
	context  *contextStore
	tracker  *xcomponent.Tracker
	observer xmetrics.Observer

	profiling bool
	addSource bool
	chart     xchart.Config
	renderer  xchart.Renderer

	onError        func(error)
	errorCount     atomic.Uint64
	inErrorHandler atomic.Bool // 防止 onError 递归调用
}

// enabled 热路径级别检查：一次原子读取
func (s *state) enabled(level slog.Level) bool {
	return level >= s.levelVar.Level()
}

// xlogger Logger 接口的实现
type xlogger struct {
	handler slog.Handler
	s       *state
}

// logWithSkip 通用日志方法，支持额外的栈帧跳过
// extraSkip: 额外需要跳过的栈帧数（用于全局函数等间接调用场景）
//
//go:noinline
func (l *xlogger) logWithSkip(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr, extraSkip int) {
	if !l.s.enabled(level) {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var pc uintptr
	if l.s.addSource {
		var pcs [1]uintptr
		// 基础 skip=3: Callers(0) → logWithSkip(1) → 直接调用方(2) → 跳到(3)
		runtime.Callers(3+extraSkip, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	if snap := l.s.context.load(); len(snap.entries) > 0 {
		r.AddAttrs(snap.attr)
	}
	l.handle(ctx, r)
}

func (l *xlogger) handle(ctx context.Context, r slog.Record) {
	if err := l.handler.Handle(ctx, r); err != nil {
		l.handleError(err)
	}
}

// log 实例方法入口，extraSkip=1 跳过 log 自身这一帧
//
//go:noinline
func (l *xlogger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l.logWithSkip(ctx, level, msg, attrs, 1)
}

// handleError 处理内部错误（输出失败）
//
// 错误从不返回给日志调用方。errorCount 计入所有错误；onError 回调有递归保护和 panic 隔离，
// 并发期间部分错误会跳过回调。
func (l *xlogger) handleError(err error) {
	l.s.errorCount.Add(1)
	if l.s.onError == nil {
		return
	}
	if l.s.inErrorHandler.CompareAndSwap(false, true) {
		defer l.s.inErrorHandler.Store(false)
		l.safeOnError(err)
	}
}

// safeOnError 回调 panic 被捕获并计入错误计数
func (l *xlogger) safeOnError(err error) {
	defer func() {
		if r := recover(); r != nil {
			l.s.errorCount.Add(1)
		}
	}()
	l.s.onError(err)
}

// Debug 记录 Debug 级别日志
func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs)
}

// Info 记录 Info 级别日志
func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs)
}

// Warning 记录 Warning 级别日志
func (l *xlogger) Warning(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs)
}

// Error 记录 Error 级别日志
func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs)
}

// Critical 记录 Critical 级别日志
func (l *xlogger) Critical(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.Level(LevelCritical), msg, attrs)
}

// Log 以任意级别记录日志
func (l *xlogger) Log(ctx context.Context, level Level, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.Level(level), msg, attrs)
}

// Stack 记录带完整堆栈的错误日志
//
//go:noinline
func (l *xlogger) Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.stackWithSkip(ctx, msg, attrs, 0)
}

//go:noinline
func (l *xlogger) stackWithSkip(ctx context.Context, msg string, attrs []slog.Attr, extraSkip int) {
	if !l.s.enabled(slog.LevelError) {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	bufp, ok := stackPool.Get().(*[]byte)
	if !ok {
		buf := make([]byte, initialStackSize)
		bufp = &buf
	}
	buf := *bufp
	n := runtime.Stack(buf, false)
	for n == len(buf) && len(buf) < maxStackSize {
		buf = make([]byte, min(len(buf)*2, maxStackSize))
		n = runtime.Stack(buf, false)
	}
	// 必须在 Put 之前拷贝：未扩容时 buf 与池中缓冲区共享底层数组
	stackAttr := slog.String(KeyStack, string(buf[:n]))
	stackPool.Put(bufp)

	var pc uintptr
	if l.s.addSource {
		var pcs [1]uintptr
		runtime.Callers(3+extraSkip, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), slog.LevelError, msg, pc)
	r.AddAttrs(attrs...)
	r.AddAttrs(stackAttr)
	if snap := l.s.context.load(); len(snap.entries) > 0 {
		r.AddAttrs(snap.attr)
	}
	l.handle(ctx, r)
}

// With 返回带额外属性的派生 Logger
func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return &xlogger{handler: l.handler.WithAttrs(attrs), s: l.s}
}

// WithGroup 返回带分组的派生 Logger
//
// 上下文分组 "context" 也会落在该分组之下。
func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return &xlogger{handler: l.handler.WithGroup(name), s: l.s}
}

// Clone 返回共享全部状态的新句柄
func (l *xlogger) Clone() Logger {
	return &xlogger{handler: l.handler, s: l.s}
}

// Name 返回 logger 名称
func (l *xlogger) Name() string {
	return l.s.name
}

// SetLevel 动态设置日志级别
func (l *xlogger) SetLevel(level Level) {
	l.s.levelVar.Set(slog.Level(level))
}

// GetLevel 获取当前日志级别
func (l *xlogger) GetLevel() Level {
	return Level(l.s.levelVar.Level())
}

// Enabled 检查指定级别是否启用
func (l *xlogger) Enabled(_ context.Context, level Level) bool {
	return l.s.enabled(slog.Level(level))
}

// ErrorCount 返回 logger 内部错误（输出失败、onError panic）的累计次数
func ErrorCount(l Logger) uint64 {
	xl, ok := l.(*xlogger)
	if !ok {
		return 0
	}
	return xl.s.errorCount.Load()
}

// SessionID 返回 logger 的会话 ID，自动生成的图表文件名中包含它
func SessionID(l Logger) string {
	xl, ok := l.(*xlogger)
	if !ok {
		return ""
	}
	return xl.s.session
}

// =============================================================================
// fanout：一条记录写到所有输出
// =============================================================================

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle 依次写入每个输出，某个输出失败不影响其他输出
func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for i, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		rec := r
		if i < len(f)-1 {
			rec = r.Clone()
		}
		if err := h.Handle(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
