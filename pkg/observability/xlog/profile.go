package xlog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/omeyang/telelog/pkg/observability/xmetrics"
)

// MsgProfileCompleted 剖析结束时记录的日志消息
const MsgProfileCompleted = "profile completed"

// ProfileGuard 一次操作耗时剖析
//
// End 和 Consume 只有第一次调用生效，之后 Elapsed 固定为结束时的耗时。
type ProfileGuard struct {
	l     *xlogger
	ctx   context.Context
	op    string
	start time.Time

	mu      sync.Mutex
	done    bool
	elapsed time.Duration
}

// Profile 开始剖析
//
//	p := logger.Profile(ctx, "db_query")
//	defer p.End()
func (l *xlogger) Profile(ctx context.Context, op string) *ProfileGuard {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ProfileGuard{l: l, ctx: ctx, op: op, start: time.Now()}
}

// Operation 返回操作名
func (g *ProfileGuard) Operation() string {
	if g == nil {
		return ""
	}
	return g.op
}

// Elapsed 返回已耗时，不结束剖析；基于单调时钟，连续调用结果不会减小
func (g *ProfileGuard) Elapsed() time.Duration {
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return g.elapsed
	}
	return time.Since(g.start)
}

// finish 只有第一次调用返回 true
func (g *ProfileGuard) finish() (time.Duration, bool) {
	if g == nil {
		return 0, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return g.elapsed, false
	}
	g.done = true
	g.elapsed = time.Since(g.start)
	return g.elapsed, true
}

// End 结束剖析并返回耗时
//
// 第一次调用时记录一条 Info 日志（operation、elapsed_ms），
// 并把耗时连同当前上下文转发给配置的 Observer。剖析日志关闭时只转发不记录。
func (g *ProfileGuard) End() time.Duration {
	d, first := g.finish()
	if !first {
		return d
	}
	s := g.l.s
	if s.observer != nil {
		s.observer.ProfileCompleted(g.ctx, xmetrics.Profile{
			Logger:    s.name,
			Operation: g.op,
			Elapsed:   d,
			Attrs:     profileAttrs(s.context.load()),
		})
	}
	if s.profiling {
		g.l.logWithSkip(g.ctx, slog.LevelInfo, MsgProfileCompleted,
			[]slog.Attr{Operation(g.op), ElapsedMS(d)}, 0)
	}
	return d
}

// Consume 结束剖析并返回耗时，不记录日志也不转发
func (g *ProfileGuard) Consume() time.Duration {
	d, _ := g.finish()
	return d
}

// profileAttrs 把上下文快照转为指标属性，按 key 排序
func profileAttrs(snap *contextSnapshot) []xmetrics.Attr {
	if len(snap.entries) == 0 {
		return nil
	}
	group := snap.attr.Value.Group()
	attrs := make([]xmetrics.Attr, len(group))
	for i, a := range group {
		attrs[i] = xmetrics.String(a.Key, a.Value.String())
	}
	return attrs
}
