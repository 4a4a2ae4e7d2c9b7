package xlog

import (
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
)

type contextEntry struct {
	value string
	rev   uint64
}

// contextSnapshot 不可变快照，发布后不再修改
type contextSnapshot struct {
	entries map[string]contextEntry
	// attr 预先排好序的 "context" 分组，记录直接引用，无需每条日志重新构建
	attr slog.Attr
}

var emptySnapshot = &contextSnapshot{}

// contextStore 写时复制的上下文存储
//
// 写入串行化在 mu 上，每次写入发布一份新快照；日志热路径只做一次原子读取。
type contextStore struct {
	mu   sync.Mutex
	rev  uint64
	snap atomic.Pointer[contextSnapshot]
}

func newContextStore() *contextStore {
	s := &contextStore{}
	s.snap.Store(emptySnapshot)
	return s
}

func (s *contextStore) load() *contextSnapshot {
	return s.snap.Load()
}

// publish 在持锁状态下调用
func (s *contextStore) publish(entries map[string]contextEntry) {
	if len(entries) == 0 {
		s.snap.Store(emptySnapshot)
		return
	}
	keys := slices.Sorted(maps.Keys(entries))
	attrs := make([]slog.Attr, len(keys))
	for i, k := range keys {
		attrs[i] = slog.String(k, entries[k].value)
	}
	s.snap.Store(&contextSnapshot{
		entries: entries,
		attr:    slog.Attr{Key: KeyContext, Value: slog.GroupValue(attrs...)},
	})
}

// set 写入 key 并返回本次写入的修订号
func (s *contextStore) set(key, value string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rev++
	next := maps.Clone(s.load().entries)
	if next == nil {
		next = make(map[string]contextEntry, 1)
	}
	next[key] = contextEntry{value: value, rev: s.rev}
	s.publish(next)
	return s.rev
}

func (s *contextStore) remove(key string) {
	s.removeIf(key, 0)
}

// removeIf 删除 key；rev 非 0 时仅当 key 仍是该次写入的值才删除
func (s *contextStore) removeIf(key string, rev uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.load().entries
	e, ok := cur[key]
	if !ok || (rev != 0 && e.rev != rev) {
		return false
	}
	next := maps.Clone(cur)
	delete(next, key)
	s.publish(next)
	return true
}

func (s *contextStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish(nil)
}

func (s *contextStore) values() map[string]string {
	entries := s.load().entries
	out := make(map[string]string, len(entries))
	for k, e := range entries {
		out[k] = e.value
	}
	return out
}

// ContextGuard 作用域上下文守卫
//
// Release 删除守卫写入的 key，除非该 key 之后又被 AddContext 或另一个守卫改写，
// 此时 key 归后来的写入者所有，Release 不做任何事。守卫不会恢复旧值。
// Release 幂等，nil 守卫上调用安全。
type ContextGuard struct {
	store    *contextStore
	key      string
	rev      uint64
	released atomic.Bool
}

// Key 返回守卫管理的 key
func (g *ContextGuard) Key() string {
	if g == nil {
		return ""
	}
	return g.key
}

// Release 结束作用域
func (g *ContextGuard) Release() {
	if g == nil || g.store == nil || !g.released.CompareAndSwap(false, true) {
		return
	}
	g.store.removeIf(g.key, g.rev)
}

// AddContext 设置上下文键值，对所有共享状态的句柄可见
func (l *xlogger) AddContext(key, value string) {
	l.s.context.set(key, value)
}

// RemoveContext 删除上下文键
func (l *xlogger) RemoveContext(key string) {
	l.s.context.remove(key)
}

// ClearContext 清空上下文
func (l *xlogger) ClearContext() {
	l.s.context.clear()
}

// ScopedContext 设置键值并返回守卫
//
//	g := logger.ScopedContext("request_id", id)
//	defer g.Release()
func (l *xlogger) ScopedContext(key, value string) *ContextGuard {
	rev := l.s.context.set(key, value)
	return &ContextGuard{store: l.s.context, key: key, rev: rev}
}

// ContextSnapshot 返回当前上下文的副本
func (l *xlogger) ContextSnapshot() map[string]string {
	return l.s.context.values()
}
