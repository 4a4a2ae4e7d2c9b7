package xcomponent

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Hook 组件生命周期通知
//
// 回调在锁外同步执行，可以安全地调用 Tracker 的查询方法；
// 回调应保持轻量，它运行在业务 goroutine 上。
type Hook interface {
	ComponentStarted(ctx context.Context, n Node)
	ComponentCompleted(ctx context.Context, n Node)
}

// Option Tracker 配置选项
type Option func(*Tracker)

// WithClock 替换时间源（用于测试）
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithHook 设置生命周期回调
func WithHook(h Hook) Option {
	return func(t *Tracker) {
		t.hook = h
	}
}

// WithEnabled 设置是否启用追踪；禁用时 Track 返回空操作 Guard，不分配节点
func WithEnabled(enabled bool) Option {
	return func(t *Tracker) {
		t.enabled = enabled
	}
}

// Tracker 组件追踪器
//
// 节点表全局共享、按插入顺序保存；每条调用链各有一个活跃栈。
// 零值不可用，使用 [NewTracker] 创建。
type Tracker struct {
	mu       sync.Mutex
	nodes    []Node
	index    map[uint64]int
	stacks   map[ChainID][]uint64
	children map[uint64]int // 父节点 ID（根为 0）→ 下一个子节点序号
	nextID   uint64

	now     func() time.Time
	hook    Hook
	enabled bool
}

// NewTracker 创建追踪器，默认启用
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		index:    make(map[uint64]int),
		stacks:   make(map[ChainID][]uint64),
		children: make(map[uint64]int),
		now:      time.Now,
		enabled:  true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Enabled 是否启用追踪
func (t *Tracker) Enabled() bool {
	return t != nil && t.enabled
}

// Track 在当前调用链上开始一个组件
//
// 父节点为调用链活跃栈的栈顶（栈空则为根）。返回的 Guard 必须释放，
// 推荐紧跟 defer g.Release()。
func (t *Tracker) Track(ctx context.Context, name string) *Guard {
	if !t.Enabled() {
		return &Guard{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	chain := currentChain(ctx)

	t.mu.Lock()
	t.nextID++
	id := t.nextID
	stack := t.stacks[chain]
	var parent uint64
	if len(stack) > 0 {
		parent = stack[len(stack)-1]
	}
	seq := t.children[parent]
	t.children[parent] = seq + 1
	n := Node{
		ID:       id,
		Name:     name,
		ParentID: parent,
		Start:    t.now(),
		Chain:    chain,
		Seq:      seq,
	}
	t.index[id] = len(t.nodes)
	t.nodes = append(t.nodes, n)
	t.stacks[chain] = append(stack, id)
	t.mu.Unlock()

	if t.hook != nil {
		t.hook.ComponentStarted(ctx, n)
	}
	return &Guard{t: t, id: id, chain: chain, ctx: ctx}
}

// Run 在组件范围内执行 fn，无论 fn 返回错误还是 panic 都会结束组件
func (t *Tracker) Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	g := t.Track(ctx, name)
	defer g.Release()
	return fn(ctx)
}

// complete 弹出活跃栈并结束节点
func (t *Tracker) complete(id uint64, chain ChainID) (Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stack := t.stacks[chain]
	if n := len(stack); n > 0 && stack[n-1] == id {
		stack = stack[:n-1]
	} else {
		// 乱序释放：从栈中移除该节点，避免已结束节点继续充当父节点
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i] == id {
				stack = append(stack[:i], stack[i+1:]...)
				break
			}
		}
	}
	if len(stack) == 0 {
		delete(t.stacks, chain)
	} else {
		t.stacks[chain] = stack
	}

	i, ok := t.index[id]
	if !ok {
		// Reset 之后释放的旧 Guard
		return Node{}, false
	}
	if t.nodes[i].End.IsZero() {
		end := t.now()
		if end.Before(t.nodes[i].Start) {
			end = t.nodes[i].Start
		}
		t.nodes[i].End = end
	}
	return t.nodes[i], true
}

// annotate 以写时复制方式更新节点元数据，已发布的快照不受影响
func (t *Tracker) annotate(id uint64, key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.index[id]
	if !ok {
		return
	}
	md := make(map[string]string, len(t.nodes[i].Metadata)+1)
	maps.Copy(md, t.nodes[i].Metadata)
	md[key] = value
	t.nodes[i].Metadata = md
}

// Components 返回按创建顺序排列的节点快照
//
// 可在其他组件仍活跃时调用，活跃节点的 End 为零值。
func (t *Tracker) Components() []Node {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Node 按 ID 查询节点快照
func (t *Tracker) Node(id uint64) (Node, bool) {
	if t == nil {
		return Node{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.index[id]
	if !ok {
		return Node{}, false
	}
	return t.nodes[i], true
}

// Len 返回节点总数
func (t *Tracker) Len() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes)
}

// ActiveCount 返回仍在运行的节点数
func (t *Tracker) ActiveCount() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var n int
	for i := range t.nodes {
		if t.nodes[i].End.IsZero() {
			n++
		}
	}
	return n
}

// Reset 清空节点表和所有活跃栈
//
// ID 不会复用。Reset 之前创建的 Guard 仍可安全释放，但不再产生任何效果。
func (t *Tracker) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.nodes = nil
	t.index = make(map[uint64]int)
	t.stacks = make(map[ChainID][]uint64)
	t.children = make(map[uint64]int)
	t.mu.Unlock()
}

// Guard 组件作用域
//
// Release 幂等，nil Guard 和禁用追踪时得到的 Guard 上的所有方法都是空操作。
type Guard struct {
	t        *Tracker
	id       uint64
	chain    ChainID
	ctx      context.Context
	released atomic.Bool
}

// ID 返回节点 ID，空操作 Guard 返回 0
func (g *Guard) ID() uint64 {
	if g == nil {
		return 0
	}
	return g.id
}

// Annotate 为节点附加元数据，可在 Release 前后调用
func (g *Guard) Annotate(key, value string) {
	if g == nil || g.t == nil {
		return
	}
	g.t.annotate(g.id, key, value)
}

// Release 结束组件：弹出活跃栈并记录结束时间
func (g *Guard) Release() {
	if g == nil || g.t == nil || !g.released.CompareAndSwap(false, true) {
		return
	}
	n, ok := g.t.complete(g.id, g.chain)
	if ok && g.t.hook != nil {
		g.t.hook.ComponentCompleted(g.ctx, n)
	}
}
