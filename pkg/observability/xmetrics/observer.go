package xmetrics

import (
	"context"
	"time"

	"github.com/omeyang/telelog/pkg/observability/xcomponent"
)

// Profile 一次已结束的性能剖析
type Profile struct {
	// Logger 发起剖析的 logger 名称
	Logger string
	// Operation 剖析的操作名
	Operation string
	// Elapsed 耗时
	Elapsed time.Duration
	// Attrs 附加属性，xlog 填入剖析结束时的上下文（按 key 排序）
	Attrs []Attr
}

// Observer 接收剖析与组件事件
//
// 实现必须并发安全；回调运行在业务 goroutine 上，应避免阻塞。
type Observer interface {
	xcomponent.Hook
	ProfileCompleted(ctx context.Context, p Profile)
}

// NoopObserver 是空实现。
type NoopObserver struct{}

// ComponentStarted 空实现
func (NoopObserver) ComponentStarted(context.Context, xcomponent.Node) {}

// ComponentCompleted 空实现
func (NoopObserver) ComponentCompleted(context.Context, xcomponent.Node) {}

// ProfileCompleted 空实现
func (NoopObserver) ProfileCompleted(context.Context, Profile) {}

// Multi 把事件依次分发给多个 Observer，nil 被忽略
//
// 没有有效 Observer 时返回 NoopObserver，只有一个时直接返回它。
func Multi(observers ...Observer) Observer {
	list := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	switch len(list) {
	case 0:
		return NoopObserver{}
	case 1:
		return list[0]
	default:
		return list
	}
}

type multiObserver []Observer

func (m multiObserver) ComponentStarted(ctx context.Context, n xcomponent.Node) {
	for _, o := range m {
		o.ComponentStarted(ctx, n)
	}
}

func (m multiObserver) ComponentCompleted(ctx context.Context, n xcomponent.Node) {
	for _, o := range m {
		o.ComponentCompleted(ctx, n)
	}
}

func (m multiObserver) ProfileCompleted(ctx context.Context, p Profile) {
	for _, o := range m {
		o.ProfileCompleted(ctx, p)
	}
}
