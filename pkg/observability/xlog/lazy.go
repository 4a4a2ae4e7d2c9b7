package xlog

import (
	"log/slog"
	"time"
)

// =============================================================================
// 延迟求值
//
// Lazy* 返回的属性实现 slog.LogValuer，只有记录通过级别过滤、被 handler
// 格式化时才调用 fn。接口装箱的一次分配仍然存在，简单值直接用 slog.String 等。
// =============================================================================

type lazyValue func() any

func (f lazyValue) LogValue() slog.Value {
	return slog.AnyValue(f())
}

// Lazy 返回延迟求值的任意类型属性
//
//	logger.Debug(ctx, "tracker state",
//	    xlog.Lazy("nodes", func() any { return tracker.Components() }))
func Lazy(key string, fn func() any) slog.Attr {
	if fn == nil {
		return slog.Any(key, nil)
	}
	return slog.Any(key, lazyValue(fn))
}

type lazyString func() string

func (f lazyString) LogValue() slog.Value {
	return slog.StringValue(f())
}

// LazyString 返回延迟求值的字符串属性
func LazyString(key string, fn func() string) slog.Attr {
	if fn == nil {
		return slog.String(key, "")
	}
	return slog.Any(key, lazyString(fn))
}

type lazyInt func() int64

func (f lazyInt) LogValue() slog.Value {
	return slog.Int64Value(f())
}

// LazyInt 返回延迟求值的整数属性
func LazyInt(key string, fn func() int64) slog.Attr {
	if fn == nil {
		return slog.Int64(key, 0)
	}
	return slog.Any(key, lazyInt(fn))
}

type lazyDuration func() time.Duration

func (f lazyDuration) LogValue() slog.Value {
	return slog.Float64Value(float64(f()) / float64(time.Millisecond))
}

// LazyDuration 返回延迟求值的毫秒耗时属性（浮点数，与 ElapsedMS 一致）
//
//	logger.Debug(ctx, "slow path",
//	    xlog.LazyDuration(xlog.KeyElapsedMS, func() time.Duration { return time.Since(start) }))
func LazyDuration(key string, fn func() time.Duration) slog.Attr {
	if fn == nil {
		return slog.Float64(key, 0)
	}
	return slog.Any(key, lazyDuration(fn))
}

type lazyError func() error

func (f lazyError) LogValue() slog.Value {
	if err := f(); err != nil {
		return slog.StringValue(err.Error())
	}
	return slog.Value{}
}

// LazyErr 返回使用标准 key "error" 的延迟错误属性，fn 返回 nil 时输出空值
func LazyErr(fn func() error) slog.Attr {
	if fn == nil {
		return slog.Any(KeyError, nil)
	}
	return slog.Any(KeyError, lazyError(fn))
}
