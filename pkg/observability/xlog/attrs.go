package xlog

import (
	"log/slog"
	"time"
)

// 标准字段名
const (
	// KeyLogger logger 名称
	KeyLogger = "logger"
	// KeyContext 上下文分组
	KeyContext = "context"
	// KeyError 错误
	KeyError = "error"
	// KeyStack 调用栈
	KeyStack = "stack"
	// KeyDuration 人类可读的耗时
	KeyDuration = "duration"
	// KeyElapsedMS 以毫秒为单位的耗时（浮点数）
	KeyElapsedMS = "elapsed_ms"
	// KeyCount 计数
	KeyCount = "count"
	// KeyComponent 组件名称
	KeyComponent = "component"
	// KeyOperation 操作名称
	KeyOperation = "operation"
)

// Err 创建错误属性，err 为 nil 时返回空属性（会被 slog 忽略）
//
//	if err != nil {
//	    logger.Error(ctx, "operation failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建人类可读的耗时属性（如 "1.5s"）
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// ElapsedMS 创建毫秒耗时属性，便于机器解析
func ElapsedMS(d time.Duration) slog.Attr {
	return slog.Float64(KeyElapsedMS, float64(d)/float64(time.Millisecond))
}

// Component 创建组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 创建操作名属性
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Count 创建计数属性
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Fields 把成对的字符串转换为属性，保持顺序
//
//	logger.Info(ctx, "user login", xlog.Fields("user_id", "42", "method", "oauth")...)
//
// 落单的最后一个 key 以空字符串为值。
func Fields(kv ...string) []slog.Attr {
	attrs := make([]slog.Attr, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		v := ""
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		attrs = append(attrs, slog.String(kv[i], v))
	}
	return attrs
}
