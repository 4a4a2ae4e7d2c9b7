package xmetrics

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attr 附加到剖析事件上的属性，xlog 用它携带剖析结束时的上下文键值。
type Attr struct {
	Key   string
	Value string
}

// String 创建字符串属性。
func String(key, value string) Attr {
	return Attr{Key: key, Value: value}
}

// attrsToOTel 转换为 OTel 属性，跳过空 key
func attrsToOTel(attrs []Attr) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	converted := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Key == "" {
			continue
		}
		converted = append(converted, attribute.String(attr.Key, attr.Value))
	}
	return converted
}
